package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/relai-app/relai-server/store"
)

func newTestService() *Service {
	return NewService(store.NewMemoryStore())
}

func TestCreateTask_Defaults(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	task, err := s.CreateTask(ctx, CreateTaskInput{
		Title:       "Design System Components",
		Description: "Building reusable UI components for the platform",
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if task.ID == "" {
		t.Error("expected generated id")
	}
	if task.Progress != 0 {
		t.Errorf("expected default progress 0, got %d", task.Progress)
	}
	if task.Status != store.TaskStatusActive {
		t.Errorf("expected default status %q, got %q", store.TaskStatusActive, task.Status)
	}
	if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestCreateTask_Validation(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateTaskInput
		field string
	}{
		{"missing title", CreateTaskInput{Description: "d"}, "title"},
		{"missing description", CreateTaskInput{Title: "t"}, "description"},
		{"unknown status", CreateTaskInput{Title: "t", Description: "d", Status: "paused"}, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateTask(ctx, tt.input)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestUpdateProgress_Clamping(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	task, err := s.CreateTask(ctx, CreateTaskInput{Title: "t", Description: "d"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	tests := []struct {
		progress int
		want     int
	}{
		{-5, 0},
		{0, 0},
		{42, 42},
		{100, 100},
		{150, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("progress=%d", tt.progress), func(t *testing.T) {
			updated, err := s.UpdateProgress(ctx, task.ID, tt.progress)
			if err != nil {
				t.Fatalf("UpdateProgress failed: %v", err)
			}
			if updated.Progress != tt.want {
				t.Errorf("expected progress %d, got %d", tt.want, updated.Progress)
			}
		})
	}
}

func TestUpdateProgress_UnknownTask(t *testing.T) {
	s := newTestService()

	_, err := s.UpdateProgress(context.Background(), "no-such-task", 50)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestComplete_Idempotent(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	task, err := s.CreateTask(ctx, CreateTaskInput{Title: "t", Description: "d"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		done, err := s.Complete(ctx, task.ID)
		if err != nil {
			t.Fatalf("Complete call %d failed: %v", i+1, err)
		}
		if done.Progress != 100 {
			t.Errorf("call %d: expected progress 100, got %d", i+1, done.Progress)
		}
		if done.Status != store.TaskStatusCompleted {
			t.Errorf("call %d: expected status completed, got %q", i+1, done.Status)
		}
	}
}

func TestRelay_MovesTaskBetweenWorkflows(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	alice := "alice"
	task, err := s.CreateTask(ctx, CreateTaskInput{
		Title:       "Draft report",
		Description: "Quarterly numbers",
		AssignedTo:  &alice,
	})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	wf, err := s.UserWorkflow(ctx, "alice")
	if err != nil {
		t.Fatalf("UserWorkflow failed: %v", err)
	}
	if wf.ActiveWork == nil || wf.ActiveWork.Title != "Draft report" {
		t.Fatalf("expected Draft report as alice's active work, got %+v", wf.ActiveWork)
	}

	relayed, err := s.Relay(ctx, task.ID, "alice", "bob")
	if err != nil {
		t.Fatalf("Relay failed: %v", err)
	}
	if relayed.AssignedTo == nil || *relayed.AssignedTo != "bob" {
		t.Errorf("expected assignedTo bob, got %v", relayed.AssignedTo)
	}
	if relayed.RelayedFrom == nil || *relayed.RelayedFrom != "alice" {
		t.Errorf("expected relayedFrom alice, got %v", relayed.RelayedFrom)
	}
	if relayed.RelayedAt == nil {
		t.Error("expected relayedAt to be stamped")
	}

	bobWF, err := s.UserWorkflow(ctx, "bob")
	if err != nil {
		t.Fatalf("UserWorkflow failed: %v", err)
	}
	if bobWF.ActiveWork == nil || bobWF.ActiveWork.ID != task.ID {
		t.Error("expected relayed task in bob's workflow")
	}

	aliceWF, err := s.UserWorkflow(ctx, "alice")
	if err != nil {
		t.Fatalf("UserWorkflow failed: %v", err)
	}
	if aliceWF.ActiveWork != nil {
		t.Errorf("expected no active work for alice, got %+v", aliceWF.ActiveWork)
	}
}

func TestUserWorkflow_IncomingNewestFirst(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	carol := "carol"
	var ids []string
	for i := 0; i < 3; i++ {
		task, err := s.CreateTask(ctx, CreateTaskInput{
			Title:       fmt.Sprintf("queued %d", i),
			Description: "d",
			Status:      store.TaskStatusWaiting,
			AssignedTo:  &carol,
		})
		if err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		ids = append(ids, task.ID)
	}

	wf, err := s.UserWorkflow(ctx, "carol")
	if err != nil {
		t.Fatalf("UserWorkflow failed: %v", err)
	}
	if len(wf.Incoming) != 3 {
		t.Fatalf("expected 3 incoming tasks, got %d", len(wf.Incoming))
	}
	for i, task := range wf.Incoming {
		wantID := ids[len(ids)-1-i]
		if task.ID != wantID {
			t.Errorf("incoming[%d]: expected %s, got %s", i, wantID, task.ID)
		}
	}
}

func TestUserWorkflow_RecentHandoffsCapped(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	dave := "dave"
	for i := 0; i < 7; i++ {
		task, err := s.CreateTask(ctx, CreateTaskInput{
			Title:       fmt.Sprintf("handed off %d", i),
			Description: "d",
			AssignedTo:  &dave,
		})
		if err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
		if _, err := s.Relay(ctx, task.ID, "dave", "erin"); err != nil {
			t.Fatalf("Relay failed: %v", err)
		}
		if _, err := s.Complete(ctx, task.ID); err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
	}

	wf, err := s.UserWorkflow(ctx, "dave")
	if err != nil {
		t.Fatalf("UserWorkflow failed: %v", err)
	}
	if len(wf.RecentHandoffs) != 5 {
		t.Errorf("expected recentHandoffs capped at 5, got %d", len(wf.RecentHandoffs))
	}
	// most recently completed comes first
	if wf.RecentHandoffs[0].Title != "handed off 6" {
		t.Errorf("expected newest handoff first, got %q", wf.RecentHandoffs[0].Title)
	}
}

func TestCreateUser_Defaults(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, CreateUserInput{Name: "alice"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == "" {
		t.Error("expected generated id")
	}
	if user.Status != store.UserStatusIdle {
		t.Errorf("expected default status idle, got %q", user.Status)
	}
	if user.Avatar == "" {
		t.Error("expected default avatar")
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	found := false
	for _, u := range users {
		if u.ID == user.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected created user in ListUsers result")
	}
}

func TestSetUserStatus(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	user, err := s.CreateUser(ctx, CreateUserInput{Name: "frank"})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	updated, err := s.SetUserStatus(ctx, user.ID, store.UserStatusWorking)
	if err != nil {
		t.Fatalf("SetUserStatus failed: %v", err)
	}
	if updated.Status != store.UserStatusWorking {
		t.Errorf("expected status working, got %q", updated.Status)
	}

	if _, err := s.SetUserStatus(ctx, user.ID, "away"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestStats(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, CreateUserInput{Name: "alice"}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	statuses := []string{
		store.TaskStatusActive,
		store.TaskStatusActive,
		store.TaskStatusWaiting,
		store.TaskStatusCompleted,
	}
	for i, status := range statuses {
		if _, err := s.CreateTask(ctx, CreateTaskInput{
			Title:       fmt.Sprintf("task %d", i),
			Description: "d",
			Status:      status,
		}); err != nil {
			t.Fatalf("CreateTask failed: %v", err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.ActiveTasks != 2 || stats.WaitingTasks != 1 || stats.CompletedTasks != 1 {
		t.Errorf("unexpected status counts: %+v", stats)
	}
	if stats.TotalTasks != 4 {
		t.Errorf("expected 4 total tasks, got %d", stats.TotalTasks)
	}
	if stats.TotalUsers != 1 {
		t.Errorf("expected 1 user, got %d", stats.TotalUsers)
	}
}
