// Package workflow implements the task-handoff domain logic: task and user
// lifecycle operations plus the per-user workflow projection, on top of an
// injected store.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/relai-app/relai-server/log"
	"github.com/relai-app/relai-server/store"
)

// recentHandoffLimit caps the recentHandoffs list in the workflow projection
const recentHandoffLimit = 5

// ValidationError reports invalid caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Service exposes task, user and workflow operations over a Store
type Service struct {
	store store.Store
}

// NewService returns a Service backed by the given store
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// CreateTaskInput holds the fields accepted when creating a task
type CreateTaskInput struct {
	Title            string
	Description      string
	Progress         int
	Status           string
	AssignedTo       *string
	RelayedFrom      *string
	EstimatedHandoff *string
}

// CreateUserInput holds the fields accepted when creating a user
type CreateUserInput struct {
	Name   string
	Avatar string
	Status string
}

// clampProgress bounds progress to [0, 100]
func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// CreateTask creates a task with defaults applied: progress 0 and status
// active unless the caller says otherwise.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (store.Task, error) {
	if in.Title == "" {
		return store.Task{}, &ValidationError{Field: "title", Message: "title is required"}
	}
	if in.Description == "" {
		return store.Task{}, &ValidationError{Field: "description", Message: "description is required"}
	}

	status := in.Status
	if status == "" {
		status = store.TaskStatusActive
	}
	if !store.ValidTaskStatus(status) {
		return store.Task{}, &ValidationError{Field: "status", Message: "unknown task status: " + status}
	}

	task, err := s.store.CreateTask(ctx, store.Task{
		Title:            in.Title,
		Description:      in.Description,
		Progress:         clampProgress(in.Progress),
		Status:           status,
		AssignedTo:       in.AssignedTo,
		RelayedFrom:      in.RelayedFrom,
		EstimatedHandoff: in.EstimatedHandoff,
	})
	if err != nil {
		return store.Task{}, err
	}

	log.Info().Str("taskId", task.ID).Str("title", task.Title).Msg("task created")
	return task, nil
}

// ListTasks returns all tasks, newest first
func (s *Service) ListTasks(ctx context.Context) ([]store.Task, error) {
	return s.store.ListTasks(ctx)
}

// GetTask returns a single task by id
func (s *Service) GetTask(ctx context.Context, id string) (store.Task, error) {
	return s.store.GetTask(ctx, id)
}

// TasksForUser returns all tasks assigned to a user, newest first
func (s *Service) TasksForUser(ctx context.Context, userID string) ([]store.Task, error) {
	return s.store.TasksByAssignee(ctx, userID)
}

// UpdateTask applies a partial update. Progress is clamped and status
// validated when present.
func (s *Service) UpdateTask(ctx context.Context, id string, patch store.TaskPatch) (store.Task, error) {
	if patch.IsEmpty() {
		return store.Task{}, &ValidationError{Field: "body", Message: "no valid fields to update"}
	}
	if patch.Progress != nil {
		clamped := clampProgress(*patch.Progress)
		patch.Progress = &clamped
	}
	if patch.Status != nil && !store.ValidTaskStatus(*patch.Status) {
		return store.Task{}, &ValidationError{Field: "status", Message: "unknown task status: " + *patch.Status}
	}
	return s.store.UpdateTask(ctx, id, patch)
}

// DeleteTask removes a task permanently
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	log.Info().Str("taskId", id).Msg("task deleted")
	return nil
}

// Assign sets the task's assignee
func (s *Service) Assign(ctx context.Context, id, userID string) (store.Task, error) {
	if userID == "" {
		return store.Task{}, &ValidationError{Field: "assignedTo", Message: "assignedTo is required"}
	}
	return s.store.UpdateTask(ctx, id, store.TaskPatch{AssignedTo: &userID})
}

// UpdateProgress sets the task's progress, clamped to [0, 100]
func (s *Service) UpdateProgress(ctx context.Context, id string, progress int) (store.Task, error) {
	clamped := clampProgress(progress)
	return s.store.UpdateTask(ctx, id, store.TaskPatch{Progress: &clamped})
}

// Relay hands a task from one user to another: assignedTo becomes the
// receiver, relayedFrom records the previous holder (single last hop only)
// and relayedAt is stamped. There is no ownership check; any caller may
// relay any task.
func (s *Service) Relay(ctx context.Context, id, fromUser, toUser string) (store.Task, error) {
	if fromUser == "" {
		return store.Task{}, &ValidationError{Field: "from_user", Message: "from_user is required"}
	}
	if toUser == "" {
		return store.Task{}, &ValidationError{Field: "to_user", Message: "to_user is required"}
	}

	now := time.Now().UTC()
	task, err := s.store.UpdateTask(ctx, id, store.TaskPatch{
		AssignedTo:  &toUser,
		RelayedFrom: &fromUser,
		RelayedAt:   &now,
	})
	if err != nil {
		return store.Task{}, err
	}

	log.Info().
		Str("taskId", id).
		Str("from", fromUser).
		Str("to", toUser).
		Msg("task relayed")
	return task, nil
}

// Complete marks a task finished: progress 100, status completed. Calling it
// on an already completed task succeeds and returns the same terminal state.
func (s *Service) Complete(ctx context.Context, id string) (store.Task, error) {
	progress := 100
	status := store.TaskStatusCompleted
	return s.store.UpdateTask(ctx, id, store.TaskPatch{
		Progress: &progress,
		Status:   &status,
	})
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// CreateUser creates a user, defaulting status to idle and filling in the
// stock avatar when none is given.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (store.User, error) {
	if in.Name == "" {
		return store.User{}, &ValidationError{Field: "name", Message: "name is required"}
	}

	status := in.Status
	if status == "" {
		status = store.UserStatusIdle
	}
	if !store.ValidUserStatus(status) {
		return store.User{}, &ValidationError{Field: "status", Message: "unknown user status: " + status}
	}

	avatar := in.Avatar
	if avatar == "" {
		avatar = store.DefaultAvatar
	}

	user, err := s.store.CreateUser(ctx, store.User{
		Name:   in.Name,
		Avatar: avatar,
		Status: status,
	})
	if err != nil {
		return store.User{}, err
	}

	log.Info().Str("userId", user.ID).Str("name", user.Name).Msg("user created")
	return user, nil
}

// ListUsers returns all users sorted by name
func (s *Service) ListUsers(ctx context.Context) ([]store.User, error) {
	return s.store.ListUsers(ctx)
}

// GetUser returns a single user by id
func (s *Service) GetUser(ctx context.Context, id string) (store.User, error) {
	return s.store.GetUser(ctx, id)
}

// GetUserByName returns a single user by exact name
func (s *Service) GetUserByName(ctx context.Context, name string) (store.User, error) {
	return s.store.GetUserByName(ctx, name)
}

// UpdateUser applies a partial update with status validation
func (s *Service) UpdateUser(ctx context.Context, id string, patch store.UserPatch) (store.User, error) {
	if patch.IsEmpty() {
		return store.User{}, &ValidationError{Field: "body", Message: "no valid fields to update"}
	}
	if patch.Status != nil && !store.ValidUserStatus(*patch.Status) {
		return store.User{}, &ValidationError{Field: "status", Message: "unknown user status: " + *patch.Status}
	}
	return s.store.UpdateUser(ctx, id, patch)
}

// SetUserStatus updates only the user's status
func (s *Service) SetUserStatus(ctx context.Context, id, status string) (store.User, error) {
	if !store.ValidUserStatus(status) {
		return store.User{}, &ValidationError{Field: "status", Message: "unknown user status: " + status}
	}
	return s.store.UpdateUser(ctx, id, store.UserPatch{Status: &status})
}

// DeleteUser removes a user. Assigned tasks are left in place; the
// projection for a deleted user simply goes empty.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}

// ---------------------------------------------------------------------------
// Workflow projection
// ---------------------------------------------------------------------------

// UserWorkflow assembles the per-user view from three independent queries.
// No caching; recomputed on every call.
func (s *Service) UserWorkflow(ctx context.Context, userID string) (store.WorkflowData, error) {
	active, err := s.store.ActiveTask(ctx, userID)
	if err != nil {
		return store.WorkflowData{}, err
	}

	incoming, err := s.store.WaitingTasks(ctx, userID)
	if err != nil {
		return store.WorkflowData{}, err
	}

	handoffs, err := s.store.RecentHandoffs(ctx, userID, recentHandoffLimit)
	if err != nil {
		return store.WorkflowData{}, err
	}

	return store.WorkflowData{
		ActiveWork:     active,
		Incoming:       incoming,
		RecentHandoffs: handoffs,
	}, nil
}

// AllWorkflows returns the projection for every user, keyed by user id
func (s *Service) AllWorkflows(ctx context.Context) (map[string]store.WorkflowData, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	workflows := make(map[string]store.WorkflowData, len(users))
	for _, u := range users {
		wf, err := s.UserWorkflow(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		workflows[u.ID] = wf
	}
	return workflows, nil
}

// Stats returns task counts by status plus the user count
func (s *Service) Stats(ctx context.Context) (store.WorkflowStats, error) {
	var stats store.WorkflowStats
	var err error

	if stats.ActiveTasks, err = s.store.CountTasksByStatus(ctx, store.TaskStatusActive); err != nil {
		return store.WorkflowStats{}, err
	}
	if stats.WaitingTasks, err = s.store.CountTasksByStatus(ctx, store.TaskStatusWaiting); err != nil {
		return store.WorkflowStats{}, err
	}
	if stats.CompletedTasks, err = s.store.CountTasksByStatus(ctx, store.TaskStatusCompleted); err != nil {
		return store.WorkflowStats{}, err
	}
	stats.TotalTasks = stats.ActiveTasks + stats.WaitingTasks + stats.CompletedTasks

	if stats.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return store.WorkflowStats{}, err
	}
	return stats, nil
}
