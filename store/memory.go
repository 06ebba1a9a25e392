package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used when no MongoDB connection is
// configured, and as the test double for the service layer. It replaces the
// scattered mock-data globals of earlier versions: same interface, one
// implementation, injected at the composition root.
type MemoryStore struct {
	mu sync.RWMutex

	users map[string]User
	tasks map[string]Task

	// insertion and update counters break timestamp ties so list
	// ordering stays deterministic within a single clock tick
	seq       int64
	taskSeq   map[string]int64
	taskTouch map[string]int64
}

// NewMemoryStore returns an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]User),
		tasks:     make(map[string]Task),
		taskSeq:   make(map[string]int64),
		taskTouch: make(map[string]int64),
	}
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) nextSeq() int64 {
	s.seq++
	return s.seq
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (s *MemoryStore) CreateUser(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	u.ID = uuid.New().String()
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByName(ctx context.Context, name string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Name == name {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}

	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return u, nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

func (s *MemoryStore) CreateTask(ctx context.Context, t Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t.ID = uuid.New().String()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks[t.ID] = t

	seq := s.nextSeq()
	s.taskSeq[t.ID] = seq
	s.taskTouch[t.ID] = seq
	return t, nil
}

func (s *MemoryStore) ListTasks(ctx context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(Task) bool { return true }, s.byCreatedDesc), nil
}

func (s *MemoryStore) GetTask(ctx context.Context, id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) TasksByAssignee(ctx context.Context, userID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(t Task) bool {
		return t.AssignedTo != nil && *t.AssignedTo == userID
	}, s.byCreatedDesc), nil
}

func (s *MemoryStore) UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Progress != nil {
		t.Progress = *patch.Progress
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.AssignedTo != nil {
		t.AssignedTo = patch.AssignedTo
	}
	if patch.RelayedFrom != nil {
		t.RelayedFrom = patch.RelayedFrom
	}
	if patch.EstimatedHandoff != nil {
		t.EstimatedHandoff = patch.EstimatedHandoff
	}
	if patch.RelayedAt != nil {
		t.RelayedAt = patch.RelayedAt
	}
	t.UpdatedAt = time.Now().UTC()
	s.tasks[id] = t
	s.taskTouch[id] = s.nextSeq()
	return t, nil
}

func (s *MemoryStore) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	delete(s.taskSeq, id)
	delete(s.taskTouch, id)
	return nil
}

// ---------------------------------------------------------------------------
// Workflow projection queries
// ---------------------------------------------------------------------------

func (s *MemoryStore) ActiveTask(ctx context.Context, userID string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// first active task in insertion order, matching Mongo's find_one
	active := s.collect(func(t Task) bool {
		return t.Status == TaskStatusActive && t.AssignedTo != nil && *t.AssignedTo == userID
	}, s.byCreatedAsc)
	if len(active) == 0 {
		return nil, nil
	}
	return &active[0], nil
}

func (s *MemoryStore) WaitingTasks(ctx context.Context, userID string) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(t Task) bool {
		return t.Status == TaskStatusWaiting && t.AssignedTo != nil && *t.AssignedTo == userID
	}, s.byCreatedDesc), nil
}

func (s *MemoryStore) RecentHandoffs(ctx context.Context, userID string, limit int) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	handoffs := s.collect(func(t Task) bool {
		return t.Status == TaskStatusCompleted && t.RelayedFrom != nil && *t.RelayedFrom == userID
	}, s.byUpdatedDesc)
	if limit > 0 && len(handoffs) > limit {
		handoffs = handoffs[:limit]
	}
	return handoffs, nil
}

func (s *MemoryStore) CountTasksByStatus(ctx context.Context, status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, t := range s.tasks {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

// ---------------------------------------------------------------------------
// Internal helpers (callers hold the lock)
// ---------------------------------------------------------------------------

func (s *MemoryStore) collect(keep func(Task) bool, less func(a, b Task) bool) []Task {
	tasks := make([]Task, 0)
	for _, t := range s.tasks {
		if keep(t) {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
	return tasks
}

func (s *MemoryStore) byCreatedAsc(a, b Task) bool {
	return s.taskSeq[a.ID] < s.taskSeq[b.ID]
}

func (s *MemoryStore) byCreatedDesc(a, b Task) bool {
	return s.taskSeq[a.ID] > s.taskSeq[b.ID]
}

func (s *MemoryStore) byUpdatedDesc(a, b Task) bool {
	return s.taskTouch[a.ID] > s.taskTouch[b.ID]
}
