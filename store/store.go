package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a user or task does not exist
var ErrNotFound = errors.New("not found")

// UserPatch holds the fields of a user update. Nil fields are left untouched.
type UserPatch struct {
	Name   *string
	Avatar *string
	Status *string
}

// TaskPatch holds the fields of a task update. Nil fields are left untouched.
type TaskPatch struct {
	Title            *string
	Description      *string
	Progress         *int
	Status           *string
	AssignedTo       *string
	RelayedFrom      *string
	EstimatedHandoff *string
	RelayedAt        *time.Time
}

// IsEmpty reports whether the patch would change nothing
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Progress == nil &&
		p.Status == nil && p.AssignedTo == nil && p.RelayedFrom == nil &&
		p.EstimatedHandoff == nil && p.RelayedAt == nil
}

// IsEmpty reports whether the patch would change nothing
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Avatar == nil && p.Status == nil
}

// Store is the persistence interface for users and tasks. Implementations
// translate between the canonical schema and their own document layout;
// backend field naming never leaks out of this package.
//
// All write operations stamp updated_at. Updates apply last-writer-wins
// semantics: there is no version field and no optimistic locking.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u User) (User, error)
	ListUsers(ctx context.Context) ([]User, error) // sorted by name ascending
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByName(ctx context.Context, name string) (User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, t Task) (Task, error)
	ListTasks(ctx context.Context) ([]Task, error) // newest first
	GetTask(ctx context.Context, id string) (Task, error)
	TasksByAssignee(ctx context.Context, userID string) ([]Task, error) // newest first
	UpdateTask(ctx context.Context, id string, patch TaskPatch) (Task, error)
	DeleteTask(ctx context.Context, id string) error

	// Workflow projection queries
	ActiveTask(ctx context.Context, userID string) (*Task, error)
	// WaitingTasks returns the user's incoming queue, newest first
	// (created_at descending, matching the MongoDB ordering).
	WaitingTasks(ctx context.Context, userID string) ([]Task, error)
	// RecentHandoffs returns completed tasks relayed from the user,
	// most recently updated first, capped at limit.
	RecentHandoffs(ctx context.Context, userID string, limit int) ([]Task, error)

	// Counts
	CountTasksByStatus(ctx context.Context, status string) (int64, error)
	CountUsers(ctx context.Context) (int64, error)

	Close(ctx context.Context) error
}
