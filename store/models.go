package store

import "time"

// User status values
const (
	UserStatusWorking = "working"
	UserStatusIdle    = "idle"
)

// Task status values
const (
	TaskStatusActive    = "active"
	TaskStatusWaiting   = "waiting"
	TaskStatusCompleted = "completed"
)

// DefaultAvatar is assigned to users created without one
const DefaultAvatar = "/uploads/default-avatar.png"

// User represents a dashboard user
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task represents a unit of work that can be handed off between users
type Task struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Progress         int        `json:"progress"`
	Status           string     `json:"status"`
	AssignedTo       *string    `json:"assignedTo,omitempty"`
	RelayedFrom      *string    `json:"relayedFrom,omitempty"`
	EstimatedHandoff *string    `json:"estimatedHandoff,omitempty"`
	RelayedAt        *time.Time `json:"relayedAt,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// WorkflowData is the per-user projection of the flat task collection.
// It is derived on every call and never stored.
type WorkflowData struct {
	ActiveWork     *Task  `json:"activeWork"`
	Incoming       []Task `json:"incoming"`
	RecentHandoffs []Task `json:"recentHandoffs"`
}

// WorkflowStats holds task counts by status plus the user count
type WorkflowStats struct {
	ActiveTasks    int64 `json:"active_tasks"`
	WaitingTasks   int64 `json:"waiting_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	TotalTasks     int64 `json:"total_tasks"`
	TotalUsers     int64 `json:"total_users"`
}

// ValidTaskStatus reports whether s is one of the known task statuses
func ValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusActive, TaskStatusWaiting, TaskStatusCompleted:
		return true
	}
	return false
}

// ValidUserStatus reports whether s is one of the known user statuses
func ValidUserStatus(s string) bool {
	return s == UserStatusWorking || s == UserStatusIdle
}
