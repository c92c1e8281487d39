// ABOUTME: Store interface and data types for seance-gateway persistence
// ABOUTME: Defines the Todo entity, list filtering, and the tool-call audit record

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Todo status values
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Todo priority values
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Todo represents a task owned by one session
type Todo struct {
	ID        string
	SessionID string
	Title     string
	Status    string // not_started, in_progress, completed
	Priority  string // low, medium, high
	Tags      []string
	Notes     string
	DueDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Todo sort columns accepted by TodoFilter.SortBy
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByTitle     = "title"
)

// TodoFilter narrows and orders a ListTodos call. Zero values mean
// "no constraint"; the default order is insertion order (created_at asc).
type TodoFilter struct {
	Search        string // matches title or notes, case-insensitive substring
	Status        string
	Tag           string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SortBy        string // created_at, updated_at, title
	SortDirection string // asc, desc
	Limit         int
	Offset        int
}

// TodoUpdate carries a partial update; nil fields are left unchanged.
type TodoUpdate struct {
	Title    *string
	Status   *string
	Priority *string
	Tags     *[]string
	Notes    *string
	DueDate  *time.Time
}

// Tool call outcomes recorded in the audit log
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeInvalidInput = "invalid_input"
	OutcomeNotFound     = "not_found"
)

// ToolCall is one audited tool invocation
type ToolCall struct {
	ID         string
	SessionID  string
	Tool       string
	Origin     string // "local" or the owning provider's name
	Outcome    string // ok, error, invalid_input, not_found
	DurationMS int64
	CreatedAt  time.Time
}

// Store defines the interface for session-scoped entity persistence.
// All todo operations are scoped by session id; a session never sees or
// mutates another session's rows.
type Store interface {
	// Todos
	CreateTodo(ctx context.Context, todo *Todo) error
	GetTodo(ctx context.Context, sessionID, id string) (*Todo, error)
	ListTodos(ctx context.Context, sessionID string, filter TodoFilter) ([]*Todo, error)
	UpdateTodo(ctx context.Context, sessionID, id string, upd TodoUpdate) (*Todo, error)
	DeleteTodo(ctx context.Context, sessionID, id string) error
	TodoStats(ctx context.Context, sessionID string) (map[string]int, error)

	// Tool call audit
	RecordToolCall(ctx context.Context, call *ToolCall) error
	ListToolCalls(ctx context.Context, sessionID string, limit int) ([]*ToolCall, error)

	// Close releases any resources held by the store
	Close() error
}
