// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject storage failures

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing. Setting
// FailWith makes every subsequent call return that error, which lets
// callers exercise storage-failure paths.
type MockStore struct {
	mu       sync.RWMutex
	todos    []*Todo // insertion order matters for list semantics
	calls    []*ToolCall
	FailWith error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// CreateTodo stores a new todo, applying the same defaults as SQLiteStore.
func (m *MockStore) CreateTodo(ctx context.Context, todo *Todo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	if todo.ID == "" {
		todo.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if todo.CreatedAt.IsZero() {
		todo.CreatedAt = now
	}
	todo.UpdatedAt = now
	if todo.Status == "" {
		todo.Status = StatusNotStarted
	}
	if todo.Priority == "" {
		todo.Priority = PriorityMedium
	}

	// Make a copy to avoid external modification
	t := *todo
	t.Tags = append([]string(nil), todo.Tags...)
	m.todos = append(m.todos, &t)

	return nil
}

// GetTodo retrieves a todo by ID within a session.
func (m *MockStore) GetTodo(ctx context.Context, sessionID, id string) (*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	for _, t := range m.todos {
		if t.SessionID == sessionID && t.ID == id {
			result := *t
			result.Tags = append([]string(nil), t.Tags...)
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// ListTodos lists a session's todos, mirroring SQLiteStore filter semantics.
func (m *MockStore) ListTodos(ctx context.Context, sessionID string, filter TodoFilter) ([]*Todo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	var result []*Todo
	for _, t := range m.todos {
		if t.SessionID != sessionID {
			continue
		}
		if !todoMatchesFilter(t, filter) {
			continue
		}
		todoCopy := *t
		todoCopy.Tags = append([]string(nil), t.Tags...)
		result = append(result, &todoCopy)
	}

	sortTodos(result, filter.SortBy, filter.SortDirection)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultTodoLimit
	}
	if limit > MaxTodoLimit {
		limit = MaxTodoLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateTodo applies a partial update within a session.
func (m *MockStore) UpdateTodo(ctx context.Context, sessionID, id string, upd TodoUpdate) (*Todo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	for _, t := range m.todos {
		if t.SessionID != sessionID || t.ID != id {
			continue
		}
		if upd.Title != nil {
			t.Title = *upd.Title
		}
		if upd.Status != nil {
			t.Status = *upd.Status
		}
		if upd.Priority != nil {
			t.Priority = *upd.Priority
		}
		if upd.Tags != nil {
			t.Tags = append([]string(nil), (*upd.Tags)...)
		}
		if upd.Notes != nil {
			t.Notes = *upd.Notes
		}
		if upd.DueDate != nil {
			d := *upd.DueDate
			t.DueDate = &d
		}
		t.UpdatedAt = time.Now().UTC()

		result := *t
		result.Tags = append([]string(nil), t.Tags...)
		return &result, nil
	}
	return nil, ErrNotFound
}

// DeleteTodo removes a todo within a session.
func (m *MockStore) DeleteTodo(ctx context.Context, sessionID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	for i, t := range m.todos {
		if t.SessionID == sessionID && t.ID == id {
			m.todos = append(m.todos[:i], m.todos[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// TodoStats returns a session's todo counts keyed by status.
func (m *MockStore) TodoStats(ctx context.Context, sessionID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	stats := make(map[string]int)
	for _, t := range m.todos {
		if t.SessionID == sessionID {
			stats[t.Status]++
		}
	}
	return stats, nil
}

// RecordToolCall stores a tool call record.
func (m *MockStore) RecordToolCall(ctx context.Context, call *ToolCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}

	c := *call
	m.calls = append(m.calls, &c)
	return nil
}

// ListToolCalls returns a session's tool calls, newest first.
func (m *MockStore) ListToolCalls(ctx context.Context, sessionID string, limit int) ([]*ToolCall, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailWith != nil {
		return nil, m.FailWith
	}

	switch {
	case limit <= 0:
		limit = 100
	case limit > 1000:
		limit = 1000
	}

	var result []*ToolCall
	for _, c := range m.calls {
		if c.SessionID == sessionID {
			callCopy := *c
			result = append(result, &callCopy)
		}
	}

	// Newest first. Sort ascending then reverse so ties land in
	// reverse insertion order, matching SQLite's rowid tiebreaker.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	reverseToolCalls(result)

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func reverseToolCalls(calls []*ToolCall) {
	for i, j := 0, len(calls)-1; i < j; i, j = i+1, j-1 {
		calls[i], calls[j] = calls[j], calls[i]
	}
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}

func todoMatchesFilter(t *Todo, filter TodoFilter) bool {
	if filter.Search != "" {
		q := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Notes), q) {
			return false
		}
	}
	if filter.Status != "" && t.Status != filter.Status {
		return false
	}
	if filter.Tag != "" {
		found := false
		for _, tag := range t.Tags {
			if tag == filter.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.CreatedAfter != nil && t.CreatedAt.Before(*filter.CreatedAfter) {
		return false
	}
	if filter.CreatedBefore != nil && t.CreatedAt.After(*filter.CreatedBefore) {
		return false
	}
	return true
}

// sortTodos orders todos the way the SQLite implementation does. The
// ascending sort is stable so ties keep insertion order; a descending
// sort reverses afterwards, matching SQLite's rowid tiebreaker.
func sortTodos(todos []*Todo, sortBy, direction string) {
	less := func(i, j *Todo) bool {
		switch sortBy {
		case SortByUpdatedAt:
			return i.UpdatedAt.Before(j.UpdatedAt)
		case SortByTitle:
			return i.Title < j.Title
		default:
			return i.CreatedAt.Before(j.CreatedAt)
		}
	}

	sort.SliceStable(todos, func(a, b int) bool {
		return less(todos[a], todos[b])
	})

	if strings.EqualFold(direction, "desc") {
		for i, j := 0, len(todos)-1; i < j; i, j = i+1, j-1 {
			todos[i], todos[j] = todos[j], todos[i]
		}
	}
}

// Verify MockStore implements Store interface at compile time.
var _ Store = (*MockStore)(nil)
