// ABOUTME: Todo CRUD operations scoped by session ID
// ABOUTME: Implements filtered listing with search, tag match, date range, sorting, and pagination

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Limits applied when TodoFilter does not set them
const (
	DefaultTodoLimit = 100
	MaxTodoLimit     = 1000
)

// CreateTodo creates a new todo. ID, status, priority, and timestamps
// default when unset.
func (s *SQLiteStore) CreateTodo(ctx context.Context, todo *Todo) error {
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

	tagsJSON, err := marshalTags(todo.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	var dueDate *string
	if todo.DueDate != nil {
		d := todo.DueDate.UTC().Format(time.RFC3339)
		dueDate = &d
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO todos (id, session_id, title, status, priority, tags, notes, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, todo.ID, todo.SessionID, todo.Title, todo.Status, todo.Priority, tagsJSON, nullString(todo.Notes), dueDate,
		todo.CreatedAt.Format(time.RFC3339), todo.UpdatedAt.Format(time.RFC3339))

	return err
}

// GetTodo retrieves a todo by ID. Returns ErrNotFound when the todo does
// not exist or belongs to a different session.
func (s *SQLiteStore) GetTodo(ctx context.Context, sessionID, id string) (*Todo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, title, status, priority, tags, notes, due_date, created_at, updated_at
		FROM todos WHERE session_id = ? AND id = ?
	`, sessionID, id)

	todo, err := scanTodo(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// ListTodos lists a session's todos according to the filter. Results are
// ordered by the filter's sort column (created_at when unset) with rowid
// as tiebreaker so pagination stays stable across pages.
func (s *SQLiteStore) ListTodos(ctx context.Context, sessionID string, filter TodoFilter) ([]*Todo, error) {
	var args []any
	sqlQuery := `SELECT id, session_id, title, status, priority, tags, notes, due_date, created_at, updated_at FROM todos WHERE session_id = ?`
	args = append(args, sessionID)

	if filter.Search != "" {
		sqlQuery += ` AND (title LIKE ? OR notes LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Status != "" {
		sqlQuery += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Tag != "" {
		sqlQuery += ` AND tags IS NOT NULL AND EXISTS (SELECT 1 FROM json_each(todos.tags) WHERE json_each.value = ?)`
		args = append(args, filter.Tag)
	}
	if filter.CreatedAfter != nil {
		sqlQuery += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC().Format(time.RFC3339))
	}
	if filter.CreatedBefore != nil {
		sqlQuery += ` AND created_at <= ?`
		args = append(args, filter.CreatedBefore.UTC().Format(time.RFC3339))
	}

	dir := sortDirection(filter.SortDirection)
	sqlQuery += ` ORDER BY ` + sortColumn(filter.SortBy) + ` ` + dir + `, rowid ` + dir

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
	sqlQuery += ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var todos []*Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

// UpdateTodo applies a partial update to a session's todo. Nil fields in
// upd are left unchanged. Returns the updated todo.
func (s *SQLiteStore) UpdateTodo(ctx context.Context, sessionID, id string, upd TodoUpdate) (*Todo, error) {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *upd.Priority)
	}
	if upd.Tags != nil {
		tagsJSON, err := marshalTags(*upd.Tags)
		if err != nil {
			return nil, fmt.Errorf("encoding tags: %w", err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, tagsJSON)
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, nullString(*upd.Notes))
	}
	if upd.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, upd.DueDate.UTC().Format(time.RFC3339))
	}

	args = append(args, sessionID, id)
	result, err := s.db.ExecContext(ctx, `UPDATE todos SET `+strings.Join(sets, ", ")+` WHERE session_id = ? AND id = ?`, args...)
	if err != nil {
		return nil, err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetTodo(ctx, sessionID, id)
}

// DeleteTodo deletes a session's todo by ID.
func (s *SQLiteStore) DeleteTodo(ctx context.Context, sessionID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE session_id = ? AND id = ?`, sessionID, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// TodoStats returns a session's todo counts keyed by status. Statuses with
// no todos are absent from the map.
func (s *SQLiteStore) TodoStats(ctx context.Context, sessionID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM todos WHERE session_id = ? GROUP BY status`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*Todo, error) {
	var t Todo
	var tags, notes, dueDate sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.SessionID, &t.Title, &t.Status, &t.Priority, &tags, &notes, &dueDate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &t.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
	}
	t.Notes = notes.String
	if dueDate.Valid {
		d, _ := time.Parse(time.RFC3339, dueDate.String)
		t.DueDate = &d
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &t, nil
}

// marshalTags encodes tags as a JSON array string, or nil when empty
func marshalTags(tags []string) (*string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func sortColumn(v string) string {
	switch v {
	case SortByUpdatedAt:
		return "updated_at"
	case SortByTitle:
		return "title"
	default:
		return "created_at"
	}
}

func sortDirection(v string) string {
	if strings.EqualFold(v, "desc") {
		return "DESC"
	}
	return "ASC"
}
