// ABOUTME: Tool call audit records for tracking invocations per session
// ABOUTME: Records which session called which tool, where it ran, and how it ended

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordToolCall appends one tool invocation to the audit table.
// Generates ID and CreatedAt if not set.
func (s *SQLiteStore) RecordToolCall(ctx context.Context, call *ToolCall) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_calls (id, session_id, tool, origin, outcome, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, call.ID, call.SessionID, call.Tool, call.Origin, call.Outcome, call.DurationMS,
		call.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting tool call: %w", err)
	}

	s.logger.Debug("recorded tool call",
		"session_id", call.SessionID,
		"tool", call.Tool,
		"outcome", call.Outcome,
	)
	return nil
}

// ListToolCalls returns a session's recorded tool calls, newest first.
func (s *SQLiteStore) ListToolCalls(ctx context.Context, sessionID string, limit int) ([]*ToolCall, error) {
	switch {
	case limit <= 0:
		limit = 100
	case limit > 1000:
		limit = 1000
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, tool, origin, outcome, duration_ms, created_at
		FROM tool_calls WHERE session_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var calls []*ToolCall
	for rows.Next() {
		var c ToolCall
		var createdAt string
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Tool, &c.Origin, &c.Outcome, &c.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning tool call: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		calls = append(calls, &c)
	}
	return calls, rows.Err()
}
