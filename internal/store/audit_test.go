// ABOUTME: Tests for tool call audit operations
// ABOUTME: Covers Record and List against the tool_calls table

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCalls_Record(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	call := &ToolCall{
		SessionID:  "ses-1",
		Tool:       "create_todo",
		Origin:     "local",
		Outcome:    OutcomeOK,
		DurationMS: 12,
	}

	err := store.RecordToolCall(ctx, call)
	require.NoError(t, err)

	// Should have generated ID and timestamp
	assert.NotEmpty(t, call.ID)
	assert.False(t, call.CreatedAt.IsZero())
}

func TestToolCalls_List(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i, outcome := range []string{OutcomeOK, OutcomeError, OutcomeOK} {
		call := &ToolCall{
			SessionID: "ses-1",
			Tool:      fmt.Sprintf("tool-%d", i),
			Origin:    "local",
			Outcome:   outcome,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.RecordToolCall(ctx, call))
	}

	calls, err := store.ListToolCalls(ctx, "ses-1", 0)
	require.NoError(t, err)
	require.Len(t, calls, 3)

	// Newest first
	assert.Equal(t, "tool-2", calls[0].Tool)
	assert.Equal(t, "tool-0", calls[2].Tool)
}

func TestToolCalls_ListLimit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordToolCall(ctx, &ToolCall{
			SessionID: "ses-1",
			Tool:      "ping",
			Origin:    "local",
			Outcome:   OutcomeOK,
		}))
	}

	calls, err := store.ListToolCalls(ctx, "ses-1", 2)
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}

func TestToolCalls_SessionScoped(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordToolCall(ctx, &ToolCall{
		SessionID: "ses-a", Tool: "echo", Origin: "demo", Outcome: OutcomeOK,
	}))
	require.NoError(t, store.RecordToolCall(ctx, &ToolCall{
		SessionID: "ses-b", Tool: "echo", Origin: "demo", Outcome: OutcomeError,
	}))

	calls, err := store.ListToolCalls(ctx, "ses-a", 0)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, OutcomeOK, calls[0].Outcome)
}
