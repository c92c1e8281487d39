// ABOUTME: Unit tests for MockStore to ensure behavior matches SQLiteStore
// ABOUTME: Focuses on copy semantics, failure injection, and ordering parity

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_FailureInjection(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	boom := errors.New("disk on fire")
	store.FailWith = boom

	err := store.CreateTodo(ctx, &Todo{SessionID: "ses-1", Title: "doomed"})
	assert.ErrorIs(t, err, boom)

	_, err = store.ListTodos(ctx, "ses-1", TodoFilter{})
	assert.ErrorIs(t, err, boom)

	err = store.RecordToolCall(ctx, &ToolCall{SessionID: "ses-1", Tool: "echo", Origin: "local", Outcome: OutcomeOK})
	assert.ErrorIs(t, err, boom)

	// Clearing the injected error restores normal behavior
	store.FailWith = nil
	require.NoError(t, store.CreateTodo(ctx, &Todo{SessionID: "ses-1", Title: "recovered"}))
}

func TestMockStore_CopySemantics(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	todo := &Todo{SessionID: "ses-1", Title: "original", Tags: []string{"a"}}
	require.NoError(t, store.CreateTodo(ctx, todo))

	got, err := store.GetTodo(ctx, "ses-1", todo.ID)
	require.NoError(t, err)

	// Mutating the returned copy must not affect stored state
	got.Title = "mutated"
	got.Tags[0] = "z"

	again, err := store.GetTodo(ctx, "ses-1", todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
	assert.Equal(t, []string{"a"}, again.Tags)
}

func TestMockStore_PaginationMatchesSQLite(t *testing.T) {
	mock := NewMockStore()
	real := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		title := fmt.Sprintf("task %d", i)
		require.NoError(t, mock.CreateTodo(ctx, &Todo{SessionID: "ses-1", Title: title}))
		require.NoError(t, real.CreateTodo(ctx, &Todo{SessionID: "ses-1", Title: title}))
	}

	filters := []TodoFilter{
		{Limit: 2, Offset: 0},
		{Limit: 2, Offset: 4},
		{Limit: 2, Offset: 6},
		{SortBy: SortByTitle, SortDirection: "desc", Limit: 3},
	}

	for _, filter := range filters {
		fromMock, err := mock.ListTodos(ctx, "ses-1", filter)
		require.NoError(t, err)
		fromReal, err := real.ListTodos(ctx, "ses-1", filter)
		require.NoError(t, err)

		require.Len(t, fromMock, len(fromReal))
		for i := range fromMock {
			assert.Equal(t, fromReal[i].Title, fromMock[i].Title)
		}
	}
}

func TestMockStore_ToolCallOrdering(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	// Identical timestamps; ties resolve in reverse insertion order
	ts := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordToolCall(ctx, &ToolCall{
			SessionID: "ses-1",
			Tool:      fmt.Sprintf("tool-%d", i),
			Origin:    "local",
			Outcome:   OutcomeOK,
			CreatedAt: ts,
		}))
	}

	calls, err := store.ListToolCalls(ctx, "ses-1", 0)
	require.NoError(t, err)
	require.Len(t, calls, 3)
	assert.Equal(t, "tool-2", calls[0].Tool)
	assert.Equal(t, "tool-0", calls[2].Tool)
}
