// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// The Store interface covers everything the gateway persists: todos owned
// by sessions, and an audit trail of tool invocations. SQLiteStore is the
// production implementation; MockStore is an in-memory stand-in for tests.
//
// # Data Models
//
//   - Todo: Tasks with status, priority, tags, notes, and an optional due date
//   - ToolCall: One audited tool invocation with origin and outcome
//
// Every todo belongs to exactly one session. Store methods take the owning
// session ID and never return or mutate rows from another session.
//
// # Listing and Filtering
//
// ListTodos accepts a TodoFilter combining a free-text search over title
// and notes, status and tag equality, a created_at range, a sort column
// with direction, and limit/offset pagination. The default order is
// insertion order, so paging through a stable data set never skips or
// repeats entries.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Database file locations:
//
//   - Production: /var/lib/seance/gateway.db
//   - Development: ~/.local/share/seance/gateway.db
//   - Testing: :memory: (in-memory database)
//
// # Error Handling
//
// ErrNotFound is returned when a requested entity does not exist or
// belongs to a different session. All methods accept context.Context for
// cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests:
//
//	store := store.NewMockStore()
//	store.FailWith = errors.New("boom") // force storage failures
//
// Use NewSQLiteStore(":memory:") for integration tests with real SQLite.
package store
