// ABOUTME: Idle-session janitor for the host router.
// ABOUTME: Periodically evicts units whose last access exceeds the idle timeout.

package host

import (
	"context"
	"time"

	"github.com/2389/seance-gateway/internal/events"
	"github.com/2389/seance-gateway/internal/session"
)

// StartJanitor launches the background sweep that evicts idle sessions.
// It stops when ctx is cancelled. Evicted sessions are recreated cold on
// their next request; durable state survives in the store.
func (h *Host) StartJanitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(h.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.sweep()
			}
		}
	}()
}

// sweep evicts every unit idle longer than the timeout. Closing happens
// outside the table lock so a slow provider teardown cannot stall routing.
func (h *Host) sweep() {
	cutoff := time.Now().Add(-h.idleTimeout)

	h.mu.Lock()
	var evicted []*session.Unit
	for id, unit := range h.units {
		if unit.LastAccess().Before(cutoff) {
			delete(h.units, id)
			evicted = append(evicted, unit)
		}
	}
	h.mu.Unlock()

	for _, unit := range evicted {
		idle := time.Since(unit.LastAccess()).Round(time.Second)
		unit.Close()
		h.metrics.SessionEvicted()
		h.publish(events.Event{Type: events.TypeSessionEvicted, SessionID: unit.ID()})
		h.logger.Info("session evicted", "session_id", unit.ID(), "idle", idle.String())
	}
}
