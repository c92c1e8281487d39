// ABOUTME: SSE egress for the event stream on GET /events.
// ABOUTME: Upgrades the connection and forwards published events until disconnect.

package events

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tmaxmax/go-sse"
)

// ServeHTTP streams published events to the caller as server-sent events.
// Each event goes out with its type as the SSE event name and the JSON
// encoding as data. The subscription ends when the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		b.logger.Error("upgrading event stream", "error", err)
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, subID := b.Subscribe(r.Context())
	b.logger.Debug("event stream opened", "sub_id", subID)

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := sendEvent(sess, evt); err != nil {
				b.logger.Debug("event stream closed", "sub_id", subID, "error", err)
				return
			}
		}
	}
}

func sendEvent(sess *sse.Session, evt Event) error {
	raw, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	msg := &sse.Message{Type: sse.Type(evt.Type)}
	msg.AppendData(string(raw))

	if err := sess.Send(msg); err != nil {
		return fmt.Errorf("sending event: %w", err)
	}
	if err := sess.Flush(); err != nil {
		return fmt.Errorf("flushing event: %w", err)
	}
	return nil
}
