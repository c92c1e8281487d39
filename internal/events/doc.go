// Package events carries the gateway's operational event stream.
//
// A single Broadcaster fans session and provider lifecycle events out to
// in-process subscribers and, through its http.Handler implementation, to
// SSE clients on GET /events. Publishing never blocks: each subscriber has
// a bounded buffer and loses events it cannot keep up with, which is the
// right trade for a diagnostics stream.
package events
