// Package progress streams pipeline progress events to connected
// websocket clients (spec §5's operator-facing surface for long
// position-trading runs). The run command publishes one event per run,
// marked Completed, with the processed and total instrument counts; the
// pipeline itself publishes no per-instrument events.
package progress

import (
	"context"
	"encoding/json"
	"sync"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Event is one progress update broadcast to subscribers.
type Event struct {
	RunID     string `json:"run_id"`
	Ticker    string `json:"ticker"`
	Stage     string `json:"stage"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Completed bool   `json:"completed"`
}

// Hub fans out Events to every currently connected websocket client for
// one run. It is safe for concurrent use by goroutines publishing events
// and the HTTP handler accepting new subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish broadcasts ev to every currently subscribed client, dropping
// the event for any subscriber whose buffer is full rather than blocking
// the pipeline on a slow client.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) subscribe() chan Event {
	ch := make(chan Event, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

// ServeWS upgrades the connection and streams Events to it until the
// client disconnects or ctx is cancelled.
func (h *Hub) ServeWS(ctx context.Context, conn *websocket.Conn) error {
	ch := h.subscribe()
	defer h.unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return err
			}
			if ev.Completed {
				return nil
			}
		}
	}
}

// Marshal is exposed for callers that want to log the final event
// alongside the run record without a websocket.
func (ev Event) Marshal() ([]byte, error) {
	return json.Marshal(ev)
}
