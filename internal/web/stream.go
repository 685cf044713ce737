package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// StreamEvent is one server-sent event. Type becomes the SSE event name.
type StreamEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// EventEmitter writes server-sent events to one response.
type EventEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
}

func NewEventEmitter(w http.ResponseWriter) (*EventEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &EventEmitter{
		w:       w,
		flusher: flusher,
	}, nil
}

func (e *EventEmitter) Emit(event StreamEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event.Type, data)
	if err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

func (e *EventEmitter) KeepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			fmt.Fprintf(e.w, ": heartbeat\n\n")
			e.flusher.Flush()
			e.mu.Unlock()
		}
	}
}
