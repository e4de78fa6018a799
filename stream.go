package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Stream is a result type for raw or incrementally produced payloads.
// Return *Stream from a handler to bypass JSON encoding; Body is delivered
// chunk by chunk. On the client, a *Stream result receives the response
// body undrained.
type Stream struct {
	ContentType string
	Status      int
	Body        io.Reader
}

// Respond implements Responder.
func (s *Stream) Respond() (*Response, error) {
	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}
	h := make(http.Header)
	if s.ContentType != "" {
		h.Set("Content-Type", s.ContentType)
	}
	body := EmptyBody()
	if s.Body != nil {
		rc, ok := s.Body.(io.ReadCloser)
		if !ok {
			rc = io.NopCloser(s.Body)
		}
		body = ReaderBody(rc)
	}
	return &Response{Status: status, Header: h, Body: body}, nil
}

// SSEStream is a result type for server-sent events.
// The handler sends events on the channel and closes it when done; each
// event becomes one body chunk.
type SSEStream struct {
	Events <-chan SSEEvent
}

// SSEEvent is a single server-sent event.
type SSEEvent struct {
	// Event is the event type (optional). Maps to the "event:" field.
	Event string
	// Data is the event payload. If it's a struct/map, it will be JSON-encoded.
	Data any
	// ID is the event ID (optional). Maps to the "id:" field.
	ID string
}

// Respond implements Responder.
func (s *SSEStream) Respond() (*Response, error) {
	h := make(http.Header)
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	return &Response{
		Status: http.StatusOK,
		Header: h,
		Body:   NewBody(&eventSource{events: s.Events}),
	}, nil
}

// eventSource adapts an event channel to a ChunkSource.
type eventSource struct {
	events <-chan SSEEvent
}

func (s *eventSource) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case event, ok := <-s.events:
		if !ok {
			return nil, io.EOF
		}
		return encodeSSEEvent(event), nil
	}
}

// Close is a no-op; the producer owns the channel.
func (s *eventSource) Close() error { return nil }

func encodeSSEEvent(event SSEEvent) []byte {
	var buf bytes.Buffer
	if event.ID != "" {
		writeSSEField(&buf, "id", event.ID)
	}
	if event.Event != "" {
		writeSSEField(&buf, "event", event.Event)
	}

	switch v := event.Data.(type) {
	case string:
		writeSSEField(&buf, "data", v)
	case []byte:
		writeSSEField(&buf, "data", string(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			writeSSEField(&buf, "data", err.Error())
		} else {
			writeSSEField(&buf, "data", string(data))
		}
	}

	buf.WriteByte('\n')
	return buf.Bytes()
}

// writeSSEField writes one field, splitting multi-line values into
// repeated fields.
func writeSSEField(w io.Writer, name, value string) {
	for _, line := range strings.Split(value, "\n") {
		//nolint:errcheck // bytes.Buffer writes do not fail
		fmt.Fprintf(w, "%s: %s\n", name, line)
	}
}
