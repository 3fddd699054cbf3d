package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// Stream consumes the push transport of the live feed: a server-sent
// events endpoint emitting named "snapshot" events whose data is the
// same payload the polling endpoint returns.
type Stream struct {
	url  string
	http *http.Client
}

// NewStream creates a stream reader against the given SSE endpoint.
// An empty URL means the deployment has no push transport; Listen
// fails immediately and the transport falls back to polling.
func NewStream(url string) *Stream {
	// No Timeout on the client: an SSE connection is long-lived by
	// definition. Cancellation comes from the request context.
	return &Stream{url: url, http: &http.Client{}}
}

// Listen connects and delivers each snapshot event to onSnapshot until
// the context is cancelled or the connection breaks. It always returns
// a non-nil error on transport failure so the caller can fail over;
// a cancelled context returns ctx.Err().
func (s *Stream) Listen(ctx context.Context, onSnapshot func(domain.LiveSnapshot)) error {
	if s.url == "" {
		return fmt.Errorf("feed.Stream: no stream URL configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("feed.Stream: build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("feed.Stream: connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed.Stream: status %d", resp.StatusCode)
	}

	slog.Info("feed stream connected", "url", s.url)

	// Minimal SSE framing: "event:" names the event, "data:" lines
	// accumulate the payload, a blank line dispatches it.
	var event string
	var data strings.Builder

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == "snapshot" && data.Len() > 0 {
				s.dispatch(data.String(), onSnapshot)
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, ":"):
			// comment/keepalive
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("feed.Stream: read: %w", err)
	}
	return fmt.Errorf("feed.Stream: connection closed by server")
}

// dispatch parses one event payload; a malformed payload is a skipped
// tick, never a stream failure.
func (s *Stream) dispatch(data string, onSnapshot func(domain.LiveSnapshot)) {
	var payload livePayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		slog.Warn("feed stream: malformed snapshot payload", "err", err)
		return
	}
	onSnapshot(snapshotFromPayload(payload))
}
