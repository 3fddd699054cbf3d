package feed

// transport.go — transport failover for the live feed.
//
// Exactly one transport is active at a time:
//
//	idle ──Start──▶ stream ──stream error──▶ poll
//	                  │  ▲                    │
//	      Background──┘  └──Foreground────────┘
//	anything ──Stop──▶ idle
//
// Backgrounding forces polling (a phone holding an SSE connection in
// the background burns battery for nothing); foregrounding retries the
// stream. Start on an already-running transport is a no-op. Snapshots
// arriving after Stop are dropped by the per-mode context guard.

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// State is the transport mode currently active.
type State int

const (
	StateIdle State = iota
	StateStream
	StatePoll
)

func (s State) String() string {
	switch s {
	case StateStream:
		return "stream"
	case StatePoll:
		return "poll"
	default:
		return "idle"
	}
}

// Transport drives the live feed over SSE with polling fallback and
// hands every snapshot to the configured handler.
type Transport struct {
	stream       *Stream
	client       *Client
	pollInterval time.Duration
	onSnapshot   func(domain.LiveSnapshot)

	mu     sync.Mutex
	state  State
	parent context.Context
	cancel context.CancelFunc // cancels the active mode's goroutine
	wg     sync.WaitGroup
}

// NewTransport wires the two transports to a snapshot handler.
func NewTransport(stream *Stream, client *Client, pollInterval time.Duration, onSnapshot func(domain.LiveSnapshot)) *Transport {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &Transport{
		stream:       stream,
		client:       client,
		pollInterval: pollInterval,
		onSnapshot:   onSnapshot,
	}
}

// Start activates the stream transport (idempotent: a running
// transport is left alone). ctx is the lifetime of the whole
// transport; cancelling it is equivalent to Stop.
func (t *Transport) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateIdle {
		return
	}
	t.parent = ctx
	t.toStream()
}

// Background forces the polling transport while the app is not
// visible. No-op when idle or already polling.
func (t *Transport) Background() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStream {
		return
	}
	slog.Info("feed transport: backgrounded, switching to poll")
	t.toPoll()
}

// Foreground retries the stream transport after the app comes back.
// No-op unless currently polling.
func (t *Transport) Foreground() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StatePoll {
		return
	}
	slog.Info("feed transport: foregrounded, switching to stream")
	t.toStream()
}

// Stop tears the transport down: closes the stream or stops the poll
// timer and waits for the active goroutine to drain.
func (t *Transport) Stop() {
	t.mu.Lock()
	if t.state == StateIdle {
		t.mu.Unlock()
		return
	}
	t.state = StateIdle
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	cancel()
	t.wg.Wait()
	slog.Info("feed transport stopped")
}

// CurrentState reports the active mode.
func (t *Transport) CurrentState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// toStream and toPoll assume t.mu is held.

func (t *Transport) toStream() {
	t.switchMode(StateStream, t.runStream)
}

func (t *Transport) toPoll() {
	t.switchMode(StatePoll, t.runPoll)
}

func (t *Transport) switchMode(next State, run func(context.Context)) {
	if t.cancel != nil {
		t.cancel()
	}
	modeCtx, cancel := context.WithCancel(t.parent)
	t.state = next
	t.cancel = cancel

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		run(modeCtx)
	}()
}

// runStream listens until the connection breaks, then fails over to
// polling. A cancelled context means a deliberate transition — the
// goroutine just exits.
func (t *Transport) runStream(ctx context.Context) {
	err := t.stream.Listen(ctx, func(snap domain.LiveSnapshot) {
		if ctx.Err() == nil {
			t.onSnapshot(snap)
		}
	})
	if ctx.Err() != nil {
		return
	}

	slog.Warn("feed stream failed, falling back to poll", "err", err)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateStream {
		t.toPoll()
	}
}

// runPoll fetches on a fixed interval. A failed tick is skipped and
// retried on the next one; the error never propagates.
func (t *Transport) runPoll(ctx context.Context) {
	t.pollOnce(ctx)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.pollOnce(ctx)
		}
	}
}

func (t *Transport) pollOnce(ctx context.Context) {
	snap, err := t.client.FetchSnapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("feed poll failed, skipping tick", "err", err)
		}
		return
	}
	if ctx.Err() == nil {
		t.onSnapshot(snap)
	}
}
