package tracker

import (
	"context"
	"log/slog"
)

// FeedTransport is the slice of the live feed the runner drives.
// Implemented by feed.Transport; kept as an interface so the tracker
// does not depend on a concrete transport.
type FeedTransport interface {
	Start(ctx context.Context)
	Stop()
}

// Runner owns the tracker lifecycle: hydrate → live updates → teardown.
// Snapshot application and expiry cleanup ordering is enforced inside
// the store; the runner just wires the pieces and blocks on the hedge
// poll loop until the context is cancelled.
type Runner struct {
	store     *Store
	transport FeedTransport
	poller    *HedgePoller
}

// NewRunner creates a runner over an already-constructed store,
// transport and poller.
func NewRunner(store *Store, transport FeedTransport, poller *HedgePoller) *Runner {
	return &Runner{store: store, transport: transport, poller: poller}
}

// Run executes the full lifecycle until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.store.Hydrate(ctx)

	r.transport.Start(ctx)
	defer r.transport.Stop()

	r.poller.Run(ctx)
	slog.Info("tracker runner stopped")
	return nil
}
