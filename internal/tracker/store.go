package tracker

// store.go — single source of truth for tracked parlays.
//
// The store owns the in-memory map and is its only writer; everything
// else (feed runner, hedge poller, UI readers) goes through it. Every
// mutation is write-through to storage, and storage failures degrade
// to in-memory-only operation: a tracker that cannot persist is still
// a working tracker, it just forgets on restart.

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
	"github.com/alejandrodnm/parlaywatch/internal/ports"
)

// Store holds the set of user-tracked parlays.
type Store struct {
	storage ports.ParlayStorage
	now     func() time.Time

	mu      sync.Mutex
	tracked map[string]domain.Parlay
}

// NewStore creates an empty store backed by the given storage.
func NewStore(storage ports.ParlayStorage) *Store {
	return &Store{
		storage: storage,
		now:     time.Now,
		tracked: make(map[string]domain.Parlay),
	}
}

// Hydrate loads persisted parlays and runs the cold-start expiry
// cleanup. Absent or unreadable storage yields an empty store, never
// an error: losing tracked parlays beats crashing the app at launch.
func (s *Store) Hydrate(ctx context.Context) {
	parlays, err := s.storage.Load(ctx)
	if err != nil {
		slog.Warn("tracker: hydrate failed, starting empty", "err", err)
		parlays = nil
	}

	s.mu.Lock()
	s.tracked = make(map[string]domain.Parlay, len(parlays))
	for _, p := range parlays {
		if p.ParlayID == "" || len(p.Legs) == 0 {
			continue
		}
		s.tracked[p.ParlayID] = p
	}
	removed := s.cleanupLocked(ctx, s.now())
	s.mu.Unlock()

	slog.Info("tracker hydrated", "parlays", len(parlays), "expired_on_start", removed)
}

// ApplyLiveSnapshot updates every leg whose player appears in the
// snapshot, then runs expiry cleanup (snapshot application can flip
// legs to final, which the same-day expiry rule depends on). The whole
// tick happens under one lock hold: readers never observe a partially
// updated store. Legs missing from the snapshot keep their last known
// state — a feed that briefly drops a player must not erase data. An
// empty snapshot still runs cleanup: a stalled feed must not keep
// stale-day parlays alive.
func (s *Store) ApplyLiveSnapshot(ctx context.Context, snap domain.LiveSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.tracked {
		changed := false
		for i := range p.Legs {
			leg := &p.Legs[i]
			entry, ok := snap[strconv.Itoa(leg.PlayerID)]
			if !ok {
				continue
			}
			stat, ok := entry.StatFor(leg.Market)
			if !ok {
				slog.Warn("tracker: leg with unknown market", "leg_id", leg.LegID, "market", leg.Market)
				continue
			}

			v := stat
			leg.Current = &v
			leg.Period = entry.Period
			leg.Clock = entry.Clock
			leg.GameStatus = entry.GameStatus
			if leg.GameID == 0 {
				leg.GameID = entry.GameID
			}
			changed = true
		}

		if changed {
			s.tracked[id] = p
			s.persist(ctx, p)
		}
	}

	s.cleanupLocked(ctx, s.now())
}

// CleanupExpired removes every parlay the expiry policy rejects, from
// memory and storage. Idempotent: a second call with no state change
// removes nothing. Returns the number of parlays removed.
func (s *Store) CleanupExpired(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked(ctx, now)
}

func (s *Store) cleanupLocked(ctx context.Context, now time.Time) int {
	removed := 0
	for id, p := range s.tracked {
		if !domain.ShouldExpireParlay(p, now) {
			continue
		}
		delete(s.tracked, id)
		removed++
		if err := s.storage.Delete(ctx, id); err != nil {
			slog.Warn("tracker: failed to delete expired parlay", "parlay_id", id, "err", err)
		}
	}
	if removed > 0 {
		slog.Info("tracker: expired parlays removed", "count", removed)
	}
	return removed
}

// Add tracks a parlay, filling in missing ids and creation time.
// Adding an id that is already tracked replaces it (idempotent for an
// identical parlay). The stored parlay is returned.
func (s *Store) Add(ctx context.Context, p domain.Parlay) domain.Parlay {
	s.fillIDs(&p)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[p.ParlayID] = p
	s.persist(ctx, p)
	return p.Clone()
}

// Remove untracks a parlay; an unknown id is a no-op.
func (s *Store) Remove(ctx context.Context, parlayID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(ctx, parlayID)
}

func (s *Store) removeLocked(ctx context.Context, parlayID string) {
	if _, ok := s.tracked[parlayID]; !ok {
		return
	}
	delete(s.tracked, parlayID)
	if err := s.storage.Delete(ctx, parlayID); err != nil {
		slog.Warn("tracker: failed to delete parlay", "parlay_id", parlayID, "err", err)
	}
}

// Toggle tracks the parlay if absent and untracks it if present,
// reporting whether it is tracked afterwards. Toggling twice returns
// to the original state.
func (s *Store) Toggle(ctx context.Context, p domain.Parlay) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tracked[p.ParlayID]; ok {
		s.removeLocked(ctx, p.ParlayID)
		return false
	}

	s.fillIDs(&p)
	s.tracked[p.ParlayID] = p
	s.persist(ctx, p)
	return true
}

// fillIDs completa ids y fecha de creación ausentes antes de trackear.
func (s *Store) fillIDs(p *domain.Parlay) {
	if p.ParlayID == "" {
		p.ParlayID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	for i := range p.Legs {
		if p.Legs[i].LegID == "" {
			p.Legs[i].LegID = uuid.NewString()
		}
	}
}

// Clear untracks everything.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracked = make(map[string]domain.Parlay)
	if err := s.storage.Clear(ctx); err != nil {
		slog.Warn("tracker: failed to clear storage", "err", err)
	}
}

// Parlays returns a deep copy of the tracked set, oldest first.
func (s *Store) Parlays() []domain.Parlay {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Parlay, 0, len(s.tracked))
	for _, p := range s.tracked {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ParlayID < out[j].ParlayID
	})
	return out
}

// Get returns a deep copy of one parlay.
func (s *Store) Get(parlayID string) (domain.Parlay, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.tracked[parlayID]
	if !ok {
		return domain.Parlay{}, false
	}
	return p.Clone(), true
}

// EvaluateAll runs the pace calculator over every tracked parlay.
func (s *Store) EvaluateAll() []domain.ParlayRisk {
	parlays := s.Parlays()
	out := make([]domain.ParlayRisk, 0, len(parlays))
	for _, p := range parlays {
		out = append(out, domain.EvaluateParlay(p))
	}
	return out
}

// persist writes through to storage; failures are logged and swallowed
// (the store keeps serving from memory). Callers hold s.mu.
func (s *Store) persist(ctx context.Context, p domain.Parlay) {
	if err := s.storage.Save(ctx, p); err != nil {
		slog.Warn("tracker: persist failed, in-memory only", "parlay_id", p.ParlayID, "err", err)
	}
}
