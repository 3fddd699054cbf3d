package tracker

// poller.go — hedge alert loop.
//
// Every tick recomputes risk for the whole tracked set from scratch;
// there is no incremental diffing, correctness comes from fresh
// recomputation against the store. One outbound request per qualifying
// parlay per tick, and a fingerprint-based dedup so a parlay stuck in
// the same bad spot does not spam the hedge service every 30 seconds.

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
	"github.com/alejandrodnm/parlaywatch/internal/ports"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultDedupTTL     = 5 * time.Minute
)

// PollerConfig controls the hedge alert loop.
type PollerConfig struct {
	Interval    time.Duration
	MinSeverity domain.RiskLevel // at_risk (default) or danger
	DedupTTL    time.Duration
}

// DefaultPollerConfig returns production defaults.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:    defaultPollInterval,
		MinSeverity: domain.RiskAtRisk,
		DedupTTL:    defaultDedupTTL,
	}
}

// HedgePoller periodically scans tracked parlays and requests hedge
// suggestions for the ones drifting off pace.
type HedgePoller struct {
	store    *Store
	hedger   ports.HedgeProvider
	notifier ports.Notifier
	cfg      PollerConfig
	now      func() time.Time

	mu      sync.Mutex
	alerted map[string]time.Time // fingerprint → last alert
}

// NewHedgePoller creates a poller. notifier may be nil when the caller
// only wants EvaluateOnce results.
func NewHedgePoller(store *Store, hedger ports.HedgeProvider, notifier ports.Notifier, cfg PollerConfig) *HedgePoller {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultPollInterval
	}
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = defaultDedupTTL
	}
	if cfg.MinSeverity == "" {
		cfg.MinSeverity = domain.RiskAtRisk
	}
	return &HedgePoller{
		store:    store,
		hedger:   hedger,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		alerted:  make(map[string]time.Time),
	}
}

// Run executes the poll loop until the context is cancelled.
func (hp *HedgePoller) Run(ctx context.Context) {
	slog.Info("hedge poller starting",
		"interval", hp.cfg.Interval,
		"min_severity", hp.cfg.MinSeverity,
	)

	ticker := time.NewTicker(hp.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("hedge poller stopped")
			return
		case <-ticker.C:
			hp.tick(ctx)
		}
	}
}

func (hp *HedgePoller) tick(ctx context.Context) {
	start := time.Now()
	risks := hp.store.EvaluateAll()
	hedges := hp.EvaluateOnce(ctx, risks)

	if hp.notifier != nil {
		if err := hp.notifier.Notify(ctx, risks, hedges); err != nil {
			slog.Warn("hedge poller: notifier error", "err", err)
		}
	}

	slog.Debug("hedge poll tick complete",
		"parlays", len(risks),
		"with_suggestions", len(hedges),
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// EvaluateOnce requests hedge suggestions for every parlay in risks
// with at least one qualifying leg. The result map is keyed by
// parlay_id and omits parlays with zero suggestions, so "has
// suggestions" is a key-presence test. A failed request for one parlay
// is logged and does not abort the rest.
func (hp *HedgePoller) EvaluateOnce(ctx context.Context, risks []domain.ParlayRisk) map[string][]domain.HedgeSuggestion {
	hp.pruneAlerted()

	results := make(map[string][]domain.HedgeSuggestion)
	for _, risk := range risks {
		if !hp.qualifies(risk) {
			continue
		}
		if !hp.shouldAlert(risk) {
			continue
		}

		suggestions, err := hp.hedger.SuggestHedges(ctx, risk.Parlay)
		if err != nil {
			slog.Warn("hedge poller: suggestion request failed",
				"parlay_id", risk.Parlay.ParlayID, "err", err)
			continue
		}
		if len(suggestions) > 0 {
			results[risk.Parlay.ParlayID] = suggestions
		}
	}
	return results
}

// qualifies reports whether any leg is live-and-at-risk. Hit and lost
// legs never qualify: there is nothing left to hedge.
func (hp *HedgePoller) qualifies(risk domain.ParlayRisk) bool {
	for _, lr := range risk.Legs {
		switch lr.Pace.RiskLevel {
		case domain.RiskDanger:
			return true
		case domain.RiskAtRisk:
			if hp.cfg.MinSeverity != domain.RiskDanger {
				return true
			}
		}
	}
	return false
}

// shouldAlert checks the dedup window for this parlay's current risk
// fingerprint. The fingerprint covers each leg's level, so a parlay
// whose situation worsens re-alerts immediately.
func (hp *HedgePoller) shouldAlert(risk domain.ParlayRisk) bool {
	fp := fingerprint(risk)

	hp.mu.Lock()
	defer hp.mu.Unlock()

	if last, ok := hp.alerted[fp]; ok && hp.now().Sub(last) < hp.cfg.DedupTTL {
		return false
	}
	hp.alerted[fp] = hp.now()
	return true
}

// pruneAlerted drops fingerprints past the dedup window.
func (hp *HedgePoller) pruneAlerted() {
	hp.mu.Lock()
	defer hp.mu.Unlock()

	cutoff := hp.now().Add(-hp.cfg.DedupTTL)
	for fp, at := range hp.alerted {
		if at.Before(cutoff) {
			delete(hp.alerted, fp)
		}
	}
}

// fingerprint is a deterministic hash of the parlay's risk situation.
func fingerprint(risk domain.ParlayRisk) string {
	keys := make([]string, 0, len(risk.Legs))
	for _, lr := range risk.Legs {
		keys = append(keys, lr.Leg.LegID+":"+string(lr.Pace.RiskLevel))
	}
	sort.Strings(keys)

	sum := sha256.Sum256([]byte(risk.Parlay.ParlayID + "|" + strings.Join(keys, ",")))
	return fmt.Sprintf("%x", sum[:8])
}
