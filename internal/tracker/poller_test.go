package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// fakeHedger registra las llamadas y responde según parlay_id.
type fakeHedger struct {
	mu          sync.Mutex
	calls       []string
	suggestions map[string][]domain.HedgeSuggestion
	errFor      map[string]error
}

func newFakeHedger() *fakeHedger {
	return &fakeHedger{
		suggestions: make(map[string][]domain.HedgeSuggestion),
		errFor:      make(map[string]error),
	}
}

func (f *fakeHedger) SuggestHedges(_ context.Context, p domain.Parlay) ([]domain.HedgeSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p.ParlayID)
	if err := f.errFor[p.ParlayID]; err != nil {
		return nil, err
	}
	return f.suggestions[p.ParlayID], nil
}

func (f *fakeHedger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func riskAt(parlayID string, levels ...domain.RiskLevel) domain.ParlayRisk {
	legs := make([]domain.LegRisk, 0, len(levels))
	worst := domain.RiskOnTrack
	for i, lvl := range levels {
		legs = append(legs, domain.LegRisk{
			Leg:  domain.Leg{LegID: parlayID + "-" + string(rune('a'+i))},
			Pace: domain.PaceResult{RiskLevel: lvl},
		})
		if lvl.Severity() > worst.Severity() {
			worst = lvl
		}
	}
	return domain.ParlayRisk{
		Parlay: domain.Parlay{ParlayID: parlayID},
		Legs:   legs,
		Worst:  worst,
	}
}

func suggestion(legID string) domain.HedgeSuggestion {
	return domain.HedgeSuggestion{
		LegID: legID, Side: domain.SideUnder, Line: 24.5, Odds: -115, Book: "fanduel",
	}
}

func TestPoller_OnTrackParlaysSkipped(t *testing.T) {
	hedger := newFakeHedger()
	hp := NewHedgePoller(nil, hedger, nil, DefaultPollerConfig())

	risks := []domain.ParlayRisk{
		riskAt("fine", domain.RiskOnTrack, domain.RiskOnTrack),
		riskAt("done", domain.RiskHit, domain.RiskLost),
	}
	got := hp.EvaluateOnce(context.Background(), risks)

	assert.Empty(t, got)
	assert.Zero(t, hedger.callCount())
}

func TestPoller_OneRequestPerQualifyingParlay(t *testing.T) {
	hedger := newFakeHedger()
	hedger.suggestions["bad"] = []domain.HedgeSuggestion{suggestion("bad-a")}
	hedger.suggestions["worse"] = []domain.HedgeSuggestion{suggestion("worse-a")}
	hp := NewHedgePoller(nil, hedger, nil, DefaultPollerConfig())

	risks := []domain.ParlayRisk{
		riskAt("bad", domain.RiskAtRisk, domain.RiskOnTrack),
		riskAt("worse", domain.RiskDanger, domain.RiskAtRisk),
		riskAt("fine", domain.RiskOnTrack),
	}
	got := hp.EvaluateOnce(context.Background(), risks)

	// Una request por parlay calificado, no por pierna
	assert.Equal(t, 2, hedger.callCount())
	require.Contains(t, got, "bad")
	require.Contains(t, got, "worse")
	assert.NotContains(t, got, "fine")
}

func TestPoller_MinSeverityDanger(t *testing.T) {
	hedger := newFakeHedger()
	hedger.suggestions["worse"] = []domain.HedgeSuggestion{suggestion("worse-a")}

	cfg := DefaultPollerConfig()
	cfg.MinSeverity = domain.RiskDanger
	hp := NewHedgePoller(nil, hedger, nil, cfg)

	risks := []domain.ParlayRisk{
		riskAt("bad", domain.RiskAtRisk),
		riskAt("worse", domain.RiskDanger),
	}
	got := hp.EvaluateOnce(context.Background(), risks)

	assert.Equal(t, 1, hedger.callCount())
	assert.Contains(t, got, "worse")
	assert.NotContains(t, got, "bad")
}

func TestPoller_ZeroSuggestionsOmittedFromResult(t *testing.T) {
	hedger := newFakeHedger()
	// El servicio responde 200 con lista vacía
	hedger.suggestions["bad"] = nil
	hp := NewHedgePoller(nil, hedger, nil, DefaultPollerConfig())

	got := hp.EvaluateOnce(context.Background(), []domain.ParlayRisk{riskAt("bad", domain.RiskDanger)})

	assert.Equal(t, 1, hedger.callCount())
	assert.NotContains(t, got, "bad")
}

func TestPoller_FailureIsolation(t *testing.T) {
	hedger := newFakeHedger()
	hedger.errFor["bad"] = errors.New("503 from hedge service")
	hedger.suggestions["worse"] = []domain.HedgeSuggestion{suggestion("worse-a")}
	hp := NewHedgePoller(nil, hedger, nil, DefaultPollerConfig())

	risks := []domain.ParlayRisk{
		riskAt("bad", domain.RiskDanger),
		riskAt("worse", domain.RiskDanger),
	}
	got := hp.EvaluateOnce(context.Background(), risks)

	// La falla de un parlay no corta la pasada
	assert.Equal(t, 2, hedger.callCount())
	assert.Contains(t, got, "worse")
	assert.NotContains(t, got, "bad")
}

func TestPoller_DedupWithinTTL(t *testing.T) {
	hedger := newFakeHedger()
	hedger.suggestions["bad"] = []domain.HedgeSuggestion{suggestion("bad-a")}
	hp := NewHedgePoller(nil, hedger, nil, DefaultPollerConfig())

	base := time.Date(2024, 1, 16, 20, 0, 0, 0, time.UTC)
	hp.now = func() time.Time { return base }

	risks := []domain.ParlayRisk{riskAt("bad", domain.RiskAtRisk)}

	got := hp.EvaluateOnce(context.Background(), risks)
	assert.Contains(t, got, "bad")

	// Mismo fingerprint dentro de la ventana: sin segunda request
	base = base.Add(time.Minute)
	got = hp.EvaluateOnce(context.Background(), risks)
	assert.Empty(t, got)
	assert.Equal(t, 1, hedger.callCount())

	// Pasada la ventana vuelve a alertar
	base = base.Add(defaultDedupTTL)
	got = hp.EvaluateOnce(context.Background(), risks)
	assert.Contains(t, got, "bad")
	assert.Equal(t, 2, hedger.callCount())
}

func TestPoller_WorseningSituationRealerts(t *testing.T) {
	hedger := newFakeHedger()
	hedger.suggestions["bad"] = []domain.HedgeSuggestion{suggestion("bad-a")}
	hp := NewHedgePoller(nil, hedger, nil, DefaultPollerConfig())

	base := time.Date(2024, 1, 16, 20, 0, 0, 0, time.UTC)
	hp.now = func() time.Time { return base }

	hp.EvaluateOnce(context.Background(), []domain.ParlayRisk{riskAt("bad", domain.RiskAtRisk)})

	// El nivel cambió: fingerprint distinto, alerta inmediata aunque
	// la ventana de dedup siga abierta
	base = base.Add(time.Minute)
	got := hp.EvaluateOnce(context.Background(), []domain.ParlayRisk{riskAt("bad", domain.RiskDanger)})

	assert.Contains(t, got, "bad")
	assert.Equal(t, 2, hedger.callCount())
}

func TestPoller_RunStopsOnContextCancel(t *testing.T) {
	hedger := newFakeHedger()
	s := NewStore(newMemStorage())

	cfg := DefaultPollerConfig()
	cfg.Interval = 10 * time.Millisecond
	hp := NewHedgePoller(s, hedger, nil, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hp.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
