package domain

// LegRisk pairs a leg with its freshly computed pace evaluation.
type LegRisk struct {
	Leg  Leg
	Pace PaceResult
}

// ParlayRisk is the evaluation of a whole parlay at one instant.
// Worst carries the most severe leg level so callers can gate on
// "at least at_risk" without walking the legs again.
type ParlayRisk struct {
	Parlay Parlay
	Legs   []LegRisk
	Worst  RiskLevel
}

// EvaluateParlay runs the pace calculator over every leg. Results are
// derived state: nothing here is persisted, each call recomputes from
// the legs as they stand.
func EvaluateParlay(p Parlay) ParlayRisk {
	out := ParlayRisk{
		Parlay: p,
		Legs:   make([]LegRisk, 0, len(p.Legs)),
		Worst:  RiskOnTrack,
	}
	for _, leg := range p.Legs {
		pace := CalcPace(leg.Current, leg.Line, leg.Side, leg.Period, leg.Clock, leg.GameStatus)
		out.Legs = append(out.Legs, LegRisk{Leg: leg, Pace: pace})
		if pace.RiskLevel.Severity() > out.Worst.Severity() {
			out.Worst = pace.RiskLevel
		}
	}
	return out
}

// HedgeSuggestion is an offsetting bet proposed by the hedge service
// for a parlay that has legs drifting off pace.
type HedgeSuggestion struct {
	LegID      string  `json:"leg_id"`
	PlayerName string  `json:"player_name"`
	Market     Market  `json:"market"`
	Side       Side    `json:"side"`
	Line       float64 `json:"line"`
	Odds       int     `json:"odds"`
	Book       string  `json:"book,omitempty"`
	Stake      float64 `json:"stake,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}
