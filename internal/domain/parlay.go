package domain

import "time"

// Market is the player-prop stat a leg bets on.
type Market string

const (
	MarketPoints   Market = "pts"
	MarketRebounds Market = "reb"
	MarketAssists  Market = "ast"
	MarketThrees   Market = "fg3m"
	MarketPR       Market = "pr"  // points + rebounds
	MarketPA       Market = "pa"  // points + assists
	MarketRA       Market = "ra"  // rebounds + assists
	MarketPRA      Market = "pra" // points + rebounds + assists
)

// Side is the direction of a prop bet.
type Side string

const (
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// GameStatus is the lifecycle state of the game a leg belongs to.
type GameStatus string

const (
	StatusPregame GameStatus = "pregame"
	StatusLive    GameStatus = "live"
	StatusFinal   GameStatus = "final"
)

// Leg is a single player-prop selection inside a tracked parlay.
// Current stays nil until at least one live snapshot has been applied
// for the player; Period 0 / Clock "" mean "not reported yet".
type Leg struct {
	LegID      string     `json:"leg_id"`
	PlayerID   int        `json:"player_id"`
	GameID     int        `json:"game_id,omitempty"`
	PlayerName string     `json:"player_name"`
	Market     Market     `json:"market"`
	Side       Side       `json:"side"`
	Line       float64    `json:"line"`
	Odds       int        `json:"odds"` // American odds, signed
	Current    *float64   `json:"current"`
	Period     int        `json:"period,omitempty"`
	Clock      string     `json:"clock,omitempty"`
	GameStatus GameStatus `json:"game_status"`
}

// Parlay is a user-tracked multi-leg bet. CreatedAt is immutable and
// pins the parlay to a betting day; legs are mutated in place by live
// snapshot application, and expiry always removes the parlay whole.
type Parlay struct {
	ParlayID  string    `json:"parlay_id"`
	Source    string    `json:"source"`
	Stake     float64   `json:"stake"`
	Payout    float64   `json:"payout"`
	Odds      int       `json:"odds"`
	CreatedAt time.Time `json:"created_at"`
	Legs      []Leg     `json:"legs"`
}

// AllLegsFinal reports whether every leg's game has finished.
// An empty leg list counts as final (nothing left to resolve).
func (p Parlay) AllLegsFinal() bool {
	for _, l := range p.Legs {
		if l.GameStatus != StatusFinal {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so readers never alias the store's legs.
func (p Parlay) Clone() Parlay {
	out := p
	out.Legs = make([]Leg, len(p.Legs))
	copy(out.Legs, p.Legs)
	for i, l := range p.Legs {
		if l.Current != nil {
			v := *l.Current
			out.Legs[i].Current = &v
		}
	}
	return out
}
