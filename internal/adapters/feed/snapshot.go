package feed

import (
	"encoding/json"
	"log/slog"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// snapshot.go — normalización del payload crudo del feed.
//
// Este es el único lugar donde se tolera "cualquier shape": números que
// llegan como string, campos ausentes, registros sin player_id. Hacia
// adentro del tracker solo viaja domain.LiveSnapshot con tipos
// estrictos. Registros malformados se saltan uno a uno, nunca abortan
// el batch.

// livePayload es el shape común del endpoint de polling y del evento
// "snapshot" del stream. Los registros quedan crudos para poder
// descartarlos individualmente si no parsean.
type livePayload struct {
	Players []json.RawMessage `json:"players"`
	Games   []json.RawMessage `json:"games"`
}

// playerStatRaw es el box score crudo de un jugador en un tick.
// json.Number tolera números que upstream manda como string.
type playerStatRaw struct {
	PlayerID   json.Number `json:"player_id"`
	GameID     json.Number `json:"game_id"`
	Points     json.Number `json:"pts"`
	Rebounds   json.Number `json:"reb"`
	Assists    json.Number `json:"ast"`
	ThreesMade json.Number `json:"fg3m"`
	Period     json.Number `json:"period"`
	Clock      string      `json:"clock"`
	GameStatus string      `json:"game_status"`
}

// gameRaw es el estado crudo de un juego; aporta reloj y status cuando
// el registro del jugador no los trae.
type gameRaw struct {
	GameID     json.Number `json:"game_id"`
	Period     json.Number `json:"period"`
	Clock      string      `json:"clock"`
	GameStatus string      `json:"game_status"`
}

// snapshotFromPayload parsea registro por registro y normaliza.
func snapshotFromPayload(payload livePayload) domain.LiveSnapshot {
	players := make([]playerStatRaw, 0, len(payload.Players))
	for _, raw := range payload.Players {
		var p playerStatRaw
		if err := json.Unmarshal(raw, &p); err != nil {
			slog.Debug("feed: skipping malformed player record", "err", err)
			continue
		}
		players = append(players, p)
	}

	games := make([]gameRaw, 0, len(payload.Games))
	for _, raw := range payload.Games {
		var g gameRaw
		if err := json.Unmarshal(raw, &g); err != nil {
			slog.Debug("feed: skipping malformed game record", "err", err)
			continue
		}
		games = append(games, g)
	}

	return buildLiveSnapshot(players, games)
}

// buildLiveSnapshot convierte los registros crudos en un LiveSnapshot
// indexado por player_id coercionado a string (el join key es estable
// aunque upstream alterne entre número y string). Para un mismo
// player_id gana el último registro del input.
func buildLiveSnapshot(players []playerStatRaw, games []gameRaw) domain.LiveSnapshot {
	byGame := make(map[int]gameRaw, len(games))
	for _, g := range games {
		if id := asInt(g.GameID); id != 0 {
			byGame[id] = g
		}
	}

	snap := make(domain.LiveSnapshot, len(players))
	for _, p := range players {
		pid := p.PlayerID.String()
		if pid == "" || pid == "0" {
			continue // sin player_id no hay join posible
		}

		entry := domain.SnapshotEntry{
			Points:     asFloat(p.Points),
			Rebounds:   asFloat(p.Rebounds),
			Assists:    asFloat(p.Assists),
			ThreesMade: asFloat(p.ThreesMade),
			GameID:     asInt(p.GameID),
			Period:     asInt(p.Period),
			Clock:      p.Clock,
			GameStatus: normalizeStatus(p.GameStatus),
		}

		// El registro del juego rellena lo que el del jugador no trae.
		if g, ok := byGame[entry.GameID]; ok {
			if entry.Period == 0 {
				entry.Period = asInt(g.Period)
			}
			if entry.Clock == "" {
				entry.Clock = g.Clock
			}
			if p.GameStatus == "" {
				entry.GameStatus = normalizeStatus(g.GameStatus)
			}
		}

		snap[pid] = entry
	}
	return snap
}

// normalizeStatus mapea los alias que mandan los providers a nuestro
// enum. Sin status explícito se asume live: el feed solo emite
// jugadores de juegos del día.
func normalizeStatus(raw string) domain.GameStatus {
	switch raw {
	case "pregame", "upcoming", "pre", "scheduled":
		return domain.StatusPregame
	case "final", "post", "completed":
		return domain.StatusFinal
	default:
		return domain.StatusLive
	}
}

func asFloat(n json.Number) float64 {
	f, _ := n.Float64()
	return f
}

func asInt(n json.Number) int {
	f, _ := n.Float64()
	return int(f)
}
