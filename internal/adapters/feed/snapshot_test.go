package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

func payloadFrom(t *testing.T, raw string) livePayload {
	t.Helper()
	var p livePayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestSnapshotFromPayload_Basic(t *testing.T) {
	p := payloadFrom(t, `{
		"players": [
			{"player_id": 237, "game_id": 9001, "pts": 18, "reb": 7, "ast": 4, "fg3m": 2,
			 "period": 3, "clock": "5:30", "game_status": "live"}
		],
		"games": []
	}`)

	snap := snapshotFromPayload(p)
	require.Len(t, snap, 1)

	// Key coercionado a string
	entry, ok := snap["237"]
	require.True(t, ok)
	assert.Equal(t, 18.0, entry.Points)
	assert.Equal(t, 7.0, entry.Rebounds)
	assert.Equal(t, 4.0, entry.Assists)
	assert.Equal(t, 2.0, entry.ThreesMade)
	assert.Equal(t, 9001, entry.GameID)
	assert.Equal(t, 3, entry.Period)
	assert.Equal(t, "5:30", entry.Clock)
	assert.Equal(t, domain.StatusLive, entry.GameStatus)
}

func TestSnapshotFromPayload_StringCoercedIDs(t *testing.T) {
	// Upstream a veces manda los ids como string; el join key no cambia
	p := payloadFrom(t, `{
		"players": [{"player_id": "237", "pts": "22.0"}]
	}`)

	snap := snapshotFromPayload(p)
	entry, ok := snap["237"]
	require.True(t, ok)
	assert.Equal(t, 22.0, entry.Points)
}

func TestSnapshotFromPayload_SkipsRecordsWithoutPlayerID(t *testing.T) {
	p := payloadFrom(t, `{
		"players": [
			{"pts": 30},
			{"player_id": 0, "pts": 12},
			{"player_id": "not-a-number", "pts": 9},
			{"player_id": 44, "pts": 5}
		]
	}`)

	snap := snapshotFromPayload(p)
	require.Len(t, snap, 1)
	assert.Contains(t, snap, "44")
}

func TestSnapshotFromPayload_LastRecordWins(t *testing.T) {
	p := payloadFrom(t, `{
		"players": [
			{"player_id": 7, "pts": 10},
			{"player_id": 7, "pts": 14}
		]
	}`)

	snap := snapshotFromPayload(p)
	require.Len(t, snap, 1)
	assert.Equal(t, 14.0, snap["7"].Points)
}

func TestSnapshotFromPayload_GameRecordFillsGaps(t *testing.T) {
	// El jugador no trae reloj ni status: los hereda de su juego
	p := payloadFrom(t, `{
		"players": [{"player_id": 7, "game_id": 100, "pts": 10}],
		"games":   [{"game_id": 100, "period": 2, "clock": "6:00", "game_status": "live"}]
	}`)

	snap := snapshotFromPayload(p)
	entry := snap["7"]
	assert.Equal(t, 2, entry.Period)
	assert.Equal(t, "6:00", entry.Clock)
	assert.Equal(t, domain.StatusLive, entry.GameStatus)
}

func TestSnapshotFromPayload_StatusDefaultsToLive(t *testing.T) {
	p := payloadFrom(t, `{"players": [{"player_id": 7}]}`)
	assert.Equal(t, domain.StatusLive, snapshotFromPayload(p)["7"].GameStatus)
}

func TestSnapshotFromPayload_StatusAliases(t *testing.T) {
	p := payloadFrom(t, `{
		"players": [
			{"player_id": 1, "game_status": "pre"},
			{"player_id": 2, "game_status": "post"},
			{"player_id": 3, "game_status": "final"},
			{"player_id": 4, "game_status": "upcoming"}
		]
	}`)

	snap := snapshotFromPayload(p)
	assert.Equal(t, domain.StatusPregame, snap["1"].GameStatus)
	assert.Equal(t, domain.StatusFinal, snap["2"].GameStatus)
	assert.Equal(t, domain.StatusFinal, snap["3"].GameStatus)
	assert.Equal(t, domain.StatusPregame, snap["4"].GameStatus)
}

func TestSnapshotFromPayload_Empty(t *testing.T) {
	snap := snapshotFromPayload(livePayload{})
	assert.Empty(t, snap)
}

func TestSnapshotEntry_CombinedMarkets(t *testing.T) {
	e := domain.SnapshotEntry{Points: 20, Rebounds: 8, Assists: 5, ThreesMade: 3}

	got, ok := e.StatFor(domain.MarketPRA)
	require.True(t, ok)
	assert.Equal(t, 33.0, got)

	got, _ = e.StatFor(domain.MarketPR)
	assert.Equal(t, 28.0, got)
	got, _ = e.StatFor(domain.MarketPA)
	assert.Equal(t, 25.0, got)
	got, _ = e.StatFor(domain.MarketRA)
	assert.Equal(t, 13.0, got)

	_, ok = e.StatFor(domain.Market("bogus"))
	assert.False(t, ok)
}

func TestClient_FetchSnapshot(t *testing.T) {
	fixture := `{
		"players": [{"player_id": 237, "pts": 31, "period": 4, "clock": "2:11"}],
		"games": []
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/live/stats", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(fixture))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	snap, err := client.FetchSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, 31.0, snap["237"].Points)
}
