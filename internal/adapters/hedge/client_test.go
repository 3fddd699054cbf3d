package hedge_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/parlaywatch/internal/adapters/hedge"
	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

func sampleParlay() domain.Parlay {
	cur := 8.0
	return domain.Parlay{
		ParlayID: "p1",
		Legs: []domain.Leg{{
			LegID:      "l1",
			PlayerID:   237,
			PlayerName: "LeBron James",
			Market:     domain.MarketPoints,
			Side:       domain.SideOver,
			Line:       25.5,
			Current:    &cur,
			Period:     3,
			Clock:      "9:00",
			GameStatus: domain.StatusLive,
		}},
	}
}

func TestClient_SuggestHedges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hedge/suggestions", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p1", req["parlay_id"])
		assert.Equal(t, "tok-123", req["expo_push_token"])

		legs, ok := req["legs"].([]any)
		require.True(t, ok)
		require.Len(t, legs, 1)
		leg := legs[0].(map[string]any)
		assert.Equal(t, "pts", leg["market"])
		assert.Equal(t, 8.0, leg["current"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"parlay_id": "p1",
			"suggestions": [
				{"leg_id": "l1", "player_name": "LeBron James", "market": "pts",
				 "side": "under", "line": 24.5, "odds": -115, "book": "fanduel",
				 "reason": "cold shooting night"}
			],
			"push_sent": true
		}`))
	}))
	defer srv.Close()

	client := hedge.NewClient(srv.URL, "tok-123")
	got, err := client.SuggestHedges(context.Background(), sampleParlay())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, domain.SideUnder, got[0].Side)
	assert.Equal(t, 24.5, got[0].Line)
	assert.Equal(t, "fanduel", got[0].Book)
}

func TestClient_SuggestHedges_EmptySuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"parlay_id": "p1", "suggestions": [], "push_sent": false}`))
	}))
	defer srv.Close()

	client := hedge.NewClient(srv.URL, "")
	got, err := client.SuggestHedges(context.Background(), sampleParlay())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_SuggestHedges_ClientErrorNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := hedge.NewClient(srv.URL, "")
	_, err := client.SuggestHedges(context.Background(), sampleParlay())
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_SuggestHedges_RetriesServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"parlay_id": "p1", "suggestions": [], "push_sent": false}`))
	}))
	defer srv.Close()

	client := hedge.NewClient(srv.URL, "")
	_, err := client.SuggestHedges(context.Background(), sampleParlay())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}
