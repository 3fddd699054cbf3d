package hedge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

const (
	// Un request por parlay en riesgo por tick de 30s: 1 rps con burst
	// cubre de sobra sin castigar al servicio si hay muchos parlays.
	hedgeRatePerSec = 1
	hedgeBurst      = 5

	requestTimeout = 10 * time.Second
	maxRetries     = 3
	baseRetryWait  = 500 * time.Millisecond
)

// Client implementa ports.HedgeProvider contra el endpoint remoto de
// sugerencias de hedge.
type Client struct {
	http      *http.Client
	baseURL   string
	pushToken string // expo_push_token opcional, passthrough
	limiter   *rate.Limiter
}

// NewClient crea un Client contra el base URL dado. pushToken puede
// ser vacío; el endpoint decide si manda push además de responder.
func NewClient(baseURL, pushToken string) *Client {
	return &Client{
		http:      &http.Client{Timeout: requestTimeout},
		baseURL:   baseURL,
		pushToken: pushToken,
		limiter:   rate.NewLimiter(hedgeRatePerSec, hedgeBurst),
	}
}

// legPayload es la pierna en el shape que espera el endpoint.
type legPayload struct {
	LegID      string            `json:"leg_id"`
	PlayerID   int               `json:"player_id"`
	PlayerName string            `json:"player_name"`
	Market     domain.Market     `json:"market"`
	Side       domain.Side       `json:"side"`
	Line       float64           `json:"line"`
	Current    *float64          `json:"current"`
	Period     int               `json:"period,omitempty"`
	Clock      string            `json:"clock,omitempty"`
	GameStatus domain.GameStatus `json:"game_status"`
}

type suggestRequest struct {
	ParlayID      string       `json:"parlay_id"`
	Legs          []legPayload `json:"legs"`
	ExpoPushToken string       `json:"expo_push_token,omitempty"`
}

type suggestResponse struct {
	ParlayID    string                   `json:"parlay_id"`
	Suggestions []domain.HedgeSuggestion `json:"suggestions"`
	PushSent    bool                     `json:"push_sent"`
}

// SuggestHedges manda las piernas del parlay y devuelve las apuestas
// de cobertura propuestas.
func (c *Client) SuggestHedges(ctx context.Context, p domain.Parlay) ([]domain.HedgeSuggestion, error) {
	req := suggestRequest{
		ParlayID:      p.ParlayID,
		Legs:          make([]legPayload, 0, len(p.Legs)),
		ExpoPushToken: c.pushToken,
	}
	for _, l := range p.Legs {
		req.Legs = append(req.Legs, legPayload{
			LegID:      l.LegID,
			PlayerID:   l.PlayerID,
			PlayerName: l.PlayerName,
			Market:     l.Market,
			Side:       l.Side,
			Line:       l.Line,
			Current:    l.Current,
			Period:     l.Period,
			Clock:      l.Clock,
			GameStatus: l.GameStatus,
		})
	}

	var resp suggestResponse
	if err := c.post(ctx, c.baseURL+"/hedge/suggestions", req, &resp); err != nil {
		return nil, fmt.Errorf("hedge.SuggestHedges: %s: %w", p.ParlayID, err)
	}
	return resp.Suggestions, nil
}

// post hace un POST JSON con rate limiting y retries. El body POST es
// idempotente (solo pide sugerencias, no muta nada), así que reintentar
// un 5xx/429 es seguro.
func (c *Client) post(ctx context.Context, url string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("hedge retryable status", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unreachable")
}

// sleep espera con backoff exponencial + jitter, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(float64(baseRetryWait) * math.Pow(2, float64(attempt)))
	wait += time.Duration(rand.Int63n(int64(wait / 2)))
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}
