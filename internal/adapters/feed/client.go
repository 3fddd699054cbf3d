package feed

import (
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
	// Rate limit conservador: el feed agrega box scores cada 20-60s,
	// no hay razón para pegarle más de 2 veces por segundo ni en
	// reintentos.
	feedRatePerSec = 2

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client es el cliente HTTP del feed de stats en vivo, con rate
// limiting y retries. Sirve tanto para el modo polling como para el
// fetch inicial al arrancar.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient crea un Client contra el base URL dado.
func NewClient(baseURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(feedRatePerSec, 2),
	}
}

// FetchSnapshot trae el estado en vivo completo y lo normaliza a un
// LiveSnapshot indexado por player_id.
func (c *Client) FetchSnapshot(ctx context.Context) (domain.LiveSnapshot, error) {
	var payload livePayload
	url := c.baseURL + "/live/stats"
	if err := c.get(ctx, url, &payload); err != nil {
		return nil, fmt.Errorf("feed.FetchSnapshot: %w", err)
	}
	return snapshotFromPayload(payload), nil
}

// get hace un GET con rate limiting y retries.
func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.doWithRetry(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry ejecuta la función con backoff exponencial y jitter.
func (c *Client) doWithRetry(ctx context.Context, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
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
			slog.Warn("feed retryable status", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("status %d: %s", resp.StatusCode, body)
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
