package ports

import (
	"context"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// HedgeProvider pide apuestas de cobertura para un parlay en riesgo.
type HedgeProvider interface {
	// SuggestHedges manda las piernas del parlay al servicio de hedging
	// y devuelve las sugerencias. Un slice vacío significa "sin ideas",
	// no error.
	SuggestHedges(ctx context.Context, p domain.Parlay) ([]domain.HedgeSuggestion, error)
}
