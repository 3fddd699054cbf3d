package ports

import (
	"context"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// Notifier presenta el estado de los parlays trackeados al usuario.
type Notifier interface {
	// Notify muestra la evaluación de riesgo de cada parlay y las
	// sugerencias de hedge acumuladas (keyed por parlay_id; un parlay
	// sin sugerencias no aparece en el map).
	Notify(ctx context.Context, risks []domain.ParlayRisk, hedges map[string][]domain.HedgeSuggestion) error
}
