package ports

import (
	"context"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// ParlayStorage persiste el set de parlays trackeados (write-through:
// el tracker escribe en cada mutación, sin batching ni transacciones).
type ParlayStorage interface {
	// Load devuelve todos los parlays persistidos. Registros corruptos
	// se saltan, no abortan la carga.
	Load(ctx context.Context) ([]domain.Parlay, error)

	// Save inserta o reemplaza un parlay por parlay_id.
	Save(ctx context.Context, p domain.Parlay) error

	// Delete elimina un parlay; borrar un id inexistente no es error.
	Delete(ctx context.Context, parlayID string) error

	// Clear elimina todos los parlays persistidos.
	Clear(ctx context.Context) error

	// Close cierra la conexión limpiamente.
	Close() error
}
