package storage

// sqlite.go — persistencia local de parlays trackeados.
//
// Estrategia:
//   - Una fila por parlay, payload JSON completo. El tracker es el
//     único escritor y siempre escribe el parlay entero (write-through),
//     así que no hay nada que normalizar en columnas.
//   - created_at duplicado como columna para poder podar sin parsear
//     JSON: al abrir se borran filas más viejas que la retención, que
//     cubre lo que la limpieza en memoria no vio con el proceso caído.
//   - Filas corruptas se saltan en Load con un warning; un registro
//     roto no puede tirar la hidratación entera.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS tracked_parlays (
    parlay_id  TEXT PRIMARY KEY,
    created_at DATETIME NOT NULL,
    payload    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parlays_created ON tracked_parlays(created_at);
`

// retentionParlays es red de seguridad, no política de expiry: la
// política real (día de apuestas) vive en el dominio y corre en
// memoria. Esto solo evita acumular basura de procesos muertos.
const retentionParlays = 7 * 24 * time.Hour

// SQLiteStorage implementa ports.ParlayStorage usando SQLite
// (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada,
// aplica el schema y poda filas fuera de retención.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// Load devuelve todos los parlays persistidos, saltando filas corruptas.
func (s *SQLiteStorage) Load(ctx context.Context) ([]domain.Parlay, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT parlay_id, payload FROM tracked_parlays ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("storage.Load: query: %w", err)
	}
	defer rows.Close()

	var parlays []domain.Parlay
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("storage.Load: scan: %w", err)
		}

		var p domain.Parlay
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			slog.Warn("storage: skipping corrupt parlay row", "parlay_id", id, "err", err)
			continue
		}
		parlays = append(parlays, p)
	}
	return parlays, rows.Err()
}

// Save inserta o reemplaza el parlay completo.
func (s *SQLiteStorage) Save(ctx context.Context, p domain.Parlay) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage.Save: marshal %s: %w", p.ParlayID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tracked_parlays (parlay_id, created_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(parlay_id) DO UPDATE SET
			created_at = excluded.created_at,
			payload    = excluded.payload`,
		p.ParlayID, p.CreatedAt.UTC(), string(payload),
	)
	if err != nil {
		return fmt.Errorf("storage.Save: upsert %s: %w", p.ParlayID, err)
	}
	return nil
}

// Delete borra un parlay; un id inexistente es un no-op.
func (s *SQLiteStorage) Delete(ctx context.Context, parlayID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM tracked_parlays WHERE parlay_id = ?`, parlayID); err != nil {
		return fmt.Errorf("storage.Delete: %s: %w", parlayID, err)
	}
	return nil
}

// Clear borra todos los parlays.
func (s *SQLiteStorage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tracked_parlays`); err != nil {
		return fmt.Errorf("storage.Clear: %w", err)
	}
	return nil
}

// Close cierra la base de datos limpiamente.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld borra filas fuera de retención. Best-effort: un error acá
// no impide arrancar.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionParlays)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tracked_parlays WHERE created_at < ?`, cutoff)
	if err != nil {
		slog.Warn("storage: prune failed", "err", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("storage: pruned stale parlays", "rows", n)
	}
}
