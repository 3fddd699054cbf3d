package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// RedisStorage implementa ports.ParlayStorage sobre Redis, para
// deployments donde el tracker corre hosteado en vez de embebido en el
// cliente. Mismo contrato que SQLite: JSON completo por parlay, filas
// corruptas se saltan en Load.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage conecta a Redis y verifica la conexión.
func NewRedisStorage(addr, prefix string) (*RedisStorage, error) {
	if prefix == "" {
		prefix = "parlaywatch:tracked:"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("storage.NewRedisStorage: ping %s: %w", addr, err)
	}
	return &RedisStorage{client: client, prefix: prefix}, nil
}

func (s *RedisStorage) key(parlayID string) string { return s.prefix + parlayID }

// Load escanea el prefijo y devuelve todos los parlays.
func (s *RedisStorage) Load(ctx context.Context) ([]domain.Parlay, error) {
	var parlays []domain.Parlay

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		payload, err := s.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue // expiró entre el scan y el get
		}
		if err != nil {
			return nil, fmt.Errorf("storage.Load: get %s: %w", iter.Val(), err)
		}

		var p domain.Parlay
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			slog.Warn("storage: skipping corrupt parlay key", "key", iter.Val(), "err", err)
			continue
		}
		parlays = append(parlays, p)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("storage.Load: scan: %w", err)
	}
	return parlays, nil
}

// Save escribe el parlay completo bajo su key.
func (s *RedisStorage) Save(ctx context.Context, p domain.Parlay) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage.Save: marshal %s: %w", p.ParlayID, err)
	}
	if err := s.client.Set(ctx, s.key(p.ParlayID), payload, 0).Err(); err != nil {
		return fmt.Errorf("storage.Save: set %s: %w", p.ParlayID, err)
	}
	return nil
}

// Delete borra la key del parlay; inexistente es no-op.
func (s *RedisStorage) Delete(ctx context.Context, parlayID string) error {
	if err := s.client.Del(ctx, s.key(parlayID)).Err(); err != nil {
		return fmt.Errorf("storage.Delete: %s: %w", parlayID, err)
	}
	return nil
}

// Clear borra todas las keys del prefijo.
func (s *RedisStorage) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("storage.Clear: del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("storage.Clear: scan: %w", err)
	}
	return nil
}

// Close cierra la conexión.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
