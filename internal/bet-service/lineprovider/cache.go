package lineprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache guarda eventos terminais no Redis.
// Só resultados definitivos entram aqui, então a entrada nunca fica desatualizada;
// exclusões e edições chegam pelo worker de invalidação.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis de um evento
func key(eventID string) string { return "line:event:" + eventID }

func (r *RedisCache) Get(ctx context.Context, id string) (Event, bool, error) {
	b, err := r.Client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Event{}, false, nil
	}
	if err != nil {
		return Event{}, false, err
	}
	var d eventDTO
	if err := json.Unmarshal(b, &d); err != nil {
		return Event{}, false, fmt.Errorf("decode cached event: %w", err)
	}
	ev, err := d.toEvent()
	if err != nil {
		return Event{}, false, fmt.Errorf("decode cached event: %w", err)
	}
	return ev, true, nil
}

// Set grava o evento; eventos ainda sem resultado são ignorados
func (r *RedisCache) Set(ctx context.Context, e Event) error {
	if !e.Outcome.Terminal() {
		return nil
	}
	b, err := json.Marshal(fromEvent(e))
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(e.ID), b, r.TTL).Err()
}

// Invalidate remove o evento do cache (exclusão/edição no event-service)
func (r *RedisCache) Invalidate(ctx context.Context, id string) error {
	return r.Client.Del(ctx, key(id)).Err()
}
