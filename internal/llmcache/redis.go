package llmcache

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog/log"
)

const (
	redisKeyPrefix = "mindline:llm:"
	redisTTL       = 24 * time.Hour
)

// RedisStore layers a Redis hot cache in front of a durable Store. Redis
// failures are logged and the durable store answers alone; the contract is
// identical either way.
type RedisStore struct {
	pool  *redis.Pool
	inner Store
}

// NewRedisStore builds the layered store. addr is host:port.
func NewRedisStore(addr string, inner Store) *RedisStore {
	pool := &redis.Pool{
		MaxIdle:     4,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
	}
	return &RedisStore{pool: pool, inner: inner}
}

// Get checks Redis first, then the durable store, backfilling Redis on a
// durable hit.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	conn, err := s.pool.GetContext(ctx)
	if err == nil {
		raw, rerr := redis.Bytes(conn.Do("GET", redisKeyPrefix+key))
		conn.Close()
		if rerr == nil {
			return raw, true, nil
		}
		if rerr != redis.ErrNil {
			log.Warn().Err(rerr).Msg("redis read failed, falling through to store")
		}
	} else {
		log.Warn().Err(err).Msg("redis unavailable, falling through to store")
	}

	raw, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return raw, ok, err
	}
	s.backfill(ctx, key, raw)
	return raw, true, nil
}

// Put writes through to the durable store and best-effort to Redis. Failed
// calls stay durable-only: a Redis hit with no usable response would read
// back as an empty cached value.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	if err := s.inner.Put(ctx, rec); err != nil {
		return err
	}
	if rec.CallErr != "" || len(rec.Response) == 0 {
		return nil
	}
	s.backfill(ctx, rec.Key, rec.Response)
	return nil
}

// Stats delegates to the durable store.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	return s.inner.Stats(ctx)
}

// ClearAll clears the durable store and sweeps the Redis keyspace.
func (s *RedisStore) ClearAll(ctx context.Context) error {
	if err := s.inner.ClearAll(ctx); err != nil {
		return err
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, skipping hot-cache sweep")
		return nil
	}
	defer conn.Close()

	cursor := 0
	for {
		values, err := redis.Values(conn.Do("SCAN", cursor, "MATCH", redisKeyPrefix+"*", "COUNT", 100))
		if err != nil {
			log.Warn().Err(err).Msg("redis scan failed during sweep")
			return nil
		}
		var keys []string
		if _, err := redis.Scan(values, &cursor, &keys); err != nil {
			log.Warn().Err(err).Msg("redis scan decode failed during sweep")
			return nil
		}
		for _, k := range keys {
			if _, err := conn.Do("DEL", k); err != nil {
				log.Warn().Err(err).Str("key", k).Msg("redis delete failed during sweep")
			}
		}
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the Redis pool.
func (s *RedisStore) Close() error {
	return s.pool.Close()
}

func (s *RedisStore) backfill(ctx context.Context, key string, raw []byte) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return
	}
	defer conn.Close()
	if _, err := conn.Do("SETEX", redisKeyPrefix+key, int(redisTTL.Seconds()), raw); err != nil {
		log.Warn().Err(err).Msg("redis write failed")
	}
}
