package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/contractintel/contract-intel/internal/entity"
)

const (
	contractKeyPrefix = "contract:"
	contractIndexKey  = "contracts"
)

// RedisStore keeps each contract as a JSON value under "contract:<id>" and
// maintains a sorted-set index on upload time for listing.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // zero means records never expire
}

func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("store.redis.connected", "addr", cfg.Addr, "db", cfg.DB)
	return &RedisStore{rdb: rdb, ttl: cfg.TTL, logger: logger}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func key(id uuid.UUID) string {
	return contractKeyPrefix + id.String()
}

func (s *RedisStore) Save(ctx context.Context, c *entity.Contract) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal contract: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(c.ID), b, s.ttl)
	pipe.ZAdd(ctx, contractIndexKey, redis.Z{
		Score:  float64(c.UploadedAt.UnixMilli()),
		Member: c.ID.String(),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save contract: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*entity.Contract, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	var c entity.Contract
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("unmarshal contract: %w", err)
	}
	return &c, nil
}

// List returns contracts newest-first. Index entries whose value expired are
// pruned lazily as they are discovered.
func (s *RedisStore) List(ctx context.Context) ([]*entity.Contract, error) {
	ids, err := s.rdb.ZRevRange(ctx, contractIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	out := make([]*entity.Contract, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Warn("store.redis.bad_index_entry", "member", raw)
			continue
		}
		c, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			s.rdb.ZRem(ctx, contractIndexKey, raw)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	s.rdb.ZRem(ctx, contractIndexKey, id.String())
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
