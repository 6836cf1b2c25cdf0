package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Checker-Finance/basedata-adapter/pkg/model"
)

const keyPrefix = "basedata:record"

// RecordCache caches extracted instrument records.
type RecordCache interface {
	GetRecord(ctx context.Context, key RecordKey) (*model.InstrumentRecord, error)
	PutRecord(ctx context.Context, key RecordKey, rec *model.InstrumentRecord) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// RecordKey identifies one cached extraction. Requests that differ in hint
// or pinned venue are cached separately.
type RecordKey struct {
	Identifier string
	AssetClass string
	VenueID    string
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix,
		strings.ToUpper(k.Identifier), k.AssetClass, k.VenueID)
}

type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(addr string, db int, password string, ttl time.Duration, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{redis: rdb, ttl: ttl, logger: logger}, nil
}

// GetRecord returns the cached record, or nil without error on a miss.
func (s *RedisStore) GetRecord(ctx context.Context, key RecordKey) (*model.InstrumentRecord, error) {
	var rec model.InstrumentRecord
	err := s.GetJSON(ctx, key.String(), &rec)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) PutRecord(ctx context.Context, key RecordKey, rec *model.InstrumentRecord) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if err := s.SetJSON(ctx, key.String(), rec, s.ttl); err != nil {
		s.logger.Error("store.redis.put_record_failed",
			zap.String("key", key.String()),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *RedisStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, key, data, ttl).Err()
}

func (s *RedisStore) GetJSON(ctx context.Context, key string, dest any) error {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (s *RedisStore) HealthCheck(ctx context.Context) error {
	if s.redis == nil {
		return fmt.Errorf("redis not initialized")
	}
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if s.redis != nil {
		return s.redis.Close()
	}
	return nil
}
