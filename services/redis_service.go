package services

import (
	"context"
	"errors"
	"time"

	"attendance/constants"
	"attendance/models"
	"attendance/services/logger"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const DefaultRecordCacheTTL = 24 * time.Hour

// ErrCacheMiss is returned by GetFromRedis when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

func GetFromRedis(ctx context.Context, rdb *redis.Client, key string, target interface{}) error {
	cachedData, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(cachedData, target)
}

func SetToRedis(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) error {
	dataJSON, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, dataJSON, ttl).Err()
}

func DeleteFromRedis(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// CachedRecord is the last known state of an identity's day
type CachedRecord struct {
	Record   *models.AttendanceRecord `json:"record"`
	CachedAt time.Time                `json:"cachedAt"`
}

// RecordCache keeps the last written record per identity. It is never
// authoritative; callers fall back to it only when the store is unreachable.
type RecordCache interface {
	Put(ctx context.Context, rec *models.AttendanceRecord) error
	Get(ctx context.Context, id models.Identity) (*CachedRecord, error)
	Clear(ctx context.Context) error
}

type RedisRecordCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisRecordCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *RedisRecordCache {
	if ttl <= 0 {
		ttl = DefaultRecordCacheTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisRecordCache{rdb: rdb, ttl: ttl, logger: log}
}

func recordCacheKey(id models.Identity) string {
	return constants.CacheKeyAttendance + id.Key()
}

func (c *RedisRecordCache) Put(ctx context.Context, rec *models.AttendanceRecord) error {
	entry := CachedRecord{Record: rec, CachedAt: time.Now().UTC()}
	return SetToRedis(ctx, c.rdb, recordCacheKey(rec.Identity()), entry, c.ttl)
}

// Get returns nil without error on a miss.
func (c *RedisRecordCache) Get(ctx context.Context, id models.Identity) (*CachedRecord, error) {
	var entry CachedRecord
	err := GetFromRedis(ctx, c.rdb, recordCacheKey(id), &entry)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Clear drops every cached record.
func (c *RedisRecordCache) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, constants.CacheKeyAttendance+"*", 100).Result()
		if err != nil {
			return err
		}
		if err := DeleteFromRedis(ctx, c.rdb, keys...); err != nil {
			return err
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.logger.Debug("Cleared attendance cache")
	return nil
}

// NopRecordCache is used when Redis is not configured
type NopRecordCache struct{}

func (NopRecordCache) Put(context.Context, *models.AttendanceRecord) error { return nil }

func (NopRecordCache) Get(context.Context, models.Identity) (*CachedRecord, error) { return nil, nil }

func (NopRecordCache) Clear(context.Context) error { return nil }
