package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/config"
	"github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"
)

// CacheManager keeps the dashboard-facing hot state in redis: the latest
// reading per sensor (with TTL, stale readings age out) and the derived
// tier baseline per entity (no TTL, it is the "previous" side of the next
// transition).
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager creates a cache manager.
func NewCacheManager(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *CacheManager) readingKey(sensorID string) string {
	return c.config.Monitor.Cache.ReadingKeyPrefix + sensorID + c.config.Monitor.Cache.ReadingSuffix
}

func (c *CacheManager) statusKey(entityKey string) string {
	return c.config.Monitor.Cache.StatusKeyPrefix + entityKey
}

// SetLatestReading caches the most recent reading for a sensor.
func (c *CacheManager) SetLatestReading(ctx context.Context, reading domain.Reading) error {
	jsonData, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	ttl := time.Duration(c.config.Monitor.Cache.ReadingTTL) * time.Second
	if err := c.redisClient.Set(ctx, c.readingKey(reading.SensorID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache reading: %w", err)
	}
	return nil
}

// GetLatestReading returns the cached reading for a sensor.
func (c *CacheManager) GetLatestReading(ctx context.Context, sensorID string) (*domain.Reading, error) {
	val, err := c.redisClient.Get(ctx, c.readingKey(sensorID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("reading not found for sensor: %s", sensorID)
		}
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}

	var reading domain.Reading
	if err := json.Unmarshal([]byte(val), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return &reading, nil
}

// PreviousTier returns the stored baseline tier for an entity. The second
// result is false when no baseline exists yet.
func (c *CacheManager) PreviousTier(ctx context.Context, entityKey string) (domain.StatusTier, bool, error) {
	val, err := c.redisClient.Get(ctx, c.statusKey(entityKey)).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.TierNormal, false, nil
		}
		return domain.TierNormal, false, fmt.Errorf("failed to get tier baseline: %w", err)
	}

	tier, err := domain.ParseStatusTier(val)
	if err != nil {
		return domain.TierNormal, false, fmt.Errorf("corrupt tier baseline for %s: %w", entityKey, err)
	}
	return tier, true, nil
}

// SetTier stores the baseline tier for an entity.
func (c *CacheManager) SetTier(ctx context.Context, entityKey string, tier domain.StatusTier) error {
	if err := c.redisClient.Set(ctx, c.statusKey(entityKey), tier.String(), 0).Err(); err != nil {
		return fmt.Errorf("failed to set tier baseline: %w", err)
	}
	return nil
}
