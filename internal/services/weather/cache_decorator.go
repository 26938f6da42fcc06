package weather

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type cacheClient interface {
	Set(ctx context.Context, key string, value models.WeatherSnapshot) error
	Get(ctx context.Context, key string, out *models.WeatherSnapshot) error
}

// CachedClient is a read-through cache over the provider client. TTL is owned
// by the cache client; a failed cache write never fails the fetch.
type CachedClient struct {
	inner  Fetcher
	cache  cacheClient
	logger zerolog.Logger
}

func NewCachedClient(inner Fetcher, cache cacheClient, logger zerolog.Logger) *CachedClient {
	logger = logger.With().Str("component", "CachedClient").Logger()
	return &CachedClient{inner: inner, cache: cache, logger: logger}
}

func (c *CachedClient) Fetch(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	key := fmt.Sprintf("weather:%s", city)

	var snap models.WeatherSnapshot
	if err := c.cache.Get(ctx, key, &snap); err == nil {
		c.logger.Debug().Str("city", city).Msg("cache hit")
		return snap, nil
	}

	c.logger.Debug().Str("city", city).Msg("cache miss")
	snap, err := c.inner.Fetch(ctx, city)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}

	if err := c.cache.Set(ctx, key, snap); err != nil {
		c.logger.Warn().Err(err).Str("city", city).Msg("failed to cache snapshot")
	}
	return snap, nil
}
