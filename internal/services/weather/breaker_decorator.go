package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/weatherapp/weather-reminder-api/internal/models"
)

// Fetcher is one link of the provider chain. Decorators wrap it to add
// caching and circuit breaking around the raw client.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (models.WeatherSnapshot, error)
}

type BreakerConfig struct {
	// Interval resets the failure counters while the circuit is closed.
	Interval time.Duration
	// Timeout is how long the circuit stays open before letting one
	// half-open call through.
	Timeout time.Duration
	// TripFailures is the consecutive-failure count that opens the circuit.
	TripFailures uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Interval:     30 * time.Second,
		Timeout:      15 * time.Second,
		TripFailures: 5,
	}
}

// BreakerClient shields the provider behind a circuit breaker so a flapping
// upstream stops eating notifier passes.
type BreakerClient struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	wrapped Fetcher
}

func NewBreakerClient(name string, cfg BreakerConfig, wrapped Fetcher) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.TripFailures
		},
	}
	return &BreakerClient{
		name:    name,
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerClient) Fetch(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Fetch(ctx, city)
	})
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("%s: %w", b.name, err)
	}
	snap, ok := result.(models.WeatherSnapshot)
	if !ok {
		return models.WeatherSnapshot{}, fmt.Errorf("%s: unexpected result type", b.name)
	}
	return snap, nil
}
