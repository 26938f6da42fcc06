package weather

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type cityRegistry interface {
	GetOrCreate(ctx context.Context, name string) (models.City, error)
}

type snapshotStore interface {
	Insert(ctx context.Context, snap models.WeatherSnapshot) error
}

// Service produces weather snapshots: it fetches from the provider chain,
// registers the canonical city name, and records the snapshot as history.
type Service struct {
	client  Fetcher
	cities  cityRegistry
	history snapshotStore
	logger  zerolog.Logger
}

func NewService(client Fetcher, cities cityRegistry, history snapshotStore, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "WeatherService").Logger()
	return &Service{client: client, cities: cities, history: history, logger: logger}
}

// GetByCity fetches the snapshot for city. The city table is keyed by the
// canonical name reported by the provider, not the caller's spelling, so
// "london" and "London" resolve to one record.
func (s *Service) GetByCity(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	snap, err := s.client.Fetch(ctx, city)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}

	registered, err := s.cities.GetOrCreate(ctx, snap.CityName)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	snap.CityID = registered.ID

	// History is best-effort; producing a valid snapshot is the contract.
	if err := s.history.Insert(ctx, snap); err != nil {
		s.logger.Error().Err(err).Str("city", snap.CityName).
			Msg("failed to record weather snapshot")
	}

	return snap, nil
}
