package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/models"
	"github.com/weatherapp/weather-reminder-api/internal/retry"
)

// CityRepository is the get-or-create registry mapping city names to stable
// ids. Names are stored case-sensitively, exactly as supplied.
type CityRepository struct {
	DB  *sql.DB
	log zerolog.Logger
}

func NewCityRepository(db *sql.DB, logger zerolog.Logger) *CityRepository {
	logger = logger.With().Str("component", "CityRepository").Logger()
	return &CityRepository{DB: db, log: logger}
}

// GetOrCreate returns the city record for name, inserting it on first
// reference. Idempotent: the UNIQUE constraint on name resolves concurrent
// inserts and the loser re-selects the winner's row.
func (r *CityRepository) GetOrCreate(ctx context.Context, name string) (models.City, error) {
	city, err := r.getByName(ctx, name)
	if err == nil {
		return city, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.log.Error().Err(err).Str("city", name).Msg("failed to look up city")
		return models.City{}, retry.Retryable(err)
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO cities (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name,
	)
	if err != nil {
		r.log.Error().Err(err).Str("city", name).Msg("failed to insert city")
		return models.City{}, retry.Retryable(err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return models.City{}, retry.Retryable(err)
		}
		r.log.Info().Str("city", name).Int64("city_id", id).Msg("city registered")
		return models.City{ID: id, Name: name}, nil
	}

	// Lost the insert race; the row exists now.
	city, err = r.getByName(ctx, name)
	if err != nil {
		return models.City{}, retry.Retryable(err)
	}
	return city, nil
}

// GetByName is the read-only lookup. Unlike GetOrCreate it never inserts, so
// paths that merely reference a city leave no row behind.
func (r *CityRepository) GetByName(ctx context.Context, name string) (models.City, error) {
	city, err := r.getByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.City{}, apperrors.ErrCityNotFound
	}
	if err != nil {
		r.log.Error().Err(err).Str("city", name).Msg("failed to look up city")
		return models.City{}, retry.Retryable(err)
	}
	return city, nil
}

func (r *CityRepository) getByName(ctx context.Context, name string) (models.City, error) {
	var city models.City
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name FROM cities WHERE name = ?`, name,
	).Scan(&city.ID, &city.Name)
	return city, err
}
