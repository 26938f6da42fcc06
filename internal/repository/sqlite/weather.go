package sqlite

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/models"
	"github.com/weatherapp/weather-reminder-api/internal/retry"
)

// WeatherRepository keeps the historical record of fetched snapshots.
type WeatherRepository struct {
	DB  *sql.DB
	log zerolog.Logger
}

func NewWeatherRepository(db *sql.DB, logger zerolog.Logger) *WeatherRepository {
	logger = logger.With().Str("component", "WeatherRepository").Logger()
	return &WeatherRepository{DB: db, log: logger}
}

func (r *WeatherRepository) Insert(ctx context.Context, snap models.WeatherSnapshot) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO weather_snapshots
		    (city_id, description, temperature, temperature_min, temperature_max,
		     humidity, wind_speed, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.CityID, snap.Description, snap.Temperature, snap.TemperatureMin,
		snap.TemperatureMax, snap.Humidity, snap.WindSpeed, snap.ObservedAt.Unix(),
	)
	if err != nil {
		r.log.Error().Err(err).Int64("city_id", snap.CityID).
			Msg("failed to insert weather snapshot")
		return retry.Retryable(err)
	}
	return nil
}
