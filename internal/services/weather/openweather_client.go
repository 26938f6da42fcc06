package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type apiResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOpenWeatherMap fetches current weather from OpenWeatherMap. A single
// fetch is terminal: upstream failures map to a typed ProviderError and are
// never retried at this layer.
type ClientOpenWeatherMap struct {
	apiKey string
	apiURL string
	client HTTPClient
	logger zerolog.Logger
}

func NewClientOpenWeatherMap(apiKey, apiURL string,
	httpClient HTTPClient, logger zerolog.Logger,
) *ClientOpenWeatherMap {
	logger = logger.With().Str("component", "ClientOpenWeatherMap").Logger()
	return &ClientOpenWeatherMap{apiKey: apiKey, apiURL: apiURL, client: httpClient, logger: logger}
}

// Fetch retrieves the current snapshot for city. The snapshot's CityName is
// the canonical spelling from the provider payload.
func (s *ClientOpenWeatherMap) Fetch(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	if city == "" {
		return models.WeatherSnapshot{}, apperrors.ErrEmptyCity
	}

	reqURL := fmt.Sprintf("%s?q=%s&appid=%s&units=metric",
		s.apiURL, url.QueryEscape(city), s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.WeatherSnapshot{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Str("city", city).Msg("provider request failed")
		return models.WeatherSnapshot{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			s.logger.Error().Err(cerr).Msg("failed to close provider response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		perr := &apperrors.ProviderError{
			Kind:   apperrors.KindFromStatus(resp.StatusCode),
			Status: resp.StatusCode,
		}
		s.logger.Warn().Str("city", city).Int("status", resp.StatusCode).
			Msg("provider returned non-OK status")
		return models.WeatherSnapshot{}, perr
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("%w: malformed payload for %q: %w",
			apperrors.ErrIncompleteData, city, err)
	}
	if len(raw.Weather) == 0 {
		return models.WeatherSnapshot{}, fmt.Errorf("%w: payload for %q has no weather block",
			apperrors.ErrIncompleteData, city)
	}

	return models.WeatherSnapshot{
		Description:    raw.Weather[0].Description,
		Temperature:    raw.Main.Temp,
		TemperatureMin: raw.Main.TempMin,
		TemperatureMax: raw.Main.TempMax,
		Humidity:       raw.Main.Humidity,
		WindSpeed:      raw.Wind.Speed,
		CityName:       raw.Name,
		ObservedAt:     time.Now().UTC(),
	}, nil
}
