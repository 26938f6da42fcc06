package weather_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weatherapp/weather-reminder-api/internal/models"
	"github.com/weatherapp/weather-reminder-api/internal/services/weather"
)

type stubFetcher struct {
	snap  models.WeatherSnapshot
	err   error
	calls []string
}

func (s *stubFetcher) Fetch(_ context.Context, city string) (models.WeatherSnapshot, error) {
	s.calls = append(s.calls, city)
	return s.snap, s.err
}

type stubRegistry struct {
	city  models.City
	err   error
	names []string
}

func (s *stubRegistry) GetOrCreate(_ context.Context, name string) (models.City, error) {
	s.names = append(s.names, name)
	return s.city, s.err
}

type stubHistory struct {
	err      error
	inserted []models.WeatherSnapshot
}

func (s *stubHistory) Insert(_ context.Context, snap models.WeatherSnapshot) error {
	s.inserted = append(s.inserted, snap)
	return s.err
}

func TestService_GetByCity_RegistersCanonicalName(t *testing.T) {
	fetcherStub := &stubFetcher{snap: models.WeatherSnapshot{CityName: "London", Temperature: 10}}
	registry := &stubRegistry{city: models.City{ID: 7, Name: "London"}}
	history := &stubHistory{}

	svc := weather.NewService(fetcherStub, registry, history, zerolog.Nop())

	snap, err := svc.GetByCity(context.Background(), "london")
	require.NoError(t, err)

	assert.Equal(t, []string{"london"}, fetcherStub.calls)
	assert.Equal(t, []string{"London"}, registry.names,
		"the provider-reported name, not the input, gets registered")
	assert.Equal(t, int64(7), snap.CityID)
	require.Len(t, history.inserted, 1)
	assert.Equal(t, int64(7), history.inserted[0].CityID)
}

func TestService_GetByCity_FetchErrorPropagates(t *testing.T) {
	fetcherStub := &stubFetcher{err: errors.New("api down")}
	registry := &stubRegistry{}
	history := &stubHistory{}

	svc := weather.NewService(fetcherStub, registry, history, zerolog.Nop())

	_, err := svc.GetByCity(context.Background(), "London")
	assert.Error(t, err)
	assert.Empty(t, registry.names)
	assert.Empty(t, history.inserted)
}

func TestService_GetByCity_HistoryFailureIsNotFatal(t *testing.T) {
	fetcherStub := &stubFetcher{snap: models.WeatherSnapshot{CityName: "London"}}
	registry := &stubRegistry{city: models.City{ID: 1, Name: "London"}}
	history := &stubHistory{err: errors.New("disk full")}

	svc := weather.NewService(fetcherStub, registry, history, zerolog.Nop())

	snap, err := svc.GetByCity(context.Background(), "London")
	require.NoError(t, err, "snapshot production must not depend on history persistence")
	assert.Equal(t, int64(1), snap.CityID)
}
