package email

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type Emailer interface {
	Send(to, subject, body string) error
}

// Service formats notification messages and hands them to the transport.
type Service struct {
	emailer Emailer
	logger  zerolog.Logger
}

func NewService(emailer Emailer, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "EmailService").Logger()
	return &Service{emailer: emailer, logger: logger}
}

// SendWeather sends the plaintext weather report for city to the subscriber.
func (s *Service) SendWeather(to, city string, snap models.WeatherSnapshot) error {
	subject := fmt.Sprintf("Weather notification in %s", city)
	body := fmt.Sprintf("Temperature %.1f\nDescription %s\nHumidity %.0f\nWind speed %.1f",
		snap.Temperature, snap.Description, snap.Humidity, snap.WindSpeed)

	if err := s.emailer.Send(to, subject, body); err != nil {
		s.logger.Error().Err(err).Str("to", to).Str("city", city).Msg("email send failed")
		return err
	}
	s.logger.Info().Str("to", to).Str("city", city).Msg("weather notification sent")
	return nil
}
