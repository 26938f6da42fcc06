package emailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/config"
)

// SMTPService is the outbound mail transport.
type SMTPService struct {
	user     string
	host     string
	port     string
	password string
	from     string
	logger   zerolog.Logger
}

func NewSMTPService(cfg config.Email, logger zerolog.Logger) (*SMTPService, error) {
	if cfg.Host == "" || cfg.Port == "" || cfg.From == "" {
		return nil, fmt.Errorf("smtp credentials are not fully set")
	}
	logger = logger.With().Str("component", "SMTPService").Logger()
	return &SMTPService{
		user:     cfg.User,
		host:     cfg.Host,
		port:     cfg.Port,
		password: cfg.Password,
		from:     cfg.From,
		logger:   logger,
	}, nil
}

func (e *SMTPService) Send(to, subject, body string) error {
	auth := smtp.PlainAuth("", e.user, e.password, e.host)

	msg := "From: " + e.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n\r\n" +
		body

	addr := e.host + ":" + e.port
	if err := smtp.SendMail(addr, auth, e.from, []string{to}, []byte(msg)); err != nil {
		e.logger.Error().Err(err).Str("to", to).Msg("smtp send failed")
		return err
	}
	return nil
}
