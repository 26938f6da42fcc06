package subscriptions

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/metrics"
	"github.com/weatherapp/weather-reminder-api/internal/models"
	"github.com/weatherapp/weather-reminder-api/internal/retry"
)

type subscriptionRepository interface {
	Create(ctx context.Context, userID, cityID int64, periodHours int, now time.Time) (models.Subscription, error)
	GetByUserAndCity(ctx context.Context, userID, cityID int64) (models.Subscription, error)
	UpdatePeriod(ctx context.Context, id int64, periodHours int, now time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]models.Subscription, error)
}

type cityRegistry interface {
	GetOrCreate(ctx context.Context, name string) (models.City, error)
	GetByName(ctx context.Context, name string) (models.City, error)
}

// Service owns subscription lifecycle. Every mutation runs under the backoff
// policy; transient storage failures get three attempts, domain outcomes
// (not found, duplicate, bad period) fail fast.
type Service struct {
	repo   subscriptionRepository
	cities cityRegistry
	logger zerolog.Logger
	m      *metrics.Metrics

	now        func() time.Time
	retryDelay time.Duration
}

func NewService(repo subscriptionRepository, cities cityRegistry, m *metrics.Metrics, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "SubscriptionService").Logger()
	return &Service{
		repo:       repo,
		cities:     cities,
		logger:     logger,
		m:          m,
		now:        time.Now,
		retryDelay: time.Second,
	}
}

// Subscribe creates a subscription for (userID, cityName). The notification
// clock starts at creation time.
func (s *Service) Subscribe(ctx context.Context, userID int64, cityName string, periodHours int) (models.Subscription, error) {
	if err := validate(cityName, periodHours); err != nil {
		return models.Subscription{}, err
	}

	var sub models.Subscription
	err := retry.DoWithDelay(ctx, s.retryDelay, func(ctx context.Context) error {
		city, err := s.cities.GetOrCreate(ctx, cityName)
		if err != nil {
			return err
		}
		sub, err = s.repo.Create(ctx, userID, city.ID, periodHours, s.now().UTC())
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("city", cityName).
			Msg("subscribe failed")
		s.countFailure("subscribe", err)
		return models.Subscription{}, err
	}
	s.m.SubscriptionsCreated.Inc()
	sub.CityName = cityName
	return sub, nil
}

// Update changes the period of the unique (userID, cityName) subscription and
// refreshes its notification clock.
func (s *Service) Update(ctx context.Context, userID int64, cityName string, periodHours int) (models.Subscription, error) {
	if err := validate(cityName, periodHours); err != nil {
		return models.Subscription{}, err
	}

	var sub models.Subscription
	err := retry.DoWithDelay(ctx, s.retryDelay, func(ctx context.Context) error {
		city, err := s.lookupCity(ctx, cityName)
		if err != nil {
			return err
		}
		sub, err = s.repo.GetByUserAndCity(ctx, userID, city.ID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := s.repo.UpdatePeriod(ctx, sub.ID, periodHours, now); err != nil {
			return err
		}
		sub.PeriodHours = periodHours
		sub.LastNotifiedAt = now
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("city", cityName).
			Msg("update failed")
		s.countFailure("update", err)
		return models.Subscription{}, err
	}
	return sub, nil
}

// Unsubscribe removes the unique (userID, cityName) subscription.
func (s *Service) Unsubscribe(ctx context.Context, userID int64, cityName string) error {
	if cityName == "" {
		return apperrors.ErrEmptyCity
	}

	err := retry.DoWithDelay(ctx, s.retryDelay, func(ctx context.Context) error {
		city, err := s.lookupCity(ctx, cityName)
		if err != nil {
			return err
		}
		sub, err := s.repo.GetByUserAndCity(ctx, userID, city.ID)
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, sub.ID)
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Str("city", cityName).
			Msg("unsubscribe failed")
		s.countFailure("unsubscribe", err)
	}
	return err
}

// List returns the caller's subscriptions. The read path carries no retry.
func (s *Service) List(ctx context.Context, userID int64) ([]models.Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// lookupCity resolves an existing city without inserting one. A city nobody
// ever fetched or subscribed to cannot carry a subscription, so the miss maps
// straight to the not-found outcome.
func (s *Service) lookupCity(ctx context.Context, cityName string) (models.City, error) {
	city, err := s.cities.GetByName(ctx, cityName)
	if errors.Is(err, apperrors.ErrCityNotFound) {
		return models.City{}, apperrors.ErrSubscriptionNotFound
	}
	return city, err
}

// countFailure splits failures the way dashboards slice them: domain outcomes
// are business errors, everything else exhausted the retry budget.
func (s *Service) countFailure(op string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrSubscriptionExists),
		errors.Is(err, apperrors.ErrSubscriptionNotFound),
		errors.Is(err, apperrors.ErrEmptyCity),
		errors.Is(err, apperrors.ErrInvalidPeriod):
		s.m.BusinessErrors.WithLabelValues(op, "expected").Inc()
	default:
		s.m.TechnicalErrors.WithLabelValues(op, "critical").Inc()
	}
}

func validate(cityName string, periodHours int) error {
	if cityName == "" {
		return apperrors.ErrEmptyCity
	}
	if periodHours < 1 {
		return apperrors.ErrInvalidPeriod
	}
	return nil
}
