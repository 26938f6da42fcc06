package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/models"
	"github.com/weatherapp/weather-reminder-api/internal/retry"
)

// SubscriptionRepository handles CRUD over subscription rows. Storage-level
// failures come back tagged retryable so the service's backoff policy can
// act on them; domain outcomes (not found, duplicate) surface as-is.
type SubscriptionRepository struct {
	DB  *sql.DB
	log zerolog.Logger
}

func NewSubscriptionRepository(db *sql.DB, logger zerolog.Logger) *SubscriptionRepository {
	logger = logger.With().Str("component", "SubscriptionRepository").Logger()
	return &SubscriptionRepository{DB: db, log: logger}
}

// Create inserts a new subscription with last_notified_at set to now.
// A duplicate (user, city) pair is rejected by the unique constraint.
func (r *SubscriptionRepository) Create(
	ctx context.Context,
	userID, cityID int64,
	periodHours int,
	now time.Time,
) (models.Subscription, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, city_id, period_hours, last_notified_at)
		 VALUES (?, ?, ?, ?)`,
		userID, cityID, periodHours, now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.log.Warn().Int64("user_id", userID).Int64("city_id", cityID).
				Msg("subscription already exists, abort create")
			return models.Subscription{}, apperrors.ErrSubscriptionExists
		}
		r.log.Error().Err(err).Int64("user_id", userID).Int64("city_id", cityID).
			Msg("failed to insert subscription")
		return models.Subscription{}, retry.Retryable(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.Subscription{}, retry.Retryable(err)
	}

	r.log.Info().Int64("subscription_id", id).Int64("user_id", userID).
		Int64("city_id", cityID).Int("period_hours", periodHours).
		Msg("subscription created")

	return models.Subscription{
		ID:             id,
		UserID:         userID,
		CityID:         cityID,
		PeriodHours:    periodHours,
		LastNotifiedAt: now.UTC(),
	}, nil
}

// GetByUserAndCity performs the unique (user_id, city_id) lookup used by
// update and delete.
func (r *SubscriptionRepository) GetByUserAndCity(
	ctx context.Context,
	userID, cityID int64,
) (models.Subscription, error) {
	var (
		sub      models.Subscription
		notified int64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT s.id, s.user_id, s.city_id, c.name, s.period_hours, s.last_notified_at
		 FROM subscriptions s
		 JOIN cities c ON c.id = s.city_id
		 WHERE s.user_id = ? AND s.city_id = ?`,
		userID, cityID,
	).Scan(&sub.ID, &sub.UserID, &sub.CityID, &sub.CityName, &sub.PeriodHours, &notified)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subscription{}, apperrors.ErrSubscriptionNotFound
	}
	if err != nil {
		r.log.Error().Err(err).Int64("user_id", userID).Int64("city_id", cityID).
			Msg("failed to look up subscription")
		return models.Subscription{}, retry.Retryable(err)
	}
	sub.LastNotifiedAt = time.Unix(notified, 0).UTC()
	return sub, nil
}

// UpdatePeriod sets a new period and refreshes last_notified_at, restarting
// the notification clock for the subscription.
func (r *SubscriptionRepository) UpdatePeriod(
	ctx context.Context,
	id int64,
	periodHours int,
	now time.Time,
) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE subscriptions SET period_hours = ?, last_notified_at = ? WHERE id = ?`,
		periodHours, now.Unix(), id,
	)
	if err != nil {
		r.log.Error().Err(err).Int64("subscription_id", id).Msg("failed to update subscription")
		return retry.Retryable(err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return retry.Retryable(err)
	}
	if count == 0 {
		return apperrors.ErrSubscriptionNotFound
	}
	r.log.Info().Int64("subscription_id", id).Int("period_hours", periodHours).
		Msg("subscription updated")
	return nil
}

// Delete removes the subscription row.
func (r *SubscriptionRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		r.log.Error().Err(err).Int64("subscription_id", id).Msg("failed to delete subscription")
		return retry.Retryable(err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return retry.Retryable(err)
	}
	if count == 0 {
		return apperrors.ErrSubscriptionNotFound
	}
	r.log.Info().Int64("subscription_id", id).Msg("subscription deleted")
	return nil
}

// ListByUser returns the caller's subscriptions, empty slice when none.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]models.Subscription, error) {
	return r.list(ctx,
		`SELECT s.id, s.user_id, s.city_id, c.name, s.period_hours, s.last_notified_at, u.email
		 FROM subscriptions s
		 JOIN cities c ON c.id = s.city_id
		 JOIN users u ON u.id = s.user_id
		 WHERE s.user_id = ?
		 ORDER BY s.id`,
		userID,
	)
}

// ListAll returns every subscription system-wide; the notifier scans this on
// each beat.
func (r *SubscriptionRepository) ListAll(ctx context.Context) ([]models.Subscription, error) {
	return r.list(ctx,
		`SELECT s.id, s.user_id, s.city_id, c.name, s.period_hours, s.last_notified_at, u.email
		 FROM subscriptions s
		 JOIN cities c ON c.id = s.city_id
		 JOIN users u ON u.id = s.user_id
		 ORDER BY s.id`,
	)
}

// AdvanceLastNotified moves last_notified_at from seen to now. The seen
// predicate is the optimistic guard: when a concurrent pass already advanced
// the row, no rows match and the caller must not send a second notification.
func (r *SubscriptionRepository) AdvanceLastNotified(
	ctx context.Context,
	id int64,
	seen, now time.Time,
) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE subscriptions SET last_notified_at = ? WHERE id = ? AND last_notified_at = ?`,
		now.Unix(), id, seen.Unix(),
	)
	if err != nil {
		r.log.Error().Err(err).Int64("subscription_id", id).
			Msg("failed to advance last_notified_at")
		return false, retry.Retryable(err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, retry.Retryable(err)
	}
	return count > 0, nil
}

func (r *SubscriptionRepository) list(ctx context.Context, query string, args ...any) ([]models.Subscription, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to query subscriptions")
		return nil, retry.Retryable(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			r.log.Error().Err(cerr).Msg("failed to close subscription rows")
		}
	}()

	subs := make([]models.Subscription, 0)
	for rows.Next() {
		var (
			sub      models.Subscription
			notified int64
		)
		if err := rows.Scan(
			&sub.ID, &sub.UserID, &sub.CityID, &sub.CityName,
			&sub.PeriodHours, &notified, &sub.UserEmail,
		); err != nil {
			return nil, retry.Retryable(err)
		}
		sub.LastNotifiedAt = time.Unix(notified, 0).UTC()
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, retry.Retryable(err)
	}
	return subs, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
