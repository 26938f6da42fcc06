package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/models"
	"github.com/weatherapp/weather-reminder-api/internal/retry"
)

type UserRepository struct {
	DB  *sql.DB
	log zerolog.Logger
}

func NewUserRepository(db *sql.DB, logger zerolog.Logger) *UserRepository {
	logger = logger.With().Str("component", "UserRepository").Logger()
	return &UserRepository{DB: db, log: logger}
}

// Create stores a new account. The password arrives already hashed.
func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, email, passwordHash, now.Unix(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, apperrors.ErrUserExists
		}
		r.log.Error().Err(err).Str("username", username).Msg("failed to insert user")
		return models.User{}, retry.Retryable(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, retry.Retryable(err)
	}

	r.log.Info().Int64("user_id", id).Str("username", username).Msg("user registered")
	return models.User{ID: id, Username: username, Email: email, CreatedAt: now}, nil
}
