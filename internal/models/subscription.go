package models

import "time"

type Subscription struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	CityID         int64     `json:"city_id"`
	CityName       string    `json:"city"`
	PeriodHours    int       `json:"period_hours"`
	LastNotifiedAt time.Time `json:"last_notified_at"`

	// UserEmail is populated by list queries that join users; it never
	// leaves the service.
	UserEmail string `json:"-"`
}
