package sqlite_test

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE users (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT    NOT NULL UNIQUE,
    email         TEXT    NOT NULL,
    password_hash TEXT    NOT NULL,
    created_at    INTEGER NOT NULL
);
CREATE TABLE cities (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT    NOT NULL UNIQUE
);
CREATE TABLE subscriptions (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id          INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    city_id          INTEGER NOT NULL REFERENCES cities (id) ON DELETE CASCADE,
    period_hours     INTEGER NOT NULL DEFAULT 12 CHECK (period_hours >= 1),
    last_notified_at INTEGER NOT NULL,
    UNIQUE (user_id, city_id)
);
CREATE TABLE weather_snapshots (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    city_id         INTEGER NOT NULL REFERENCES cities (id) ON DELETE CASCADE,
    description     TEXT    NOT NULL,
    temperature     REAL    NOT NULL,
    temperature_min REAL    NOT NULL,
    temperature_max REAL    NOT NULL,
    humidity        REAL    NOT NULL,
    wind_speed      REAL    NOT NULL,
    observed_at     INTEGER NOT NULL
);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return db
}

func insertTestUser(t *testing.T, db *sql.DB, username, email string) int64 {
	t.Helper()

	res, err := db.Exec(
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, 'x', 0)`,
		username, email,
	)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
