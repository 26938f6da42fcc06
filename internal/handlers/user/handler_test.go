package user_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/weatherapp/weather-reminder-api/internal/apperrors"
	"github.com/weatherapp/weather-reminder-api/internal/handlers/user"
	"github.com/weatherapp/weather-reminder-api/internal/models"
)

type fakeUsers struct {
	err     error
	gotName string
	gotMail string
	gotHash string
}

func (f *fakeUsers) Create(_ context.Context, username, email, passwordHash string) (models.User, error) {
	f.gotName, f.gotMail, f.gotHash = username, email, passwordHash
	if f.err != nil {
		return models.User{}, f.err
	}
	return models.User{ID: 1, Username: username, Email: email}, nil
}

func register(users *fakeUsers, payload string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/register", user.NewHandler(users).Register)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegister_Created(t *testing.T) {
	users := &fakeUsers{}
	rec := register(users,
		`{"username": "ana", "email": "ana@example.com", "password": "longenough"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "User Created Successfully.")
	assert.Equal(t, "ana", users.gotName)
	assert.Equal(t, "ana@example.com", users.gotMail)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users.gotHash), []byte("longenough")),
		"stored hash must verify against the original password")
}

func TestRegister_ValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{name: "short password", payload: `{"username": "ana", "email": "ana@example.com", "password": "short"}`},
		{name: "bad email", payload: `{"username": "ana", "email": "not-an-email", "password": "longenough"}`},
		{name: "missing username", payload: `{"email": "ana@example.com", "password": "longenough"}`},
		{name: "not json", payload: `username=ana`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &fakeUsers{}
			rec := register(users, tc.payload)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, users.gotName, "invalid payloads never reach the store")
		})
	}
}

func TestRegister_DuplicateUser(t *testing.T) {
	users := &fakeUsers{err: apperrors.ErrUserExists}
	rec := register(users,
		`{"username": "ana", "email": "ana@example.com", "password": "longenough"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
