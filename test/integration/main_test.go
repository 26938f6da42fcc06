//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/weatherapp/weather-reminder-api/internal/handlers/middleware"
	"github.com/weatherapp/weather-reminder-api/internal/handlers/subscription"
	userHandler "github.com/weatherapp/weather-reminder-api/internal/handlers/user"
	weatherHandler "github.com/weatherapp/weather-reminder-api/internal/handlers/weather"
	"github.com/weatherapp/weather-reminder-api/internal/metrics"
	"github.com/weatherapp/weather-reminder-api/internal/notifier"
	"github.com/weatherapp/weather-reminder-api/internal/repository/sqlite"
	"github.com/weatherapp/weather-reminder-api/internal/services/email"
	"github.com/weatherapp/weather-reminder-api/internal/services/subscriptions"
	serviceWeather "github.com/weatherapp/weather-reminder-api/internal/services/weather"
)

// cityConditions is what the fake upstream provider knows. Keys are the
// canonical city spellings it reports back regardless of the query casing.
var cityConditions = map[string]struct {
	temp        float64
	description string
}{
	"Kyiv":   {temp: 21.5, description: "scattered clouds"},
	"London": {temp: 15.2, description: "light rain"},
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type recordingEmailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingEmailer) Send(to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (r *recordingEmailer) all() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail(nil), r.sent...)
}

type stack struct {
	db       *sql.DB
	server   *httptest.Server
	emails   *recordingEmailer
	notifier *notifier.Notifier
	stopOnce sync.Once
}

// stopNotifier shuts the notifier down and drains its mail queue. Safe to
// call from both a test body and the cleanup hook.
func (s *stack) stopNotifier() {
	s.stopOnce.Do(s.notifier.Stop)
}

func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("q")
		for canonical, c := range cityConditions {
			if city == canonical || city == lower(canonical) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{
					"name": %q,
					"main": {"temp": %g, "temp_min": %g, "temp_max": %g, "humidity": 60},
					"weather": [{"main": "Clouds", "description": %q}],
					"wind": {"speed": 4.6}
				}`, canonical, c.temp, c.temp-2, c.temp+2, c.description)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"cod": "404", "message": "city not found"}`)
	}))
}

func lower(s string) string {
	b := []byte(s)
	if len(b) > 0 && b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := zerolog.Nop()

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, goose.SetDialect("sqlite"))
	require.NoError(t, goose.Up(db, "../../migrations"))

	upstream := fakeUpstream(t)
	t.Cleanup(upstream.Close)

	cityRepo := sqlite.NewCityRepository(db, log)
	subRepo := sqlite.NewSubscriptionRepository(db, log)
	userRepo := sqlite.NewUserRepository(db, log)
	weatherRepo := sqlite.NewWeatherRepository(db, log)

	m := metrics.New("integration", nil, "")

	client := serviceWeather.NewClientOpenWeatherMap("test-token", upstream.URL, http.DefaultClient, log)
	weatherService := serviceWeather.NewService(client, cityRepo, weatherRepo, log)
	subscriptionService := subscriptions.NewService(subRepo, cityRepo, m, log)

	emails := &recordingEmailer{}
	emailService := email.NewService(emails, log)

	notificator := notifier.New(subRepo, weatherService, emailService, log,
		m, "@every 1h", 5*time.Second, 16)
	require.NoError(t, notificator.Start(context.Background()))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/register", userHandler.NewHandler(userRepo).Register)
	api.GET("/weather/:cityName", weatherHandler.NewHandler(weatherService).GetWeather)

	subH := subscription.NewHandler(subscriptionService)
	authenticated := api.Group("", middleware.Identity())
	authenticated.GET("/subscriptions", subH.List)
	authenticated.POST("/subscriptions/:cityName/:periodHours", subH.Subscribe)
	authenticated.PUT("/subscriptions/:cityName/:periodHours", subH.Update)
	authenticated.DELETE("/subscriptions/:cityName", subH.Unsubscribe)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	s := &stack{db: db, server: server, emails: emails, notifier: notificator}
	t.Cleanup(s.stopNotifier)
	return s
}

func (s *stack) do(t *testing.T, method, path string, userID int64, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, s.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID > 0 {
		req.Header.Set("X-User-Id", fmt.Sprintf("%d", userID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { require.NoError(t, resp.Body.Close()) }()

	buf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(buf)
}

// registerUser creates an account through the API and returns its id from the
// database, since identity headers are normally attached by the auth edge.
func (s *stack) registerUser(t *testing.T, username, mail string) int64 {
	t.Helper()
	code, _ := s.do(t, http.MethodPost, "/api/v1/register", 0,
		fmt.Sprintf(`{"username": %q, "email": %q, "password": "longenough"}`, username, mail))
	require.Equal(t, http.StatusCreated, code)

	var id int64
	require.NoError(t, s.db.QueryRow(`SELECT id FROM users WHERE email = ?`, mail).Scan(&id))
	return id
}

// backdate rewinds a subscription's last notification so the notifier sees it
// as due.
func (s *stack) backdate(t *testing.T, subID int64, ago time.Duration) {
	t.Helper()
	_, err := s.db.Exec(`UPDATE subscriptions SET last_notified_at = ? WHERE id = ?`,
		time.Now().Add(-ago).Unix(), subID)
	require.NoError(t, err)
}

func (s *stack) subscriptionID(t *testing.T, userID int64, city string) int64 {
	t.Helper()
	var id int64
	require.NoError(t, s.db.QueryRow(
		`SELECT s.id FROM subscriptions s JOIN cities c ON c.id = s.city_id
		 WHERE s.user_id = ? AND c.name = ?`, userID, city).Scan(&id))
	return id
}

func decode(t *testing.T, body string, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(body), out))
}
