package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "modernc.org/sqlite"

	"github.com/weatherapp/weather-reminder-api/internal/cache"
	"github.com/weatherapp/weather-reminder-api/internal/config"
	"github.com/weatherapp/weather-reminder-api/internal/emailer"
	"github.com/weatherapp/weather-reminder-api/internal/handlers/middleware"
	"github.com/weatherapp/weather-reminder-api/internal/handlers/subscription"
	userHandler "github.com/weatherapp/weather-reminder-api/internal/handlers/user"
	weatherHandler "github.com/weatherapp/weather-reminder-api/internal/handlers/weather"
	"github.com/weatherapp/weather-reminder-api/internal/metrics"
	"github.com/weatherapp/weather-reminder-api/internal/models"
	"github.com/weatherapp/weather-reminder-api/internal/notifier"
	"github.com/weatherapp/weather-reminder-api/internal/repository/sqlite"
	"github.com/weatherapp/weather-reminder-api/internal/services/email"
	"github.com/weatherapp/weather-reminder-api/internal/services/subscriptions"
	serviceWeather "github.com/weatherapp/weather-reminder-api/internal/services/weather"
	"github.com/weatherapp/weather-reminder-api/pkg/logger"
)

const (
	shutdownTimeout = 5 * time.Second

	fileMode = 0o644
)

type App struct {
	cfg config.Config
	log zerolog.Logger
}

type ServiceContainer struct {
	WeatherService      *serviceWeather.Service
	SubscriptionService *subscriptions.Service
	EmailService        *email.Service
	Notificator         *notifier.Notifier
	Users               *sqlite.UserRepository
	Metrics             *metrics.Metrics

	Router *gin.Engine
	Srv    *http.Server
	Db     *sql.DB

	redisClient *redis.Client
	fileLogger  *zap.Logger
}

func New(cfg config.Config, log zerolog.Logger) *App {
	return &App{cfg: cfg, log: log.With().Str("component", "App").Logger()}
}

func (a *App) Init() (*ServiceContainer, error) {
	a.log.Info().Str("address", a.cfg.Server.Address).Msg("initializing application")

	db, err := CreateSqliteDb(a.cfg.DB.Dialect, a.cfg.DB.Source)
	if err != nil {
		return nil, err
	}

	if err := InitSqliteDb(db, a.cfg.DB.Dialect, a.cfg.DB.MigrationsPath); err != nil {
		return nil, err
	}

	m := metrics.New("weather_reminder", db, a.cfg.DB.Source)

	router := gin.New()
	router.Use(gin.Recovery(), m.GinMiddleware())

	apiServer := &http.Server{
		Addr:        a.cfg.Server.Address,
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	cityRepository := sqlite.NewCityRepository(db, a.log)
	subRepository := sqlite.NewSubscriptionRepository(db, a.log)
	userRepository := sqlite.NewUserRepository(db, a.log)
	weatherRepository := sqlite.NewWeatherRepository(db, a.log)

	fileLogger, err := newFileLogger(a.cfg.ProviderLogsPath)
	if err != nil {
		return nil, err
	}

	httpLogClient := &http.Client{
		Transport: logger.NewRoundTripper(fileLogger),
	}

	var weatherClient serviceWeather.Fetcher = serviceWeather.NewBreakerClient(
		"openweathermap",
		serviceWeather.DefaultBreakerConfig(),
		serviceWeather.NewClientOpenWeatherMap(
			a.cfg.OpenWeather.APIKey,
			a.cfg.OpenWeather.URL,
			httpLogClient,
			a.log,
		),
	)

	var redisClient *redis.Client
	if a.cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: a.cfg.Redis.Addr})
		weatherCache := cache.NewRedisClient[models.WeatherSnapshot](
			redisClient, a.log, a.cfg.Redis.CacheTTL())
		weatherClient = serviceWeather.NewCachedClient(weatherClient, weatherCache, a.log)
		a.log.Info().Str("addr", a.cfg.Redis.Addr).Msg("weather cache enabled")
	}

	weatherService := serviceWeather.NewService(weatherClient, cityRepository, weatherRepository, a.log)
	subscriptionService := subscriptions.NewService(subRepository, cityRepository, m, a.log)

	smtpService, err := emailer.NewSMTPService(a.cfg.Email, a.log)
	if err != nil {
		return nil, err
	}
	emailService := email.NewService(smtpService, a.log)

	notificator := notifier.New(
		subRepository,
		weatherService,
		emailService,
		a.log,
		m,
		a.cfg.Notifier.CronSpec,
		a.cfg.Notifier.ItemTimeout(),
		a.cfg.Notifier.QueueSize,
	)

	return &ServiceContainer{
		WeatherService:      weatherService,
		SubscriptionService: subscriptionService,
		EmailService:        emailService,
		Notificator:         notificator,
		Users:               userRepository,
		Metrics:             m,

		Router: router,
		Srv:    apiServer,
		Db:     db,

		redisClient: redisClient,
		fileLogger:  fileLogger,
	}, nil
}

func (a *App) Start(ctx context.Context, c *ServiceContainer) error {
	subHandler := subscription.NewHandler(c.SubscriptionService)
	wHandler := weatherHandler.NewHandler(c.WeatherService)
	uHandler := userHandler.NewHandler(c.Users)

	api := c.Router.Group("/api/v1")
	{
		api.POST("/register", uHandler.Register)
		api.GET("/weather/:cityName", wHandler.GetWeather)

		authenticated := api.Group("", middleware.Identity())
		{
			authenticated.GET("/subscriptions", subHandler.List)
			authenticated.POST("/subscriptions/:cityName/:periodHours", subHandler.Subscribe)
			authenticated.PUT("/subscriptions/:cityName/:periodHours", subHandler.Update)
			authenticated.DELETE("/subscriptions/:cityName", subHandler.Unsubscribe)
		}
	}
	c.Router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	if err := c.Notificator.Start(ctx); err != nil {
		return err
	}

	a.log.Info().Str("address", a.cfg.Server.Address).Msg("starting server")
	if err := c.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Stop(c *ServiceContainer) error {
	a.log.Info().Msg("stopping application")

	c.Notificator.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := c.Srv.Shutdown(ctx); err != nil {
		a.log.Error().Err(err).Msg("http shutdown error")
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			a.log.Error().Err(err).Msg("redis close error")
		}
	}

	if err := c.Db.Close(); err != nil {
		a.log.Error().Err(err).Msg("db close error")
	}

	if err := c.fileLogger.Sync(); err != nil {
		a.log.Debug().Err(err).Msg("provider log sync error")
	}

	a.log.Info().Msg("shutdown complete")
	return nil
}

func CreateSqliteDb(dialect, name string) (*sql.DB, error) {
	if name == "" {
		return nil, errors.New("database name cannot be empty")
	}
	db, err := sql.Open(dialect, "file:"+name+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func InitSqliteDb(db *sql.DB, dialect, migrationsPath string) error {
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	return goose.Up(db, migrationsPath)
}

func newFileLogger(filePath string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(filePath)), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(filepath.Clean(filePath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(file),
		zap.InfoLevel,
	)
	return zap.New(core), nil
}
