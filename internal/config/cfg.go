package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Server struct {
	Address     string `envconfig:"SERVER_ADDRESS" default:":8080"`
	ReadTimeout int    `envconfig:"SERVER_TIMEOUT" default:"10"`
}

type Db struct {
	Dialect        string `envconfig:"DB_DIALECT" default:"sqlite"`
	Source         string `envconfig:"DB_NAME" default:"weather_reminder.db"`
	MigrationsPath string `envconfig:"DB_MIGRATIONS_DIR" default:"./migrations"`
}

type OpenWeather struct {
	URL    string `envconfig:"OPEN_WEATHER_API_URL" default:"https://api.openweathermap.org/data/2.5/weather"`
	APIKey string `envconfig:"OPEN_WEATHER_API_TOKEN" required:"true"`
}

type Email struct {
	Host     string `envconfig:"EMAIL_HOST"`
	Port     string `envconfig:"EMAIL_PORT"`
	User     string `envconfig:"EMAIL_USER"`
	Password string `envconfig:"EMAIL_PASSWORD"`
	From     string `envconfig:"EMAIL_FROM"`
}

type Notifier struct {
	// CronSpec uses the seconds-enabled format, e.g. "0 */5 * * * *".
	CronSpec       string `envconfig:"NOTIFIER_CRON_SPEC" default:"0 */5 * * * *"`
	ItemTimeoutSec int    `envconfig:"NOTIFIER_ITEM_TIMEOUT" default:"30"`
	QueueSize      int    `envconfig:"NOTIFIER_QUEUE_SIZE" default:"64"`
}

type Redis struct {
	// Addr empty disables the weather cache.
	Addr        string `envconfig:"REDIS_ADDR"`
	CacheTTLSec int    `envconfig:"WEATHER_CACHE_TTL" default:"300"`
}

type Config struct {
	OpenWeather OpenWeather
	Email       Email
	Server      Server
	DB          Db
	Notifier    Notifier
	Redis       Redis

	LogsPath         string `envconfig:"LOGS_PATH" default:"./logs/weather-reminder.log"`
	ProviderLogsPath string `envconfig:"PROVIDER_LOGS_PATH" default:"./logs/provider.log"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`
}

func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (n Notifier) ItemTimeout() time.Duration {
	return time.Duration(n.ItemTimeoutSec) * time.Second
}

func (r Redis) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSec) * time.Second
}
