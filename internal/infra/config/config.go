package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию дашборда.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	TZ          string `envconfig:"TZ" default:"UTC"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Realtime struct {
		Backend    string        `envconfig:"REALTIME_BACKEND" default:"postgres"`
		Channel    string        `envconfig:"REALTIME_CHANNEL" default:"content_queue_changes"`
		RetryDelay time.Duration `envconfig:"REALTIME_RETRY_DELAY" default:"5s"`
	} `envconfig:""`

	Worker struct {
		BaseURL           string        `envconfig:"WORKER_BASE_URL" default:"https://prismanotes-autostream-worker.hf.space"`
		Timeout           time.Duration `envconfig:"WORKER_TIMEOUT" default:"10s"`
		HealthInterval    time.Duration `envconfig:"HEALTH_INTERVAL" default:"30s"`
		AnalyticsCacheTTL time.Duration `envconfig:"ANALYTICS_CACHE_TTL" default:"60s"`
	} `envconfig:""`

	Session struct {
		PasswordHash string        `envconfig:"DASHBOARD_PASSWORD_HASH"`
		Secret       string        `envconfig:"SESSION_SECRET"`
		TTL          time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	} `envconfig:""`

	Journal struct {
		Capacity int `envconfig:"JOURNAL_CAPACITY" default:"50"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения. Файл .env, если есть, дополняет окружение,
// но не перекрывает уже заданные переменные.
func Load() AppConfig {
	_ = godotenv.Load()
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
