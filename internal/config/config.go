// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pulseboard/pulseboard/internal/database"
)

// Preference storage backends.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Probe modes.
const (
	ProbeMock = "mock"
	ProbeHTTP = "http"
)

// Config is the API server configuration.
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	StaticDir   string
	DemoData    bool
	CORSOrigins []string

	Prefs    PrefsConfig
	Metrics  MetricsConfig
	Probe    ProbeConfig
	Auth     AuthConfig
	OTel     OTelConfig
	PubSub   PubSubConfig
	Telegram TelegramConfig

	HealthTick time.Duration
	// WorkerInterval is how often cmd/worker publishes a refresh job.
	WorkerInterval time.Duration
}

// PrefsConfig selects and configures the preferences backend.
type PrefsConfig struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Postgres      database.Config
}

// MetricsConfig bounds the live metrics series.
type MetricsConfig struct {
	MaxPoints int
	MaxAge    time.Duration
}

// ProbeConfig configures service health probing.
type ProbeConfig struct {
	Mode    string
	Timeout time.Duration
}

// AuthConfig configures bearer token validation. An empty signing key
// disables authentication.
type AuthConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// Enabled reports whether mutating routes require a token.
func (c AuthConfig) Enabled() bool {
	return c.SigningKey != ""
}

// OTelConfig configures OpenTelemetry export.
type OTelConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

// PubSubConfig configures job intake and alert publishing.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
	AlertTopic   string
	JobTopic     string
}

// Enabled reports whether a project is configured.
func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != ""
}

// TelegramConfig configures chat notifications.
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// Enabled reports whether both token and chat are set.
func (c TelegramConfig) Enabled() bool {
	return c.BotToken != "" && c.ChatID != 0
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port:        getenv("APP_PORT", "8080"),
		Env:         getenv("APP_ENV", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		StaticDir:   getenv("STATIC_DIR", "./dist"),
		DemoData:    getenvBool("DEMO_DATA", true),
		CORSOrigins: getenvList("CORS_ORIGINS", []string{"*"}),
		Prefs: PrefsConfig{
			Backend:       strings.ToLower(getenv("PREFS_BACKEND", BackendMemory)),
			SQLitePath:    getenv("PREFS_SQLITE_PATH", "./data/pulseboard.db"),
			RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getenvInt("REDIS_DB", 0),
			Postgres:      database.ConfigFromEnv(),
		},
		Metrics: MetricsConfig{
			MaxPoints: getenvInt("METRICS_MAX_POINTS", 1000),
			MaxAge:    getenvDuration("METRICS_MAX_AGE", 7*24*time.Hour),
		},
		Probe: ProbeConfig{
			Mode:    strings.ToLower(getenv("PROBE_MODE", ProbeMock)),
			Timeout: getenvDuration("PROBE_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			SigningKey: os.Getenv("AUTH_SIGNING_KEY"),
			Issuer:     getenv("AUTH_ISSUER", "pulseboard"),
			Audience:   getenv("AUTH_AUDIENCE", "pulseboard-api"),
		},
		OTel: OTelConfig{
			Enabled:     getenvBool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio: getenvFloat("OTEL_TRACES_SAMPLER_ARG", 1),
		},
		PubSub: PubSubConfig{
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Subscription: getenv("PUBSUB_SUBSCRIPTION", "pulseboard-jobs-sub"),
			AlertTopic:   os.Getenv("PUBSUB_ALERT_TOPIC"),
			JobTopic:     getenv("PUBSUB_JOB_TOPIC", "pulseboard-jobs"),
		},
		Telegram: TelegramConfig{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   getenvInt64("TELEGRAM_CHAT_ID", 0),
		},
		HealthTick:     getenvDuration("HEALTH_TICK", 3*time.Second),
		WorkerInterval: getenvDuration("WORKER_INTERVAL", 30*time.Second),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return n
}

func getenvInt64(k string, d int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return d
	}
	return n
}

func getenvFloat(k string, d float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return d
	}
	return f
}

func getenvDuration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return d
	}
	return dur
}

func getenvBool(k string, d bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(k)))
	if v == "" {
		return d
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	return d
}

func getenvList(k string, d []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return d
	}
	return out
}
