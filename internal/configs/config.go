package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type RESTconfig struct {
	PORT           string
	AllowedOrigins []string
	KeepAlive      time.Duration
}

type AdsAPIConfig struct {
	URL       string
	Timeout   time.Duration
	RateLimit float64 // запросов в секунду, 0 - без ограничения
	RateBurst int
}

type SessionConfig struct {
	PageSize        int
	DebounceDelay   time.Duration
	PollInterval    time.Duration
	PollGrace       time.Duration
	BulkConcurrency int
	HistoryLimit    int
}

type PreferencesConfig struct {
	Backend string // file или postgres
	File    string
	Profile string
}

type DBconfig struct {
	URL      string
	MaxConns int
}

type RabbitMQConfig struct {
	Enabled       bool
	URL           string
	Exchange      string
	RoutingPrefix string
}

type ReplConfig struct {
	HistoryFile string
}

type StdoutLogConfig struct {
	Level string
}

type FluentBitConfig struct {
	Host    string
	Port    int
	Enabled bool
	Level   string
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	AppName      string
	Rest         RESTconfig
	AdsAPI       AdsAPIConfig
	Session      SessionConfig
	Preferences  PreferencesConfig
	Database     DBconfig
	RabbitMQ     RabbitMQConfig
	Repl         ReplConfig
	FluentBit    FluentBitConfig
	StdoutLogger StdoutLogConfig
}

const (
	PreferencesBackendFile     = "file"
	PreferencesBackendPostgres = "postgres"
)

// LoadConfig загружает конфигурацию из переменных окружения.
// Файл .env необязателен; явно указанный путь должен существовать.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("could not load env file %s: %w", envPath[0], err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg := &AppConfig{}

	cfg.AppName = getEnvAsString("APP_NAME", "moderation-console")

	cfg.Rest.PORT = getEnvAsString("PORT", "8080")
	cfg.Rest.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS")
	cfg.Rest.KeepAlive = getEnvAsDuration("SSE_KEEPALIVE_MS", 15*time.Second)

	cfg.AdsAPI.URL = getEnvAsString("ADS_API_URL", "http://localhost:3001/api/v1")
	cfg.AdsAPI.Timeout = getEnvAsDuration("ADS_API_TIMEOUT_MS", 10*time.Second)
	cfg.AdsAPI.RateLimit = getEnvAsFloat("ADS_API_RATE_LIMIT", 0)
	cfg.AdsAPI.RateBurst = getEnvAsInt("ADS_API_RATE_BURST", 10)

	cfg.Session.PageSize = getEnvAsInt("PAGE_SIZE", 10)
	cfg.Session.DebounceDelay = getEnvAsDuration("DEBOUNCE_MS", 500*time.Millisecond)
	cfg.Session.PollInterval = getEnvAsDuration("NEW_ITEMS_POLL_MS", 5*time.Second)
	cfg.Session.PollGrace = getEnvAsDuration("NEW_ITEMS_GRACE_MS", 3*time.Second)
	cfg.Session.BulkConcurrency = getEnvAsInt("BULK_CONCURRENCY", 5)
	cfg.Session.HistoryLimit = getEnvAsInt("HISTORY_LIMIT", 100)

	cfg.Preferences.Backend = strings.ToLower(getEnvAsString("PREFERENCES_BACKEND", PreferencesBackendFile))
	cfg.Preferences.File = getEnvAsString("PREFERENCES_FILE", "data/preferences.json")
	cfg.Preferences.Profile = getEnvAsString("PREFERENCES_PROFILE", "default")

	switch cfg.Preferences.Backend {
	case PreferencesBackendFile:
	case PreferencesBackendPostgres:
		cfg.Database.URL = os.Getenv("DATABASE_URL")
		if cfg.Database.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for postgres preferences backend")
		}
		cfg.Database.MaxConns = getEnvAsInt("DATABASE_MAX_CONNS", 4)
	default:
		return nil, fmt.Errorf("unknown PREFERENCES_BACKEND %q", cfg.Preferences.Backend)
	}

	cfg.RabbitMQ.URL = os.Getenv("RABBITMQ_URL")
	cfg.RabbitMQ.Enabled = cfg.RabbitMQ.URL != ""
	cfg.RabbitMQ.Exchange = getEnvAsString("RABBITMQ_EXCHANGE", "moderation_events")
	cfg.RabbitMQ.RoutingPrefix = getEnvAsString("RABBITMQ_ROUTING_PREFIX", "moderation")

	cfg.Repl.HistoryFile = getEnvAsString("REPL_HISTORY_FILE", "")

	cfg.FluentBit.Enabled = getEnvAsBool("FLUENTBIT_ENABLED", false)
	if cfg.FluentBit.Enabled {
		cfg.FluentBit.Host = os.Getenv("FLUENTBIT_HOST")
		if cfg.FluentBit.Host == "" {
			log.Println("WARNING: FLUENTBIT_ENABLED is true, but FLUENTBIT_HOST is not set. Disabling Fluent Bit.")
			cfg.FluentBit.Enabled = false
		}

		cfg.FluentBit.Port = getEnvAsInt("FLUENTBIT_PORT", 24224)
		cfg.FluentBit.Level = getEnvAsString("FLUENTBIT_LOG_LEVEL", "info")
	}

	cfg.StdoutLogger.Level = getEnvAsString("STDOUT_LOG_LEVEL", "info")

	return cfg, nil
}

func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as int: %v. Using default value: %d\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return valueInt
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as float: %v. Using default value: %g\n", key, valueStr, err, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsDuration читает число миллисекунд.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	ms := getEnvAsInt(key, int(defaultValue/time.Millisecond))
	if ms < 0 {
		log.Printf("Warning: Environment variable %s is negative. Using default value: %s\n", key, defaultValue)
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Environment variable %s (value: %s) could not be parsed as bool: %v. Using default value: %t\n", key, valStr, err, defaultValue)
		return defaultValue
	}
	return valBool
}

// getEnvAsList разбирает список через запятую, пустые элементы отбрасываются.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
