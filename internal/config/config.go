package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT (tokens are issued by the auth service; we only verify them)
	JWTSecret string

	// Admin
	AdminEmails  string
	AdminUserIDs string
	AdminToken   string

	// Server
	Port            string
	CORSOrigins     string
	ShutdownTimeout time.Duration

	// Logging / error tracking
	LogLevel         string
	LogRetentionDays int
	SentryDSN        string
	AppEnv           string

	// Event delivery. When Kafka is disabled, report-created events are
	// handled by the in-process triage queue.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaReportsTopic string
	KafkaGroupID      string
	// Upper bound on how long report creation waits for the broker ack.
	KafkaPublishTimeout time.Duration

	// Triage pipeline
	TriageWorkers            int
	TriageQueueSize          int
	TriageTimeout            time.Duration
	FanoutParallelism        int
	NotificationWriteTimeout time.Duration
	NotifyMinScore           float64
}

// Load reads configuration from the environment (and a .env file when one
// exists), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "hazard_triage"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),
		AdminToken:   getEnv("ADMIN_TOKEN", ""),

		Port:            getEnv("PORT", "8080"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
		SentryDSN:        getEnv("SENTRY_DSN", ""),
		AppEnv:           getEnv("APP_ENV", "development"),

		KafkaEnabled:        getEnv("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers:        ParseCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportsTopic:   getEnv("KAFKA_REPORTS_TOPIC", "hazard-reports.created"),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "hazard-triage"),
		KafkaPublishTimeout: parseDuration(getEnv("KAFKA_PUBLISH_TIMEOUT", "2s"), 2*time.Second),

		TriageWorkers:            parseInt(getEnv("TRIAGE_WORKERS", "4"), 4),
		TriageQueueSize:          parseInt(getEnv("TRIAGE_QUEUE_SIZE", "256"), 256),
		TriageTimeout:            parseDuration(getEnv("TRIAGE_TIMEOUT", "30s"), 30*time.Second),
		FanoutParallelism:        parseInt(getEnv("FANOUT_PARALLELISM", "8"), 8),
		NotificationWriteTimeout: parseDuration(getEnv("NOTIFICATION_WRITE_TIMEOUT", "5s"), 5*time.Second),
	}

	minScore, err := strconv.ParseFloat(getEnv("NOTIFY_MIN_SCORE", "0.7"), 64)
	if err != nil || minScore < 0 || minScore > 1 {
		return nil, errors.New("NOTIFY_MIN_SCORE must be a number between 0 and 1")
	}
	cfg.NotifyMinScore = minScore

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.DBPassword == "" {
		return nil, errors.New("DB_PASSWORD is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaReportsTopic == "" {
			return nil, errors.New("KAFKA_REPORTS_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// ParseCSV splits a comma separated list, dropping blanks.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
