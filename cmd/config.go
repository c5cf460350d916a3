package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"pizzeria/internal/adapters/out/notify"
	"pizzeria/internal/core/application/usecases/commands"
	"pizzeria/internal/core/domain/model/identity"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	HTTPPort string
	Storage  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret string

	AMQPURL      string
	AMQPExchange string
	AWSRegion    string
	SQSQueueURL  string

	OperationTimeout  time.Duration
	PublishTimeout    time.Duration
	TransitionRetries int
	SubscriberBuffer  int

	OpenAPIValidation bool
	LogLevel          slog.Level

	// SeedUsers are created at startup when missing.
	SeedUsers []SeedUser
}

// SeedUser is one "email:ROLE[:points]" entry of SEED_USERS.
type SeedUser struct {
	Email  string
	Role   identity.Role
	Points int
}

// LoadConfig reads the environment, after loading .env when one exists.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	var problems []error
	cfg := Config{
		HTTPPort:     envOr("HTTP_PORT", "8080"),
		Storage:      strings.ToLower(envOr("STORAGE", StoragePostgres)),
		DBHost:       os.Getenv("DB_HOST"),
		DBPort:       envOr("DB_PORT", "5432"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBSslMode:    envOr("DB_SSLMODE", "disable"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: envOr("AMQP_EXCHANGE", "pizzeria.orders"),
		AWSRegion:    os.Getenv("AWS_REGION"),
		SQSQueueURL:  os.Getenv("SQS_QUEUE_URL"),
	}

	cfg.OperationTimeout = parseDuration("OPERATION_TIMEOUT", 5*time.Second, &problems)
	cfg.PublishTimeout = parseDuration("PUBLISH_TIMEOUT", notify.DefaultPublishTimeout, &problems)
	cfg.TransitionRetries = parseInt("TRANSITION_RETRIES", commands.DefaultTransitionRetries, &problems)
	cfg.SubscriberBuffer = parseInt("SUBSCRIBER_BUFFER", notify.DefaultBuffer, &problems)
	cfg.OpenAPIValidation = parseBool("OPENAPI_VALIDATION", true, &problems)

	if err := cfg.LogLevel.UnmarshalText([]byte(envOr("LOG_LEVEL", "INFO"))); err != nil {
		problems = append(problems, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	seeds, err := ParseSeedUsers(os.Getenv("SEED_USERS"))
	if err != nil {
		problems = append(problems, fmt.Errorf("SEED_USERS: %w", err))
	}
	cfg.SeedUsers = seeds

	problems = append(problems, cfg.Validate())
	if err = errors.Join(problems...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing required value at once.
func (c Config) Validate() error {
	var problems []error
	if c.JWTSecret == "" {
		problems = append(problems, errors.New("JWT_SECRET is required"))
	}

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		for name, value := range map[string]string{
			"DB_HOST": c.DBHost, "DB_USER": c.DBUser, "DB_NAME": c.DBName,
		} {
			if value == "" {
				problems = append(problems, fmt.Errorf("%s is required with STORAGE=postgres", name))
			}
		}
	default:
		problems = append(problems, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage))
	}

	if c.OperationTimeout <= 0 || c.PublishTimeout <= 0 {
		problems = append(problems, errors.New("timeouts must be positive"))
	}
	if c.TransitionRetries < 1 {
		problems = append(problems, errors.New("TRANSITION_RETRIES must be at least 1"))
	}
	if c.SubscriberBuffer < 1 {
		problems = append(problems, errors.New("SUBSCRIBER_BUFFER must be at least 1"))
	}
	return errors.Join(problems...)
}

// DSN is the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// ParseSeedUsers parses a comma separated list of "email:ROLE[:points]".
func ParseSeedUsers(raw string) ([]SeedUser, error) {
	var seeds []SeedUser
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		parts := strings.Split(item, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("entry %q is not email:ROLE[:points]", item)
		}
		role, err := identity.ParseRole(parts[1])
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", item, err)
		}
		points := 0
		if len(parts) == 3 {
			if points, err = strconv.Atoi(parts[2]); err != nil || points < 0 {
				return nil, fmt.Errorf("entry %q: points must be a non-negative integer", item)
			}
		}
		seeds = append(seeds, SeedUser{Email: strings.TrimSpace(parts[0]), Role: role, Points: points})
	}
	return seeds, nil
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration, problems *[]error) time.Duration {
	raw := envOr(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
	}
	return d
}

func parseInt(key string, fallback int, problems *[]error) int {
	raw := envOr(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
	}
	return n
}

func parseBool(key string, fallback bool, problems *[]error) bool {
	raw := envOr(key, "")
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*problems = append(*problems, fmt.Errorf("%s: %w", key, err))
	}
	return b
}
