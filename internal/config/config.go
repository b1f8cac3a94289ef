package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	defaultPort              = "8080"
	defaultAccessTokenTTL    = 15 * time.Minute
	defaultRateLimitPerMin   = 10
	defaultRateLimitBurst    = 10
	defaultAIBaseURL         = "https://generativelanguage.googleapis.com/v1beta/openai/"
	defaultAIModel           = "gemini-1.5-flash"
	defaultAMQPExchange      = "cache"
	defaultSMTPHost          = "smtp.gmail.com"
	defaultSMTPPort          = "587"
	defaultRecurringSchedule = "0 0 * * *"
	defaultAlertSchedule     = "0 */6 * * *"
	defaultReportSchedule    = "0 0 1 * *"
)

type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret      string
	AccessTokenTTL time.Duration

	LogLevel  string
	LogPretty bool

	RateLimitPerMinute int
	RateLimitBurst     int
	DeniedUsers        []string

	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	AMQPURL      string
	AMQPExchange string

	EmailAddress  string
	EmailPassword string
	SMTPHost      string
	SMTPPort      string

	RecurringSchedule string
	AlertSchedule     string
	ReportSchedule    string

	CORSAllowedOrigins []string
}

// Load reads the optional .env file(s) and then the process environment.
func Load(envPath ...string) (*Config, error) {
	if err := godotenv.Load(envPath...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded, continuing with system environment variables")
	}

	cfg := &Config{
		Port:        getEnv("PORT", defaultPort),
		DatabaseURL: os.Getenv("DB_CONNECTION_STRING"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", defaultAccessTokenTTL),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvBool("LOG_PRETTY", false),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMin),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", defaultRateLimitBurst),
		DeniedUsers:        getEnvList("DENIED_USERS"),

		AIBaseURL: getEnv("AI_BASE_URL", defaultAIBaseURL),
		AIAPIKey:  os.Getenv("AI_API_KEY"),
		AIModel:   getEnv("AI_MODEL", defaultAIModel),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnv("AMQP_EXCHANGE", defaultAMQPExchange),

		EmailAddress:  os.Getenv("EMAIL_ADDRESS"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		SMTPHost:      getEnv("SMTP_HOST", defaultSMTPHost),
		SMTPPort:      getEnv("SMTP_PORT", defaultSMTPPort),

		RecurringSchedule: getEnv("RECURRING_SCHEDULE", defaultRecurringSchedule),
		AlertSchedule:     getEnv("BUDGET_ALERT_SCHEDULE", defaultAlertSchedule),
		ReportSchedule:    getEnv("MONTHLY_REPORT_SCHEDULE", defaultReportSchedule),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
	}

	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var problems []string

	if c.DatabaseURL == "" {
		problems = append(problems, "DB_CONNECTION_STRING is required")
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 {
		problems = append(problems, "ACCESS_TOKEN_TTL must be positive")
	}
	if c.RateLimitPerMinute <= 0 {
		problems = append(problems, "RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RateLimitBurst <= 0 {
		problems = append(problems, "RATE_LIMIT_BURST must be positive")
	}
	if (c.EmailAddress == "") != (c.EmailPassword == "") {
		problems = append(problems, "EMAIL_ADDRESS and EMAIL_PASSWORD must be set together")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// ValidateDatabase is the narrower check used by commands that only touch the database.
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("invalid configuration: DB_CONNECTION_STRING is required")
	}
	return nil
}

func (c *Config) EmailEnabled() bool {
	return c.EmailAddress != "" && c.EmailPassword != ""
}

func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid integer, using default")
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid boolean, using default")
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
		return defaultValue
	}
	return parsed
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
