package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is loaded once at startup. Backend credentials are not part of it;
// each backend package reads its own.
type Config struct {
	Port           string
	Provider       string
	TTSProvider    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	LogLevel       string
	Development    bool

	DefaultVoice string
	DefaultStyle string

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	RedisAddr     string // empty disables the audio cache
	AudioCacheTTL time.Duration

	DBDriver         string
	DBDSN            string
	FeedbackCacheTTL time.Duration

	ExportEnabled  bool
	ExportSchedule string
	FeedbackDir    string
	ExportDir      string
}

var (
	supportedProviders    = []string{"gemini"}
	supportedTTSProviders = []string{"murf"}
	supportedDrivers      = []string{"sqlite", "postgres"}
)

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	var errs []error

	config := &Config{
		Port:           getEnvOrDefault("PORT", "8087"),
		Provider:       getEnvOrDefault("AI_PROVIDER", "gemini"),
		TTSProvider:    getEnvOrDefault("TTS_PROVIDER", "murf"),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
		DefaultVoice:   getEnvOrDefault("TTS_DEFAULT_VOICE", "en-US-natalie"),
		DefaultStyle:   getEnvOrDefault("TTS_DEFAULT_STYLE", "Promo"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Development:    os.Getenv("APP_ENV") == "development",
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		DBDriver:       getEnvOrDefault("DB_DRIVER", "sqlite"),
		DBDSN:          getEnvOrDefault("DB_DSN", "errorhelper.db"),
		ExportSchedule: getEnvOrDefault("FEEDBACK_EXPORT_SCHEDULE", "0 2 * * *"),
		FeedbackDir:    getEnvOrDefault("FEEDBACK_EXPORT_DIR", "./exports/feedback"),
		ExportDir:      getEnvOrDefault("EXPORT_DIR", "./exports/explanations"),
	}

	config.RequestTimeout = getDuration("REQUEST_TIMEOUT", 60*time.Second, &errs)
	config.BreakerOpenTimeout = getDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second, &errs)
	config.AudioCacheTTL = getDuration("AUDIO_CACHE_TTL", 24*time.Hour, &errs)
	config.FeedbackCacheTTL = getDuration("FEEDBACK_CACHE_TTL", time.Hour, &errs)
	config.BreakerMaxFailures = uint32(getInt("BREAKER_MAX_FAILURES", 5, &errs))
	config.ExportEnabled = getBool("FEEDBACK_EXPORT_ENABLED", false, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if !contains(supportedProviders, config.Provider) {
		return fmt.Errorf("unsupported AI provider: %s. Currently supported: %s", config.Provider, strings.Join(supportedProviders, ", "))
	}
	if !contains(supportedTTSProviders, config.TTSProvider) {
		return fmt.Errorf("unsupported TTS provider: %s. Currently supported: %s", config.TTSProvider, strings.Join(supportedTTSProviders, ", "))
	}
	if !contains(supportedDrivers, config.DBDriver) {
		return fmt.Errorf("unsupported DB_DRIVER: %s. Currently supported: %s", config.DBDriver, strings.Join(supportedDrivers, ", "))
	}
	if config.BreakerMaxFailures == 0 {
		return errors.New("BREAKER_MAX_FAILURES must be at least 1")
	}
	// backend credentials are validated by gemini.NewConfig() and murf.NewConfig()
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return def
	}
	return d
}

func getInt(key string, def int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return def
	}
	return n
}

func getBool(key string, def bool, errs *[]error) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, raw))
		return def
	}
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
