package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ErrMissingAPIKey is returned when a provider credential is not configured
var ErrMissingAPIKey = errors.New("API key not set")

// logFileTimeFormat is ISO 8601 basic format, which has no ':'
const logFileTimeFormat = "20060102T150405Z0700"

// Config holds all configuration for the diagnostics
type Config struct {
	Version        string
	LogLevel       string
	LogDir         string
	GeminiKey      string
	GeminiModel    string
	GeminiBaseURL  string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBaseURL  string
	HTTPTimeout    int    // HTTP timeout in seconds for provider calls
	DatabaseURL    string // Optional MySQL/PostgreSQL URL for persisting results
	SendGridAPIKey string // Optional, used by -notify
	ReportEmail    string // Recipient of the -notify summary
}

// Load initializes and returns diagnostics configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Version:        getEnv("VERSION", "1.0.0"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDir:         getEnv("LOG_DIR", "logs"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		HTTPTimeout:    getEnvInt("HTTP_TIMEOUT", 60),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		ReportEmail:    os.Getenv("REPORT_EMAIL"),
	}
}

// RequireGeminiKey returns ErrMissingAPIKey when GEMINI_API_KEY is empty
func (c *Config) RequireGeminiKey() error {
	if strings.TrimSpace(c.GeminiKey) == "" {
		return fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingAPIKey)
	}
	return nil
}

// RequireOpenAIKey returns ErrMissingAPIKey when OPENAI_API_KEY is empty
func (c *Config) RequireOpenAIKey() error {
	if strings.TrimSpace(c.OpenAIKey) == "" {
		return fmt.Errorf("OPENAI_API_KEY: %w", ErrMissingAPIKey)
	}
	return nil
}

// Timeout returns the provider HTTP timeout as a duration
func (c *Config) Timeout() time.Duration {
	if c.HTTPTimeout <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.HTTPTimeout) * time.Second
}

// HasDatabase reports whether results should be persisted
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// CanNotify reports whether a summary e-mail can be sent
func (c *Config) CanNotify() bool {
	return c.SendGridAPIKey != "" && c.ReportEmail != ""
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as boolean with a default fallback
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// LogFilePath returns the run log file for a command started at the given time
func (c *Config) LogFilePath(command string, startedAt time.Time) string {
	return filepath.Join(c.LogDir, fmt.Sprintf("%s-%s.log", command, startedAt.Format(logFileTimeFormat)))
}

// SetupLogger configures zerolog to write colorized lines to the console and
// plain JSON lines to a per-run log file. The returned closer flushes the file.
func (c *Config) SetupLogger(command string) (zerolog.Logger, io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05", NoColor: getEnvBool("NO_COLOR", false)}

	if err := os.MkdirAll(c.LogDir, 0755); err != nil {
		logger := c.newLogger(console, command)
		return logger, io.NopCloser(nil), fmt.Errorf("failed to create log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   c.LogFilePath(command, time.Now()),
		MaxSize:    10,
		MaxBackups: 30,
		MaxAge:     90,
	}

	logger := c.newLogger(zerolog.MultiLevelWriter(console, file), command)
	logger.Debug().Str("file", file.Filename).Msg("Logging initialized")

	return logger, file, nil
}

func (c *Config) newLogger(w io.Writer, command string) zerolog.Logger {
	logger := zerolog.New(w).With().
		Timestamp().
		Str("command", command).
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}
