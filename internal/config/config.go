package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver     string // mysql | sqlite
		DSN        string
		Host       string
		Port       string
		User       string
		Password   string
		Name       string
		SQLitePath string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	GRPC struct {
		Host string
		Port string
	}

	Metrics struct {
		Addr string
	}

	Auth struct {
		JWTSecret  string
		HashSecret string
		AccessTTL  time.Duration
		RefreshTTL time.Duration
	}

	OTP struct {
		TTL         time.Duration
		Digits      int
		MaxAttempts int
	}

	LLM struct {
		Provider    string
		Model       string
		Temperature float64
		MaxTokens   int

		OpenAI struct {
			APIKey  string
			BaseURL string
			Timeout time.Duration
		}
		Anthropic struct {
			APIKey  string
			BaseURL string
			Timeout time.Duration
		}
		Ollama struct {
			BaseURL string
			Timeout time.Duration
		}
	}

	Nutrition struct {
		DefaultDailyCalories float64
		ReplenishRatio       float64
	}
}

func New() *Config {
	cfg := &Config{}

	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "grpc_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.SQLitePath = getEnvDefault("SQLITE_PATH", "fittrack.db")
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "fittrack")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	cfg.Metrics.Addr = getEnvDefault("METRICS_ADDR", ":9090")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "change-me")
	cfg.Auth.HashSecret = getEnvDefault("HASH_SECRET", "change-me-too")
	cfg.Auth.AccessTTL = time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 300)) * time.Minute
	cfg.Auth.RefreshTTL = time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 30)) * 24 * time.Hour

	// OTP
	cfg.OTP.TTL = getEnvDuration("OTP_TTL", 5*time.Minute)
	cfg.OTP.Digits = getEnvInt("OTP_DIGITS", 6)
	cfg.OTP.MaxAttempts = getEnvInt("OTP_MAX_ATTEMPTS", 5)

	// LLM
	cfg.LLM.Provider = getEnvDefault("LLM_PROVIDER", "openai")
	cfg.LLM.Model = getEnvDefault("LLM_MODEL", "")
	cfg.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", 0.7)
	cfg.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", 4000)
	cfg.LLM.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LLM.OpenAI.BaseURL = getEnvDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.LLM.OpenAI.Timeout = getEnvDuration("OPENAI_TIMEOUT", 60*time.Second)
	cfg.LLM.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.LLM.Anthropic.BaseURL = getEnvDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1")
	cfg.LLM.Anthropic.Timeout = getEnvDuration("ANTHROPIC_TIMEOUT", 60*time.Second)
	cfg.LLM.Ollama.BaseURL = getEnvDefault("OLLAMA_BASE_URL", "http://localhost:11434")
	cfg.LLM.Ollama.Timeout = getEnvDuration("OLLAMA_TIMEOUT", 120*time.Second)

	// Nutrition
	cfg.Nutrition.DefaultDailyCalories = getEnvFloat("DEFAULT_DAILY_CALORIES", 2000)
	cfg.Nutrition.ReplenishRatio = getEnvFloat("ACTIVITY_REPLENISH_RATIO", 0.6)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(getEnvDefault(k, ""), 64); err == nil {
		return f
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "2m") or plain seconds.
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := getEnvDefault(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
