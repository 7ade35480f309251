package config

import (
	"os"
	"strconv"
	"time"

	"todoweb/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort       string
	DatabaseURL   string
	SessionSecret string
	SessionTTL    time.Duration
	CookieSecure  bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Login/signup rate limiting
	AuthRateLimit  int
	AuthRateWindow time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from the environment (.env is honored when present).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		logger.Fatal("SESSION_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	sessionTTL := 14 * 24 * time.Hour
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sessionTTL = time.Duration(n) * time.Hour
		}
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			redisDB = n
		}
	}

	authRateLimit := 10
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			authRateLimit = n
		}
	}

	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	return &Config{
		AppPort:        port,
		DatabaseURL:    dbURL,
		SessionSecret:  sessionSecret,
		SessionTTL:     sessionTTL,
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "true",
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		AuthRateLimit:  authRateLimit,
		AuthRateWindow: authRateWindow,
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogJSON:        os.Getenv("LOG_JSON") == "true",
	}
}
