package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET      string
	JWT_ISSUER      string
	JWT_ACCESS_TTL  time.Duration
	JWT_REFRESH_TTL time.Duration
	// Redis Configuration
	REDIS_URL string
	// Unit of work timeout for multi-row writes
	TX_TIMEOUT time.Duration
	// Seeded super admin
	SUPER_ADMIN_LOGIN    string
	SUPER_ADMIN_EMAIL    string
	SUPER_ADMIN_PASSWORD string
	// S3-compatible object storage for learning center logos
	STORAGE_ENDPOINT   string
	STORAGE_REGION     string
	STORAGE_BUCKET     string
	STORAGE_ACCESS_KEY string
	STORAGE_SECRET_KEY string
	STORAGE_CDN_URL    string
	// Request logging
	LOG_TO_DB                  bool
	REQUEST_LOG_RETENTION_DAYS int
	ALLOWED_ORIGINS            string
	// Background jobs
	CRON_ENABLED bool
}

func Get() (*EnvironmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sslMode := os.Getenv("DB_SSL_MODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "learning-center-api"
	}

	retentionDays, err := strconv.Atoi(os.Getenv("REQUEST_LOG_RETENTION_DAYS"))
	if err != nil || retentionDays <= 0 {
		retentionDays = 30
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:5173"
	}

	envVariables := &EnvironmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  sslMode,
		PORT:         port,
		// JWT
		JWT_SECRET:      os.Getenv("JWT_SECRET"),
		JWT_ISSUER:      jwtIssuer,
		JWT_ACCESS_TTL:  durationOr("JWT_ACCESS_TTL", 24*time.Hour),
		JWT_REFRESH_TTL: durationOr("JWT_REFRESH_TTL", 30*24*time.Hour),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Transactions
		TX_TIMEOUT: durationOr("TX_TIMEOUT", 10*time.Second),
		// Super admin
		SUPER_ADMIN_LOGIN:    os.Getenv("SUPER_ADMIN_LOGIN"),
		SUPER_ADMIN_EMAIL:    os.Getenv("SUPER_ADMIN_EMAIL"),
		SUPER_ADMIN_PASSWORD: os.Getenv("SUPER_ADMIN_PASSWORD"),
		// Storage
		STORAGE_ENDPOINT:   os.Getenv("STORAGE_ENDPOINT"),
		STORAGE_REGION:     os.Getenv("STORAGE_REGION"),
		STORAGE_BUCKET:     os.Getenv("STORAGE_BUCKET"),
		STORAGE_ACCESS_KEY: os.Getenv("STORAGE_ACCESS_KEY"),
		STORAGE_SECRET_KEY: os.Getenv("STORAGE_SECRET_KEY"),
		STORAGE_CDN_URL:    os.Getenv("STORAGE_CDN_URL"),
		// Logging
		LOG_TO_DB:                  os.Getenv("LOG_TO_DB") == "true",
		REQUEST_LOG_RETENTION_DAYS: retentionDays,
		ALLOWED_ORIGINS:            allowedOrigins,
		// Cron, enabled unless explicitly turned off
		CRON_ENABLED: os.Getenv("CRON_ENABLED") != "false",
	}

	return envVariables, nil
}

// durationOr parses a Go duration string from the environment, falling back to def
func durationOr(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
