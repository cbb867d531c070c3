package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Payroll      PayrollConfig
	OfflineSync  OfflineSyncConfig
	Workflow     WorkflowConfig
	Notification NotificationConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	// Timezone is the zone used to derive a punch's calendar day and to
	// anchor shift start/end times.
	Timezone string
	// AllowedOrigins lists the CORS origins of browser clients
	AllowedOrigins []string
}

// PayrollConfig holds the external payroll endpoint settings
type PayrollConfig struct {
	SyncURL   string
	AuthToken string
	Timeout   time.Duration
	Interval  time.Duration
}

// OfflineSyncConfig holds settings for the per-device offline punch queue
type OfflineSyncConfig struct {
	Interval      time.Duration
	MaxAttempts   int
	QueueCapacity int
	Persist       bool
}

// WorkflowConfig holds escalation and lateness sweep settings
type WorkflowConfig struct {
	EscalationInterval time.Duration
	LatenessThreshold  int
	LatenessWindowDays int
	LatenessInterval   time.Duration
	LatenessNotifyRole string
	AssignmentInterval time.Duration
	// ReviewerRole receives newly submitted correction requests
	ReviewerRole string
}

type NotificationConfig struct {
	WorkerCount   int
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded, using process environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hris-attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "UTC"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	accessExpiration, err := getEnvDuration("JWT_ACCESS_EXPIRATION", "15m")
	if err != nil {
		return nil, err
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	// Payroll configuration
	payrollTimeout, err := getEnvDuration("PAYROLL_SYNC_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	payrollInterval, err := getEnvDuration("PAYROLL_SYNC_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}

	config.Payroll = PayrollConfig{
		SyncURL:   getEnv("PAYROLL_SYNC_URL", ""),
		AuthToken: getEnv("PAYROLL_SYNC_AUTH_TOKEN", ""),
		Timeout:   payrollTimeout,
		Interval:  payrollInterval,
	}

	// Offline sync configuration
	syncInterval, err := getEnvDuration("OFFLINE_SYNC_INTERVAL", "60s")
	if err != nil {
		return nil, err
	}
	maxAttempts, err := getEnvInt("OFFLINE_SYNC_MAX_ATTEMPTS", "5")
	if err != nil {
		return nil, err
	}
	queueCapacity, err := getEnvInt("OFFLINE_SYNC_QUEUE_CAPACITY", "1000")
	if err != nil {
		return nil, err
	}

	config.OfflineSync = OfflineSyncConfig{
		Interval:      syncInterval,
		MaxAttempts:   maxAttempts,
		QueueCapacity: queueCapacity,
		Persist:       getEnvBool("OFFLINE_SYNC_PERSIST", false),
	}

	// Workflow configuration
	escalationInterval, err := getEnvDuration("ESCALATION_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}
	latenessThreshold, err := getEnvInt("LATENESS_THRESHOLD", "3")
	if err != nil {
		return nil, err
	}
	latenessWindow, err := getEnvInt("LATENESS_WINDOW_DAYS", "30")
	if err != nil {
		return nil, err
	}
	latenessInterval, err := getEnvDuration("LATENESS_INTERVAL", "24h")
	if err != nil {
		return nil, err
	}
	assignmentInterval, err := getEnvDuration("ASSIGNMENT_EXPIRY_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	config.Workflow = WorkflowConfig{
		EscalationInterval: escalationInterval,
		LatenessThreshold:  latenessThreshold,
		LatenessWindowDays: latenessWindow,
		LatenessInterval:   latenessInterval,
		LatenessNotifyRole: getEnv("LATENESS_NOTIFY_ROLE", "hr"),
		AssignmentInterval: assignmentInterval,
		ReviewerRole:       getEnv("CORRECTION_REVIEWER_ROLE", "hr"),
	}

	// Notification workers
	workers, err := getEnvInt("NOTIFICATION_WORKERS", "2")
	if err != nil {
		return nil, err
	}
	batchSize, err := getEnvInt("NOTIFICATION_BATCH_SIZE", "100")
	if err != nil {
		return nil, err
	}
	flushInterval, err := getEnvDuration("NOTIFICATION_FLUSH_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}

	config.Notification = NotificationConfig{
		WorkerCount:   workers,
		BatchSize:     batchSize,
		FlushInterval: flushInterval,
		QueueSize:     1000,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	if c.OfflineSync.MaxAttempts < 1 {
		return fmt.Errorf("OFFLINE_SYNC_MAX_ATTEMPTS must be at least 1")
	}
	if c.OfflineSync.QueueCapacity < 1 {
		return fmt.Errorf("OFFLINE_SYNC_QUEUE_CAPACITY must be at least 1")
	}
	if c.Workflow.LatenessThreshold < 1 {
		return fmt.Errorf("LATENESS_THRESHOLD must be at least 1")
	}
	if c.Workflow.LatenessWindowDays < 1 {
		return fmt.Errorf("LATENESS_WINDOW_DAYS must be at least 1")
	}
	return nil
}

// Location returns the engine time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key, fallback string) (int, error) {
	v, err := strconv.Atoi(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(getEnv(key, ""))
	switch value {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
