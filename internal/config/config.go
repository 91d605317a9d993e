package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Email     EmailConfig     `yaml:"email"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// EmailConfig contains SendGrid settings
type EmailConfig struct {
	APIKey   string `yaml:"api_key"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// CalendarConfig contains the lending desk's weekday rules. Weekdays use ISO
// numbering (1 = Monday .. 7 = Sunday).
type CalendarConfig struct {
	HandoutWeekday         int `yaml:"handout_weekday"`
	ReturnWeekday          int `yaml:"return_weekday"`
	TurnaroundDays         int `yaml:"turnaround_days"`
	DefaultMaxDurationDays int `yaml:"default_max_duration_days"`
	OrdinaryExtensionLimit int `yaml:"ordinary_extension_limit_days"`
	StaffExtensionLimit    int `yaml:"staff_extension_limit_days"`
	ExtensionStepDays      int `yaml:"extension_step_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SendReservationReminders string `yaml:"send_reservation_reminders"`
	SendDueReminders         string `yaml:"send_due_reminders"`
	SendMissingReturnNotices string `yaml:"send_missing_return_notices"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.overrideWithEnv(); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() error {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("DB_PORT must be a number, got %q", val)
		}
		c.Database.Port = port
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.APIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.From = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("SERVER_PORT must be a number, got %q", val)
		}
		c.Server.Port = port
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry <= 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.RefreshTokenExpiry <= 0 {
		c.JWT.RefreshTokenExpiry = 7 * 24 * 60
	}

	// Calendar validation
	if c.Calendar.HandoutWeekday < 1 || c.Calendar.HandoutWeekday > 7 {
		return fmt.Errorf("invalid handout weekday: %d", c.Calendar.HandoutWeekday)
	}
	if c.Calendar.ReturnWeekday < 1 || c.Calendar.ReturnWeekday > 7 {
		return fmt.Errorf("invalid return weekday: %d", c.Calendar.ReturnWeekday)
	}
	if c.Calendar.TurnaroundDays < 0 {
		return fmt.Errorf("turnaround days must not be negative: %d", c.Calendar.TurnaroundDays)
	}
	if c.Calendar.DefaultMaxDurationDays <= 0 {
		c.Calendar.DefaultMaxDurationDays = 7
	}
	if c.Calendar.OrdinaryExtensionLimit <= 0 {
		c.Calendar.OrdinaryExtensionLimit = 1
	}
	if c.Calendar.StaffExtensionLimit <= 0 {
		c.Calendar.StaffExtensionLimit = 8
	}
	if c.Calendar.ExtensionStepDays <= 0 {
		c.Calendar.ExtensionStepDays = 7
	}

	// Scheduler defaults
	if c.Scheduler.SendReservationReminders == "" {
		c.Scheduler.SendReservationReminders = "0 0 7 * * *" // 7 AM UTC
	}
	if c.Scheduler.SendDueReminders == "" {
		c.Scheduler.SendDueReminders = "0 0 8 * * *" // 8 AM UTC
	}
	if c.Scheduler.SendMissingReturnNotices == "" {
		c.Scheduler.SendMissingReturnNotices = "0 0 9 * * *" // 9 AM UTC
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
