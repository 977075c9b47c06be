package config

import (
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	ierr "github.com/memberbase/memberbase/internal/errors"
	"github.com/memberbase/memberbase/internal/types"
)

// Configuration holds all runtime configuration for the service.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Email      EmailConfig      `mapstructure:"email"`
	Grace      GraceConfig      `mapstructure:"grace"`
}

type DeploymentConfig struct {
	Mode string `mapstructure:"mode"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type EmailConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	APIKey        string  `mapstructure:"api_key"`
	FromAddress   string  `mapstructure:"from_address"`
	SiteName      string  `mapstructure:"site_name"`
	LoginURL      string  `mapstructure:"login_url"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// GraceConfig configures the grace window and the expiration warning
// schedule. The defaults match the production values: a 28-day grace
// window and warning emails 28 and 10 days before the end date.
type GraceConfig struct {
	WindowDays int `mapstructure:"window_days"`

	// WarningSchedule maps days-before-end-date to an email template ID.
	// Keys are stringified day counts so the table can come from config
	// files or env without custom decoding.
	WarningSchedule map[string]string `mapstructure:"warning_schedule"`
}

// DSN returns the postgres connection string for lib/pq.
func (c PostgresConfig) DSN() string {
	parts := []string{
		"host=" + c.Host,
		"port=" + strconv.Itoa(c.Port),
		"user=" + c.User,
		"dbname=" + c.DBName,
		"sslmode=" + c.SSLMode,
	}
	if c.Password != "" {
		parts = append(parts, "password="+c.Password)
	}
	return strings.Join(parts, " ")
}

// WarningTemplates parses the configured schedule into day-count keys.
// Invalid keys are dropped rather than failing startup.
func (c GraceConfig) WarningTemplates() map[int]string {
	out := make(map[int]string, len(c.WarningSchedule))
	for k, v := range c.WarningSchedule {
		days, err := strconv.Atoi(k)
		if err != nil || days < 0 || v == "" {
			continue
		}
		out[days] = v
	}
	return out
}

// NewConfig loads configuration from config files and environment variables.
// A local .env file is honored for development.
func NewConfig() (*Configuration, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MEMBERBASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env vars and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read config file").
				Mark(ierr.ErrValidation)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to unmarshal configuration").
			Mark(ierr.ErrValidation)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GetDefaultConfig returns a configuration suitable for tests and scripts.
func GetDefaultConfig() *Configuration {
	v := viper.New()
	setDefaults(v)

	var cfg Configuration
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "api")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "memberbase")
	v.SetDefault("postgres.dbname", "memberbase")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.from_address", "memberships@example.com")
	v.SetDefault("email.site_name", "Memberbase")
	v.SetDefault("email.rate_per_second", 5.0)
	v.SetDefault("grace.window_days", 28)
	v.SetDefault("grace.warning_schedule", map[string]string{
		"28": "expiring_28",
		"10": "expiring_10",
	})
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime behavior.
func (c *Configuration) Validate() error {
	if c.Grace.WindowDays <= 0 {
		return ierr.NewErrorf("grace window days must be positive, got %d", c.Grace.WindowDays).
			WithHint("grace.window_days must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if c.Email.Enabled && c.Email.APIKey == "" {
		return ierr.NewError("email is enabled but no API key is configured").
			WithHint("Set email.api_key or disable email").
			Mark(ierr.ErrValidation)
	}
	return nil
}
