package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Media    MediaConfig
	RabbitMQ RabbitMQConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// DatabaseConfig selects the catalog store
type DatabaseConfig struct {
	Driver        string
	DSN           string // sqlite and postgres
	MongoURI      string
	MongoDatabase string
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// MediaConfig holds upload settings
type MediaConfig struct {
	RemoteURL      string // s3://KEY:SECRET@host/bucket?..., empty stores images locally
	UploadDir      string
	PublicBaseURL  string
	Timeout        time.Duration
	MaxUploadBytes int
}

// RabbitMQConfig holds event broker settings. An empty URL disables events.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

// LoadDotEnv loads variables from the given files (".env" when none are given) without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("DATABASE_DRIVER", DriverSQLite)
	v.SetDefault("DATABASE_DSN", "file:marketplace.db")
	v.SetDefault("MONGO_URI", "")
	v.SetDefault("MONGO_DATABASE", "handcrafted")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("MEDIA_REMOTE_URL", "")
	v.SetDefault("MEDIA_UPLOAD_DIR", "static/uploads")
	v.SetDefault("MEDIA_PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("MEDIA_TIMEOUT", "30s")
	v.SetDefault("MEDIA_MAX_UPLOAD_BYTES", 50<<20)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "catalog_events")
}

// Load reads configuration from environment variables, falling back to built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("APP_ENV"),
			Port: v.GetString("APP_PORT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(v.GetString("DATABASE_DRIVER")),
			DSN:           v.GetString("DATABASE_DSN"),
			MongoURI:      v.GetString("MONGO_URI"),
			MongoDatabase: v.GetString("MONGO_DATABASE"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Media: MediaConfig{
			RemoteURL:      v.GetString("MEDIA_REMOTE_URL"),
			UploadDir:      v.GetString("MEDIA_UPLOAD_DIR"),
			PublicBaseURL:  strings.TrimRight(v.GetString("MEDIA_PUBLIC_BASE_URL"), "/"),
			Timeout:        v.GetDuration("MEDIA_TIMEOUT"),
			MaxUploadBytes: v.GetInt("MEDIA_MAX_UPLOAD_BYTES"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the app cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("DATABASE_DSN is required for driver %s", c.Database.Driver))
		}
	case DriverMongo:
		if c.Database.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for driver mongo"))
		}
		if c.Database.MongoDatabase == "" {
			errs = append(errs, errors.New("MONGO_DATABASE is required for driver mongo"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}

	if c.JWT.Secret == "" && c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Media.Timeout <= 0 {
		errs = append(errs, errors.New("MEDIA_TIMEOUT must be positive"))
	}
	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Media.UploadDir == "" {
		errs = append(errs, errors.New("MEDIA_UPLOAD_DIR is required"))
	}

	return errors.Join(errs...)
}
