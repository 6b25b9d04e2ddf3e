// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultAccessSecret  = "access-secret-change-in-production"
	defaultRefreshSecret = "refresh-secret-change-in-production"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port               string  `mapstructure:"PORT"`
	Env                string  `mapstructure:"APP_ENV"`
	LogLevel           string  `mapstructure:"LOG_LEVEL"`
	DBHost             string  `mapstructure:"DB_HOST"`
	DBPort             string  `mapstructure:"DB_PORT"`
	DBUser             string  `mapstructure:"DB_USER"`
	DBPassword         string  `mapstructure:"DB_PASSWORD"`
	DBName             string  `mapstructure:"DB_NAME"`
	DBSSLMode          string  `mapstructure:"DB_SSLMODE"`
	DBSchemaMode       string  `mapstructure:"DB_SCHEMA_MODE"`
	RedisURL           string  `mapstructure:"REDIS_URL"`
	AllowedOrigins     string  `mapstructure:"ALLOWED_ORIGINS"`
	AccessTokenSecret  string  `mapstructure:"ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret string  `mapstructure:"REFRESH_TOKEN_SECRET"`
	AccessTokenExpiry  string  `mapstructure:"ACCESS_TOKEN_EXPIRY"`
	RefreshTokenExpiry string  `mapstructure:"REFRESH_TOKEN_EXPIRY"`
	CookieDomain       string  `mapstructure:"COOKIE_DOMAIN"`
	MediaBackend       string  `mapstructure:"MEDIA_BACKEND"`
	MediaDir           string  `mapstructure:"MEDIA_DIR"`
	MediaBaseURL       string  `mapstructure:"MEDIA_BASE_URL"`
	MediaMaxUploadMB   int     `mapstructure:"MEDIA_MAX_UPLOAD_MB"`
	S3Endpoint         string  `mapstructure:"S3_ENDPOINT"`
	S3Region           string  `mapstructure:"S3_REGION"`
	S3Bucket           string  `mapstructure:"S3_BUCKET"`
	S3AccessKey        string  `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey        string  `mapstructure:"S3_SECRET_KEY"`
	S3PublicURL        string  `mapstructure:"S3_PUBLIC_URL"`
	S3ForcePathStyle   bool    `mapstructure:"S3_FORCE_PATH_STYLE"`
	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
	SeedOnStart        bool    `mapstructure:"SEED_ON_START"`
	SeedScenario       string  `mapstructure:"SEED_SCENARIO"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	viper.SetDefault("PORT", "5000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "socialnest")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_SCHEMA_MODE", "hybrid")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("ACCESS_TOKEN_SECRET", defaultAccessSecret)
	viper.SetDefault("REFRESH_TOKEN_SECRET", defaultRefreshSecret)
	viper.SetDefault("ACCESS_TOKEN_EXPIRY", "15m")
	viper.SetDefault("REFRESH_TOKEN_EXPIRY", "7d")
	viper.SetDefault("COOKIE_DOMAIN", "")
	viper.SetDefault("MEDIA_BACKEND", "local")
	viper.SetDefault("MEDIA_DIR", "/tmp/socialnest/media")
	viper.SetDefault("MEDIA_BASE_URL", "/media")
	viper.SetDefault("MEDIA_MAX_UPLOAD_MB", 10)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_FORCE_PATH_STYLE", true)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("SEED_ON_START", false)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.MediaBackend = strings.ToLower(strings.TrimSpace(config.MediaBackend))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// IsProduction reports whether the config targets a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AccessTTL returns the parsed access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	d, _ := ParseExpiry(c.AccessTokenExpiry)
	return d
}

// RefreshTTL returns the parsed refresh token lifetime.
func (c *Config) RefreshTTL() time.Duration {
	d, _ := ParseExpiry(c.RefreshTokenExpiry)
	return d
}

// ParseExpiry accepts Go durations ("15m", "24h") and whole days ("7d").
func ParseExpiry(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty duration")
	}
	if days, ok := strings.CutSuffix(raw, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day duration %q", raw)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return d, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	accessTTL, err := ParseExpiry(c.AccessTokenExpiry)
	if err != nil {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRY: %w", err)
	}
	refreshTTL, err := ParseExpiry(c.RefreshTokenExpiry)
	if err != nil {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRY: %w", err)
	}
	if accessTTL >= refreshTTL {
		return errors.New("ACCESS_TOKEN_EXPIRY must be shorter than REFRESH_TOKEN_EXPIRY")
	}

	switch c.MediaBackend {
	case "", "local":
	case "s3":
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET are required when MEDIA_BACKEND=s3")
		}
		if c.S3AccessKey == "" || c.S3SecretKey == "" {
			return errors.New("S3_ACCESS_KEY and S3_SECRET_KEY are required when MEDIA_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}

	if c.IsProduction() {
		if c.SeedOnStart {
			return errors.New("SEED_ON_START is not allowed in production")
		}
		for name, secret := range map[string]string{
			"ACCESS_TOKEN_SECRET":  c.AccessTokenSecret,
			"REFRESH_TOKEN_SECRET": c.RefreshTokenSecret,
		} {
			if secret == defaultAccessSecret || secret == defaultRefreshSecret {
				return fmt.Errorf("%s must be changed from the default value in production", name)
			}
			if len(secret) < 32 {
				return fmt.Errorf("%s must be at least 32 characters in production", name)
			}
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			return errors.New("DB_SSLMODE must enable TLS in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. Credentialed cookies will be rejected by browsers.")
		}
	} else if len(c.AccessTokenSecret) < 32 || len(c.RefreshTokenSecret) < 32 {
		log.Println("WARNING: token secrets are shorter than 32 characters. Use stronger secrets for production.")
	}

	return nil
}
