package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration shared by the local server, the
// lambda entrypoints and the operator CLI.
type Config struct {
	Port         int    `mapstructure:"port"`
	ServiceName  string `mapstructure:"service_name"`
	MaxBodyBytes int64  `mapstructure:"max_body_bytes"`

	DBDriver      string `mapstructure:"db_driver"`
	DatabaseDSN   string `mapstructure:"database_dsn"`
	DBHost        string `mapstructure:"db_host"`
	DBPort        int    `mapstructure:"db_port"`
	DBName        string `mapstructure:"db_name"`
	DBUser        string `mapstructure:"db_user"`
	DBPassword    string `mapstructure:"db_password"`
	DBAutoMigrate bool   `mapstructure:"db_auto_migrate"`

	JWTSecret           string        `mapstructure:"jwt_secret"`
	TokenTTL            time.Duration `mapstructure:"token_ttl"`
	QRSigningSecret     string        `mapstructure:"qr_signing_secret"`
	AdminPasskey        string        `mapstructure:"admin_passkey"`
	AdminMaxKeyAttempts int           `mapstructure:"admin_max_key_attempts"`

	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	SMTPUsername string        `mapstructure:"smtp_username"`
	SMTPPassword string        `mapstructure:"smtp_password"`
	SMTPFrom     string        `mapstructure:"smtp_from"`
	SMTPFromName string        `mapstructure:"smtp_from_name"`
	SMTPTimeout  time.Duration `mapstructure:"smtp_timeout"`

	NotifyConcurrency int `mapstructure:"notify_concurrency"`

	ImageBucket          string `mapstructure:"image_bucket"`
	ImageRegion          string `mapstructure:"image_region"`
	ImageEndpoint        string `mapstructure:"image_endpoint"`
	ImageAccessKeyID     string `mapstructure:"image_access_key_id"`
	ImageSecretAccessKey string `mapstructure:"image_secret_access_key"`
	ImagePublicBaseURL   string `mapstructure:"image_public_base_url"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// Load reads .env (when present) and the environment into a Config.
// Environment variables use the upper-cased key names, e.g. JWT_SECRET.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)
	if cfg.QRSigningSecret == "" {
		cfg.QRSigningSecret = cfg.JWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("service_name", "eventsync")
	v.SetDefault("max_body_bytes", 10<<20)

	v.SetDefault("db_driver", "mysql")
	v.SetDefault("database_dsn", "")
	v.SetDefault("db_host", "127.0.0.1")
	v.SetDefault("db_port", 3306)
	v.SetDefault("db_name", "eventsync")
	v.SetDefault("db_user", "root")
	v.SetDefault("db_password", "")
	v.SetDefault("db_auto_migrate", true)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("qr_signing_secret", "")
	v.SetDefault("admin_passkey", "")
	v.SetDefault("admin_max_key_attempts", 3)

	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_from", "")
	v.SetDefault("smtp_from_name", "EventSync")
	v.SetDefault("smtp_timeout", "15s")

	v.SetDefault("notify_concurrency", 5)

	v.SetDefault("image_bucket", "")
	v.SetDefault("image_region", "us-east-1")
	v.SetDefault("image_endpoint", "")
	v.SetDefault("image_access_key_id", "")
	v.SetDefault("image_secret_access_key", "")
	v.SetDefault("image_public_base_url", "")

	v.SetDefault("cors_allowed_origins", []string{"*"})

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "")
	v.SetDefault("log_file", "")
}

// Validate rejects configurations the server cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want mysql or sqlite)", c.DBDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.AdminMaxKeyAttempts <= 0 {
		c.AdminMaxKeyAttempts = 3
	}
	if c.NotifyConcurrency <= 0 {
		c.NotifyConcurrency = 1
	}
	return nil
}

// AdminPasskeyConfigured reports whether administrator registration and
// login are enabled.
func (c *Config) AdminPasskeyConfigured() bool {
	return strings.TrimSpace(c.AdminPasskey) != ""
}

// ImageStoreConfigured reports whether event images can be uploaded
func (c *Config) ImageStoreConfigured() bool {
	return c.ImageBucket != ""
}

// DSN returns the driver data source name. SQLite connections always enable
// foreign keys, which registration cascades depend on.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" {
		if c.DBDriver == "sqlite" {
			return withForeignKeys(c.DatabaseDSN)
		}
		return c.DatabaseDSN
	}
	if c.DBDriver == "sqlite" {
		return "file:" + c.DBName + ".db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
