// internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads .env, configs/config.yaml and the environment, in that order of
// increasing precedence.
func Load() (*Config, error) {
	loadEnvFile()
	return LoadFrom("./configs", "../../configs", ".")
}

// LoadFrom builds the config from config.yaml found in one of paths plus the
// environment. A missing file is not an error.
func LoadFrom(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Legacy variable names still set in production.
	_ = v.BindEnv("mail.resend_api_key", "MAIL_RESEND_API_KEY", "RESEND_API_KEY")
	_ = v.BindEnv("database.user", "DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.host", "DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", "DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.name", "DATABASE_NAME", "DB_NAME")
	_ = v.BindEnv("admin.emails", "ADMIN_EMAILS")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "groundzero-backend")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	// Bulk sends run inside the request.
	v.SetDefault("server.write_timeout", 10*time.Minute)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "groundzero")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_idle", 5)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lock_ttl", 30*time.Minute)

	v.SetDefault("queue.amqp_url", "")
	v.SetDefault("queue.name", "campaign_events")

	v.SetDefault("mail.provider", "noop")
	v.SetDefault("mail.from", "Ground Zero <newsletter@groundzeroai.in>")
	v.SetDefault("mail.resend_api_key", "")
	v.SetDefault("mail.ses_region", "us-east-1")

	v.SetDefault("newsletter.batch_size", 10)
	v.SetDefault("newsletter.batch_delay", time.Second)

	v.SetDefault("feed.url", "https://groundzero1.substack.com/feed")
	v.SetDefault("feed.ttl", 30*time.Minute)
	v.SetDefault("feed.user_agent", "GroundZero-Site/1.0 (+https://groundzeroai.in)")
	v.SetDefault("feed.timeout", 10*time.Second)

	v.SetDefault("youtube.api_key", "")
	v.SetDefault("youtube.base_url", "https://www.googleapis.com/youtube/v3")
	v.SetDefault("youtube.timeout", 10*time.Second)

	v.SetDefault("admin.token_hash", "")
	v.SetDefault("admin.emails", []string{"ground0ai.lab@gmail.com"})

	v.SetDefault("worker.sweep_interval", 15*time.Minute)
	v.SetDefault("worker.sweep_limit", 50)
	// Campaigns younger than this may still be sending.
	v.SetDefault("worker.stale_after", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func validateConfig(cfg *Config) error {
	switch cfg.Mail.Provider {
	case "noop", "ses":
	case "resend":
		if cfg.Mail.ResendAPIKey == "" {
			return errors.New("mail.resend_api_key is required for the resend provider")
		}
	default:
		return fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
	if cfg.Newsletter.BatchSize < 1 {
		return errors.New("newsletter.batch_size must be at least 1")
	}
	if cfg.Newsletter.BatchDelay < 0 {
		return errors.New("newsletter.batch_delay must not be negative")
	}
	if cfg.Feed.URL == "" {
		return errors.New("feed.url is required")
	}
	if cfg.Feed.TTL <= 0 {
		return errors.New("feed.ttl must be positive")
	}
	if cfg.Worker.StaleAfter <= 0 {
		return errors.New("worker.stale_after must be positive")
	}
	return nil
}

// loadEnvFile looks for .env in the working directory and its parents so
// cmd/ binaries and tests pick up the same file.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				log.Println("Loaded .env from", path)
				return
			}
		}
	}
	log.Println("⚠️ No .env file found, relying on OS environment variables")
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
