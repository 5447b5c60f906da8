package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	App     AppConfig
	Shopify ShopifyConfig
	Backup  BackupConfig
	Lock    LockConfig
	Server  ServerConfig
	Run     RunConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"variant-reset"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	APIKey      string `envconfig:"API_KEY" default:""` // Trigger endpoint API key
}

// ShopifyConfig holds Shopify Admin API settings.
type ShopifyConfig struct {
	Domain     string        `envconfig:"SHOPIFY_DOMAIN" required:"true"`
	Token      string        `envconfig:"SHOPIFY_TOKEN" required:"true"`
	APIVersion string        `envconfig:"SHOPIFY_API_VERSION" default:"2024-04"`
	MinGap     time.Duration `envconfig:"SHOPIFY_MIN_GAP" default:"600ms"`
	MaxRetries int           `envconfig:"SHOPIFY_MAX_RETRIES" default:"5"`
	RetryBase  time.Duration `envconfig:"SHOPIFY_RETRY_BASE" default:"1s"`
	Timeout    time.Duration `envconfig:"SHOPIFY_TIMEOUT" default:"30s"`
}

// BackupConfig holds backup store settings.
type BackupConfig struct {
	Type string `envconfig:"BACKUP_DB_TYPE" default:"mysql"` // mysql, sqlite, or memory
	Path string `envconfig:"BACKUP_DB_PATH" default:"./data/backup.db"`
	// MySQL settings (names match the operational cron environment)
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"shop"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// LockConfig holds run lock settings. The lock scopes the whole store:
// two concurrent runs would multiply the effective call rate against the
// platform's per-store ceiling.
type LockConfig struct {
	Type          string        `envconfig:"LOCK_TYPE" default:"memory"` // redis, memory, or none
	TTL           time.Duration `envconfig:"LOCK_TTL" default:"30m"`
	RedisHost     string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
}

// ServerConfig holds HTTP trigger server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"3000s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// RunConfig holds per-run settings.
type RunConfig struct {
	ProductIDs       string `envconfig:"PRODUCT_IDS" default:""` // comma-separated
	ExcludeSubstring string `envconfig:"EXCLUDE_TITLE_SUBSTRING" default:"perso"`
}

// BaseURL returns the Admin REST API base URL.
func (s *ShopifyConfig) BaseURL() string {
	return fmt.Sprintf("https://%s/admin/api/%s", s.Domain, s.APIVersion)
}

// DSN returns the MySQL data source name.
func (b *BackupConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		b.User, b.Password, b.Host, b.Port, b.Name)
}

// RedisAddress returns the Redis address in host:port format.
func (l *LockConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", l.RedisHost, l.RedisPort)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ParseProductIDs splits and parses the PRODUCT_IDS list.
func (r *RunConfig) ParseProductIDs() ([]int64, error) {
	if strings.TrimSpace(r.ProductIDs) == "" {
		return nil, nil
	}
	parts := strings.Split(r.ProductIDs, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
