package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Application
	App AppConfig `mapstructure:"app"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type AppConfig struct {
	Env                string        `mapstructure:"env"`
	Port               int           `mapstructure:"port"`
	LogLevel           string        `mapstructure:"log_level"`
	ShortURLBase       string        `mapstructure:"short_url_base"`
	PaginationPage     int           `mapstructure:"pagination_page"`
	PaginationLimit    int           `mapstructure:"pagination_limit"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	ExpiryScanInterval time.Duration `mapstructure:"expiry_scan_interval"`
}

// Development reports whether the process runs outside production.
func (c AppConfig) Development() bool {
	return c.Env != "production"
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.App.PaginationPage <= 0 {
		return nil, fmt.Errorf("app.pagination_page must be positive, got %d", cfg.App.PaginationPage)
	}
	if cfg.App.PaginationLimit <= 0 {
		return nil, fmt.Errorf("app.pagination_limit must be positive, got %d", cfg.App.PaginationLimit)
	}
	if !strings.HasSuffix(cfg.App.ShortURLBase, "/") {
		cfg.App.ShortURLBase += "/"
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 3001)
	v.SetDefault("app.short_url_base", "https://symph.co/")
	v.SetDefault("app.pagination_page", 1)
	v.SetDefault("app.pagination_limit", 5)
	v.SetDefault("app.cache_ttl", 60*time.Second)
	v.SetDefault("app.expiry_scan_interval", time.Minute)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "symph")
	v.SetDefault("postgres.password", "symph")
	v.SetDefault("postgres.database", "symph")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("prometheus.port", 9090)
}

func bindEnvVars(v *viper.Viper) {
	// Application
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.port", "PORT")
	v.BindEnv("app.log_level", "LOG_LEVEL")
	v.BindEnv("app.short_url_base", "SHORT_URL_BASE")
	v.BindEnv("app.pagination_page", "PAGINATION_PAGE")
	v.BindEnv("app.pagination_limit", "PAGINATION_LIMIT")
	v.BindEnv("app.cache_ttl", "CACHE_TTL")
	v.BindEnv("app.expiry_scan_interval", "EXPIRY_SCAN_INTERVAL")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// NATS
	v.BindEnv("nats.enabled", "NATS_ENABLED")
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")
}
