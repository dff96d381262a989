package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Gateway     GatewayConfig
	Spool       SpoolConfig
	Tenant      TenantConfig
	Ingest      IngestConfig
	Rules       RulesConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	MaxBodySize   int
	EnableMetrics bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

// RedisConfig is optional: an empty URL disables the rule cache.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// JWTConfig enables caller verification when Secret is set.
type JWTConfig struct {
	Secret string
	Issuer string
}

type GatewayConfig struct {
	Endpoints       []string
	AttemptTimeout  time.Duration
	DeliveryBudget  time.Duration
	HedgeDelay      time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

type SpoolConfig struct {
	Enabled        bool
	Path           string
	Schedule       string
	SyncInterval   time.Duration
	MaxRetry       int
	RetentionHours int
	BatchSize      int
}

type TenantConfig struct {
	DefaultOwnerID  int64
	DefaultStreamID int64
}

type IngestConfig struct {
	Deadline time.Duration
}

type RulesConfig struct {
	CacheTTL time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	MonitorInterval time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

var defaultGatewayEndpoints = []string{
	"http://gateway:3000/broadcast",
	"http://localhost:3000/broadcast",
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "liveassist"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8000"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			MaxBodySize:   getInt("SERVER_MAX_BODY_SIZE", 1<<20),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "liveassist"),
			User:            getString("DB_USER", "liveassist"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: os.Getenv("JWT_ISSUER"),
		},
		Gateway: GatewayConfig{
			Endpoints:       getList("GATEWAY_ENDPOINTS", defaultGatewayEndpoints),
			AttemptTimeout:  getDuration("GATEWAY_ATTEMPT_TIMEOUT", 5*time.Second),
			DeliveryBudget:  getDuration("GATEWAY_DELIVERY_BUDGET", 10*time.Second),
			HedgeDelay:      getDuration("GATEWAY_HEDGE_DELAY", 0),
			BreakerFailures: getInt("GATEWAY_BREAKER_FAILURES", 0),
			BreakerCooldown: getDuration("GATEWAY_BREAKER_COOLDOWN", 30*time.Second),
		},
		Spool: SpoolConfig{
			Enabled:        getBool("SPOOL_ENABLED", false),
			Path:           getString("SPOOL_PATH", "./data/spool.db"),
			Schedule:       getString("SPOOL_SCHEDULE", ""),
			SyncInterval:   getDuration("SPOOL_SYNC_INTERVAL", 30*time.Second),
			MaxRetry:       getInt("SPOOL_MAX_RETRY", 5),
			RetentionHours: getInt("SPOOL_RETENTION_HOURS", 24),
			BatchSize:      getInt("SPOOL_BATCH_SIZE", 50),
		},
		Tenant: TenantConfig{
			DefaultOwnerID:  getInt64("DEFAULT_OWNER_ID", 1),
			DefaultStreamID: getInt64("DEFAULT_STREAM_ID", 1),
		},
		Ingest: IngestConfig{
			Deadline: getDuration("INGEST_DEADLINE", 20*time.Second),
		},
		Rules: RulesConfig{
			CacheTTL: getDuration("RULE_CACHE_TTL", 0),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 25*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
			MonitorInterval: getDuration("MONITOR_INTERVAL", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Tenant.DefaultOwnerID <= 0 {
		errs = append(errs, errors.New("DEFAULT_OWNER_ID must be positive"))
	}
	if c.Tenant.DefaultStreamID <= 0 {
		errs = append(errs, errors.New("DEFAULT_STREAM_ID must be positive"))
	}
	if c.Gateway.AttemptTimeout <= 0 {
		errs = append(errs, errors.New("GATEWAY_ATTEMPT_TIMEOUT must be positive"))
	}
	if c.Gateway.DeliveryBudget < c.Gateway.AttemptTimeout {
		errs = append(errs, errors.New("GATEWAY_DELIVERY_BUDGET must not be shorter than GATEWAY_ATTEMPT_TIMEOUT"))
	}
	if c.Gateway.HedgeDelay < 0 || c.Gateway.BreakerFailures < 0 {
		errs = append(errs, errors.New("GATEWAY_HEDGE_DELAY and GATEWAY_BREAKER_FAILURES must not be negative"))
	}
	if c.Ingest.Deadline <= 0 {
		errs = append(errs, errors.New("INGEST_DEADLINE must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getList splits a comma separated value, keeping order. A set but blank
// variable yields an empty list, which disables the feature it configures.
func getList(key string, fallback []string) []string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return append([]string(nil), fallback...)
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
