package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Cases     CasesConfig
	Intake    IntakeConfig
	Exports   ExportsConfig
	Bootstrap BootstrapConfig
}

// StoreConfig selects the case store backend.
type StoreConfig struct {
	Driver   string
	SeedDemo bool
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig gates the Redis backed dashboard cache.
type CacheConfig struct {
	Enabled      bool
	DashboardTTL time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CasesConfig tunes the case lifecycle rules.
type CasesConfig struct {
	DefaultSLADays        int
	RequireClosureComment bool
	RecomputeDueDate      bool
	LockClosed            bool
}

// IntakeConfig controls public intake links.
type IntakeConfig struct {
	BaseURL string
}

// ExportsConfig configures asynchronous case register exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// BootstrapConfig seeds the first system administrator.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Driver:   strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		SeedDemo: v.GetBool("SEED_DEMO_DATA"),
	}
	if cfg.Store.Driver != StorePostgres {
		cfg.Store.Driver = StoreMemory
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:      v.GetBool("ENABLE_CACHE"),
		DashboardTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	slaDays := v.GetInt("CASES_DEFAULT_SLA_DAYS")
	if slaDays <= 0 {
		slaDays = 7
	}
	cfg.Cases = CasesConfig{
		DefaultSLADays:        slaDays,
		RequireClosureComment: v.GetBool("CASES_REQUIRE_CLOSURE_COMMENT"),
		RecomputeDueDate:      v.GetBool("CASES_RECOMPUTE_DUE_DATE"),
		LockClosed:            v.GetBool("CASES_LOCK_CLOSED"),
	}

	cfg.Intake = IntakeConfig{BaseURL: strings.TrimRight(v.GetString("INTAKE_BASE_URL"), "/")}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 30*time.Minute),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminEmail:    strings.ToLower(strings.TrimSpace(v.GetString("BOOTSTRAP_ADMIN_EMAIL"))),
		AdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_DRIVER", StoreMemory)
	v.SetDefault("SEED_DEMO_DATA", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "complyark")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "complyark")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CASES_DEFAULT_SLA_DAYS", 7)
	v.SetDefault("CASES_REQUIRE_CLOSURE_COMMENT", false)
	v.SetDefault("CASES_RECOMPUTE_DUE_DATE", false)
	v.SetDefault("CASES_LOCK_CLOSED", false)

	v.SetDefault("INTAKE_BASE_URL", "http://localhost:5173/request")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
