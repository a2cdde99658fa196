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

	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Store    StoreConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Academy  AcademyConfig
	Jobs     JobsConfig
	Reports  ReportsConfig
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
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// StoreConfig selects the record store binding.
type StoreConfig struct {
	Driver        string
	NotifyChannel string
}

// JWTConfig holds the verification settings for tokens issued by the auth provider.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AcademyConfig carries scheduling defaults.
type AcademyConfig struct {
	Timezone            string
	DefaultClassMinutes int
	StrictTransitions   bool
}

// JobsConfig controls the background worker queue and its cron triggers.
type JobsConfig struct {
	Enabled              bool
	Workers              int
	Retries              int
	RetryDelay           time.Duration
	ExpansionCron        string
	ExpansionHorizonDays int
	SalaryCron           string
}

// ReportsConfig configures report caching and file exports.
type ReportsConfig struct {
	CacheTTL        time.Duration
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
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

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Store = StoreConfig{
		Driver:        strings.ToLower(v.GetString("STORE_DRIVER")),
		NotifyChannel: v.GetString("STORE_NOTIFY_CHANNEL"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	minutes := v.GetInt("ACADEMY_DEFAULT_CLASS_MINUTES")
	if minutes <= 0 {
		minutes = 60
	}
	cfg.Academy = AcademyConfig{
		Timezone:            v.GetString("ACADEMY_TIMEZONE"),
		DefaultClassMinutes: minutes,
		StrictTransitions:   v.GetBool("ACADEMY_STRICT_TRANSITIONS"),
	}

	cfg.Jobs = JobsConfig{
		Enabled:              v.GetBool("ENABLE_JOBS"),
		Workers:              v.GetInt("JOBS_WORKERS"),
		Retries:              v.GetInt("JOBS_RETRIES"),
		RetryDelay:           parseDuration(v.GetString("JOBS_RETRY_DELAY"), 5*time.Second),
		ExpansionCron:        v.GetString("EXPANSION_CRON"),
		ExpansionHorizonDays: v.GetInt("EXPANSION_HORIZON_DAYS"),
		SalaryCron:           v.GetString("SALARY_CRON"),
	}

	cfg.Reports = ReportsConfig{
		CacheTTL:        parseDuration(v.GetString("REPORTS_CACHE_TTL"), 5*time.Minute),
		StorageDir:      v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academy")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORE_DRIVER", StoreDriverMemory)
	v.SetDefault("STORE_NOTIFY_CHANNEL", "records_changed")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ACADEMY_TIMEZONE", "Africa/Cairo")
	v.SetDefault("ACADEMY_DEFAULT_CLASS_MINUTES", 60)
	v.SetDefault("ACADEMY_STRICT_TRANSITIONS", false)

	v.SetDefault("ENABLE_JOBS", false)
	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "5s")
	v.SetDefault("EXPANSION_CRON", "0 1 * * *")
	v.SetDefault("EXPANSION_HORIZON_DAYS", 14)
	v.SetDefault("SALARY_CRON", "30 2 1 * *")

	v.SetDefault("REPORTS_CACHE_TTL", "5m")
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
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
