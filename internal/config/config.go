package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CategoryDeletePolicy decides what happens when a category that products
// still reference is deleted.
type CategoryDeletePolicy string

const (
	// CategoryDeleteAllow deletes the category and leaves referencing
	// products with a dangling category id.
	CategoryDeleteAllow CategoryDeletePolicy = "allow"
	// CategoryDeleteRestrict refuses the delete while references exist.
	CategoryDeleteRestrict CategoryDeletePolicy = "restrict"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upload    UploadConfig
	Catalog   CatalogConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Database        string
	Schema          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AcquireTimeout  time.Duration
	MigrationsDir   string
}

type UploadConfig struct {
	Root         string
	MaxBytes     int64
	WriteTimeout time.Duration
}

type CatalogConfig struct {
	OperationTimeout     time.Duration
	CategoryDeletePolicy CategoryDeletePolicy
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() *Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 25)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("DB_ACQUIRE_TIMEOUT", "5s")
	viper.SetDefault("MIGRATIONS_DIR", "migrations")
	viper.SetDefault("UPLOAD_ROOT", "static/assets/uploads")
	viper.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	viper.SetDefault("UPLOAD_WRITE_TIMEOUT", "10s")
	viper.SetDefault("CATALOG_OPERATION_TIMEOUT", "10s")
	viper.SetDefault("CATALOG_CATEGORY_DELETE_POLICY", string(CategoryDeleteAllow))
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_DATABASE"),
			Schema:          viper.GetString("DB_SCHEMA"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			AcquireTimeout:  viper.GetDuration("DB_ACQUIRE_TIMEOUT"),
			MigrationsDir:   viper.GetString("MIGRATIONS_DIR"),
		},
		Upload: UploadConfig{
			Root:         viper.GetString("UPLOAD_ROOT"),
			MaxBytes:     viper.GetInt64("UPLOAD_MAX_BYTES"),
			WriteTimeout: viper.GetDuration("UPLOAD_WRITE_TIMEOUT"),
		},
		Catalog: CatalogConfig{
			OperationTimeout:     viper.GetDuration("CATALOG_OPERATION_TIMEOUT"),
			CategoryDeletePolicy: ParseCategoryDeletePolicy(viper.GetString("CATALOG_CATEGORY_DELETE_POLICY")),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
}

// ParseCategoryDeletePolicy maps a config value to a policy, falling back to
// CategoryDeleteAllow for anything unrecognised.
func ParseCategoryDeletePolicy(s string) CategoryDeletePolicy {
	switch CategoryDeletePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryDeleteRestrict:
		return CategoryDeleteRestrict
	default:
		return CategoryDeleteAllow
	}
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
