package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"catalog-admin/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Service owns the process-wide connection pool.
type Service interface {
	DB() *sql.DB
	Health(ctx context.Context) map[string]string
	Close() error
}

type service struct {
	db             *sql.DB
	acquireTimeout time.Duration
}

// DSN builds a pgx connection string from cfg.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + cfg.Port,
		Path:   "/" + cfg.Database,
	}

	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if cfg.Schema != "" {
		q.Set("search_path", cfg.Schema)
	}
	if cfg.AcquireTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(cfg.AcquireTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// New opens and verifies the connection pool described by cfg.
func New(cfg config.DatabaseConfig) (Service, error) {
	db, err := sql.Open("pgx", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	s := &service{db: db, acquireTimeout: cfg.AcquireTimeout}

	ctx, cancel := s.acquireContext(context.Background())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return s, nil
}

func (s *service) DB() *sql.DB {
	return s.db
}

// Health reports pool statistics and the applied schema version.
func (s *service) Health(ctx context.Context) map[string]string {
	ctx, cancel := s.acquireContext(ctx)
	defer cancel()

	stats := make(map[string]string)

	if err := s.db.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = err.Error()
		return stats
	}

	stats["status"] = "up"

	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)

	if version, err := SchemaVersion(s.db); err == nil {
		stats["schema_version"] = strconv.FormatInt(version, 10)
	}

	return stats
}

func (s *service) Close() error {
	return s.db.Close()
}

func (s *service) acquireContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.acquireTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.acquireTimeout)
}
