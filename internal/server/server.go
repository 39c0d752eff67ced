package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"catalog-admin/internal/config"
	"catalog-admin/internal/database"
	custommiddleware "catalog-admin/internal/middleware"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/service"
	"catalog-admin/internal/storage"
	"catalog-admin/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config    *config.Config
	logger    *zap.Logger
	dbService database.Service
	redis     *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, dbService database.Service) (*Server, error) {
	db := dbService.DB()

	assets, err := storage.NewStore(
		afero.NewOsFs(),
		cfg.Upload.Root,
		storage.WithMaxBytes(cfg.Upload.MaxBytes),
		storage.WithWriteTimeout(cfg.Upload.WriteTimeout),
		storage.WithLogger(logger.Named("assets")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset store: %w", err)
	}

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db, cfg.Catalog.CategoryDeletePolicy)
	attributeRepo := repository.NewAttributeRepository(db)
	productRepo := repository.NewProductRepository(db)
	guard := repository.NewUniquenessGuard(db)

	// Initialize services
	catalogService := service.NewCatalogService(
		categoryRepo,
		attributeRepo,
		productRepo,
		guard,
		assets,
		cfg.Catalog.OperationTimeout,
		logger.Named("catalog"),
	)

	// Create router
	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsDevelopment()))

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		router.Use(custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "catalog_admin_rate_limit",
			WritesOnly:        true,
		}, logger))
		logger.Info("Rate limiting enabled",
			zap.Int("requests", cfg.RateLimit.Requests),
			zap.Duration("window", cfg.RateLimit.Window),
		)
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		health := dbService.Health(ctx)
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, health)
	})

	// Register routes
	transport.NewCategoryHandler(catalogService, logger).RegisterRoutes(router)
	transport.NewAttributeHandler(catalogService, logger).RegisterRoutes(router)
	transport.NewProductHandler(catalogService, cfg.Upload.MaxBytes, logger).RegisterRoutes(router)
	transport.NewAssetHandler(assets, logger).RegisterRoutes(router)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:    cfg,
		logger:    logger,
		dbService: dbService,
		redis:     redisClient,
	}

	return server, nil
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.dbService != nil {
		if err := s.dbService.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
