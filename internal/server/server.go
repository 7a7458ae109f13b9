package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pamazon/internal/catalog"
	"pamazon/internal/config"
	"pamazon/internal/database"
	custommiddleware "pamazon/internal/middleware"
	"pamazon/internal/repository"
	"pamazon/internal/service"
	"pamazon/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	db      database.Service
	redis   *redis.Client
	catalog *catalog.Repository
}

func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service) *Server {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	productRepo := repository.NewProductRepository(db.DB())
	catalogRepo := catalog.NewRepository(productRepo, logger)

	router := NewRouter(Dependencies{
		Config:        cfg,
		Logger:        logger,
		Health:        db.Health,
		Redis:         redisClient,
		Catalog:       catalogRepo,
		Products:      productRepo,
		Users:         repository.NewUserRepository(db.DB()),
		RefreshTokens: repository.NewRefreshTokenRepository(db.DB()),
	})

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		db:      db,
		redis:   redisClient,
		catalog: catalogRepo,
	}
}

// Dependencies are the collaborators the HTTP router is assembled from
type Dependencies struct {
	Config        *config.Config
	Logger        *zap.Logger
	Health        func() map[string]string
	Redis         redis.Cmdable
	Catalog       *catalog.Repository
	Products      repository.ProductRepository
	Users         repository.UserRepository
	RefreshTokens repository.RefreshTokenRepository
}

// NewRouter wires services, handlers and middleware into a chi router
func NewRouter(deps Dependencies) chi.Router {
	cfg := deps.Config
	logger := deps.Logger

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := deps.Health()
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, map[string]interface{}{
			"status":         health["status"],
			"database":       health,
			"catalog_loaded": deps.Catalog.Loaded(),
		})
	})

	adminPolicy := service.NewEmailAdminPolicy(cfg.Catalog.AdminEmail)
	if cfg.Catalog.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL is not set; catalog administration is disabled")
	}

	userService := service.NewUserService(deps.Users, deps.RefreshTokens, service.TokenSettings{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  time.Duration(cfg.JWT.AccessExpiry) * time.Minute,
		RefreshTTL: time.Duration(cfg.JWT.RefreshExpiry) * 24 * time.Hour,
	})
	productService := service.NewProductService(deps.Products, deps.Catalog, cfg.Catalog.RequireAdminForCreate)

	authMiddleware := custommiddleware.AuthMiddleware(userService, adminPolicy, logger)

	var authLimiter, mutationLimiter func(http.Handler) http.Handler
	if deps.Redis != nil && cfg.RateLimit.Requests > 0 {
		authLimiter = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window(),
			KeyPrefix:         "rate_limit:auth",
		}, logger)
		mutationLimiter = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window(),
			KeyPrefix:         "rate_limit:products",
		}, logger)
	}

	transport.NewUserHandler(userService, adminPolicy, logger).
		RegisterRoutes(router, authMiddleware, authLimiter)

	transport.NewProductHandler(deps.Catalog, productService, logger).
		RegisterRoutes(router, transport.RouteGuards{
			Auth:         authMiddleware,
			OptionalAuth: custommiddleware.OptionalAuthMiddleware(userService, adminPolicy, logger),
			Admin:        custommiddleware.RequireAdmin(logger),
			Limiter:      mutationLimiter,
		})

	return router
}

// WarmCatalog performs the initial catalog load. A failure is logged and
// left for the first listing request to retry.
func (s *Server) WarmCatalog(ctx context.Context) {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		s.logger.Warn("Redis unreachable; rate limiting will fail open", zap.Error(err))
	}

	if _, _, err := s.catalog.LoadAll(ctx); err != nil {
		s.logger.Warn("Initial catalog load failed", zap.Error(err))
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if err := s.redis.Close(); err != nil {
		s.logger.Error("Failed to close redis client", zap.Error(err))
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
