package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yakubov45/TechStore-sub000/internal/config"
	custommiddleware "github.com/yakubov45/TechStore-sub000/internal/middleware"
	"github.com/yakubov45/TechStore-sub000/internal/repository"
	"github.com/yakubov45/TechStore-sub000/internal/service"
	"github.com/yakubov45/TechStore-sub000/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config   *config.Config
	logger   *zap.Logger
	db       *sql.DB
	notifier *service.AsyncNotifier
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB, health func() map[string]string) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(nil, cfg.Server.Env != "production"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "ok",
			"database": health(),
		})
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	rateRepo := repository.NewExchangeRateRepository(db)

	// Initialize services
	notifier := service.NewAsyncNotifier(&service.LogSender{Logger: logger}, 64, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, notifier, logger)
	discountService := service.NewDiscountService(productRepo, logger)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, brandRepo, logger)
	currencyService := service.NewCurrencyService(rateRepo)

	// Initialize handlers
	orderHandler := transport.NewOrderHandler(orderService, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, currencyService, categoryRepo, brandRepo, logger)
	discountHandler := transport.NewDiscountHandler(discountService, logger)
	rateHandler := transport.NewRateHandler(currencyService, logger)

	// Create auth middlewares
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)

	// Rate limit order placement per client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rateLimitMiddleware := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 10,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:orders",
	}, logger)

	// Register routes
	orderHandler.RegisterRoutes(router, authMiddleware, adminMiddleware, rateLimitMiddleware)
	catalogHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	discountHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)
	rateHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:   cfg,
		logger:   logger,
		db:       db,
		notifier: notifier,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Drain queued order confirmations before letting go of resources
	if s.notifier != nil {
		s.notifier.Close()
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
