package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/license-gate/src/config"
	"github.com/khabaroff/license-gate/src/database"
	"github.com/khabaroff/license-gate/src/handlers"
	"github.com/khabaroff/license-gate/src/logging"
	"github.com/khabaroff/license-gate/src/middleware"
	"github.com/khabaroff/license-gate/src/models"
	"github.com/khabaroff/license-gate/src/repositories"
	"github.com/khabaroff/license-gate/src/services"
)

// stores bundles the registry and flag backends chosen by STORE_BACKEND
type stores struct {
	backend     string
	clients     repositories.ClientRepository
	maintenance repositories.MaintenanceRepository
	close       func()
}

// app holds everything the router needs
type app struct {
	cfg         *config.Config
	stores      *stores
	validation  *services.ValidationService
	maintenance *services.MaintenanceService
	admin       *services.AdminService
	usageReset  *services.UsageResetService
	limiters    []*middleware.RateLimiter
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("backend", cfg.StoreBackend).
		Str("log_level", cfg.LogLevel).
		Msg("starting server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStores(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer st.close()

	log.Info().Str("backend", st.backend).Msg("store connected")

	if err := middleware.SetJWTSecret(cfg.JWTSecret); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT secret")
	}

	if cfg.SeedFile != "" {
		n, err := repositories.LoadSeedFile(context.Background(), st.clients, cfg.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.SeedFile).Msg("failed to load seed file")
		}
		log.Info().Int("clients", n).Str("file", cfg.SeedFile).Msg("client registry seeded")
	}

	a, err := newApp(context.Background(), cfg, st)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}

	// Start background services
	if err := a.usageReset.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to start usage reset job")
	}

	router := a.router()

	// Create HTTP server with timeouts (G112: protect from Slowloris attack)
	srv := &http.Server{
		Addr:              ":" + formatPort(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	a.usageReset.Stop()
	a.stopLimiters()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

// openStores connects the configured backend
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case models.BackendPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &stores{
			backend:     models.BackendPostgres,
			clients:     repositories.NewPostgresClientRepository(db.GetPool()),
			maintenance: repositories.NewPostgresMaintenanceRepository(db.GetPool()),
			close:       db.Close,
		}, nil

	case models.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return &stores{
			backend:     models.BackendRedis,
			clients:     repositories.NewRedisClientRepository(rdb),
			maintenance: repositories.NewRedisMaintenanceRepository(rdb),
			close:       func() { _ = rdb.Close() },
		}, nil

	case models.BackendMemory:
		log.Warn().Msg("memory backend selected: usage counters are lost on restart")
		return memoryStores(), nil
	}

	return nil, fmt.Errorf("unknown STORE_BACKEND %q (want postgres, redis or memory)", cfg.StoreBackend)
}

func memoryStores() *stores {
	return &stores{
		backend:     models.BackendMemory,
		clients:     repositories.NewMemoryClientRepository(),
		maintenance: repositories.NewMemoryMaintenanceRepository(),
		close:       func() {},
	}
}

// newApp builds the services and applies the startup maintenance override
func newApp(ctx context.Context, cfg *config.Config, st *stores) (*app, error) {
	maintenanceService := services.NewMaintenanceService(st.maintenance)
	maintenanceService.ApplyOverride(ctx, cfg.Maintenance)

	validationService := services.NewValidationService(st.clients, maintenanceService)
	validationService.SetIncrementRetries(cfg.IncrementRetries)
	validationService.SetRetryBackoff(cfg.IncrementBackoff)

	adminService, err := services.NewAdminService(cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("invalid admin credentials: %w", err)
	}
	if !adminService.Enabled() {
		log.Warn().Msg("ADMIN_USERNAME/ADMIN_PASSWORD not set - admin endpoints disabled")
	}

	return &app{
		cfg:         cfg,
		stores:      st,
		validation:  validationService,
		maintenance: maintenanceService,
		admin:       adminService,
		usageReset:  services.NewUsageResetService(st.clients, cfg.UsageResetSchedule),
	}, nil
}

// router creates the Gin engine with middleware and routes
func (a *app) router() *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := a.cfg.AllowedOriginList(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		// No browser origins configured; native clients send none
		corsConfig.AllowOriginFunc = func(origin string) bool { return false }
	}
	router.Use(cors.New(corsConfig))

	a.setupRoutes(router)
	return router
}

func (a *app) setupRoutes(router *gin.Engine) {
	healthHandler := handlers.NewHealthHandler(a.stores.clients, a.stores.backend)
	checkKeyHandler := handlers.NewCheckKeyHandler(a.validation)
	maintenanceHandler := handlers.NewMaintenanceHandler(a.maintenance)
	adminHandler := handlers.NewAdminHandler(a.admin, a.stores.clients, a.usageReset)

	checkLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Scope:             "check_key",
		RequestsPerMinute: a.cfg.CheckRateLimitPerMinute,
		Burst:             a.cfg.CheckRateLimitBurst,
	})
	loginLimiter := middleware.AuthRateLimiter()
	a.limiters = append(a.limiters, checkLimiter, loginLimiter)

	// Health check endpoints
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)
	router.GET("/info", healthHandler.HandleInfo)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Validation
	router.POST("/api/check-key", checkLimiter.Handler(), checkKeyHandler.HandleCheckKey)

	// Maintenance gate (admin only)
	maintenance := router.Group("/api/maintenance", middleware.AdminAuthMiddleware())
	{
		maintenance.GET("", maintenanceHandler.HandleStatus)
		maintenance.POST("/enable", maintenanceHandler.HandleEnable)
		maintenance.POST("/disable", maintenanceHandler.HandleDisable)
	}

	// Admin authentication endpoint (3 requests per minute per IP)
	router.POST("/admin/login", loginLimiter.Handler(), adminHandler.HandleAdminLogin)

	admin := router.Group("/admin", middleware.AdminAuthMiddleware())
	{
		admin.GET("/clients", adminHandler.HandleListClients)
		admin.POST("/usage/reset", adminHandler.HandleResetUsage)
	}
}

func (a *app) stopLimiters() {
	for _, l := range a.limiters {
		l.Stop()
	}
}

func formatPort(port int) string {
	return fmt.Sprintf("%d", port)
}
