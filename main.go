package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/kinetic-data/catalog-engine/pkg/auth"
	"github.com/kinetic-data/catalog-engine/pkg/config"
	"github.com/kinetic-data/catalog-engine/pkg/database"
	"github.com/kinetic-data/catalog-engine/pkg/handlers"
	"github.com/kinetic-data/catalog-engine/pkg/logging"
	"github.com/kinetic-data/catalog-engine/pkg/middleware"
	"github.com/kinetic-data/catalog-engine/pkg/repositories"
	"github.com/kinetic-data/catalog-engine/pkg/services"
	"github.com/kinetic-data/catalog-engine/pkg/warehouse"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Bool("warehouse_configured", cfg.Warehouse.IsConfigured()))

	ctx := context.Background()

	statementTimeout, err := time.ParseDuration(cfg.Database.StatementTimeout)
	if err != nil {
		logger.Fatal("Invalid statement timeout", zap.String("value", cfg.Database.StatementTimeout))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:              cfg.Database.ConnectionString(),
		MaxConnections:   cfg.Database.MaxConnections,
		StatementTimeout: statementTimeout,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.String("error", logging.SanitizeError(err)))
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.String("error", logging.SanitizeError(err)))
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	warehouseClient, err := warehouse.NewClient(&cfg.Warehouse, logger)
	if err != nil {
		logger.Fatal("Failed to connect to warehouse", zap.String("error", logging.SanitizeError(err)))
	}
	if warehouseClient != nil {
		defer func() { _ = warehouseClient.Close() }()
	}

	// Auth
	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to initialize JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMiddleware := auth.NewMiddleware(authService, logger)

	// Repositories
	changeRepo := repositories.NewChangeRequestRepository()
	accessRepo := repositories.NewAccessRequestRepository()
	contentRepo := repositories.NewContentRepository()
	attrRepo := repositories.NewAttributeRepository()
	tableRepo := repositories.NewTableMetadataRepository()
	userContentRepo := repositories.NewUserContentRepository()
	roleRepo := repositories.NewRoleRepository()

	// Services
	capabilityTTL := time.Duration(cfg.Redis.CapabilityTTLSeconds) * time.Second
	permService := services.NewPermissionService(roleRepo, redisClient, capabilityTTL, logger)
	changeService := services.NewChangeRequestService(changeRepo, contentRepo, attrRepo, tableRepo, warehouseClient, permService, logger)
	accessService := services.NewAccessRequestService(accessRepo, tableRepo, permService, logger)
	catalogService := services.NewCatalogService(tableRepo, attrRepo, userContentRepo, permService, logger)
	scanService := services.NewScanService(warehouseClient, tableRepo, permService, logger)

	if cfg.Permissions.RoleMapPath != "" {
		if err := applyRoleMapOverrides(ctx, db, permService, cfg.Permissions.RoleMapPath); err != nil {
			logger.Fatal("Failed to apply role map overrides", zap.Error(err))
		}
	}

	// HTTP surface
	mux := http.NewServeMux()
	scoped := handlers.ScopeMiddleware(database.WithRequestScope(db, logger))

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChangeRequestHandler(changeService, logger).RegisterRoutes(mux, authMiddleware, scoped)
	handlers.NewAccessRequestHandler(accessService, logger).RegisterRoutes(mux, authMiddleware, scoped)
	handlers.NewCatalogHandler(catalogService, scanService, logger).RegisterRoutes(mux, authMiddleware, scoped)
	handlers.NewAttributeHandler(catalogService, logger).RegisterRoutes(mux, authMiddleware, scoped)
	handlers.NewRoleHandler(permService, logger).RegisterRoutes(mux, authMiddleware, scoped)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting catalog-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runMigrations(cfg *config.Config, logger *zap.Logger) error {
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}

// applyRoleMapOverrides runs the startup role-map sync under its own
// database scope.
func applyRoleMapOverrides(ctx context.Context, db *database.DB, permService services.PermissionService, path string) error {
	scope, err := db.AcquireScope(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()

	return permService.ApplyRoleMapOverrides(database.SetScope(ctx, scope), path)
}
