package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dealdesk/internal/auth"
	"dealdesk/internal/config"
	"dealdesk/internal/handler"
	"dealdesk/internal/middleware"
	"dealdesk/internal/repository/postgres"
	postgresAccess "dealdesk/internal/repository/postgres/access"
	serviceAccess "dealdesk/internal/service/access"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	resourceRepo := postgresAccess.NewResourceRepository(repoConfig)
	permissionRepo := postgresAccess.NewPermissionRepository(repoConfig)
	membershipRepo := postgresAccess.NewMembershipRepository(repoConfig)
	grantRepo := postgresAccess.NewGrantRepository(repoConfig)
	versionRepo := postgresAccess.NewVersionRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Load the role default rule table (embedded)
	rules, err := serviceAccess.NewRuleTable()
	if err != nil {
		log.Fatalf("Failed to load role rule table: %v", err)
	}
	logger.Info("role rule table loaded")

	// Create services
	evaluator := serviceAccess.NewEvaluator(resourceRepo, permissionRepo, membershipRepo, rules, logger)
	authorizer := serviceAccess.NewAuthorizer(evaluator, logger)
	grantService := serviceAccess.NewGrantService(resourceRepo, permissionRepo, membershipRepo, grantRepo, evaluator, txManager, logger)
	resourceService := serviceAccess.NewResourceService(resourceRepo, permissionRepo, membershipRepo, grantRepo, versionRepo, evaluator, authorizer, txManager, logger)
	versionService := serviceAccess.NewVersionService(resourceRepo, versionRepo, authorizer, txManager, logger)
	pathResolver := serviceAccess.NewPathResolver(resourceRepo, logger)
	storageAuthz := serviceAccess.NewStorageAuthz(pathResolver, evaluator, logger)

	// Create handlers
	resourceHandler := handler.NewResourceHandler(resourceService, logger)
	grantHandler := handler.NewGrantHandler(grantService, evaluator, logger)
	versionHandler := handler.NewVersionHandler(versionService, logger)
	storageHandler := handler.NewStorageHandler(storageAuthz, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", resourceHandler.HealthCheck)

	// Resource tree routes
	mux.HandleFunc("POST /api/resources", resourceHandler.CreateResource)
	mux.HandleFunc("GET /api/resources/{id}", resourceHandler.GetResource)
	mux.HandleFunc("DELETE /api/resources/{id}", resourceHandler.DeleteSubtree)

	// Project routes
	mux.HandleFunc("POST /api/projects/{id}/setup", resourceHandler.SetupProject)
	mux.HandleFunc("GET /api/projects/{id}/resources", resourceHandler.ListProjectResources)
	mux.HandleFunc("DELETE /api/projects/{id}/resources", resourceHandler.DeleteProjectTree)

	// Permission routes
	mux.HandleFunc("POST /api/permissions", grantHandler.Grant)
	mux.HandleFunc("POST /api/projects/{id}/access", grantHandler.GrantProjectAccess)
	mux.HandleFunc("GET /api/resources/{id}/effective-permission", grantHandler.EffectivePermission)

	// Version routes
	mux.HandleFunc("POST /api/resources/{id}/versions", versionHandler.CreateVersion)
	mux.HandleFunc("GET /api/resources/{id}/versions", versionHandler.ListVersions)
	mux.HandleFunc("POST /api/resources/{id}/versions/rollback", versionHandler.Rollback)

	// Storage authorization hook (called by the object store proxy)
	mux.HandleFunc("POST /api/storage/authorize/read", storageHandler.AuthorizeRead)
	mux.HandleFunc("POST /api/storage/authorize/mutate", storageHandler.AuthorizeMutate)
	mux.HandleFunc("POST /api/storage/authorize/upload", storageHandler.AuthorizeUpload)

	// Build middleware chain. Applied in reverse order (they wrap each other):
	// CORS → RequestID → Recovery → Auth → Routes
	var root http.Handler = mux
	root = middleware.Auth(jwtVerifier, logger)(root)
	root = middleware.Recovery(logger)(root)
	root = middleware.RequestID(logger)(root)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Serve until interrupted, then drain in-flight requests
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", cfg.Port)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	case sig := <-stop:
		logger.Info("shutdown signal received", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}

	logger.Info("server stopped")
}
