package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"hospital-api/internal/config"
	"hospital-api/internal/database"
	"hospital-api/internal/handler"
	"hospital-api/internal/metrics"
	"hospital-api/internal/middleware"
	"hospital-api/internal/model"
	"hospital-api/internal/repository"
	"hospital-api/internal/router"
	"hospital-api/internal/service"
	"hospital-api/internal/token"
)

type App struct {
	server *http.Server
	db     *database.DB
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	patientRepo := repository.NewPatientRepository(pool)
	slog.Info("database ready")

	if err := seedDefaultAdmin(context.Background(), userRepo, cfg.SeedAdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed default admin: %w", err)
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	authService := service.NewAuthService(userRepo, issuer, collector)
	patientService := service.NewPatientService(patientRepo, collector)

	authMiddleware := middleware.NewAuthMiddleware(issuer, userRepo)
	csrf := middleware.NewCSRF(cfg.CookieSecure)

	appRouter := router.New(cfg, router.Options{
		Auth:           authMiddleware,
		CSRF:           csrf,
		Metrics:        collector.HTTPMiddleware,
		MetricsHandler: metrics.Handler(registry),
	}, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cfg.JWTTTL, cfg.CookieSecure),
		Patient: handler.NewPatientHandler(patientService),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.db.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.db.Close()
	slog.Info("server stopped")
	return nil
}

// seedDefaultAdmin bootstraps the first admin account on an empty store so a
// fresh deployment is reachable. Registration through the API covers the rest.
func seedDefaultAdmin(ctx context.Context, users *repository.UserRepository, password string) error {
	count, err := users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := model.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        "admin@hospital.local",
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := users.Create(ctx, admin); err != nil {
		// Another instance may have seeded concurrently.
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return nil
		}
		return err
	}

	slog.Warn("seeded default admin account; change its password immediately", "username", admin.Username)
	return nil
}
