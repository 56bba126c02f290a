package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinora/clinora/internal/config"
	"github.com/clinora/clinora/internal/domain/appointment"
	authapi "github.com/clinora/clinora/internal/domain/auth"
	"github.com/clinora/clinora/internal/domain/customer"
	"github.com/clinora/clinora/internal/domain/device"
	"github.com/clinora/clinora/internal/domain/notification"
	"github.com/clinora/clinora/internal/domain/payment"
	"github.com/clinora/clinora/internal/domain/report"
	"github.com/clinora/clinora/internal/platform/apperr"
	"github.com/clinora/clinora/internal/platform/auth"
	"github.com/clinora/clinora/internal/platform/db"
	"github.com/clinora/clinora/internal/platform/middleware"
	"github.com/clinora/clinora/internal/platform/tenant"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinora-server",
		Short: "Clinic management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a company and its admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			company, _ := cmd.Flags().GetString("company")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if company == "" || email == "" || password == "" {
				return fmt.Errorf("--company, --email and --password are required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			companyID := uuid.New()
			if _, err := pool.Exec(ctx,
				`INSERT INTO company (id, name) VALUES ($1, $2)`, companyID, company); err != nil {
				return fmt.Errorf("create company: %w", err)
			}

			issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
			authSvc := authapi.NewService(
				authapi.NewUserRepoPG(pool), authapi.NewTokenRepoPG(pool), issuer, cfg.RefreshTokenTTL)
			u, err := authSvc.Register(ctx, companyID, email, password, "Admin", "", authapi.RoleAdmin)
			if err != nil {
				return fmt.Errorf("create admin user: %w", err)
			}

			fmt.Printf("Created company %q (%s) with admin %s\n", company, companyID, u.Email)
			return nil
		},
	}
	cmd.Flags().String("company", "", "Company name")
	cmd.Flags().String("email", "", "Admin email")
	cmd.Flags().String("password", "", "Admin password")
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health check stays outside authentication.
	e.GET("/health", db.HealthHandler(pool))

	// Repositories
	customerRepo := customer.NewRepoPG(pool)
	deviceRepo := device.NewRepoPG(pool)
	appointmentRepo := appointment.NewRepoPG(pool)
	paymentRepo := payment.NewRepoPG(pool)
	notificationRepo := notification.NewRepoPG(pool)
	userRepo := authapi.NewUserRepoPG(pool)
	tokenRepo := authapi.NewTokenRepoPG(pool)

	// Services
	txRunner := db.SerializableTx(pool)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	authSvc := authapi.NewService(userRepo, tokenRepo, issuer, cfg.RefreshTokenTTL)
	customerSvc := customer.NewService(customerRepo)
	deviceSvc := device.NewService(deviceRepo, txRunner)
	appointmentSvc := appointment.NewService(appointmentRepo, deviceRepo, customerRepo, txRunner)
	paymentSvc := payment.NewService(paymentRepo, customerRepo, txRunner)
	notificationSvc := notification.NewService(notificationRepo)
	reportSvc := report.NewService(paymentRepo, appointmentRepo, customerRepo)

	authHandler := authapi.NewHandler(authSvc)

	// Public auth endpoints (login, refresh)
	public := e.Group("/api/v1")
	authHandler.RegisterPublicRoutes(public)

	// Authenticated API
	apiV1 := e.Group("/api/v1")
	apiV1.Use(auth.JWTMiddleware(cfg.JWTSecret))
	apiV1.Use(tenant.Middleware())

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	authHandler.RegisterRoutes(apiV1)
	customer.NewHandler(customerSvc).RegisterRoutes(apiV1)
	device.NewHandler(deviceSvc).RegisterRoutes(apiV1)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(apiV1)
	payment.NewHandler(paymentSvc).RegisterRoutes(apiV1)
	notification.NewHandler(notificationSvc).RegisterRoutes(apiV1)
	report.NewHandler(reportSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}
	return nil
}
