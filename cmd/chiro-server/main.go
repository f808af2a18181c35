package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chirohq/chiro/internal/config"
	"github.com/chirohq/chiro/internal/domain/availability"
	"github.com/chirohq/chiro/internal/domain/billing"
	"github.com/chirohq/chiro/internal/domain/compliance"
	"github.com/chirohq/chiro/internal/domain/education"
	"github.com/chirohq/chiro/internal/domain/encounters"
	"github.com/chirohq/chiro/internal/domain/insights"
	"github.com/chirohq/chiro/internal/domain/inventory"
	"github.com/chirohq/chiro/internal/domain/patients"
	"github.com/chirohq/chiro/internal/domain/progress"
	"github.com/chirohq/chiro/internal/domain/scheduling"
	"github.com/chirohq/chiro/internal/platform/auth"
	"github.com/chirohq/chiro/internal/platform/cache"
	"github.com/chirohq/chiro/internal/platform/db"
	"github.com/chirohq/chiro/internal/platform/metrics"
	"github.com/chirohq/chiro/internal/platform/middleware"
	"github.com/chirohq/chiro/pkg/clock"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chiro-server",
		Short: "Chiropractic practice management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())

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
			schema, _ := cmd.Flags().GetString("schema")
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

			migrator := db.NewMigrator(pool, dir)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "org_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
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
	statusCmd.Flags().String("schema", "org_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage organizations",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new organization schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" {
				return fmt.Errorf("--name is required")
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

			fmt.Printf("Creating organization schema: org_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, dir); err != nil {
				return err
			}
			fmt.Println("Organization created and migrated successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Organization identifier (alphanumeric)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		logger.Fatal().Err(err).Str("timezone", cfg.DefaultTimezone).Msg("invalid timezone")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	redisClient, err := cache.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to redis")

	m := metrics.New()
	clk := clock.System()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Organization-ID"},
	}))
	e.Use(m.Middleware())

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.JWTIssuer,
			SigningKey: []byte(cfg.JWTSecret),
		}))
	}

	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))
	e.Use(middleware.Audit(logger))

	e.GET("/healthz", db.HealthHandler(pool))
	e.GET("/metrics", m.Handler())

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Scheduling: the slot lock narrows booking races, the transaction
	// settles them. The service doubles as the availability calculator's
	// appointment-type duration source.
	slotLock := cache.NewSlotLock(redisClient, cfg.LockTTL())
	schedulingSvc := scheduling.NewService(
		scheduling.NewAppointmentRepoPG(pool),
		scheduling.NewTypeRepoPG(pool),
		slotLock,
		db.WithTx,
		clk,
		m,
	)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)

	availabilitySvc := availability.NewService(
		availability.NewProviderRepoPG(pool),
		availability.NewScheduleRepoPG(pool),
		availability.NewExceptionRepoPG(pool),
		availability.NewBlockRepoPG(pool),
		availability.NewBookedIntervalPG(pool),
		schedulingSvc,
		clk,
		loc,
		cfg.MinAdvance(),
		m,
	)
	availability.NewHandler(availabilitySvc).RegisterRoutes(apiV1)

	patientsSvc := patients.NewService(patients.NewRepoPG(pool))
	patients.NewHandler(patientsSvc).RegisterRoutes(apiV1)

	encountersSvc := encounters.NewService(encounters.NewRepoPG(pool), clk)
	encounters.NewHandler(encountersSvc).RegisterRoutes(apiV1)

	billingSvc := billing.NewService(
		billing.NewClaimRepoPG(pool),
		billing.NewInvoiceRepoPG(pool),
		clk,
	)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)

	inventorySvc := inventory.NewService(
		inventory.NewProductRepoPG(pool),
		inventory.NewSaleRepoPG(pool),
		db.WithTx,
		clk,
	)
	inventory.NewHandler(inventorySvc).RegisterRoutes(apiV1)

	complianceSvc := compliance.NewService(
		compliance.NewVendorRepoPG(pool),
		compliance.NewBAARepoPG(pool),
		clk,
	)
	compliance.NewHandler(complianceSvc).RegisterRoutes(apiV1)

	stats := insights.NewStatsPG(pool)
	insightsSvc := insights.NewService(
		insights.NewInsightRepoPG(pool),
		insights.NewRunRepoPG(pool),
		clk,
		insights.NewNoShowAnalyzer(stats, clk),
		insights.NewChurnAnalyzer(stats, clk),
	)
	insights.NewHandler(insightsSvc).RegisterRoutes(apiV1)

	progressSvc := progress.NewService(
		progress.NewActivityRepoPG(pool),
		progress.NewAchievementRepoPG(pool),
		clk,
		loc,
	)
	progress.NewHandler(progressSvc).RegisterRoutes(apiV1)

	educationSvc := education.NewService(
		education.NewArticleRepoPG(pool),
		education.NewExerciseRepoPG(pool),
		cache.New(redisClient),
		education.DefaultCacheTTL,
	)
	education.NewHandler(educationSvc).RegisterRoutes(apiV1)

	// Serve with graceful shutdown.
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
