package main

import (
	"context"
	"errors"
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

	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/config"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/appointment"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/audit"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/directory"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/prescription"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/result"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/domain/vitals"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/auth"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/db"
	"github.com/Flinguee75/MEDECINE-APP-sub001/internal/platform/middleware"
)

// devUserID is the identity granted by the dev auth middleware. Seeded as an
// admin by the initial migration.
const devUserID = "00000000-0000-0000-0000-000000000001"

// appointmentRefAdapter exposes the appointment service through the
// prescription engine's lookup interface, avoiding a package cycle.
type appointmentRefAdapter struct {
	svc *appointment.Service
}

func (a appointmentRefAdapter) Ref(ctx context.Context, id uuid.UUID) (prescription.AppointmentRef, error) {
	patientID, doctorID, err := a.svc.Ref(ctx, id)
	if err != nil {
		return prescription.AppointmentRef{}, err
	}
	return prescription.AppointmentRef{PatientID: patientID, DoctorID: doctorID}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinical workflow API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
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
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default: MIGRATIONS_DIR)")
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
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
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
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default: MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

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

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	if cfg.IsDev() {
		logger.Warn().Msg("development auth enabled; all requests run as the dev admin")
		e.Use(auth.DevAuthMiddleware(devUserID))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	txRunner := db.NewTxRunner(pool)

	// Directory
	userRepo := directory.NewUserRepo(pool)
	patientRepo := directory.NewPatientRepo(pool)
	dirSvc := directory.NewService(userRepo, patientRepo)
	directory.NewHandler(dirSvc).RegisterRoutes(apiV1)

	// Audit ledger
	auditRepo := audit.NewRepo(pool)
	auditSvc := audit.NewService(auditRepo)
	audit.NewHandler(auditSvc).RegisterRoutes(apiV1)

	// Appointment engine
	apptRepo := appointment.NewRepo(pool)
	apptSvc := appointment.NewService(apptRepo, dirSvc, dirSvc, auditSvc, txRunner)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)

	// Vitals draft store
	vitalsRepo := vitals.NewRepo(pool)
	vitalsSvc := vitals.NewService(vitalsRepo, dirSvc, apptSvc)
	vitals.NewHandler(vitalsSvc).RegisterRoutes(apiV1)

	// Prescription engine
	rxRepo := prescription.NewRepo(pool)
	rxSvc := prescription.NewService(rxRepo, dirSvc, dirSvc, appointmentRefAdapter{svc: apptSvc})
	prescription.NewHandler(rxSvc).RegisterRoutes(apiV1)

	// Result engine
	resultRepo := result.NewRepo(pool)
	resultSvc := result.NewService(resultRepo, dirSvc, rxSvc, txRunner)
	result.NewHandler(resultSvc).RegisterRoutes(apiV1)

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
