package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hospital/backoffice/internal/config"
	"github.com/hospital/backoffice/internal/domain/consult"
	"github.com/hospital/backoffice/internal/domain/directory"
	"github.com/hospital/backoffice/internal/domain/pharmacy"
	"github.com/hospital/backoffice/internal/domain/room"
	"github.com/hospital/backoffice/internal/domain/surgery"
	"github.com/hospital/backoffice/internal/platform/auth"
	"github.com/hospital/backoffice/internal/platform/db"
	"github.com/hospital/backoffice/internal/platform/logging"
	"github.com/hospital/backoffice/internal/platform/metrics"
	"github.com/hospital/backoffice/internal/platform/middleware"
	"github.com/hospital/backoffice/internal/platform/websocket"
	"github.com/hospital/backoffice/migrations"
)

const (
	serviceName = "backoffice"
	version     = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "backoffice-server",
		Short: "Hospital consult billing and resource allocation API",
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
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator, schema string) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Running migrations on schema: %s\n", schema)
				count, err := m.Up(ctx, schema)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	addMigrateFlags(upCmd)
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(ctx context.Context, m *db.Migrator, schema string) error {
				statuses, err := m.Status(ctx, schema)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printStatus(cmd.OutOrStdout(), schema, statuses)
				return nil
			})
		},
	}
	addMigrateFlags(statusCmd)
	cmd.AddCommand(statusCmd)

	return cmd
}

func addMigrateFlags(cmd *cobra.Command) {
	cmd.Flags().String("schema", "", "Target schema (defaults to DB_SCHEMA)")
	cmd.Flags().String("dir", "", "Migrations directory (defaults to the embedded set)")
}

func withMigrator(cmd *cobra.Command, fn func(ctx context.Context, m *db.Migrator, schema string) error) error {
	schema, _ := cmd.Flags().GetString("schema")
	dir, _ := cmd.Flags().GetString("dir")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if schema == "" {
		schema = cfg.DBSchema
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// The pool is opened without a search_path so the migrator can create
	// the schema before anything resolves into it.
	pool, err := db.NewPool(ctx, db.PoolConfig{DatabaseURL: cfg.DatabaseURL, MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, migratorFor(pool, dir), schema)
}

func migratorFor(pool *pgxpool.Pool, dir string) *db.Migrator {
	if dir != "" {
		return db.NewMigrator(pool, dir)
	}
	return db.NewMigratorFS(pool, embeddedMigrations())
}

func embeddedMigrations() fs.FS { return migrations.FS }

func printStatus(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Dev:     cfg.IsDev(),
		Service: serviceName,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		Schema:      cfg.DBSchema,
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	e, err := newServer(cfg, logger, pool)
	if err != nil {
		return err
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires repositories, services and routes onto a fresh echo
// instance. It touches the pool only when requests arrive.
func newServer(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (*echo.Echo, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	m := metrics.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	if cfg.MetricsEnabled {
		e.Use(m.Middleware())
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	if cfg.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	hub := websocket.NewHub(logger)
	websocket.NewHandler(hub, cfg.CORSOrigins).RegisterRoutes(e)

	var authMW echo.MiddlewareFunc
	if cfg.IsDev() {
		logger.Warn().Msg("development auth enabled: anonymous requests act as admin")
		authMW = auth.DevAuthMiddleware([]byte(cfg.AuthSigningKey))
	} else {
		authMW = auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
		})
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	apiV1 := e.Group("/api/v1",
		authMW,
		middleware.BodyLimit(cfg.BodyLimit),
		middleware.RequestTimeout(cfg.RequestTimeout),
		middleware.Audit(logger),
		middleware.RateLimit(rateLimitCfg),
	)

	tx := db.NewTxRunner(pool)
	patientRepo := directory.NewPatientRepoPG(pool)
	employeeRepo := directory.NewEmployeeRepoPG(pool)

	roomSvc := room.NewService(room.NewRoomRepoPG(pool), room.NewUsageRepoPG(pool), tx)
	roomSvc.SetPublisher(hub)
	roomSvc.SetRecorder(m)
	roomSvc.SetLocation(loc)
	roomSvc.SetLogger(logger.With().Str("component", "room").Logger())

	pharmacySvc := pharmacy.NewService(pharmacy.NewMedicineRepoPG(pool), pharmacy.NewSaleRepoPG(pool), tx)
	pharmacySvc.SetRecorder(m)
	pharmacySvc.SetLogger(logger.With().Str("component", "pharmacy").Logger())

	surgerySvc := surgery.NewService(surgery.NewSurgeryRepoPG(pool), tx)
	surgerySvc.SetEmployees(employeeRepo)
	surgerySvc.SetLogger(logger.With().Str("component", "surgery").Logger())

	consultSvc := consult.NewService(
		consult.NewConsultRepoPG(pool),
		patientRepo,
		employeeRepo,
		roomSvc,
		pharmacySvc,
		surgerySvc,
		tx,
	)
	consultSvc.SetRecorder(m)
	consultSvc.SetPublisher(hub)
	consultSvc.SetLogger(logger.With().Str("component", "consult").Logger())

	// Ledgers refuse charges on paid consults through the consult service.
	pharmacySvc.SetConsultGuard(consultSvc)
	surgerySvc.SetConsultGuard(consultSvc)

	consult.NewHandler(consultSvc).RegisterRoutes(apiV1)
	room.NewHandler(roomSvc).RegisterRoutes(apiV1)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)
	surgery.NewHandler(surgerySvc).RegisterRoutes(apiV1)

	return e, nil
}
