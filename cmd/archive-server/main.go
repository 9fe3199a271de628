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

	"github.com/dental/archive/internal/config"
	"github.com/dental/archive/internal/domain/patient"
	"github.com/dental/archive/internal/domain/request"
	"github.com/dental/archive/internal/platform/ai"
	"github.com/dental/archive/internal/platform/auth"
	"github.com/dental/archive/internal/platform/middleware"
	"github.com/dental/archive/internal/platform/spreadsheet"
	"github.com/dental/archive/internal/platform/stats"
	"github.com/dental/archive/internal/platform/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "archive-server",
		Short: "Dental clinic archive API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the archive API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the patient roster to a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			snap, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer snap.Close()

			repo, err := patient.NewSnapshotRepo(ctx, snap)
			if err != nil {
				return err
			}
			patients, err := patient.NewService(repo).List(ctx)
			if err != nil {
				return err
			}
			data, err := spreadsheet.NewCodec().Export(patients)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Exported %d patient(s) to %s\n", len(patients), out)
			return nil
		},
	}
	cmd.Flags().String("out", "patients.xlsx", "Output spreadsheet path")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the patient roster from a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			snap, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer snap.Close()

			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			patients, err := spreadsheet.NewCodec().Import(data)
			if err != nil {
				return fmt.Errorf("spreadsheet parse failed: %w", err)
			}
			repo, err := patient.NewSnapshotRepo(ctx, snap)
			if err != nil {
				return err
			}
			if err := patient.NewService(repo).ReplaceAll(ctx, patients); err != nil {
				return err
			}
			fmt.Printf("Imported %d patient(s); previous roster replaced.\n", len(patients))
			return nil
		},
	}
	cmd.Flags().String("file", "", "Spreadsheet to import")
	return cmd
}

// openStore picks the snapshot backend: Postgres when DATABASE_URL is set,
// the embedded sqlite file otherwise.
func openStore(ctx context.Context, cfg *config.Config) (store.Snapshotter, error) {
	if cfg.DatabaseURL != "" {
		return store.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	return store.OpenSQLite(cfg.DataPath)
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Snapshot store + repositories
	ctx := context.Background()
	snap, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open snapshot store")
	}
	defer snap.Close()
	logger.Info().Msg("snapshot store ready")

	patientRepo, err := patient.NewSnapshotRepo(ctx, snap)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load patient collection")
	}
	requestRepo, err := request.NewSnapshotRepo(ctx, snap)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load request collection")
	}

	patientSvc := patient.NewService(patientRepo)
	requestSvc := request.NewService(requestRepo)

	// AI bridge. Without an API key the assistant runs in degraded mode:
	// every call yields the fixed failure text.
	var gen ai.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := ai.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create AI client")
		}
		gen = gemini
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set; AI assistant disabled")
		gen = ai.Disabled{}
	}
	bridge := ai.NewBridge(gen, cfg.AIQueryModel, cfg.AISummaryModel)

	// Role tokens
	secret := cfg.JWTSecret
	if secret == "" {
		// Development convenience: logins do not survive a restart.
		secret = "archive-dev-secret"
	}
	authCfg := auth.Config{
		Secret: []byte(secret),
		TTL:    time.Duration(cfg.TokenTTLHours) * time.Hour,
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(auth.Middleware(authCfg, auth.DefaultSkipper))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API routes
	apiV1 := e.Group("/api/v1")
	auth.NewHandler(authCfg, cfg.RolePassword).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc, spreadsheet.NewCodec()).RegisterRoutes(apiV1)
	request.NewHandler(requestSvc).RegisterRoutes(apiV1)
	stats.NewHandler(patientSvc, requestSvc).RegisterRoutes(apiV1)
	ai.NewHandler(bridge, patientSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
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

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
