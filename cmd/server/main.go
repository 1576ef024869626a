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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rawatinap/billing-server/internal/api"
	"github.com/rawatinap/billing-server/internal/config"
	"github.com/rawatinap/billing-server/internal/report"
	"github.com/rawatinap/billing-server/internal/repository"
	"github.com/rawatinap/billing-server/internal/service"
	"github.com/rawatinap/billing-server/internal/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rawatinap",
		Short: "Inpatient billing admin server",
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
		Short: "Start the billing admin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the schema and seed the room classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			db, err := config.SetupDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			return migrate(db, logger)
		},
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, utils.NewLogger(cfg.Log.Level, cfg.Log.Format), nil
}

func migrate(db *sqlx.DB, logger zerolog.Logger) error {
	rooms := make([]config.RoomSeed, 0, len(service.RoomClasses))
	for _, rc := range service.RoomClasses {
		rooms = append(rooms, config.RoomSeed{Class: rc.Name, DailyRate: rc.DailyRate})
	}
	if err := config.Migrate(db, rooms, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func runServer() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	// Database
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to set up database")
		return err
	}
	defer db.Close()
	logger.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.DBName).Msg("connected to database")

	if cfg.Database.AutoMigrate {
		if err := migrate(db, logger); err != nil {
			return err
		}
	}

	repo := repository.NewPostgresRepository(db)
	svc := service.NewDefaultService(repo, service.WithLogger(logger))
	sessions := api.NewSessionStore(cfg.Auth.SecretKey, cfg.Auth.SessionTTL, cfg.Auth.SecureCookie)
	handler := api.NewHandler(svc, sessions, report.NewExporter(),
		api.WithBillingLogin(cfg.Auth.BillingRequireLogin),
		api.WithHandlerLogger(logger),
	)

	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestID())
	router.Use(api.RequestLogger(logger))
	if len(cfg.Server.CORSOrigins) > 0 {
		corsCfg := cors.DefaultConfig()
		corsCfg.AllowOrigins = cfg.Server.CORSOrigins
		corsCfg.AllowCredentials = true
		corsCfg.AddAllowHeaders("X-Request-ID")
		router.Use(cors.New(corsCfg))
	}

	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
