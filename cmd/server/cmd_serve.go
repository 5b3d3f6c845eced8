package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devaloi/collections/internal/app"
	"github.com/devaloi/collections/internal/config"
	"github.com/devaloi/collections/internal/logging"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Serve chat messages",
	Args:  cobra.NoArgs,
	RunE:  serveWith(app.Services{Chat: true}, "chat"),
}

var hotelCmd = &cobra.Command{
	Use:   "hotel",
	Short: "Serve hotel bookings and reservations",
	Args:  cobra.NoArgs,
	RunE:  serveWith(app.Services{Hotel: true}, "hotel"),
}

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Serve the read-only quotes collection",
	Args:  cobra.NoArgs,
	RunE:  serveWith(app.Services{Quotes: true}, "quotes"),
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Serve every resource from one listener",
	Args:  cobra.NoArgs,
	RunE:  serveWith(app.All, "collections"),
}

func serveWith(svc app.Services, service string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		log, err := logging.New(cfg.LogLevel, cfg.LogFormat, service)
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		a, err := app.New(cfg, svc, log)
		if err != nil {
			log.Error("startup failed", zap.Error(err))
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("starting",
			zap.String("storage", cfg.Storage),
			zap.String("data_dir", cfg.DataDir),
			zap.Int("latest_window", cfg.LatestWindow),
		)
		return a.ListenAndServe(ctx, ":"+cfg.Port)
	}
}

func loadConfig() (config.Config, error) {
	path := rootFlags.configFile
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if rootFlags.port != "" {
		cfg.Port = rootFlags.port
	}
	return cfg, nil
}
