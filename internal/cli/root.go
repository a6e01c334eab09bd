package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/artscout/artscout/internal/control"
	"github.com/artscout/artscout/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	workers int
	runOnce bool
)

var rootCmd = &cobra.Command{
	Use:   "artscout",
	Short: "Art exhibition research pipeline",
	Long:  `Artscout discovers art exhibition open calls on the web, extracts structured records and persists them with provenance and dedup.`,
	Run:   runPipeline,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "override worker count")
	rootCmd.Flags().BoolVar(&runOnce, "once", false, "drain the queue and exit instead of idling")
}

// loadConfig reads the config file, falling back to defaults when it is
// absent so memory-store runs need no setup.
func loadConfig() *config.AppConfig {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Config file not found, using defaults", "path", cfgPath)
			return config.Default()
		}
		initLogger(slog.LevelInfo)
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(level slog.Level) {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})))
}

func runPipeline(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	cfg := loadConfig()

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	initLogger(slogLevel)

	if workers > 0 {
		cfg.Workers.Count = workers
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opts []control.Option
	if runOnce {
		opts = append(opts, control.WithOnce())
	}
	app, err := control.NewApp(ctx, *cfg, opts...)
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- app.Start(ctx)
	}()

	slog.Info("Artscout started", "config", cfgPath, "workers", cfg.Workers.Count, "once", runOnce)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		cancel()
		<-done
	case err := <-done:
		if err != nil {
			slog.Error("Pipeline failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Queue drained")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
