package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fixedttl-cache/internal/app"
	"fixedttl-cache/internal/config"
	"fixedttl-cache/internal/errs"
	"fixedttl-cache/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "fixedttl-cache",
	Short:        "In-memory key/value cache with a fixed time-to-live",
	Long:         "Serves a fixed-TTL cache over HTTP (gin) with JWT auth, websocket expiry events and hash, ordered or SQLite storage.",
	SilenceUsage: true,
	RunE:         serve,
}

// Execute runs the root command. This is called by main.main().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default ./configs/config.yaml or ./config.yaml if present)")
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, used, err := config.Load(cfgFile)
	if err != nil {
		return errs.Wrap(err, "load config")
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return errs.Wrap(err, "create logger")
	}
	defer func() { _ = log.Sync() }()

	if used != "" {
		log.Info("using config file", zap.String("path", used))
	} else {
		log.Warn("config file not found, using defaults and env")
	}

	a, err := app.New(cfg, log)
	if err != nil {
		log.Error("application init failed", zap.Error(err))
		return errs.Wrap(err, "init app")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close app", zap.Error(err))
		}
	}()

	if err := a.Run(cmd.Context()); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}
