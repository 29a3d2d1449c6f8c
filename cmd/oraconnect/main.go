package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"oraconnect/internal/config"
	"oraconnect/internal/store/oracle"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	envFile string

	// connectOpts is passed to every pool the commands open.
	connectOpts []oracle.Option
)

var rootCmd = &cobra.Command{
	Use:   "oraconnect",
	Short: "Open an Oracle connection pool and check a cursor can be opened",
	Long: `oraconnect reads ORACLE_DSN, ORACLE_DB_USER and ORACLE_DB_PASSWORD (optionally
from a .env file), opens a pool (min 2, max 5, increment 1 by default),
acquires one connection and opens a cursor on it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConnect,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", config.DefaultEnvFile, "Path to the .env file")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("oraconnect failed")
		os.Exit(1)
	}
}

// loadConfig reads config and configures the global logger from it.
func loadConfig() (config.Cfg, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Cfg{}, err
	}
	setupLogger(cfg.App)
	log.Debug().Stringer("config", cfg).Msg("config loaded")
	return cfg, nil
}

func setupLogger(app config.AppCfg) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(app.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if app.Env == "dev" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runConnect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	s, err := oracle.Connect(ctx, oracle.ParamsFromConfig(cfg), connectOpts...)
	if err != nil {
		return err
	}
	defer s.Close()

	st := s.Pool.Stats()
	log.Info().
		Int("open", st.Open).
		Int("in_use", st.InUse).
		Int("idle", st.Idle).
		Msg("connection acquired, cursor ready")
	return nil
}
