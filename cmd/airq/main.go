package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zberg/go-airq/internal/config"
)

var (
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "airq",
	Short: "air-Q Control CLI",
	Long: `A command line interface for air-Q air quality sensors.

Settings are read from airq.yaml, AIRQ_* environment variables
(e.g. AIRQ_DEVICE_PASSWORD) and flags, in increasing precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		level, err := cfg.Log.SlogLevel()
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a YAML config file (default ./airq.yaml)")
	flags.String("address", "", "IP address or hostname of the air-Q, e.g. a123f_air-q.local")
	flags.String("password", "", "Device password")
	flags.Int("port", 80, "HTTP port of the device")
	flags.Duration("timeout", 0, "Per-request timeout (default 15s)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (default info)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
