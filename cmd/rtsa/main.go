package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thesyncim/rtsa/internal/logger"
)

var (
	configPath  string
	logLevel    string
	logPretty   bool
	metricsAddr string

	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "rtsa",
	Short:         "Drive the Agora RTSA SDK from the command line",
	Version:       GetVersion(),
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `rtsa initializes the Agora RTSA SDK, joins a channel and streams
H.264 into it.

Settings come from an optional YAML file (--config), a .env file and
RTSA_* environment variables. Flags override all of them.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logger.New(logLevel, logPretty)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "human-readable log output")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func Execute() {
	rootCmd.SetVersionTemplate(GetVersionInfo() + "\n")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
