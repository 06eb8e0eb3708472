package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSSOGate/GoSSOGate/internal/config"
	"github.com/GoSSOGate/GoSSOGate/internal/daemon"
	"github.com/GoSSOGate/GoSSOGate/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().StringVar(&configPath, "config", "", "Path to the directory holding main.toml")
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	configPath string // Path to the configuration file

	cfg     config.Config
	err     error
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the go-sso-gate web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if cfg, err = config.ReadConfig(configPath); err != nil {
				return err
			}

			if devMode {
				cfg.DevMode = true
			}

			return logger.Init(cfg.Log)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			d, err := daemon.New(&cfg)
			if err != nil {
				return err
			}

			go d.WaitShutdown()

			return d.Start(fmt.Sprintf(":%d", cfg.Webserver.Port))
		},
	}
)
