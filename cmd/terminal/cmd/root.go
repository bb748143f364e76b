package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/slog"

	"accessterm/internal/app/terminal/config"
	"accessterm/internal/utils/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "terminal",
	Short: "Access-control terminal agent",
	Long: `terminal runs the control loop of a network-attached access-control terminal.

It keeps the terminal associated to its network, pings the access server, applies
configuration pushed by the server, reports scanned tags and falls back to a local
access point with a configuration portal when the server stays unreachable.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = loadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log = logger.New(cfg.Env)
	return nil
}

func loadConfig(v *viper.Viper, file string) (*config.Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}

		v.AddConfigPath(filepath.Join(home, ".accessterm"))
		v.AddConfigPath(".")
		v.SetConfigName("terminal")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return config.LoadWithDotEnv(v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.accessterm/terminal.yaml)")

	rootCmd.AddCommand(runCmd)

	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(diagCmd)
	diagCmd.AddCommand(diagPingCmd)
	diagCmd.AddCommand(diagScanCmd)
}
