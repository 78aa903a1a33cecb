package main

import (
	"github.com/spf13/cobra"

	"videobreak/internal/config"
)

var cfgPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultPath(), "path to the config file (.yaml or .json)")
}

var rootCmd = &cobra.Command{
	Use:           "videobreak",
	Short:         "Play a folder of videos fullscreen at a fixed interval",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// loadConfig reads the config file, falling back to defaults when it does not
// exist yet.
func loadConfig() (*config.Config, error) {
	return config.NewConfigManager(cfgPath).LoadOrDefault()
}
