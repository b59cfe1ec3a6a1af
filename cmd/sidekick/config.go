package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hmarward/sidekick/pkg/presenter"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect sidekick configuration",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after merging the config file,
environment variables and command line flags.`,
	Run: func(_ *cobra.Command, _ []string) {
		presenter.Section("Effective Configuration")

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			presenter.Info(fmt.Sprintf("Config file: %s", configFile))
		} else {
			presenter.Info("Config file: none (using defaults)")
		}
		presenter.Separator()

		out, err := yaml.Marshal(getLLMConfig())
		if err != nil {
			presenter.Error(err, "Failed to render configuration")
			os.Exit(1)
		}
		fmt.Print(string(out))
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the global config file path",
	Run: func(_ *cobra.Command, _ []string) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			presenter.Error(err, "Failed to resolve home directory")
			os.Exit(1)
		}
		fmt.Println(filepath.Join(homeDir, ".sidekick", "config.yaml"))
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
