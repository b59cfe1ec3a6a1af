// Command sidekick is a CLI coding agent. It drives an LLM conversation with
// tool use: running shell commands, editing files, fetching web pages and
// carrying state across restarts.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hmarward/sidekick/pkg/logger"
	"github.com/hmarward/sidekick/pkg/presenter"
	"github.com/hmarward/sidekick/pkg/tools"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
)

func init() {
	viper.SetEnvPrefix("SIDEKICK")
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.sidekick")

	// Config files are optional; repo-local settings override global ones
	_ = viper.ReadInConfig()
	if _, err := os.Stat("sidekick-config.yaml"); err == nil {
		viper.SetConfigFile("sidekick-config.yaml")
		_ = viper.MergeInConfig()
	}

	viper.SetDefault("max_tokens", 8192)
	viper.SetDefault("weak_model_max_tokens", 2048)
	viper.SetDefault("compact_ratio", 0.8)
	viper.SetDefault("command_timeout", 0)
	viper.SetDefault("log_level", "warn")
}

// getLLMConfig assembles the LLM configuration from viper
func getLLMConfig() llmtypes.Config {
	return llmtypes.Config{
		Model:              viper.GetString("model"),
		WeakModel:          viper.GetString("weak_model"),
		MaxTokens:          viper.GetInt("max_tokens"),
		WeakModelMaxTokens: viper.GetInt("weak_model_max_tokens"),
		CompactRatio:       viper.GetFloat64("compact_ratio"),
		DisableAutoCompact: viper.GetBool("disable_auto_compact"),
		AllowedTools:       resolveAllowedTools(),
		AllowedCommands:    viper.GetStringSlice("allowed_commands"),
		AllowedSkills:      viper.GetStringSlice("allowed_skills"),
		DisableSkills:      viper.GetBool("disable_skills"),
		CommandTimeout:     viper.GetInt("command_timeout"),
	}
}

// resolveAllowedTools combines the allowed_tools list with per-tool
// enablement flags of the form `tools.<name>: false`.
func resolveAllowedTools() []string {
	allowed := viper.GetStringSlice("allowed_tools")

	disabled := map[string]bool{}
	for name, enabled := range viper.GetStringMap("tools") {
		if on, ok := enabled.(bool); ok && !on {
			disabled[name] = true
		}
	}
	if len(disabled) == 0 {
		return allowed
	}

	if len(allowed) == 0 {
		allowed = tools.DefaultToolNames()
	}
	var result []string
	for _, name := range allowed {
		if !disabled[name] {
			result = append(result, name)
		}
	}
	return result
}

func setLogLevel() {
	if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
		presenter.Warning(fmt.Sprintf("Invalid log level %q, using warn", viper.GetString("log_level")))
	}
}

var rootCmd = &cobra.Command{
	Use:   "sidekick",
	Short: "Sidekick CLI coding agent",
	Long:  `Sidekick is a CLI coding agent that helps with software engineering tasks from the terminal.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			runCmd.Run(cmd, args)
			return
		}
		cmd.Help()
		os.Exit(1)
	},
}

func main() {
	rootCmd.PersistentFlags().String("model", "", "LLM model to use (overrides config)")
	rootCmd.PersistentFlags().String("weak-model", "", "Less capable but faster model used for summaries")
	rootCmd.PersistentFlags().Int("max-tokens", 0, "Maximum tokens for responses (overrides config)")
	rootCmd.PersistentFlags().Float64("compact-ratio", 0, "Context utilisation ratio that triggers auto-compaction (0..1)")
	rootCmd.PersistentFlags().Bool("disable-auto-compact", false, "Disable automatic context compaction")
	rootCmd.PersistentFlags().StringSlice("allowed-tools", nil, "Restrict the tool set to these tools")
	rootCmd.PersistentFlags().StringSlice("allowed-commands", nil, "Restrict bash to commands matching these glob patterns")
	rootCmd.PersistentFlags().StringSlice("allowed-skills", nil, "Restrict discovered skills to these names")
	rootCmd.PersistentFlags().Bool("disable-skills", false, "Disable the skill tool")
	rootCmd.PersistentFlags().Int("command-timeout", 0, "Default bash command timeout in seconds")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("weak_model", rootCmd.PersistentFlags().Lookup("weak-model"))
	viper.BindPFlag("max_tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))
	viper.BindPFlag("compact_ratio", rootCmd.PersistentFlags().Lookup("compact-ratio"))
	viper.BindPFlag("disable_auto_compact", rootCmd.PersistentFlags().Lookup("disable-auto-compact"))
	viper.BindPFlag("allowed_tools", rootCmd.PersistentFlags().Lookup("allowed-tools"))
	viper.BindPFlag("allowed_commands", rootCmd.PersistentFlags().Lookup("allowed-commands"))
	viper.BindPFlag("allowed_skills", rootCmd.PersistentFlags().Lookup("allowed-skills"))
	viper.BindPFlag("disable_skills", rootCmd.PersistentFlags().Lookup("disable-skills"))
	viper.BindPFlag("command_timeout", rootCmd.PersistentFlags().Lookup("command-timeout"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	setLogLevel()

	ctx := context.Background()
	shutdown, err := initTracing(ctx)
	if err != nil {
		presenter.Warning(fmt.Sprintf("Failed to initialise tracing: %v", err))
		shutdown = func(context.Context) error { return nil }
	}
	defer shutdown(ctx)

	rootCmd.AddCommand(withTracing(chatCmd))
	rootCmd.AddCommand(withTracing(runCmd))
	rootCmd.AddCommand(conversationCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(skillCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
