package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hmarward/sidekick/pkg/llm"
	"github.com/hmarward/sidekick/pkg/presenter"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
)

// RunOptions contains all options for the run command
type RunOptions struct {
	resumeConvID string
	noSave       bool
}

var runOptions = &RunOptions{}

var runCmd = &cobra.Command{
	Use:   "run [query]",
	Short: "Execute a one-shot query",
	Long:  `Execute a one-shot query and print the result. The query can also be piped via stdin.`,
	Args:  cobra.MinimumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			presenter.Warning("Cancellation requested, shutting down...")
			cancel()
		}()

		query, err := resolveQuery(args)
		if err != nil {
			presenter.Error(err, "Failed to read query")
			os.Exit(1)
		}

		// A pending restart instruction is prepended to the query
		if instruction := consumeStartupInstruction(ctx); instruction != "" {
			presenter.Info(fmt.Sprintf("Resuming with instruction: %s", instruction))
			query = instruction + "\n\n" + query
		}

		config := getLLMConfig()
		discoveredSkills := discoverSkills(ctx, config)

		// One-shot runs cannot prompt the user, so clarify is unavailable
		appState, err := newAppState(ctx, config, discoveredSkills, nil)
		if err != nil {
			presenter.Error(err, "Failed to initialise session state")
			os.Exit(1)
		}

		thread := llm.NewThread(config, discoveredSkills)
		thread.SetState(appState)

		if runOptions.resumeConvID != "" {
			thread.SetConversationID(runOptions.resumeConvID)
			presenter.Info(fmt.Sprintf("Resuming conversation: %s", runOptions.resumeConvID))
		}
		thread.EnablePersistence(ctx, !runOptions.noSave)

		fmt.Printf("\033[1;33m[user]: \033[0m%s\n", query)

		handler := &llmtypes.ConsoleMessageHandler{Silent: false}
		_, err = thread.SendMessage(ctx, query, handler, llmtypes.MessageOpt{
			PromptCache:        true,
			CompactRatio:       config.CompactRatio,
			DisableAutoCompact: config.DisableAutoCompact,
		})
		if err != nil {
			presenter.Error(err, "Failed to process query")
			os.Exit(1)
		}

		usage := thread.GetUsage()
		presenter.Stats(presenter.ConvertUsageStats(&usage))

		if thread.IsPersisted() {
			presenter.Info(fmt.Sprintf("Conversation ID: %s", thread.GetConversationID()))
			presenter.Info(fmt.Sprintf("To resume this conversation: sidekick run --resume %s", thread.GetConversationID()))
		}

		maybeRestart(ctx, appState)
	},
}

// resolveQuery combines command line args and piped stdin into the query
func resolveQuery(args []string) (string, error) {
	stat, _ := os.Stdin.Stat()
	isPipe := (stat.Mode() & os.ModeCharDevice) == 0

	if !isPipe {
		if len(args) == 0 {
			return "", fmt.Errorf("no query provided")
		}
		return strings.Join(args, " "), nil
	}

	stdinBytes, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}

	stdinContent := string(stdinBytes)
	if len(args) > 0 {
		return strings.Join(args, " ") + "\n" + stdinContent, nil
	}
	return stdinContent, nil
}

func init() {
	runCmd.Flags().StringVar(&runOptions.resumeConvID, "resume", "", "Resume a specific conversation")
	runCmd.Flags().BoolVar(&runOptions.noSave, "no-save", false, "Disable conversation persistence")
}
