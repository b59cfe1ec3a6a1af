package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hmarward/sidekick/pkg/llm"
	"github.com/hmarward/sidekick/pkg/presenter"
	"github.com/hmarward/sidekick/pkg/tools"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// ChatOptions contains all options for the chat command
type ChatOptions struct {
	resumeConvID string
	noSave       bool
}

var chatOptions = &ChatOptions{}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long:  `Start an interactive chat session with sidekick. Type /help for the available commands.`,
	Run: func(cmd *cobra.Command, _ []string) {
		chatUI(cmd.Context())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatOptions.resumeConvID, "resume", "", "Resume a specific conversation")
	chatCmd.Flags().BoolVar(&chatOptions.noSave, "no-save", false, "Disable conversation persistence")
}

func chatUI(ctx context.Context) {
	presenter.Section("Sidekick Chat")
	presenter.Info("Type /help for commands, /quit to exit")
	presenter.Separator()

	config := getLLMConfig()
	discoveredSkills := discoverSkills(ctx, config)

	// One reader for the whole session: the clarify prompter must not
	// buffer input away from the main loop (or vice versa)
	reader := bufio.NewReader(os.Stdin)
	prompter := readerPrompter(reader)

	appState, err := newAppState(ctx, config, discoveredSkills, prompter)
	if err != nil {
		presenter.Error(err, "Failed to initialise session state")
		return
	}

	thread := llm.NewThread(config, discoveredSkills)
	thread.SetState(appState)

	if chatOptions.resumeConvID != "" {
		thread.SetConversationID(chatOptions.resumeConvID)
		presenter.Info(fmt.Sprintf("Resuming conversation: %s", chatOptions.resumeConvID))
	}
	thread.EnablePersistence(ctx, !chatOptions.noSave)

	handler := &llmtypes.ConsoleMessageHandler{Silent: false}
	sendMessage := func(input string) {
		_, err := thread.SendMessage(ctx, input, handler, llmtypes.MessageOpt{
			PromptCache:        true,
			CompactRatio:       config.CompactRatio,
			DisableAutoCompact: config.DisableAutoCompact,
		})
		if err != nil {
			presenter.Error(err, "Failed to process message")
		}
		maybeRestart(ctx, appState)
	}

	// An instruction left by a restarting process becomes the first message
	if instruction := consumeStartupInstruction(ctx); instruction != "" {
		presenter.Info(fmt.Sprintf("Resuming with instruction: %s", instruction))
		sendMessage(instruction)
	}

	for {
		fmt.Print("\033[1;33m[user]: \033[0m")
		input, err := readUserInput(reader)
		if err != nil {
			// EOF ends the session like /quit
			finishChat(ctx, thread)
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleSlashCommand(ctx, thread, appState, input); quit {
				finishChat(ctx, thread)
				return
			}
			continue
		}

		sendMessage(input)
	}
}

// readUserInput reads one submission from the reader. A line ending with a
// backslash continues the submission on the next line.
func readUserInput(reader *bufio.Reader) (string, error) {
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}

		line = strings.TrimRight(line, "\r\n")
		if rest, ok := strings.CutSuffix(line, "\\"); ok {
			lines = append(lines, rest)
			fmt.Print("\033[1;33m  ... \033[0m")
			continue
		}

		lines = append(lines, line)
		return strings.Join(lines, "\n"), nil
	}
}

// readerPrompter builds a clarify prompter on top of the chat loop's reader
func readerPrompter(reader *bufio.Reader) tools.ClarifyPrompter {
	return func(question string) (string, error) {
		presenter.Separator()
		presenter.Info(question)
		fmt.Print("\033[1;36m[answer]: \033[0m")

		answer, err := readUserInput(reader)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(answer), nil
	}
}

// handleSlashCommand processes a chat command and reports whether the
// session should end
func handleSlashCommand(ctx context.Context, thread llmtypes.Thread, state tooltypes.State, input string) bool {
	switch input {
	case "/quit", "/exit", "/q":
		return true

	case "/reset":
		thread.ResetMessages()
		// Skill instructions left the history, so skills may be loaded again
		resetActiveSkills(state)
		presenter.Success("Conversation reset")

	case "/compact":
		presenter.Info("Compacting conversation history...")
		if err := thread.CompactContext(ctx); err != nil {
			presenter.Error(err, "Failed to compact context")
		} else {
			resetActiveSkills(state)
			presenter.Success("Conversation compacted")
		}

	case "/usage":
		usage := thread.GetUsage()
		presenter.Stats(presenter.ConvertUsageStats(&usage))

	case "/help":
		presenter.Info("Available commands:")
		presenter.Info("  /reset    clear the conversation history")
		presenter.Info("  /compact  replace the history with a summary")
		presenter.Info("  /usage    show token usage and cost")
		presenter.Info("  /quit     exit the chat session (/exit, /q)")
		presenter.Info("End a line with \\ to continue your message on the next line")

	default:
		presenter.Warning(fmt.Sprintf("Unknown command %q, type /help for the available commands", input))
	}

	return false
}

func finishChat(ctx context.Context, thread llmtypes.Thread) {
	usage := thread.GetUsage()
	presenter.Separator()
	presenter.Stats(presenter.ConvertUsageStats(&usage))

	if thread.IsPersisted() {
		if err := thread.SaveConversation(ctx, true); err != nil {
			presenter.Error(err, "Failed to save conversation")
		}
		presenter.Section("Conversation Information")
		presenter.Info(fmt.Sprintf("Conversation ID: %s", thread.GetConversationID()))
		presenter.Info(fmt.Sprintf("To resume this conversation: sidekick chat --resume %s", thread.GetConversationID()))
		presenter.Info(fmt.Sprintf("To delete this conversation: sidekick conversation delete %s", thread.GetConversationID()))
	}

	presenter.Success("Exiting chat. Goodbye!")
}
