// Package llm provides the provider-facing entry points for creating
// conversation threads and running one-shot queries.
package llm

import (
	"context"
	"fmt"

	anthropicllm "github.com/hmarward/sidekick/pkg/llm/anthropic"
	"github.com/hmarward/sidekick/pkg/skills"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// NewThread creates a new conversation thread for the configured model.
// Anthropic is the only supported provider.
func NewThread(config llmtypes.Config, discoveredSkills map[string]*skills.Skill) llmtypes.Thread {
	return anthropicllm.NewAnthropicThread(config, discoveredSkills)
}

// SendMessageAndGetTextWithUsage runs a one-shot query and returns the
// response text together with usage information
func SendMessageAndGetTextWithUsage(
	ctx context.Context,
	state tooltypes.State,
	query string,
	config llmtypes.Config,
	discoveredSkills map[string]*skills.Skill,
	silent bool,
	opt llmtypes.MessageOpt,
) (string, llmtypes.Usage) {
	thread := NewThread(config, discoveredSkills)
	thread.SetState(state)

	handler := &llmtypes.StringCollectorHandler{Silent: silent}
	if _, err := thread.SendMessage(ctx, query, handler, opt); err != nil {
		return fmt.Sprintf("Error: %v", err), llmtypes.Usage{}
	}
	return handler.CollectedText(), thread.GetUsage()
}

// SendMessageAndGetText runs a one-shot query and returns the response text
func SendMessageAndGetText(
	ctx context.Context,
	state tooltypes.State,
	query string,
	config llmtypes.Config,
	discoveredSkills map[string]*skills.Skill,
	silent bool,
	opt llmtypes.MessageOpt,
) string {
	text, _ := SendMessageAndGetTextWithUsage(ctx, state, query, config, discoveredSkills, silent, opt)
	return text
}
