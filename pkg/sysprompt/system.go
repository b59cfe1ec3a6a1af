package sysprompt

import (
	"context"

	"github.com/hmarward/sidekick/pkg/logger"
	"github.com/hmarward/sidekick/pkg/skills"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
)

// SystemPrompt generates the system prompt for the given model
func SystemPrompt(model string, llmConfig llmtypes.Config, discoveredSkills map[string]*skills.Skill) string {
	promptCtx := NewPromptContext().WithSkills(discoveredSkills)
	promptCtx.BashAllowedCommands = llmConfig.AllowedCommands
	if llmConfig.DisableSkills {
		promptCtx.Features["skillsEnabled"] = false
		promptCtx.Skills = nil
	}

	prompt, err := defaultRenderer.RenderSystemPrompt(promptCtx)
	if err != nil {
		log := logger.G(context.Background())
		log.WithError(err).WithField("model", model).Fatal("Error rendering system prompt")
	}

	return prompt
}
