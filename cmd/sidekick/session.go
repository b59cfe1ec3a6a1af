package main

import (
	"context"
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/hmarward/sidekick/pkg/logger"
	"github.com/hmarward/sidekick/pkg/presenter"
	"github.com/hmarward/sidekick/pkg/skills"
	"github.com/hmarward/sidekick/pkg/statestore"
	"github.com/hmarward/sidekick/pkg/tools"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// discoverSkills loads skills from the default directories and applies the
// configured allowlist. Discovery errors are non-fatal.
func discoverSkills(ctx context.Context, config llmtypes.Config) map[string]*skills.Skill {
	if config.DisableSkills {
		return nil
	}

	discovery, err := skills.NewDiscovery(skills.WithDefaultDirs())
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to initialise skill discovery")
		return nil
	}

	discovered, err := discovery.DiscoverSkills()
	if err != nil {
		logger.G(ctx).WithError(err).Warn("some skills failed to load")
	}

	if len(config.AllowedSkills) > 0 {
		discovered = skills.FilterByAllowlist(discovered, config.AllowedSkills)
	}
	return discovered
}

// newAppState builds the session state with the configured tool set
func newAppState(ctx context.Context, config llmtypes.Config, discoveredSkills map[string]*skills.Skill, prompter tools.ClarifyPrompter) (*tools.BasicState, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve working directory")
	}

	toolSet := tools.GetMainTools(ctx, config, discoveredSkills, prompter)
	return tools.NewBasicState(ctx, workingDir, tools.WithTools(toolSet))
}

// resetActiveSkills clears active-skill tracking so a cleared conversation
// can load skill instructions again
func resetActiveSkills(state tooltypes.State) {
	if state == nil {
		return
	}
	for _, tool := range state.Tools() {
		if skillTool, ok := tool.(*tools.SkillTool); ok {
			skillTool.ResetActiveSkills()
		}
	}
}

// consumeStartupInstruction picks up the instruction a previous process left
// behind before restarting. The instruction is removed as part of the read.
func consumeStartupInstruction(ctx context.Context) string {
	workingDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	instruction, err := statestore.New(workingDir).ConsumeInstruction()
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to consume restart instruction")
		return ""
	}
	return instruction
}

// maybeRestart re-execs the current binary when the session requested a
// restart. It does not return on success.
func maybeRestart(ctx context.Context, state tooltypes.State) {
	if state == nil || !state.RestartRequested() {
		return
	}

	executable, err := os.Executable()
	if err != nil {
		presenter.Error(err, "Failed to resolve executable for restart")
		return
	}

	presenter.Info("Restarting sidekick...")
	if err := syscall.Exec(executable, os.Args, os.Environ()); err != nil {
		presenter.Error(err, "Failed to restart")
	}
}
