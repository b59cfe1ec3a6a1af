// Package tools provides the core tool execution framework for sidekick.
// It defines the available tools, manages tool registration, and handles
// tool execution with proper validation, tracing, and error handling.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hmarward/sidekick/pkg/logger"
	"github.com/hmarward/sidekick/pkg/skills"
	"github.com/hmarward/sidekick/pkg/telemetry"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}

// defaultToolNames lists every tool in its default order.
var defaultToolNames = []string{
	"bash",
	"file_read",
	"file_write",
	"file_edit",
	"web_fetch",
	"plan",
	"clarify",
	"skill",
	"state_set",
	"state_get",
	"state_clear",
	"restart",
}

// DefaultToolNames returns every tool name in its default order.
func DefaultToolNames() []string {
	names := make([]string, len(defaultToolNames))
	copy(names, defaultToolNames)
	return names
}

// ClarifyPrompter asks the user a question and returns their answer.
type ClarifyPrompter func(question string) (string, error)

// ValidateToolNames checks that every name refers to a known tool.
func ValidateToolNames(toolNames []string) error {
	known := make(map[string]bool, len(defaultToolNames))
	for _, name := range defaultToolNames {
		known[name] = true
	}
	for _, name := range toolNames {
		if !known[name] {
			return errors.Errorf("unknown tool: %s", name)
		}
	}
	return nil
}

// GetMainTools builds the tool set from configuration. Skills and the
// prompter are injected by the caller because they carry session state.
func GetMainTools(ctx context.Context, cfg llmtypes.Config, discoveredSkills map[string]*skills.Skill, prompter ClarifyPrompter) []tooltypes.Tool {
	// When bash is restricted, skills extend the allow-list with the
	// commands their allowed-tools entries declare
	allowedCommands := append([]string(nil), cfg.AllowedCommands...)
	if len(allowedCommands) > 0 && !cfg.DisableSkills {
		allowedCommands = append(allowedCommands, skills.BashAllowlistPatterns(discoveredSkills)...)
	}

	registry := map[string]tooltypes.Tool{
		"bash":        NewBashTool(allowedCommands, cfg.CommandTimeout),
		"file_read":   &FileReadTool{},
		"file_write":  &FileWriteTool{},
		"file_edit":   &FileEditTool{},
		"web_fetch":   &WebFetchTool{},
		"plan":        &PlanTool{},
		"clarify":     NewClarifyTool(prompter),
		"skill":       NewSkillTool(discoveredSkills, !cfg.DisableSkills),
		"state_set":   &StateSetTool{},
		"state_get":   &StateGetTool{},
		"state_clear": &StateClearTool{},
		"restart":     &RestartTool{},
	}

	allowed := cfg.AllowedTools
	if len(allowed) == 0 {
		allowed = defaultToolNames
	}
	if err := ValidateToolNames(allowed); err != nil {
		logger.G(ctx).WithError(err).Warn("invalid tools config, falling back to default tool set")
		allowed = defaultToolNames
	}

	var result []tooltypes.Tool
	for _, name := range allowed {
		if name == "skill" && cfg.DisableSkills {
			continue
		}
		if tool, exists := registry[name]; exists {
			result = append(result, tool)
		}
	}

	return result
}

// ParseAllowedToolsString splits a comma separated tool list.
func ParseAllowedToolsString(allowedToolsStr string) []string {
	if allowedToolsStr == "" {
		return []string{}
	}

	var result []string
	for _, tool := range strings.Split(allowedToolsStr, ",") {
		tool = strings.TrimSpace(tool)
		if tool != "" {
			result = append(result, tool)
		}
	}
	return result
}

// ToAnthropicTools converts the tool set into Anthropic API tool params.
func ToAnthropicTools(tools []tooltypes.Tool) []anthropic.ToolUnionParam {
	anthropicTools := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		anthropicTools[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: tool.GenerateSchema().Properties,
				},
			},
		}
	}

	return anthropicTools
}

var tracer = telemetry.Tracer("sidekick.tools")

func findTool(toolName string, state tooltypes.State) (tooltypes.Tool, error) {
	for _, tool := range state.Tools() {
		if tool.Name() == toolName {
			return tool, nil
		}
	}
	return nil, errors.Errorf("tool %s not found", toolName)
}

// RunTool validates and executes a tool by name, wrapping the run in a span.
func RunTool(ctx context.Context, state tooltypes.State, toolName string, parameters string) tooltypes.ToolResult {
	tool, err := findTool(toolName, state)
	if err != nil {
		return tooltypes.BaseToolResult{
			Error: errors.Wrap(err, "failed to find tool").Error(),
		}
	}

	kvs, err := tool.TracingKVs(parameters)
	if err != nil {
		logger.G(ctx).WithError(err).Error("failed to get tracing kvs")
	}

	ctx, span := tracer.Start(
		ctx,
		fmt.Sprintf("tools.run_tool.%s", toolName),
		trace.WithAttributes(kvs...),
	)
	defer span.End()

	err = tool.ValidateInput(state, parameters)
	if err != nil {
		return tooltypes.BaseToolResult{
			Error: err.Error(),
		}
	}
	result := tool.Execute(ctx, state, parameters)

	if result.IsError() {
		span.SetStatus(codes.Error, result.GetError())
		span.RecordError(errors.New(result.GetError()))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return result
}
