package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hmarward/sidekick/pkg/skills"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// SkillTool provides access to agentic skills
type SkillTool struct {
	skills       map[string]*skills.Skill
	enabled      bool
	activeSkills map[string]bool
	mu           sync.RWMutex
}

// SkillInput defines the input parameters for the skill tool
type SkillInput struct {
	SkillName string `json:"skill_name" jsonschema:"description=The name of the skill to invoke"`
}

// SkillToolResult represents the result of a skill invocation
type SkillToolResult struct {
	skill *skills.Skill
	err   string
}

// NewSkillTool creates a new skill tool with discovered skills
func NewSkillTool(discoveredSkills map[string]*skills.Skill, enabled bool) *SkillTool {
	return &SkillTool{
		skills:       discoveredSkills,
		enabled:      enabled,
		activeSkills: make(map[string]bool),
	}
}

func (t *SkillTool) Name() string {
	return "skill"
}

// Description returns the tool description with available skills
func (t *SkillTool) Description() string {
	var sb strings.Builder

	sb.WriteString(`When users ask you to perform tasks, check if any of the available skills below can help complete the task more effectively. Skills provide specialized capabilities and domain knowledge.

# Usage
- Use this tool with the skill name only
- Examples:
  - "commit-helper" - invoke the commit-helper skill
  - "xlsx" - invoke the xlsx skill

## Important
- When a skill is relevant, you must invoke this tool IMMEDIATELY as your first action
- NEVER just announce or mention a skill in your text response without actually calling this tool
- Only use skills listed in "Available Skills" below
- Do not invoke a skill that is already running
- Each skill has a directory containing supporting files (references, examples, scripts, templates) that you can read using file_read
- Do NOT modify any files in the skill directory - treat skill contents as read-only
- A skill may restrict which tools you can use while it is active; honour its allowed tools list

## Available Skills

`)

	if !t.enabled || len(t.skills) == 0 {
		sb.WriteString("Skills are currently not available.\n")
		return sb.String()
	}

	names := make([]string, 0, len(t.skills))
	for name := range t.skills {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		skill := t.skills[name]
		sb.WriteString(fmt.Sprintf("### %s\n", skill.Name))
		sb.WriteString(fmt.Sprintf("- **Description**: %s\n", skill.Description))
		sb.WriteString(fmt.Sprintf("- **Directory**: `%s`\n\n", skill.Directory))
	}

	return sb.String()
}

func (t *SkillTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[SkillInput]()
}

func (t *SkillTool) ValidateInput(_ tooltypes.State, parameters string) error {
	var input SkillInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}

	if input.SkillName == "" {
		return errors.New("skill_name is required")
	}

	if !t.enabled {
		return errors.New("skills are disabled")
	}

	if _, exists := t.skills[input.SkillName]; !exists {
		available := make([]string, 0, len(t.skills))
		for name := range t.skills {
			available = append(available, name)
		}
		sort.Strings(available)
		return errors.Errorf("unknown skill '%s'. Available skills: %s",
			input.SkillName, strings.Join(available, ", "))
	}

	return nil
}

func (t *SkillTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input SkillInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("skill_name", input.SkillName),
	}, nil
}

// Execute invokes the skill and returns its content
func (t *SkillTool) Execute(_ context.Context, _ tooltypes.State, parameters string) tooltypes.ToolResult {
	var input SkillInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &SkillToolResult{err: err.Error()}
	}

	skill, exists := t.skills[input.SkillName]
	if !exists {
		return &SkillToolResult{
			err: fmt.Sprintf("skill '%s' not found", input.SkillName),
		}
	}

	t.mu.Lock()
	if t.activeSkills[input.SkillName] {
		t.mu.Unlock()
		return &SkillToolResult{
			err: fmt.Sprintf("skill '%s' is already active", input.SkillName),
		}
	}
	t.activeSkills[input.SkillName] = true
	t.mu.Unlock()

	return &SkillToolResult{skill: skill}
}

func (r *SkillToolResult) GetResult() string {
	return fmt.Sprintf("Skill '%s' loaded", r.skill.Name)
}

func (r *SkillToolResult) GetError() string {
	return r.err
}

func (r *SkillToolResult) IsError() bool {
	return r.err != ""
}

// AssistantFacing returns the skill instructions to be fed to the LLM
func (r *SkillToolResult) AssistantFacing() string {
	if r.err != "" {
		return tooltypes.StringifyToolResult("", r.err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Skill: %s\n\n", r.skill.Name))
	sb.WriteString(fmt.Sprintf("The skill directory is located at: %s\n\n", r.skill.Directory))

	if len(r.skill.AllowedTools) > 0 {
		sb.WriteString(fmt.Sprintf("While this skill is active, only use these tools: %s\n\n",
			strings.Join(r.skill.AllowedTools, ", ")))
	}
	if len(r.skill.DefaultOptions) > 0 {
		keys := make([]string, 0, len(r.skill.DefaultOptions))
		for key := range r.skill.DefaultOptions {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		sb.WriteString("Default options:\n")
		for _, key := range keys {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", key, r.skill.DefaultOptions[key]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Instructions\n\n")
	sb.WriteString(r.skill.Content)

	return tooltypes.StringifyToolResult(sb.String(), "")
}

func (r *SkillToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "skill",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	if r.IsError() {
		result.Error = r.GetError()
		return result
	}

	result.Metadata = &tooltypes.SkillMetadata{
		SkillName:      r.skill.Name,
		Directory:      r.skill.Directory,
		Description:    r.skill.Description,
		AllowedTools:   r.skill.AllowedTools,
		DefaultOptions: r.skill.DefaultOptions,
		Content:        r.skill.Content,
	}

	return result
}

// IsActive checks if a skill is currently active
func (t *SkillTool) IsActive(skillName string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.activeSkills[skillName]
}

// ResetActiveSkills clears all active skills
func (t *SkillTool) ResetActiveSkills() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeSkills = make(map[string]bool)
}

// GetSkills returns the discovered skills
func (t *SkillTool) GetSkills() map[string]*skills.Skill {
	return t.skills
}

// IsEnabled returns whether skills are enabled
func (t *SkillTool) IsEnabled() bool {
	return t.enabled
}
