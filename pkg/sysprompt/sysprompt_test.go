package sysprompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmarward/sidekick/pkg/skills"
)

func testPromptContext() *PromptContext {
	return &PromptContext{
		WorkingDirectory:   "/home/dev/project",
		IsGitRepo:          true,
		Platform:           "linux",
		OSVersion:          "Linux 6.1.0",
		Date:               "2026-08-24",
		ToolNames:          defaultToolNames(),
		ContextFiles:       map[string]string{},
		Features:           map[string]bool{"skillsEnabled": true},
		BashBannedCommands: []string{"vim", "less"},
	}
}

func TestNewRendererParsesEmbeddedTemplates(t *testing.T) {
	renderer := NewRenderer(TemplateFS)
	require.NoError(t, renderer.parseErr)
	assert.NotNil(t, renderer.templates.Lookup(SystemTemplate))
	assert.NotNil(t, renderer.templates.Lookup("templates/sections/tooling.tmpl"))
}

func TestRenderPromptUnknownTemplate(t *testing.T) {
	renderer := NewRenderer(TemplateFS)
	_, err := renderer.RenderPrompt("templates/nonexistent.tmpl", testPromptContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRenderSystemPrompt(t *testing.T) {
	renderer := NewRenderer(TemplateFS)
	prompt, err := renderer.RenderSystemPrompt(testPromptContext())
	require.NoError(t, err)

	assert.Contains(t, prompt, "You are sidekick")
	assert.Contains(t, prompt, "/home/dev/project")
	assert.Contains(t, prompt, "linux Linux 6.1.0")
	assert.Contains(t, prompt, "2026-08-24")
	assert.Contains(t, prompt, "60 seconds")
	assert.Contains(t, prompt, "`vim`")
}

func TestRenderSystemPromptAllowedCommands(t *testing.T) {
	ctx := testPromptContext()
	ctx.BashAllowedCommands = []string{"git *", "go test*"}

	renderer := NewRenderer(TemplateFS)
	prompt, err := renderer.RenderSystemPrompt(ctx)
	require.NoError(t, err)

	assert.Contains(t, prompt, "`git *`")
	assert.Contains(t, prompt, "`go test*`")
	assert.NotContains(t, prompt, "banned")
}

func TestRenderSystemPromptSkillInventory(t *testing.T) {
	ctx := testPromptContext()
	ctx.WithSkills(map[string]*skills.Skill{
		"release-notes": {Name: "release-notes", Description: "Drafts release notes"},
		"commit-helper": {Name: "commit-helper", Description: "Writes commit messages"},
	})

	renderer := NewRenderer(TemplateFS)
	prompt, err := renderer.RenderSystemPrompt(ctx)
	require.NoError(t, err)

	assert.Contains(t, prompt, "**commit-helper**: Writes commit messages")
	assert.Contains(t, prompt, "**release-notes**: Drafts release notes")
	// Sorted inventory
	assert.Less(t, strings.Index(prompt, "commit-helper"), strings.Index(prompt, "release-notes"))
}

func TestRenderSystemPromptSkillsDisabled(t *testing.T) {
	ctx := testPromptContext()
	ctx.Features["skillsEnabled"] = false

	renderer := NewRenderer(TemplateFS)
	prompt, err := renderer.RenderSystemPrompt(ctx)
	require.NoError(t, err)

	assert.NotContains(t, prompt, "# Skills")
}

func TestRenderSystemPromptContextFiles(t *testing.T) {
	ctx := testPromptContext()
	ctx.ContextFiles = map[string]string{
		"/home/dev/project/AGENT.md": "Always run make lint before committing.",
	}

	renderer := NewRenderer(TemplateFS)
	prompt, err := renderer.RenderSystemPrompt(ctx)
	require.NoError(t, err)

	assert.Contains(t, prompt, `<context filename="/home/dev/project/AGENT.md">`)
	assert.Contains(t, prompt, "make lint")
}

func TestToolNameFallback(t *testing.T) {
	ctx := testPromptContext()
	assert.Equal(t, "bash", ctx.ToolName("bash"))
	assert.Equal(t, "custom_tool", ctx.ToolName("custom_tool"))
}
