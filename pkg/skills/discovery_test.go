package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, content string) {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
}

func TestDiscoverSkills(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "commit-helper", `---
name: commit-helper
description: Writes conventional commit messages
allowed-tools:
  - Bash(git:*)
  - file_read
default-options:
  style: conventional
  scope: auto
---

# Commit Helper

Look at the staged diff and write a commit message.
`)

	discovery, err := NewDiscovery(WithSkillDirs(dir))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	require.NoError(t, err)
	require.Len(t, skills, 1)

	skill := skills["commit-helper"]
	require.NotNil(t, skill)
	assert.Equal(t, "commit-helper", skill.Name)
	assert.Equal(t, "Writes conventional commit messages", skill.Description)
	assert.Equal(t, []string{"Bash(git:*)", "file_read"}, skill.AllowedTools)
	assert.Equal(t, map[string]string{"style": "conventional", "scope": "auto"}, skill.DefaultOptions)
	assert.Equal(t, filepath.Join(dir, "commit-helper"), skill.Directory)
	assert.Contains(t, skill.Content, "# Commit Helper")
	assert.NotContains(t, skill.Content, "allowed-tools")
}

func TestDiscoverSkillsFirstSeenWins(t *testing.T) {
	local := t.TempDir()
	global := t.TempDir()

	writeSkill(t, local, "deploy", `---
name: deploy
description: local version
---
local body
`)
	writeSkill(t, global, "deploy", `---
name: deploy
description: global version
---
global body
`)

	discovery, err := NewDiscovery(WithSkillDirs(local, global))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "local version", skills["deploy"].Description)
}

func TestDiscoverSkillsAggregatesErrors(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "good", `---
name: good
description: a valid skill
---
body
`)
	writeSkill(t, dir, "no-name", `---
description: missing the name field
---
body
`)
	writeSkill(t, dir, "no-frontmatter", "just a markdown file\n")

	discovery, err := NewDiscovery(WithSkillDirs(dir))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	assert.Error(t, err)
	require.Len(t, skills, 1)
	assert.NotNil(t, skills["good"])
}

func TestDiscoverSkillsMissingDir(t *testing.T) {
	discovery, err := NewDiscovery(WithSkillDirs("/nonexistent/path"))
	require.NoError(t, err)

	skills, err := discovery.DiscoverSkills()
	require.NoError(t, err)
	assert.Empty(t, skills)
}

func TestGetSkill(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "review", `---
name: review
description: Reviews a pull request
---
body
`)

	discovery, err := NewDiscovery(WithSkillDirs(dir))
	require.NoError(t, err)

	skill, err := discovery.GetSkill("review")
	require.NoError(t, err)
	assert.Equal(t, "review", skill.Name)

	_, err = discovery.GetSkill("missing")
	assert.Error(t, err)
}

func TestAllowedToolsCommaString(t *testing.T) {
	dir := t.TempDir()
	writeSkill(t, dir, "compact", `---
name: compact
description: Uses a comma separated allow list
allowed-tools: "Bash(go:*), file_read, file_edit"
---
body
`)

	discovery, err := NewDiscovery(WithSkillDirs(dir))
	require.NoError(t, err)

	skill, err := discovery.GetSkill("compact")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bash(go:*)", "file_read", "file_edit"}, skill.AllowedTools)
}

func TestFilterByAllowlist(t *testing.T) {
	skills := map[string]*Skill{
		"a": {Name: "a"},
		"b": {Name: "b"},
	}

	assert.Len(t, FilterByAllowlist(skills, nil), 2)

	filtered := FilterByAllowlist(skills, []string{"b", "missing"})
	require.Len(t, filtered, 1)
	assert.NotNil(t, filtered["b"])
}

func TestExtractBodyContent(t *testing.T) {
	body := extractBodyContent("---\nname: x\n---\n\nbody text\n")
	assert.Equal(t, "body text\n", body)

	// No frontmatter: returned untouched
	assert.Equal(t, "plain\n", extractBodyContent("plain\n"))

	// Unterminated frontmatter: returned untouched
	unterminated := "---\nname: x\nbody\n"
	assert.Equal(t, unterminated, extractBodyContent(unterminated))
}

func TestBashPatterns(t *testing.T) {
	skill := &Skill{
		Name:         "browser",
		AllowedTools: []string{"Bash(playwright-cli:*)", "Bash(jq)", "file_read", "Bash()"},
	}

	assert.Equal(t, []string{"playwright-cli", "playwright-cli *", "jq"}, skill.BashPatterns())
}

func TestBashAllowlistPatterns(t *testing.T) {
	discovered := map[string]*Skill{
		"b": {Name: "b", AllowedTools: []string{"Bash(git:*)"}},
		"a": {Name: "a", AllowedTools: []string{"Bash(playwright-cli:*)", "Bash(git:*)"}},
		"c": {Name: "c"},
	}

	// Skill-name order, duplicates removed
	assert.Equal(t,
		[]string{"playwright-cli", "playwright-cli *", "git", "git *"},
		BashAllowlistPatterns(discovered))

	assert.Empty(t, BashAllowlistPatterns(nil))
}
