package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmarward/sidekick/pkg/skills"
)

func testSkills() map[string]*skills.Skill {
	return map[string]*skills.Skill{
		"commit-helper": {
			Name:         "commit-helper",
			Description:  "Writes commit messages",
			Directory:    "/tmp/skills/commit-helper",
			Content:      "Look at the staged diff and write a message.",
			AllowedTools: []string{"Bash(git:*)", "file_read"},
			DefaultOptions: map[string]string{
				"style": "conventional",
			},
		},
	}
}

func TestSkillToolExecute(t *testing.T) {
	state := newTestState(t)
	tool := NewSkillTool(testSkills(), true)

	params := marshalInput(t, SkillInput{SkillName: "commit-helper"})
	require.NoError(t, tool.ValidateInput(state, params))

	result := tool.Execute(context.TODO(), state, params)
	require.False(t, result.IsError(), result.GetError())

	facing := result.AssistantFacing()
	assert.Contains(t, facing, "# Skill: commit-helper")
	assert.Contains(t, facing, "/tmp/skills/commit-helper")
	assert.Contains(t, facing, "Bash(git:*)")
	assert.Contains(t, facing, "style: conventional")
	assert.Contains(t, facing, "Look at the staged diff")

	assert.True(t, tool.IsActive("commit-helper"))
}

func TestSkillToolRejectsActiveSkill(t *testing.T) {
	state := newTestState(t)
	tool := NewSkillTool(testSkills(), true)
	params := marshalInput(t, SkillInput{SkillName: "commit-helper"})

	first := tool.Execute(context.TODO(), state, params)
	require.False(t, first.IsError())

	second := tool.Execute(context.TODO(), state, params)
	require.True(t, second.IsError())
	assert.Contains(t, second.GetError(), "already active")

	tool.ResetActiveSkills()
	third := tool.Execute(context.TODO(), state, params)
	assert.False(t, third.IsError())
}

func TestSkillToolValidateInput(t *testing.T) {
	state := newTestState(t)
	tool := NewSkillTool(testSkills(), true)

	assert.Error(t, tool.ValidateInput(state, marshalInput(t, SkillInput{})))

	err := tool.ValidateInput(state, marshalInput(t, SkillInput{SkillName: "unknown"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit-helper")

	disabled := NewSkillTool(testSkills(), false)
	err = disabled.ValidateInput(state, marshalInput(t, SkillInput{SkillName: "commit-helper"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestSkillToolDescriptionListsSkills(t *testing.T) {
	tool := NewSkillTool(testSkills(), true)
	desc := tool.Description()
	assert.Contains(t, desc, "### commit-helper")
	assert.Contains(t, desc, "Writes commit messages")

	empty := NewSkillTool(map[string]*skills.Skill{}, true)
	assert.Contains(t, empty.Description(), "not available")
}
