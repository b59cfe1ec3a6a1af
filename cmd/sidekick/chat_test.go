package main

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmarward/sidekick/pkg/presenter"
	"github.com/hmarward/sidekick/pkg/skills"
	"github.com/hmarward/sidekick/pkg/tools"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// stubThread satisfies the Thread interface for slash-command tests
type stubThread struct {
	resetCalled   bool
	compactCalled bool
}

func (t *stubThread) SetState(tooltypes.State)                {}
func (t *stubThread) GetState() tooltypes.State               { return nil }
func (t *stubThread) AddUserMessage(string)                   {}
func (t *stubThread) GetUsage() llmtypes.Usage                { return llmtypes.Usage{} }
func (t *stubThread) GetConversationID() string               { return "stub" }
func (t *stubThread) SetConversationID(string)                {}
func (t *stubThread) IsPersisted() bool                       { return false }
func (t *stubThread) Provider() string                        { return "anthropic" }
func (t *stubThread) EnablePersistence(context.Context, bool) {}
func (t *stubThread) ShortSummary(context.Context) string     { return "" }

func (t *stubThread) SendMessage(context.Context, string, llmtypes.MessageHandler, llmtypes.MessageOpt) (string, error) {
	return "", nil
}

func (t *stubThread) SaveConversation(context.Context, bool) error { return nil }

func (t *stubThread) GetMessages() ([]llmtypes.Message, error) { return nil, nil }

func (t *stubThread) ResetMessages() { t.resetCalled = true }

func (t *stubThread) CompactContext(context.Context) error {
	t.compactCalled = true
	return nil
}

func newSkillState(t *testing.T, skillTool *tools.SkillTool) *tools.BasicState {
	t.Helper()
	state, err := tools.NewBasicState(context.TODO(), t.TempDir(),
		tools.WithTools([]tooltypes.Tool{skillTool}))
	require.NoError(t, err)
	return state
}

func activateSkill(t *testing.T, skillTool *tools.SkillTool, state tooltypes.State, name string) {
	t.Helper()
	params, err := json.Marshal(map[string]string{"skill_name": name})
	require.NoError(t, err)
	result := skillTool.Execute(context.TODO(), state, string(params))
	require.False(t, result.IsError(), result.GetError())
	require.True(t, skillTool.IsActive(name))
}

func TestResetClearsActiveSkills(t *testing.T) {
	presenter.SetQuiet(true)
	defer presenter.SetQuiet(false)

	skillTool := tools.NewSkillTool(map[string]*skills.Skill{
		"commit-helper": {Name: "commit-helper", Description: "Write commits", Content: "instructions"},
	}, true)
	state := newSkillState(t, skillTool)
	activateSkill(t, skillTool, state, "commit-helper")

	thread := &stubThread{}
	quit := handleSlashCommand(context.TODO(), thread, state, "/reset")

	assert.False(t, quit)
	assert.True(t, thread.resetCalled)
	// The instructions left the history, so the skill can load again
	assert.False(t, skillTool.IsActive("commit-helper"))
	activateSkill(t, skillTool, state, "commit-helper")
}

func TestCompactClearsActiveSkills(t *testing.T) {
	presenter.SetQuiet(true)
	defer presenter.SetQuiet(false)

	skillTool := tools.NewSkillTool(map[string]*skills.Skill{
		"xlsx": {Name: "xlsx", Description: "Spreadsheets", Content: "instructions"},
	}, true)
	state := newSkillState(t, skillTool)
	activateSkill(t, skillTool, state, "xlsx")

	thread := &stubThread{}
	handleSlashCommand(context.TODO(), thread, state, "/compact")

	assert.True(t, thread.compactCalled)
	assert.False(t, skillTool.IsActive("xlsx"))
}

func TestReadUserInput(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("hello world\n"))
	input, err := readUserInput(reader)
	require.NoError(t, err)
	assert.Equal(t, "hello world", input)
}

func TestReadUserInputContinuation(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("first line\\\nsecond line\\\nthird line\n"))
	input, err := readUserInput(reader)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\nthird line", input)
}

func TestReaderPrompterSharesReader(t *testing.T) {
	presenter.SetQuiet(true)
	defer presenter.SetQuiet(false)

	// Type-ahead: the clarify answer and the next message arrive together.
	// Both must come out of the same reader in order.
	reader := bufio.NewReader(strings.NewReader("yes, use the staging config\nnext message\n"))
	prompter := readerPrompter(reader)

	answer, err := prompter("Which config should I use?")
	require.NoError(t, err)
	assert.Equal(t, "yes, use the staging config", answer)

	next, err := readUserInput(reader)
	require.NoError(t, err)
	assert.Equal(t, "next message", next)
}
