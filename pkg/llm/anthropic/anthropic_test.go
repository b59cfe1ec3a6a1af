package anthropic

import (
	"context"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmarward/sidekick/pkg/conversations"
	"github.com/hmarward/sidekick/pkg/tools"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
)

func newTestThread(t *testing.T) *AnthropicThread {
	t.Helper()
	return NewAnthropicThread(llmtypes.Config{
		Model: string(anthropic.ModelClaudeSonnet4_0),
	}, nil)
}

func newPersistedThread(t *testing.T, basePath string) *AnthropicThread {
	t.Helper()
	thread := newTestThread(t)
	store, err := conversations.NewJSONConversationStore(basePath)
	require.NoError(t, err)
	thread.store = store
	thread.isPersisted = true
	return thread
}

func TestNewAnthropicThreadDefaults(t *testing.T) {
	thread := NewAnthropicThread(llmtypes.Config{}, nil)

	assert.Equal(t, string(anthropic.ModelClaudeSonnet4_0), thread.config.Model)
	assert.NotEmpty(t, thread.config.WeakModel)
	assert.Equal(t, defaultMaxTokens, thread.config.MaxTokens)
	assert.Equal(t, defaultWeakModelMaxTokens, thread.config.WeakModelMaxTokens)
	assert.NotEmpty(t, thread.GetConversationID())
	assert.Equal(t, "anthropic", thread.Provider())
}

func TestDeserializeMessages(t *testing.T) {
	thread := newTestThread(t)

	messages, err := thread.DeserializeMessages([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, messages)

	rawMessages := `[
    {
      "content": [
        {
          "text": "ls -la",
          "type": "text"
        }
      ],
      "role": "user"
    },
    {
      "content": [
        {
          "text": "Listing files now.",
          "type": "text"
        },
        {
          "id": "toolu_01",
          "input": {
            "command": "ls -la",
            "description": "List all files"
          },
          "name": "bash",
          "type": "tool_use"
        }
      ],
      "role": "assistant"
    },
    {
      "content": [
        {
          "tool_use_id": "toolu_01",
          "is_error": false,
          "content": [
            {
              "text": "/root/foo/bar",
              "type": "text"
            }
          ],
          "type": "tool_result"
        }
      ],
      "role": "user"
    },
    {
      "content": [],
      "role": "assistant"
    }
  ]`

	messages, err = thread.DeserializeMessages([]byte(rawMessages))
	require.NoError(t, err)

	// Empty messages are dropped
	require.Len(t, messages, 3)

	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, "ls -la", messages[0].Content[0].OfText.Text)

	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
	assert.Equal(t, "Listing files now.", messages[1].Content[0].OfText.Text)
	assert.Equal(t, "toolu_01", messages[1].Content[1].OfToolUse.ID)
	assert.Equal(t, "bash", messages[1].Content[1].OfToolUse.Name)

	input := messages[1].Content[1].OfToolUse.Input.(map[string]interface{})
	assert.Equal(t, "ls -la", input["command"])

	assert.Equal(t, "toolu_01", messages[2].Content[0].OfToolResult.ToolUseID)
	assert.False(t, messages[2].Content[0].OfToolResult.IsError.Value)
	assert.Equal(t, "/root/foo/bar", messages[2].Content[0].OfToolResult.Content[0].OfText.Text)
}

func TestDeserializeMessagesMalformed(t *testing.T) {
	thread := newTestThread(t)

	_, err := thread.DeserializeMessages([]byte(`not json`))
	assert.Error(t, err)

	_, err = thread.DeserializeMessages([]byte(`[{"role":"user","content":[{"type":"tool_use"}]}]`))
	assert.Error(t, err)
}

func TestSaveAndLoadConversation(t *testing.T) {
	ctx := context.TODO()
	basePath := t.TempDir()

	thread := newPersistedThread(t, basePath)
	thread.SetConversationID("conv-persist")
	thread.AddUserMessage("hello there")
	thread.summary = "Greeting exchange"

	state, err := tools.NewBasicState(ctx, t.TempDir())
	require.NoError(t, err)
	thread.SetState(state)

	now := time.Now()
	state.SetFileLastAccess(map[string]time.Time{"/path/to/file1.txt": now})

	require.NoError(t, thread.SaveConversation(ctx, false))

	loaded := newPersistedThread(t, basePath)
	loaded.SetConversationID("conv-persist")
	loadedState, err := tools.NewBasicState(ctx, t.TempDir())
	require.NoError(t, err)
	loaded.SetState(loadedState)

	require.NoError(t, loaded.loadConversation(ctx))

	assert.Equal(t, "Greeting exchange", loaded.summary)
	require.Len(t, loaded.messages, 1)
	assert.Equal(t, "hello there", loaded.messages[0].Content[0].OfText.Text)

	fileAccess := loadedState.FileLastAccess()
	require.Len(t, fileAccess, 1)
	assert.Equal(t, now.Unix(), fileAccess["/path/to/file1.txt"].Unix())
}

func TestLoadConversationIncompatibleProvider(t *testing.T) {
	ctx := context.TODO()
	basePath := t.TempDir()

	thread := newPersistedThread(t, basePath)
	record := conversations.NewConversationRecord("conv-openai")
	record.Provider = "openai"
	require.NoError(t, thread.store.Save(ctx, record))

	thread.SetConversationID("conv-openai")
	err := thread.loadConversation(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incompatible")
}

func TestResetMessages(t *testing.T) {
	thread := newTestThread(t)
	thread.AddUserMessage("one")
	thread.AddUserMessage("two")
	thread.summary = "something"

	thread.ResetMessages()
	assert.Empty(t, thread.messages)
	assert.Empty(t, thread.summary)
}

func TestGetMessages(t *testing.T) {
	thread := newTestThread(t)
	thread.AddUserMessage("first message")

	messages, err := thread.GetMessages()
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "first message", messages[0].Content)
}

func TestShouldAutoCompact(t *testing.T) {
	thread := newTestThread(t)

	// No usage recorded yet
	assert.False(t, thread.shouldAutoCompact(0.8))

	thread.usage.CurrentContextWindow = 190_000
	thread.usage.MaxContextWindow = 200_000
	assert.True(t, thread.shouldAutoCompact(0.8))
	assert.False(t, thread.shouldAutoCompact(0.99))

	// Out-of-range ratios fall back to the default threshold
	assert.True(t, thread.shouldAutoCompact(0))
	assert.True(t, thread.shouldAutoCompact(1.5))

	thread.config.DisableAutoCompact = true
	assert.False(t, thread.shouldAutoCompact(0.8))
}

func TestGetModelPricing(t *testing.T) {
	sonnet := getModelPricing(string(anthropic.ModelClaudeSonnet4_0))
	assert.Equal(t, 200_000, sonnet.ContextWindow)

	opus := getModelPricing("claude-opus-4-20250514")
	assert.Equal(t, ModelPricingMap[string(anthropic.ModelClaudeOpus4_0)], opus)

	haiku := getModelPricing("claude-3-5-haiku-20241022")
	assert.Equal(t, ModelPricingMap[string(anthropic.ModelClaude3_5HaikuLatest)], haiku)

	unknown := getModelPricing("some-future-model")
	assert.Equal(t, ModelPricingMap[string(anthropic.ModelClaudeSonnet4_0)], unknown)
}

func TestUpdateUsage(t *testing.T) {
	thread := newTestThread(t)

	response := &anthropic.Message{
		Usage: anthropic.Usage{
			InputTokens:              1000,
			OutputTokens:             500,
			CacheCreationInputTokens: 200,
			CacheReadInputTokens:     100,
		},
	}
	thread.updateUsage(response, thread.config.Model)

	usage := thread.GetUsage()
	assert.Equal(t, 1000, usage.InputTokens)
	assert.Equal(t, 500, usage.OutputTokens)
	assert.Equal(t, 1800, usage.CurrentContextWindow)
	assert.Equal(t, 200_000, usage.MaxContextWindow)
	assert.Greater(t, usage.TotalCost(), 0.0)
}
