// Package anthropic implements the Thread interface on top of Anthropic's
// Claude API, including the tool-use loop, usage accounting, context
// compaction and conversation persistence.
package anthropic

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"

	"github.com/hmarward/sidekick/pkg/conversations"
	"github.com/hmarward/sidekick/pkg/llm/prompts"
	"github.com/hmarward/sidekick/pkg/logger"
	"github.com/hmarward/sidekick/pkg/skills"
	"github.com/hmarward/sidekick/pkg/sysprompt"
	"github.com/hmarward/sidekick/pkg/tools"
	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// ConversationStore is an alias for the conversations.ConversationStore
// interface to avoid a direct dependency at the call sites
type ConversationStore = conversations.ConversationStore

const (
	defaultMaxTokens          = 8192
	defaultWeakModelMaxTokens = 2048

	// defaultCompactRatio triggers auto-compaction when the context window
	// utilisation exceeds it
	defaultCompactRatio = 0.8
)

// AnthropicThread implements the Thread interface using Anthropic's Claude API
type AnthropicThread struct {
	client         anthropic.Client
	config         llmtypes.Config
	state          tooltypes.State
	messages       []anthropic.MessageParam
	usage          *llmtypes.Usage
	conversationID string
	summary        string
	isPersisted    bool
	store          ConversationStore
	skills         map[string]*skills.Skill
	mu             sync.Mutex
}

var _ llmtypes.Thread = (*AnthropicThread)(nil)

// NewAnthropicThread creates a new thread backed by Anthropic's Claude API
func NewAnthropicThread(config llmtypes.Config, discoveredSkills map[string]*skills.Skill) *AnthropicThread {
	if config.Model == "" {
		config.Model = string(anthropic.ModelClaudeSonnet4_0)
	}
	if config.WeakModel == "" {
		config.WeakModel = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if config.WeakModelMaxTokens == 0 {
		config.WeakModelMaxTokens = defaultWeakModelMaxTokens
	}

	return &AnthropicThread{
		client:         anthropic.NewClient(),
		config:         config,
		conversationID: conversations.GenerateID(),
		skills:         discoveredSkills,
		usage:          &llmtypes.Usage{},
	}
}

// Provider returns the provider of the thread
func (t *AnthropicThread) Provider() string {
	return "anthropic"
}

// SetState sets the state for the thread
func (t *AnthropicThread) SetState(s tooltypes.State) {
	t.state = s
}

// GetState returns the current state of the thread
func (t *AnthropicThread) GetState() tooltypes.State {
	return t.state
}

// AddUserMessage adds a user message to the thread
func (t *AnthropicThread) AddUserMessage(message string) {
	t.messages = append(t.messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))
}

// SendMessage sends a message to the LLM and processes the response,
// running requested tools until the model stops asking for them.
func (t *AnthropicThread) SendMessage(
	ctx context.Context,
	message string,
	handler llmtypes.MessageHandler,
	opt llmtypes.MessageOpt,
) (finalOutput string, err error) {
	if !opt.DisableAutoCompact && t.shouldAutoCompact(opt.CompactRatio) {
		logger.G(ctx).WithField("utilization", t.usage.ContextUtilization()).Info("auto-compacting conversation")
		if err := t.CompactContext(ctx); err != nil {
			return "", errors.Wrap(err, "failed to auto-compact context")
		}
	}

	if opt.PromptCache {
		t.cacheMessages()
	}
	t.AddUserMessage(message)

	model := t.config.Model
	maxTokens := t.config.MaxTokens
	if opt.UseWeakModel && t.config.WeakModel != "" {
		model = t.config.WeakModel
		maxTokens = t.config.WeakModelMaxTokens
	}
	systemPrompt := sysprompt.SystemPrompt(model, t.config, t.skills)

	for {
		messageParams := anthropic.MessageNewParams{
			MaxTokens: int64(maxTokens),
			System: []anthropic.TextBlockParam{
				{
					Text: systemPrompt,
					CacheControl: anthropic.CacheControlEphemeralParam{
						Type: "ephemeral",
					},
				},
			},
			Messages: t.messages,
			Model:    anthropic.Model(model),
		}
		if !opt.NoToolUse {
			messageParams.Tools = tools.ToAnthropicTools(t.tools())
		}

		response, err := t.client.Messages.New(ctx, messageParams)
		if err != nil {
			return "", errors.Wrap(err, "error sending message to Anthropic")
		}

		t.messages = append(t.messages, response.ToParam())
		t.updateUsage(response, model)

		var toolResults []anthropic.ContentBlockParamUnion
		for _, block := range response.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				handler.HandleText(variant.Text)
				finalOutput = variant.Text
			case anthropic.ToolUseBlock:
				input := string(variant.JSON.Input.Raw())
				handler.HandleToolUse(block.Name, input)

				output := tools.RunTool(ctx, t.state, block.Name, input)
				handler.HandleToolResult(block.Name, tooltypes.StringifyToolResult(output.GetResult(), output.GetError()))

				// AssistantFacing may carry more than GetResult, e.g. loaded
				// skill instructions
				toolResults = append(toolResults, anthropic.NewToolResultBlock(block.ID, output.AssistantFacing(), output.IsError()))
			}
		}

		if len(toolResults) == 0 {
			break
		}
		t.messages = append(t.messages, anthropic.NewUserMessage(toolResults...))

		// A requested restart ends the turn so the CLI can re-exec
		if t.state != nil && t.state.RestartRequested() {
			break
		}
	}

	if t.isPersisted && t.store != nil && !opt.NoSaveConversation {
		if err := t.SaveConversation(ctx, false); err != nil {
			logger.G(ctx).WithError(err).Error("failed to save conversation")
		}
	}

	handler.HandleDone()
	return finalOutput, nil
}

// shouldAutoCompact reports whether the context utilisation crossed the
// compact threshold
func (t *AnthropicThread) shouldAutoCompact(compactRatio float64) bool {
	if t.config.DisableAutoCompact {
		return false
	}
	ratio := compactRatio
	if ratio <= 0 || ratio > 1 {
		ratio = t.config.CompactRatio
	}
	if ratio <= 0 || ratio > 1 {
		ratio = defaultCompactRatio
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage.ContextUtilization() > ratio
}

// CompactContext replaces the conversation history with a single summary
// message generated by the model.
func (t *AnthropicThread) CompactContext(ctx context.Context) error {
	handler := &llmtypes.StringCollectorHandler{Silent: true}
	_, err := t.SendMessage(ctx, prompts.CompactPrompt, handler, llmtypes.MessageOpt{
		NoToolUse:          true,
		NoSaveConversation: true,
		DisableAutoCompact: true,
		PromptCache:        true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to generate compact summary")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(handler.CollectedText())),
	}
	return nil
}

// ResetMessages clears the conversation back to an empty history
func (t *AnthropicThread) ResetMessages() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
	t.summary = ""
	t.usage.CurrentContextWindow = 0
}

// ShortSummary returns a short title for the conversation, generated with
// the weak model.
func (t *AnthropicThread) ShortSummary(ctx context.Context) string {
	handler := &llmtypes.StringCollectorHandler{Silent: true}
	_, err := t.SendMessage(ctx, prompts.ShortSummaryPrompt, handler, llmtypes.MessageOpt{
		UseWeakModel:       true,
		NoToolUse:          true,
		NoSaveConversation: true,
		DisableAutoCompact: true,
	})
	if err != nil {
		logger.G(ctx).WithError(err).Warn("failed to generate short summary")
		return ""
	}

	// Drop the summary exchange from the history
	if len(t.messages) >= 2 {
		t.messages = t.messages[:len(t.messages)-2]
	}

	return handler.CollectedText()
}

func (t *AnthropicThread) tools() []tooltypes.Tool {
	if t.state == nil {
		return nil
	}
	return t.state.Tools()
}

// cacheMessages moves the ephemeral cache-control marker to the last block
func (t *AnthropicThread) cacheMessages() {
	for msgIdx, msg := range t.messages {
		for blkIdx, block := range msg.Content {
			if block.OfText != nil {
				block.OfText.CacheControl = anthropic.CacheControlEphemeralParam{}
				t.messages[msgIdx].Content[blkIdx] = block
			}
		}
	}
	if len(t.messages) > 0 {
		lastMsg := t.messages[len(t.messages)-1]
		if len(lastMsg.Content) > 0 && lastMsg.Content[len(lastMsg.Content)-1].OfText != nil {
			lastMsg.Content[len(lastMsg.Content)-1].OfText.CacheControl = anthropic.CacheControlEphemeralParam{
				Type: "ephemeral",
			}
		}
	}
}

func (t *AnthropicThread) updateUsage(response *anthropic.Message, model string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.usage.InputTokens += int(response.Usage.InputTokens)
	t.usage.OutputTokens += int(response.Usage.OutputTokens)
	t.usage.CacheCreationInputTokens += int(response.Usage.CacheCreationInputTokens)
	t.usage.CacheReadInputTokens += int(response.Usage.CacheReadInputTokens)

	pricing := getModelPricing(model)
	t.usage.InputCost += float64(response.Usage.InputTokens) * pricing.Input
	t.usage.OutputCost += float64(response.Usage.OutputTokens) * pricing.Output
	t.usage.CacheCreationCost += float64(response.Usage.CacheCreationInputTokens) * pricing.PromptCachingWrite
	t.usage.CacheReadCost += float64(response.Usage.CacheReadInputTokens) * pricing.PromptCachingRead

	t.usage.CurrentContextWindow = int(response.Usage.InputTokens) +
		int(response.Usage.OutputTokens) +
		int(response.Usage.CacheCreationInputTokens) +
		int(response.Usage.CacheReadInputTokens)
	t.usage.MaxContextWindow = pricing.ContextWindow
}

// GetUsage returns the current token usage for the thread
func (t *AnthropicThread) GetUsage() llmtypes.Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.usage
}

// GetConversationID returns the current conversation ID
func (t *AnthropicThread) GetConversationID() string {
	return t.conversationID
}

// SetConversationID sets the conversation ID
func (t *AnthropicThread) SetConversationID(id string) {
	t.conversationID = id
}

// IsPersisted returns whether this thread is being persisted
func (t *AnthropicThread) IsPersisted() bool {
	return t.isPersisted
}

// GetMessages returns a simplified view of the conversation history
func (t *AnthropicThread) GetMessages() ([]llmtypes.Message, error) {
	var result []llmtypes.Message
	for _, msg := range t.messages {
		for _, block := range msg.Content {
			if block.OfText == nil {
				continue
			}
			result = append(result, llmtypes.Message{
				Role:    string(msg.Role),
				Content: block.OfText.Text,
			})
		}
	}
	return result, nil
}

// EnablePersistence enables conversation persistence for this thread
func (t *AnthropicThread) EnablePersistence(ctx context.Context, enabled bool) {
	t.isPersisted = enabled
	if !enabled {
		return
	}

	if t.store == nil {
		store, err := conversations.GetConversationStore(ctx)
		if err != nil {
			logger.G(ctx).WithError(err).Error("failed to initialise conversation store, continuing without persistence")
			t.isPersisted = false
			return
		}
		t.store = store
	}

	if t.conversationID != "" {
		if err := t.loadConversation(ctx); err != nil {
			logger.G(ctx).WithError(err).WithField("conversation_id", t.conversationID).Debug("starting a fresh conversation")
		}
	}
}

// SendMessageAndGetText is a convenience wrapper for one-shot queries
func (t *AnthropicThread) SendMessageAndGetText(ctx context.Context, message string, opt llmtypes.MessageOpt) (string, error) {
	handler := &llmtypes.StringCollectorHandler{Silent: true}
	if _, err := t.SendMessage(ctx, message, handler, opt); err != nil {
		return "", err
	}
	return handler.CollectedText(), nil
}

func marshalMessages(messages []anthropic.MessageParam) (json.RawMessage, error) {
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal conversation messages")
	}
	return raw, nil
}
