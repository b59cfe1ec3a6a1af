package anthropic

import (
	"context"
	"encoding/json"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/pkg/errors"

	"github.com/hmarward/sidekick/pkg/conversations"
)

// SaveConversation saves the current thread to the conversation store.
// When summarise is set, a short summary is generated first.
func (t *AnthropicThread) SaveConversation(ctx context.Context, summarise bool) error {
	if !t.isPersisted || t.store == nil {
		return nil
	}

	if summarise && t.summary == "" {
		t.summary = t.ShortSummary(ctx)
	}

	rawMessages, err := marshalMessages(t.messages)
	if err != nil {
		return err
	}

	record := conversations.ConversationRecord{
		ID:          t.conversationID,
		RawMessages: rawMessages,
		Provider:    t.Provider(),
		Usage:       t.GetUsage(),
		Summary:     t.summary,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if t.state != nil {
		record.FileLastAccess = t.state.FileLastAccess()
	}

	return t.store.Save(ctx, record)
}

// loadConversation loads a conversation from the store into the thread
func (t *AnthropicThread) loadConversation(ctx context.Context) error {
	if !t.isPersisted || t.store == nil || t.conversationID == "" {
		return nil
	}

	record, err := t.store.Load(ctx, t.conversationID)
	if err != nil {
		return errors.Wrap(err, "failed to load conversation")
	}

	if record.Provider != "" && record.Provider != t.Provider() {
		return errors.Errorf("incompatible conversation provider: %s", record.Provider)
	}

	if _, err := t.DeserializeMessages(record.RawMessages); err != nil {
		return errors.Wrap(err, "failed to deserialize conversation messages")
	}

	t.mu.Lock()
	*t.usage = record.Usage
	t.summary = record.Summary
	t.mu.Unlock()

	if t.state != nil && record.FileLastAccess != nil {
		t.state.SetFileLastAccess(record.FileLastAccess)
	}

	return nil
}

type contentBlock map[string]any

type messageParam struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// DeserializeMessages rebuilds the message history from its JSON form.
// Only text, tool_use and tool_result blocks are restored.
func (t *AnthropicThread) DeserializeMessages(b []byte) ([]anthropic.MessageParam, error) {
	t.messages = []anthropic.MessageParam{}

	var rawMessages []json.RawMessage
	if err := json.Unmarshal(b, &rawMessages); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal conversation messages")
	}

	for _, rawMessage := range rawMessages {
		var shallow messageParam
		if err := json.Unmarshal(rawMessage, &shallow); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal conversation message")
		}

		msg := anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(shallow.Role),
			Content: []anthropic.ContentBlockParamUnion{},
		}
		for _, content := range shallow.Content {
			block, err := deserializeContentBlock(content)
			if err != nil {
				return nil, err
			}
			if block != nil {
				msg.Content = append(msg.Content, *block)
			}
		}

		if len(msg.Content) != 0 {
			t.messages = append(t.messages, msg)
		}
	}

	return t.messages, nil
}

func deserializeContentBlock(content contentBlock) (*anthropic.ContentBlockParamUnion, error) {
	blockType, _ := content["type"].(string)
	switch blockType {
	case "text":
		text, ok := content["text"].(string)
		if !ok {
			return nil, errors.New("text block missing text field")
		}
		return &anthropic.ContentBlockParamUnion{
			OfText: &anthropic.TextBlockParam{
				Type: "text",
				Text: text,
			},
		}, nil

	case "tool_use":
		for _, field := range []string{"id", "name", "input"} {
			if _, ok := content[field]; !ok {
				return nil, errors.Errorf("tool_use block missing field: %s", field)
			}
		}
		return &anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				Type:  "tool_use",
				ID:    content["id"].(string),
				Name:  content["name"].(string),
				Input: content["input"],
			},
		}, nil

	case "tool_result":
		toolUseID, ok := content["tool_use_id"].(string)
		if !ok {
			return nil, errors.New("tool_result block missing tool_use_id field")
		}
		resultContents, ok := content["content"].([]any)
		if !ok || len(resultContents) == 0 {
			return nil, errors.New("tool_result block has no content")
		}
		resultContent, ok := resultContents[0].(map[string]any)
		if !ok {
			return nil, errors.New("tool_result content is malformed")
		}
		text, ok := resultContent["text"].(string)
		if !ok {
			return nil, errors.New("tool_result content missing text field")
		}
		isError, _ := content["is_error"].(bool)

		return &anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				Type:      "tool_result",
				ToolUseID: toolUseID,
				IsError:   anthropic.Bool(isError),
				Content: []anthropic.ToolResultBlockParamContentUnion{
					{
						OfText: &anthropic.TextBlockParam{
							Type: "text",
							Text: text,
						},
					},
				},
			},
		}, nil
	}

	// Unknown block types are dropped rather than failing the whole load
	return nil, nil
}
