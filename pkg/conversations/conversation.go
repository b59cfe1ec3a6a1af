package conversations

import (
	"encoding/json"
	"strings"
	"time"

	llmtypes "github.com/hmarward/sidekick/pkg/types/llm"
)

// ConversationRecord represents a persisted conversation with its messages and metadata
type ConversationRecord struct {
	ID             string               `json:"id"`
	RawMessages    json.RawMessage      `json:"rawMessages"` // Raw LLM provider messages
	Provider       string               `json:"provider"`    // e.g., "anthropic"
	FileLastAccess map[string]time.Time `json:"fileLastAccess"`
	Usage          llmtypes.Usage       `json:"usage"`
	Summary        string               `json:"summary,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// ConversationSummary provides a brief overview of a conversation
type ConversationSummary struct {
	ID           string    `json:"id"`
	MessageCount int       `json:"messageCount"`
	FirstMessage string    `json:"firstMessage"`
	Summary      string    `json:"summary,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewConversationRecord creates a new conversation record. An empty id gets a
// generated one.
func NewConversationRecord(id string) ConversationRecord {
	if id == "" {
		id = GenerateID()
	}

	now := time.Now()
	return ConversationRecord{
		ID:             id,
		RawMessages:    json.RawMessage("[]"),
		FileLastAccess: make(map[string]time.Time),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ToSummary converts a ConversationRecord to a ConversationSummary
func (cr *ConversationRecord) ToSummary() ConversationSummary {
	return ConversationSummary{
		ID:           cr.ID,
		MessageCount: strings.Count(string(cr.RawMessages), `"role"`),
		FirstMessage: cr.firstUserMessage(),
		Summary:      cr.Summary,
		CreatedAt:    cr.CreatedAt,
		UpdatedAt:    cr.UpdatedAt,
	}
}

// firstUserMessage extracts the first user message text from the raw messages
func (cr *ConversationRecord) firstUserMessage() string {
	if len(cr.RawMessages) == 0 {
		return ""
	}

	var messages []map[string]any
	if err := json.Unmarshal(cr.RawMessages, &messages); err != nil {
		return ""
	}

	for _, msg := range messages {
		role, ok := msg["role"].(string)
		if !ok || role != "user" {
			continue
		}
		content, ok := msg["content"].([]any)
		if !ok || len(content) == 0 {
			continue
		}
		block, ok := content[0].(map[string]any)
		if !ok {
			continue
		}
		text, ok := block["text"].(string)
		if !ok {
			continue
		}
		if len(text) > 100 {
			text = text[:97] + "..."
		}
		return text
	}
	return ""
}
