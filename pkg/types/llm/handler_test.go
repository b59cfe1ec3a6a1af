package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringCollectorHandler(t *testing.T) {
	handler := &StringCollectorHandler{Silent: true}

	handler.HandleText("first")
	handler.HandleToolUse("bash", `{"command":"ls"}`)
	handler.HandleToolResult("bash", "output")
	handler.HandleText("second")
	handler.HandleDone()

	assert.Equal(t, "first\nsecond\n", handler.CollectedText())
}

func TestChannelMessageHandler(t *testing.T) {
	ch := make(chan MessageEvent, 4)
	handler := &ChannelMessageHandler{MessageCh: ch}

	handler.HandleText("hello")
	handler.HandleToolUse("file_read", `{"file_path":"/tmp/x"}`)
	handler.HandleDone()
	close(ch)

	var events []MessageEvent
	for ev := range ch {
		events = append(events, ev)
	}

	assert.Len(t, events, 3)
	assert.Equal(t, EventTypeText, events[0].Type)
	assert.Equal(t, "hello", events[0].Content)
	assert.Equal(t, EventTypeToolUse, events[1].Type)
	assert.True(t, events[2].Done)
}

func TestUsageTotals(t *testing.T) {
	usage := Usage{
		InputTokens:              100,
		OutputTokens:             50,
		CacheCreationInputTokens: 10,
		CacheReadInputTokens:     5,
		InputCost:                0.1,
		OutputCost:               0.2,
		CacheCreationCost:        0.01,
		CacheReadCost:            0.005,
		CurrentContextWindow:     160000,
		MaxContextWindow:         200000,
	}

	assert.Equal(t, 165, usage.TotalTokens())
	assert.InDelta(t, 0.315, usage.TotalCost(), 1e-9)
	assert.InDelta(t, 0.8, usage.ContextUtilization(), 1e-9)

	empty := Usage{}
	assert.Zero(t, empty.ContextUtilization())
}
