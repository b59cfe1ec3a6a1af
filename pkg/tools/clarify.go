package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// ClarifyToolResult represents the result of asking the user a question
type ClarifyToolResult struct {
	question string
	answer   string
	err      string
}

func (r *ClarifyToolResult) GetResult() string {
	return fmt.Sprintf("The user answered: %s", r.answer)
}

func (r *ClarifyToolResult) GetError() string {
	return r.err
}

func (r *ClarifyToolResult) IsError() bool {
	return r.err != ""
}

func (r *ClarifyToolResult) AssistantFacing() string {
	var content string
	if !r.IsError() {
		content = r.GetResult()
	}
	return tooltypes.StringifyToolResult(content, r.err)
}

func (r *ClarifyToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "clarify",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.ClarifyMetadata{
		Question: r.question,
		Answer:   r.answer,
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

// ClarifyTool pauses the turn and asks the user a question. The prompter is
// injected so the tool stays independent of how input is gathered.
type ClarifyTool struct {
	prompter ClarifyPrompter
}

// NewClarifyTool creates a clarify tool with the given prompter
func NewClarifyTool(prompter ClarifyPrompter) *ClarifyTool {
	return &ClarifyTool{prompter: prompter}
}

// ClarifyInput defines the input parameters for the clarify tool
type ClarifyInput struct {
	Question string `json:"question" jsonschema:"description=The question to ask the user"`
}

func (t *ClarifyTool) Name() string {
	return "clarify"
}

func (t *ClarifyTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[ClarifyInput]()
}

func (t *ClarifyTool) Description() string {
	return `Ask the user a clarifying question and wait for their answer.

Use this tool when the task is ambiguous and proceeding on a guess would waste work. Ask one specific question at a time.

Do NOT use this tool for questions you can answer yourself by reading files or running commands.
`
}

func (t *ClarifyTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &ClarifyInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("question", input.Question),
	}, nil
}

func (t *ClarifyTool) ValidateInput(_ tooltypes.State, parameters string) error {
	var input ClarifyInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}

	if input.Question == "" {
		return errors.New("question is required")
	}

	if t.prompter == nil {
		return errors.New("clarify is not available in non-interactive mode")
	}

	return nil
}

func (t *ClarifyTool) Execute(_ context.Context, _ tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &ClarifyInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return &ClarifyToolResult{err: err.Error()}
	}

	answer, err := t.prompter(input.Question)
	if err != nil {
		return &ClarifyToolResult{
			question: input.Question,
			err:      fmt.Sprintf("failed to get an answer: %s", err),
		}
	}

	return &ClarifyToolResult{
		question: input.Question,
		answer:   answer,
	}
}
