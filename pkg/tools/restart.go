package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// RestartToolResult represents the result of scheduling a restart
type RestartToolResult struct {
	instruction string
	err         string
}

func (r *RestartToolResult) GetResult() string {
	if r.instruction != "" {
		return "Restart scheduled. The stored instruction will be submitted automatically on the next run."
	}
	return "Restart scheduled."
}

func (r *RestartToolResult) GetError() string {
	return r.err
}

func (r *RestartToolResult) IsError() bool {
	return r.err != ""
}

func (r *RestartToolResult) AssistantFacing() string {
	var content string
	if !r.IsError() {
		content = r.GetResult()
	}
	return tooltypes.StringifyToolResult(content, r.err)
}

func (r *RestartToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "restart",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.RestartMetadata{
		Instruction: r.instruction,
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

// RestartTool flags the session for re-exec after the current turn. The CLI
// performs the actual restart; the tool only records intent and optionally
// stores an instruction for the next run.
type RestartTool struct{}

// RestartInput defines the input parameters for the restart tool
type RestartInput struct {
	Instruction string `json:"instruction,omitempty" jsonschema:"description=A concrete instruction for the next run; omit to restart without one"`
}

func (t *RestartTool) Name() string {
	return "restart"
}

func (t *RestartTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[RestartInput]()
}

func (t *RestartTool) Description() string {
	return `Restart the agent process after the current turn completes.

Use this when the session has accumulated state that a fresh process would fix, or when a long task is best continued by a new run.

An optional instruction can be stored; it will be submitted automatically as the first message of the next run. The instruction must describe the actual task. Bare phrases like "continue" are rejected because they cause restart loops.

Before restarting, store any progress worth keeping via state_set.
`
}

func (t *RestartTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input RestartInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("instruction", input.Instruction),
	}, nil
}

func (t *RestartTool) ValidateInput(_ tooltypes.State, parameters string) error {
	var input RestartInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	return nil
}

func (t *RestartTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	var input RestartInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &RestartToolResult{err: err.Error()}
	}

	if input.Instruction != "" {
		if err := state.RestartState().SetInstruction(input.Instruction); err != nil {
			return &RestartToolResult{err: err.Error()}
		}
	}

	state.RequestRestart()

	return &RestartToolResult{instruction: input.Instruction}
}
