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

// PlanToolResult represents the result of a plan tool execution
type PlanToolResult struct {
	plan string
	err  string
}

func (r *PlanToolResult) GetResult() string {
	return "Your plan has been recorded."
}

func (r *PlanToolResult) GetError() string {
	return r.err
}

func (r *PlanToolResult) IsError() bool {
	return r.err != ""
}

func (r *PlanToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult("Your plan has been recorded.", r.err)
}

func (r *PlanToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "plan",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	if r.IsError() {
		result.Error = r.GetError()
		return result
	}

	result.Metadata = &tooltypes.PlanMetadata{
		Plan: r.plan,
	}

	return result
}

// PlanTool lets the model lay out a step-by-step plan before acting
type PlanTool struct{}

// PlanInput defines the input parameters for the plan tool
type PlanInput struct {
	Plan string `json:"plan" jsonschema:"description=The step-by-step plan for the task at hand"`
}

func (t *PlanTool) Name() string {
	return "plan"
}

func (t *PlanTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &PlanInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("plan", input.Plan),
	}, nil
}

func (t *PlanTool) ValidateInput(_ tooltypes.State, parameters string) error {
	var input PlanInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}

	if input.Plan == "" {
		return errors.New("plan is required")
	}

	return nil
}

func (t *PlanTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[PlanInput]()
}

func (t *PlanTool) Description() string {
	return `Use the tool to lay out a step-by-step plan before performing a complex task.

It will not obtain new information or change anything, but just record the plan. Use it when a task involves multiple steps or decisions.

# Common Use Cases
- Before a multi-file change, use this tool to list the files and the order of edits.
- When troubleshooting, use this tool to enumerate the hypotheses you will check.
- When a task has dependencies between steps, use this tool to lay out the order.
`
}

func (t *PlanTool) Execute(_ context.Context, _ tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &PlanInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return &PlanToolResult{
			err: err.Error(),
		}
	}

	return &PlanToolResult{
		plan: input.Plan,
	}
}
