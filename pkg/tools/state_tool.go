package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

// StateToolResult is shared by the state_set/state_get/state_clear tools
type StateToolResult struct {
	action string
	key    string
	value  string
	keys   []string
	result string
	err    string
}

func (r *StateToolResult) GetResult() string {
	return r.result
}

func (r *StateToolResult) GetError() string {
	return r.err
}

func (r *StateToolResult) IsError() bool {
	return r.err != ""
}

func (r *StateToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.result, r.err)
}

func (r *StateToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "state_" + r.action,
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.StateMetadata{
		Action: r.action,
		Key:    r.key,
		Value:  r.value,
		Keys:   r.keys,
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

// StateSetTool stores a value in the restart state
type StateSetTool struct{}

type StateSetInput struct {
	Key   string `json:"key" jsonschema:"description=The key to store the value under"`
	Value string `json:"value" jsonschema:"description=The value to store"`
}

func (t *StateSetTool) Name() string {
	return "state_set"
}

func (t *StateSetTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[StateSetInput]()
}

func (t *StateSetTool) Description() string {
	return `Store a key/value pair in the restart state.

The restart state survives process restarts and conversation resets. Use it to leave notes for a future run: progress markers, decisions made, or context that must not be lost.

Setting an existing key overwrites its value.
`
}

func (t *StateSetTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input StateSetInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("key", input.Key),
	}, nil
}

func (t *StateSetTool) ValidateInput(_ tooltypes.State, parameters string) error {
	var input StateSetInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}

	if strings.TrimSpace(input.Key) == "" {
		return errors.New("key is required")
	}
	if input.Value == "" {
		return errors.New("value is required")
	}

	return nil
}

func (t *StateSetTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	var input StateSetInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &StateToolResult{action: "set", err: err.Error()}
	}

	if err := state.RestartState().Set(input.Key, input.Value); err != nil {
		return &StateToolResult{action: "set", key: input.Key, err: err.Error()}
	}

	return &StateToolResult{
		action: "set",
		key:    input.Key,
		value:  input.Value,
		result: fmt.Sprintf("stored %q", input.Key),
	}
}

// StateGetTool reads values from the restart state
type StateGetTool struct{}

type StateGetInput struct {
	Key string `json:"key,omitempty" jsonschema:"description=The key to read; omit to list all stored keys"`
}

func (t *StateGetTool) Name() string {
	return "state_get"
}

func (t *StateGetTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[StateGetInput]()
}

func (t *StateGetTool) Description() string {
	return `Read a value from the restart state.

Pass a key to read its value. Omit the key to list all stored keys.
`
}

func (t *StateGetTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input StateGetInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("key", input.Key),
	}, nil
}

func (t *StateGetTool) ValidateInput(_ tooltypes.State, parameters string) error {
	var input StateGetInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	return nil
}

func (t *StateGetTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	var input StateGetInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &StateToolResult{action: "get", err: err.Error()}
	}

	store := state.RestartState()

	if input.Key == "" {
		keys, err := store.Keys()
		if err != nil {
			return &StateToolResult{action: "get", err: err.Error()}
		}
		if len(keys) == 0 {
			return &StateToolResult{action: "get", result: "no state stored"}
		}
		return &StateToolResult{
			action: "get",
			keys:   keys,
			result: "stored keys:\n" + strings.Join(keys, "\n"),
		}
	}

	value, ok, err := store.Get(input.Key)
	if err != nil {
		return &StateToolResult{action: "get", key: input.Key, err: err.Error()}
	}
	if !ok {
		return &StateToolResult{
			action: "get",
			key:    input.Key,
			err:    fmt.Sprintf("key %q not found", input.Key),
		}
	}

	rendered := fmt.Sprintf("%v", value)
	return &StateToolResult{
		action: "get",
		key:    input.Key,
		value:  rendered,
		result: rendered,
	}
}

// StateClearTool removes keys from the restart state
type StateClearTool struct{}

type StateClearInput struct {
	Key string `json:"key,omitempty" jsonschema:"description=The key to remove; omit to clear all state"`
}

func (t *StateClearTool) Name() string {
	return "state_clear"
}

func (t *StateClearTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[StateClearInput]()
}

func (t *StateClearTool) Description() string {
	return `Remove entries from the restart state.

Pass a key to remove that entry. Omit the key to clear all stored state.
`
}

func (t *StateClearTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	var input StateClearInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("key", input.Key),
	}, nil
}

func (t *StateClearTool) ValidateInput(_ tooltypes.State, parameters string) error {
	var input StateClearInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}
	return nil
}

func (t *StateClearTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	var input StateClearInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &StateToolResult{action: "clear", err: err.Error()}
	}

	store := state.RestartState()

	if input.Key == "" {
		if err := store.Clear(); err != nil {
			return &StateToolResult{action: "clear", err: err.Error()}
		}
		return &StateToolResult{action: "clear", result: "all state cleared"}
	}

	if err := store.Delete(input.Key); err != nil {
		return &StateToolResult{action: "clear", key: input.Key, err: err.Error()}
	}

	return &StateToolResult{
		action: "clear",
		key:    input.Key,
		result: fmt.Sprintf("removed %q", input.Key),
	}
}
