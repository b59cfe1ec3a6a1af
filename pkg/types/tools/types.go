// Package tools defines the tool contract shared between the tool
// implementations and the LLM layer: the Tool and ToolResult interfaces, the
// session State interface, and structured result metadata.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
)

// Tool is the interface implemented by every callable tool.
type Tool interface {
	GenerateSchema() *jsonschema.Schema
	Name() string
	Description() string
	ValidateInput(state State, parameters string) error
	Execute(ctx context.Context, state State, parameters string) ToolResult
	TracingKVs(parameters string) ([]attribute.KeyValue, error)
}

// ToolResult is the interface implemented by tool execution results.
type ToolResult interface {
	GetResult() string
	GetError() string
	IsError() bool
	AssistantFacing() string
	StructuredData() StructuredToolResult
}

// StringifyToolResult renders a result/error pair in the envelope the
// assistant consumes. Errors come first so the model sees them even when a
// partial result is present.
func StringifyToolResult(result, err string) string {
	out := ""
	if err != "" {
		out = fmt.Sprintf(`<error>
%s
</error>
`, err)
	}
	if result == "" && err == "" {
		result = "(no content)"
	}
	if result != "" {
		out += fmt.Sprintf(`<result>
%s
</result>
`, result)
	}
	return out
}

// BaseToolResult is a plain result/error pair for tools that need no
// structured metadata.
type BaseToolResult struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r BaseToolResult) GetResult() string {
	return r.Result
}

func (r BaseToolResult) GetError() string {
	return r.Error
}

func (r BaseToolResult) IsError() bool {
	return r.Error != ""
}

func (r BaseToolResult) AssistantFacing() string {
	return StringifyToolResult(r.Result, r.Error)
}

func (r BaseToolResult) StructuredData() StructuredToolResult {
	return StructuredToolResult{
		Success:   !r.IsError(),
		Error:     r.Error,
		Timestamp: time.Now(),
	}
}

// RestartStore persists key/value state across process restarts.
type RestartStore interface {
	Set(key string, value any) error
	Get(key string) (any, bool, error)
	Keys() ([]string, error)
	Delete(key string) error
	Clear() error
	SetInstruction(instruction string) error
}

// State carries per-session state shared across tool executions.
type State interface {
	SetFileLastAccessed(path string, lastAccessed time.Time) error
	GetFileLastAccessed(path string) (time.Time, error)
	ClearFileLastAccessed(path string) error
	FileLastAccess() map[string]time.Time
	SetFileLastAccess(fileLastAccess map[string]time.Time)
	LockFile(path string)
	UnlockFile(path string)

	// ValidatePath resolves a path against the working directory and rejects
	// anything that escapes it.
	ValidatePath(path string) (string, error)
	WorkingDir() string
	SessionID() string
	Tools() []Tool

	RestartState() RestartStore
	RequestRestart()
	RestartRequested() bool
}
