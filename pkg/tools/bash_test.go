package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

func bashParams(t *testing.T, input BashInput) string {
	t.Helper()
	data, err := json.Marshal(input)
	require.NoError(t, err)
	return string(data)
}

func TestBashExecute(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool(nil, 0)

	result := tool.Execute(context.TODO(), state, bashParams(t, BashInput{
		Description: "print greeting",
		Command:     "echo hello",
	}))

	require.False(t, result.IsError(), result.GetError())
	assert.Contains(t, result.GetResult(), "hello")
	assert.Contains(t, result.AssistantFacing(), "<result>")
}

func TestBashExecuteRunsInWorkingDir(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool(nil, 0)

	result := tool.Execute(context.TODO(), state, bashParams(t, BashInput{
		Description: "print working directory",
		Command:     "pwd",
	}))

	require.False(t, result.IsError())
	assert.Contains(t, result.GetResult(), state.WorkingDir())
}

func TestBashExecuteExitCode(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool(nil, 0)

	result := tool.Execute(context.TODO(), state, bashParams(t, BashInput{
		Description: "fail on purpose",
		Command:     "echo before; exit 3",
	}))

	require.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "status 3")
	// Partial output survives the failure
	assert.Contains(t, result.GetResult(), "before")

	var meta tooltypes.BashMetadata
	require.True(t, tooltypes.ExtractMetadata(result.StructuredData().Metadata, &meta))
	assert.Equal(t, 3, meta.ExitCode)
}

func TestBashExecuteTimeout(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool(nil, 0)

	result := tool.Execute(context.TODO(), state, bashParams(t, BashInput{
		Description: "sleep past the timeout",
		Command:     "sleep 5",
		Timeout:     1,
	}))

	require.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "timed out after 1 seconds")
}

func TestBashValidateInput(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool(nil, 0)

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "no command",
	})))

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Command: "echo x",
	})))

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "too long",
		Command:     "echo x",
		Timeout:     MaxCommandTimeout + 1,
	})))

	assert.NoError(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "default timeout is fine",
		Command:     "echo x",
	})))
}

func TestBashBannedCommands(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool(nil, 0)

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "open editor",
		Command:     "vim file.go",
	})))

	// Banned commands hidden behind an operator are still caught
	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "sneaky editor",
		Command:     "echo hi && less file.go",
	})))
}

func TestBashAllowedCommands(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool([]string{"git *", "go test*"}, 0)

	assert.NoError(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "check status",
		Command:     "git status",
	})))

	assert.NoError(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "run tests",
		Command:     "go test ./...",
	})))

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "not allowed",
		Command:     "rm -rf /",
	})))

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "allowed then not allowed",
		Command:     "git status && rm -rf /",
	})))
}

func TestBashBannedCommandsBehindPipesAndNewlines(t *testing.T) {
	state := newTestState(t)
	tool := NewBashTool(nil, 0)

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "piped editor",
		Command:     "echo x | vim",
	})))

	assert.Error(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "editor on second line",
		Command:     "echo x\nvim file.go",
	})))

	// A plain pipeline of allowed commands still passes
	assert.NoError(t, tool.ValidateInput(state, bashParams(t, BashInput{
		Description: "count lines",
		Command:     "echo x | wc -l",
	})))
}

func TestTruncateOutput(t *testing.T) {
	short := "short output"
	assert.Equal(t, short, truncateOutput(short))

	long := make([]byte, MaxCommandOutputBytes+100)
	for i := range long {
		long[i] = 'x'
	}
	truncated := truncateOutput(string(long))
	assert.Less(t, len(truncated), len(long)+100)
	assert.Contains(t, truncated, "output truncated")
}
