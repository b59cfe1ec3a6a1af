package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

const (
	// DefaultCommandTimeout is applied when the model omits a timeout.
	DefaultCommandTimeout = 60
	// MaxCommandTimeout caps the timeout a command may request.
	MaxCommandTimeout = 300
	// MaxCommandOutputBytes caps the combined output returned to the model.
	MaxCommandOutputBytes = 30_000
)

// BannedCommands require interaction and would wedge the session.
var BannedCommands = []string{
	"vim",
	"vi",
	"nano",
	"view",
	"less",
	"more",
	"cd",
}

type BashTool struct {
	allowedCommands []string
	compiledGlobs   []glob.Glob
	defaultTimeout  int
}

// NewBashTool creates a bash tool. When allowedCommands is non-empty, only
// commands matching one of the glob patterns may run. A defaultTimeout of 0
// selects DefaultCommandTimeout.
func NewBashTool(allowedCommands []string, defaultTimeout int) *BashTool {
	globs := make([]glob.Glob, len(allowedCommands))
	for i, pattern := range allowedCommands {
		globs[i] = glob.MustCompile(pattern)
	}
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultCommandTimeout
	}
	return &BashTool{
		allowedCommands: allowedCommands,
		compiledGlobs:   globs,
		defaultTimeout:  defaultTimeout,
	}
}

// MatchesCommand checks if a command matches any of the compiled glob patterns
func (b *BashTool) MatchesCommand(command string) bool {
	for _, g := range b.compiledGlobs {
		if g.Match(command) {
			return true
		}
	}
	return false
}

type BashInput struct {
	Description string `json:"description" jsonschema:"description=A description of the command to run in 5-10 words"`
	Command     string `json:"command" jsonschema:"description=The bash command to run"`
	Timeout     int    `json:"timeout,omitempty" jsonschema:"description=The timeout for the command in seconds; omit for the 60 second default"`
}

func (b *BashTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[BashInput]()
}

func (b *BashTool) Name() string {
	return "bash"
}

func (b *BashTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &BashInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("command", input.Command),
		attribute.String("description", input.Description),
		attribute.Int("timeout", input.Timeout),
	}, nil
}

func (b *BashTool) ValidateInput(_ tooltypes.State, parameters string) error {
	input := &BashInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return err
	}

	if input.Command == "" {
		return errors.New("command is required")
	}

	if input.Description == "" {
		return errors.New("description is required")
	}

	if input.Timeout < 0 || input.Timeout > MaxCommandTimeout {
		return errors.Errorf("timeout must be between 0 and %d seconds", MaxCommandTimeout)
	}

	validateCommand := func(command string) error {
		command = strings.TrimSpace(command)
		if command == "" {
			return nil
		}

		firstWord := strings.Split(command, " ")[0]

		if len(b.allowedCommands) > 0 {
			if !b.MatchesCommand(command) {
				return errors.Errorf("command not in allowed list: %s", command)
			}
			return nil
		}

		if slices.Contains(BannedCommands, firstWord) {
			return errors.New("command is banned: " + firstWord)
		}
		return nil
	}

	// Split by all operators and validate each command. "||" must be
	// split before single pipes.
	operators := []string{"&&", "||", ";", "|", "\n"}
	commands := []string{input.Command}

	for _, op := range operators {
		var next []string
		for _, cmd := range commands {
			next = append(next, strings.Split(cmd, op)...)
		}
		commands = next
	}

	for _, command := range commands {
		if err := validateCommand(command); err != nil {
			return err
		}
	}

	return nil
}

func (b *BashTool) Description() string {
	desc := `Executes a given bash command with a timeout.

# Important
* The command argument is required.
* The timeout defaults to 60 seconds and is capped at 300 seconds.
* Please provide a clear and concise description of what this command does in 5-10 words.
* If the output exceeds 30000 characters, output will be truncated before being returned to you.
* You **MUST NOT** run commands that require user interaction.
* When issuing multiple commands, use the ';' or '&&' operator to separate them. Command MUST NOT be multiline.
* Avoid using cd directly; use absolute paths, or wrap cd in parentheses if you must.
* DO NOT use heredoc. For any command that requires heredoc, use the "file_write" tool instead.

# Examples
<good-example>
pytest /foo/bar/tests
</good-example>

<bad-example>
cd /foo/bar && pytest tests
<reasoning>
Using cd directly changes the current working directory.
</reasoning>
</bad-example>

<good-example>
(cd /foo/bar && pytest tests)
</good-example>

<bad-example>
tail -f /var/log/nginx/access.log
<reasoning>
The command runs in interactive mode.
</reasoning>
</bad-example>
`
	if len(b.allowedCommands) > 0 {
		desc += fmt.Sprintf(`
# Allowed Commands
Only commands matching the following patterns may run:
%s
`, strings.Join(b.allowedCommands, "\n"))
	}
	return desc
}

type BashToolResult struct {
	command        string
	combinedOutput string
	exitCode       int
	executionTime  time.Duration
	error          string
}

func (r *BashToolResult) GetResult() string {
	return r.combinedOutput
}

func (r *BashToolResult) GetError() string {
	return r.error
}

func (r *BashToolResult) IsError() bool {
	return r.error != ""
}

func (r *BashToolResult) AssistantFacing() string {
	return tooltypes.StringifyToolResult(r.combinedOutput, r.GetError())
}

func (r *BashToolResult) UserFacing() string {
	buf := bytes.NewBufferString(fmt.Sprintf("Command: %s\n", r.command))

	if r.combinedOutput == "" {
		buf.WriteString("(no output)")
	} else {
		buf.WriteString(r.combinedOutput)
	}

	if r.IsError() {
		buf.WriteString("\nError: " + r.GetError())
	}

	return buf.String()
}

func (r *BashToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "bash",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.BashMetadata{
		Command:       r.command,
		ExitCode:      r.exitCode,
		Output:        r.combinedOutput,
		ExecutionTime: r.executionTime,
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

func (b *BashTool) Execute(ctx context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &BashInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return &BashToolResult{
			command: input.Command,
			error:   err.Error(),
		}
	}

	timeout := input.Timeout
	if timeout == 0 {
		timeout = b.defaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, "bash", "-c", input.Command)
	cmd.Dir = state.WorkingDir()

	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)
	truncated := truncateOutput(string(output))

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &BashToolResult{
				command:        input.Command,
				combinedOutput: truncated,
				exitCode:       -1,
				executionTime:  elapsed,
				error:          "Command timed out after " + strconv.Itoa(timeout) + " seconds",
			}
		}
		if status, ok := err.(*exec.ExitError); ok {
			return &BashToolResult{
				command:        input.Command,
				combinedOutput: truncated,
				exitCode:       status.ExitCode(),
				executionTime:  elapsed,
				error:          fmt.Sprintf("Command exited with status %d", status.ExitCode()),
			}
		}
		return &BashToolResult{
			command:       input.Command,
			executionTime: elapsed,
			error:         err.Error(),
		}
	}

	return &BashToolResult{
		command:        input.Command,
		combinedOutput: truncated,
		executionTime:  elapsed,
	}
}

func truncateOutput(output string) string {
	if len(output) <= MaxCommandOutputBytes {
		return output
	}
	return output[:MaxCommandOutputBytes] + fmt.Sprintf("\n\n... [output truncated at %d bytes]", MaxCommandOutputBytes)
}
