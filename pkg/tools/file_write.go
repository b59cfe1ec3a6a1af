package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
	"github.com/hmarward/sidekick/pkg/utils"
)

// FileWriteToolResult represents the result of a file write operation
type FileWriteToolResult struct {
	filename string
	text     string
	err      string
}

func (r *FileWriteToolResult) GetResult() string {
	lines := strings.Split(r.text, "\n")
	textWithLineNumber := utils.ContentWithLineNumber(lines, 0)
	return fmt.Sprintf(`file %s has been written successfully

%s`, r.filename, textWithLineNumber)
}

func (r *FileWriteToolResult) GetError() string {
	return r.err
}

func (r *FileWriteToolResult) IsError() bool {
	return r.err != ""
}

func (r *FileWriteToolResult) AssistantFacing() string {
	var content string
	if !r.IsError() {
		content = r.GetResult()
	}
	return tooltypes.StringifyToolResult(content, r.GetError())
}

func (r *FileWriteToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "file_write",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.FileWriteMetadata{
		FilePath: r.filename,
		Content:  r.text,
		Size:     int64(len(r.text)),
		Language: utils.DetectLanguageFromPath(r.filename),
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

// FileWriteTool provides functionality to write files
type FileWriteTool struct{}

func (t *FileWriteTool) Name() string {
	return "file_write"
}

// FileWriteInput defines the input parameters for the file_write tool
type FileWriteInput struct {
	FilePath string `json:"file_path" jsonschema:"description=The path of the file to write,required"`
	Text     string `json:"text" jsonschema:"description=The text of the file MUST BE provided"`
}

func (t *FileWriteTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[FileWriteInput]()
}

func (t *FileWriteTool) Description() string {
	return `Writes a file with the given text. If the file already exists, its text will be overwritten by the new text.

This tool takes two parameters:
- file_path: The path of the file to write, inside the working directory
- text: The text to be written to the file. It must not be empty.

IMPORTANT: If you want to create an empty file, use the bash tool to run "touch" command instead of calling this tool.
IMPORTANT: If you are performing file overwrites, read the file using the file_read tool first to get the existing text.
Missing parent directories are created automatically.
By default the file is created with 0644 permissions. You can change the permissions by using the bash tool chmod command as a follow up.
`
}

func (t *FileWriteTool) ValidateInput(state tooltypes.State, parameters string) error {
	var input FileWriteInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}

	if input.Text == "" {
		return errors.New("text is required. run 'touch' command to create an empty file")
	}

	path, err := state.ValidatePath(input.FilePath)
	if err != nil {
		return err
	}

	// check if the file exists
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// if the file does not exist, we can create it
			return nil
		}
		return errors.Wrap(err, "failed to check the file status")
	}

	lastModified := info.ModTime()
	lastRead, err := state.GetFileLastAccessed(path)
	if err != nil {
		return errors.Wrap(err, "failed to get the last access time of the file")
	}

	if lastModified.After(lastRead) {
		return errors.Errorf("file %s has been modified since the last read either by another tool or by the user, please read the file again", path)
	}

	return nil
}

func (t *FileWriteTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &FileWriteInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("file_path", input.FilePath),
		attribute.Int("size", len(input.Text)),
	}, nil
}

func (t *FileWriteTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	var input FileWriteInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &FileWriteToolResult{
			filename: input.FilePath,
			err:      fmt.Sprintf("invalid input: %s", err.Error()),
		}
	}

	path, err := state.ValidatePath(input.FilePath)
	if err != nil {
		return &FileWriteToolResult{
			filename: input.FilePath,
			err:      err.Error(),
		}
	}

	state.LockFile(path)
	defer state.UnlockFile(path)

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &FileWriteToolResult{
				filename: path,
				err:      fmt.Sprintf("failed to create parent directory: %s", err.Error()),
			}
		}
	}

	if err := os.WriteFile(path, []byte(input.Text), 0o644); err != nil {
		return &FileWriteToolResult{
			filename: path,
			err:      fmt.Sprintf("failed to write the file: %s", err.Error()),
		}
	}

	state.SetFileLastAccessed(path, time.Now())

	return &FileWriteToolResult{
		filename: path,
		text:     input.Text,
	}
}
