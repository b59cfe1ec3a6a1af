package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
	"github.com/hmarward/sidekick/pkg/utils"
)

type FileEditTool struct{}

func (t *FileEditTool) Name() string {
	return "file_edit"
}

type FileEditInput struct {
	FilePath string `json:"file_path" jsonschema:"description=The path of the file to edit"`
	OldText  string `json:"old_text" jsonschema:"description=The unique text to be replaced"`
	NewText  string `json:"new_text" jsonschema:"description=The text to replace the old text with"`
}

type FileEditToolResult struct {
	filename string
	oldText  string
	newText  string
	diff     string
	editLine int
	err      string
}

func (r *FileEditToolResult) GetResult() string {
	formatted := ""
	if r.newText != "" {
		formatted = utils.ContentWithLineNumber(strings.Split(r.newText, "\n"), r.editLine)
	}
	return fmt.Sprintf("File %s has been edited successfully\n\nEdited code block:\n%s", r.filename, formatted)
}

func (r *FileEditToolResult) GetError() string {
	return r.err
}

func (r *FileEditToolResult) IsError() bool {
	return r.err != ""
}

func (r *FileEditToolResult) AssistantFacing() string {
	var content string
	if !r.IsError() {
		content = r.GetResult()
	}
	return tooltypes.StringifyToolResult(content, r.err)
}

func (r *FileEditToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "file_edit",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.FileEditMetadata{
		FilePath: r.filename,
		Language: utils.DetectLanguageFromPath(r.filename),
		Diff:     r.diff,
		Edits: []tooltypes.Edit{
			{
				StartLine:  r.editLine,
				EndLine:    r.editLine + strings.Count(r.newText, "\n"),
				OldContent: r.oldText,
				NewContent: r.newText,
			},
		},
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

func (t *FileEditTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[FileEditInput]()
}

func (t *FileEditTool) Description() string {
	return `Edit a file by replacing the UNIQUE old text with the new text.

If you are creating a new file, use the "file_write" tool instead of this tool.

This tool takes three parameters:
- file_path: The path of the file to edit, inside the working directory
- old_text: The **UNIQUE** text to be replaced - The text must exactly match the text block in the file including the spaces and indentations.
- new_text: The text to replace the old text with

# RULES
## Read before editing
You must read the file using the "file_read" tool before making any edits.

## Unique text
The old text must be unique in the file. To ensure the uniqueness of the old text, make sure:
* Include the 3-5 lines BEFORE the block of text to be replaced.
* Include the 3-5 lines AFTER the block of text to be replaced.
* Any spaces and indentations must be honoured.

## Edit ONCE
!!! IMPORTANT !!! This tool will only edit one occurrence of the old text.

If you have multiple text blocks to be replaced, you can call this tool multiple times in a single message.
`
}

func (t *FileEditTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &FileEditInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("file_path", input.FilePath),
	}, nil
}

func (t *FileEditTool) ValidateInput(state tooltypes.State, parameters string) error {
	var input FileEditInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return errors.Wrap(err, "invalid input")
	}

	if input.OldText == "" {
		return errors.New("old_text is required")
	}
	if input.OldText == input.NewText {
		return errors.New("old_text and new_text are identical, nothing to edit")
	}

	path, err := state.ValidatePath(input.FilePath)
	if err != nil {
		return err
	}

	// check if the file exists
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("file %s does not exist, use the 'file_write' tool to create instead", path)
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

	// check if the old text is unique
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read the file")
	}

	if !strings.Contains(string(content), input.OldText) {
		return errors.New("old text not found in the file, please ensure the text exists")
	}

	occurrences := strings.Count(string(content), input.OldText)
	if occurrences > 1 {
		return errors.Errorf("old text appears %d times in the file, please ensure the old text is unique", occurrences)
	}

	return nil
}

// editStartLine returns the 1-indexed line where the replaced block begins.
func editStartLine(originalContent, oldText string) int {
	idx := strings.Index(originalContent, oldText)
	if idx < 0 {
		return 1
	}
	return strings.Count(originalContent[:idx], "\n") + 1
}

func (t *FileEditTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	var input FileEditInput
	if err := json.Unmarshal([]byte(parameters), &input); err != nil {
		return &FileEditToolResult{err: fmt.Sprintf("invalid input: %s", err)}
	}

	path, err := state.ValidatePath(input.FilePath)
	if err != nil {
		return &FileEditToolResult{filename: input.FilePath, err: err.Error()}
	}

	state.LockFile(path)
	defer state.UnlockFile(path)

	b, err := os.ReadFile(path)
	if err != nil {
		return &FileEditToolResult{
			filename: path,
			err:      fmt.Sprintf("failed to read the file: %s", err),
		}
	}

	originalContent := string(b)

	// Validated as present and unique, replace the single occurrence
	content := strings.Replace(originalContent, input.OldText, input.NewText, 1)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &FileEditToolResult{
			filename: path,
			err:      fmt.Sprintf("failed to write the file: %s", err),
		}
	}
	state.SetFileLastAccessed(path, time.Now())

	return &FileEditToolResult{
		filename: path,
		oldText:  input.OldText,
		newText:  input.NewText,
		diff:     udiff.Unified(path, path, originalContent, content),
		editLine: editStartLine(originalContent, input.OldText),
	}
}
