package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
	"github.com/hmarward/sidekick/pkg/utils"
)

const (
	// MaxOutputBytes caps file content returned to the model.
	MaxOutputBytes = 100_000 // 100KB
	// MaxReadLines caps the number of lines returned in one call.
	MaxReadLines = 2000
)

type FileReadTool struct{}

type FileReadInput struct {
	FilePath  string `json:"file_path" jsonschema:"description=The path of the file to read"`
	Offset    int    `json:"offset,omitempty" jsonschema:"description=The 0-indexed line number to start reading from,default=0"`
	LineLimit int    `json:"line_limit,omitempty" jsonschema:"description=The maximum number of lines to read,default=2000"`
}

type FileReadToolResult struct {
	filename       string
	lines          []string
	offset         int
	lineLimit      int
	remainingLines int
	truncated      bool
	err            string
}

func (r *FileReadToolResult) GetResult() string {
	result := utils.ContentWithLineNumber(r.lines, r.offset)
	if r.truncated {
		result += fmt.Sprintf("\n\n... [truncated, %d lines remaining; read again with offset=%d]",
			r.remainingLines, r.offset+len(r.lines))
	}
	return result
}

func (r *FileReadToolResult) GetError() string {
	return r.err
}

func (r *FileReadToolResult) IsError() bool {
	return r.err != ""
}

func (r *FileReadToolResult) AssistantFacing() string {
	var content string
	if !r.IsError() {
		content = r.GetResult()
	}
	return tooltypes.StringifyToolResult(content, r.err)
}

func (r *FileReadToolResult) StructuredData() tooltypes.StructuredToolResult {
	result := tooltypes.StructuredToolResult{
		ToolName:  "file_read",
		Success:   !r.IsError(),
		Timestamp: time.Now(),
	}

	result.Metadata = &tooltypes.FileReadMetadata{
		FilePath:       r.filename,
		Offset:         r.offset,
		LineLimit:      r.lineLimit,
		Lines:          r.lines,
		Language:       utils.DetectLanguageFromPath(r.filename),
		Truncated:      r.truncated,
		RemainingLines: r.remainingLines,
	}

	if r.IsError() {
		result.Error = r.GetError()
	}

	return result
}

func (t *FileReadTool) GenerateSchema() *jsonschema.Schema {
	return GenerateSchema[FileReadInput]()
}

func (t *FileReadTool) Name() string {
	return "file_read"
}

func (t *FileReadTool) Description() string {
	return `Reads a file and returns its contents with line numbers.

This tool takes three parameters:
- file_path: The path of the file to read, inside the working directory
- offset: The 0-indexed line number to start reading from (default: 0)
- line_limit: The maximum number of lines to read (default: 2000)

Non-zero offset is recommended for the purpose of reading large files.

The result will include line numbers padded appropriately, followed by the content of each line.
Example:

---

  0: def hello():
  1:    print("Hello world")
...
100:  print(hello)

---
`
}

func (t *FileReadTool) TracingKVs(parameters string) ([]attribute.KeyValue, error) {
	input := &FileReadInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return nil, err
	}

	return []attribute.KeyValue{
		attribute.String("file_path", input.FilePath),
		attribute.Int("offset", input.Offset),
		attribute.Int("line_limit", input.LineLimit),
	}, nil
}

func (t *FileReadTool) ValidateInput(state tooltypes.State, parameters string) error {
	input := &FileReadInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return err
	}

	if input.FilePath == "" {
		return errors.New("file_path is required")
	}

	if input.Offset < 0 {
		return errors.New("offset must be a non-negative integer")
	}

	if input.LineLimit < 0 {
		return errors.New("line_limit must be a non-negative integer")
	}

	if _, err := state.ValidatePath(input.FilePath); err != nil {
		return err
	}

	return nil
}

func (t *FileReadTool) Execute(_ context.Context, state tooltypes.State, parameters string) tooltypes.ToolResult {
	input := &FileReadInput{}
	err := json.Unmarshal([]byte(parameters), input)
	if err != nil {
		return &FileReadToolResult{err: err.Error()}
	}

	path, err := state.ValidatePath(input.FilePath)
	if err != nil {
		return &FileReadToolResult{filename: input.FilePath, err: err.Error()}
	}

	lineLimit := input.LineLimit
	if lineLimit == 0 || lineLimit > MaxReadLines {
		lineLimit = MaxReadLines
	}

	if utils.IsBinaryFile(path) {
		return &FileReadToolResult{
			filename: path,
			err:      fmt.Sprintf("file %s appears to be binary and cannot be read as text", path),
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return &FileReadToolResult{
			filename: path,
			err:      fmt.Sprintf("failed to open file: %s", err.Error()),
		}
	}
	defer file.Close()

	state.SetFileLastAccessed(path, time.Now())

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxOutputBytes)

	lineCount := 0
	for lineCount < input.Offset && scanner.Scan() {
		lineCount++
	}

	if lineCount < input.Offset {
		return &FileReadToolResult{
			filename: path,
			err:      fmt.Sprintf("file has only %d lines, which is less than the requested offset %d", lineCount, input.Offset),
		}
	}

	var lines []string
	bytesRead := 0
	truncated := false
	remaining := 0
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) >= lineLimit || bytesRead+len(line) > MaxOutputBytes {
			truncated = true
			remaining++
			continue
		}
		lines = append(lines, line)
		bytesRead += len(line) + 1
	}

	if err := scanner.Err(); err != nil {
		return &FileReadToolResult{
			filename: path,
			err:      fmt.Sprintf("error reading file: %s", err.Error()),
		}
	}

	return &FileReadToolResult{
		filename:       path,
		lines:          lines,
		offset:         input.Offset,
		lineLimit:      lineLimit,
		truncated:      truncated,
		remainingLines: remaining,
	}
}
