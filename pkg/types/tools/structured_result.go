package tools

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/pkg/errors"
)

// StructuredToolResult represents a tool's execution result with structured metadata
type StructuredToolResult struct {
	ToolName  string       `json:"toolName"`
	Success   bool         `json:"success"`
	Error     string       `json:"error,omitempty"`
	Metadata  ToolMetadata `json:"metadata,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// rawStructuredToolResult is used for JSON marshaling/unmarshaling
type rawStructuredToolResult struct {
	ToolName     string          `json:"toolName"`
	Success      bool            `json:"success"`
	Error        string          `json:"error,omitempty"`
	MetadataType string          `json:"metadataType,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// MarshalJSON implements custom JSON marshaling for StructuredToolResult
func (s StructuredToolResult) MarshalJSON() ([]byte, error) {
	raw := rawStructuredToolResult{
		ToolName:  s.ToolName,
		Success:   s.Success,
		Error:     s.Error,
		Timestamp: s.Timestamp,
	}

	if s.Metadata != nil {
		raw.MetadataType = s.Metadata.ToolType()

		metadataBytes, err := json.Marshal(s.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal metadata")
		}
		raw.Metadata = metadataBytes
	}

	return json.Marshal(raw)
}

// metadataTypeRegistry maps metadata type strings to their corresponding Go types
var metadataTypeRegistry = map[string]reflect.Type{
	"file_read":  reflect.TypeOf(FileReadMetadata{}),
	"file_write": reflect.TypeOf(FileWriteMetadata{}),
	"file_edit":  reflect.TypeOf(FileEditMetadata{}),

	"bash":      reflect.TypeOf(BashMetadata{}),
	"web_fetch": reflect.TypeOf(WebFetchMetadata{}),

	"plan":    reflect.TypeOf(PlanMetadata{}),
	"clarify": reflect.TypeOf(ClarifyMetadata{}),
	"skill":   reflect.TypeOf(SkillMetadata{}),
	"state":   reflect.TypeOf(StateMetadata{}),
	"restart": reflect.TypeOf(RestartMetadata{}),
}

// UnmarshalJSON implements custom JSON unmarshaling for StructuredToolResult
func (s *StructuredToolResult) UnmarshalJSON(data []byte) error {
	var raw rawStructuredToolResult
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.ToolName = raw.ToolName
	s.Success = raw.Success
	s.Error = raw.Error
	s.Timestamp = raw.Timestamp

	if raw.MetadataType != "" && len(raw.Metadata) > 0 {
		metadataType, exists := metadataTypeRegistry[raw.MetadataType]
		if !exists {
			// Unknown metadata type, leave as nil
			return nil
		}

		metadataPtr := reflect.New(metadataType)
		if err := json.Unmarshal(raw.Metadata, metadataPtr.Interface()); err != nil {
			return errors.Wrapf(err, "failed to unmarshal metadata of type %s", raw.MetadataType)
		}

		s.Metadata = metadataPtr.Elem().Interface().(ToolMetadata)
	}

	return nil
}

// ToolMetadata is a marker interface for tool-specific metadata structures
type ToolMetadata interface {
	ToolType() string
}

// File operation metadata structures

type FileReadMetadata struct {
	FilePath       string   `json:"filePath"`
	Offset         int      `json:"offset"`
	LineLimit      int      `json:"lineLimit"`
	Lines          []string `json:"lines"`
	Language       string   `json:"language,omitempty"`
	Truncated      bool     `json:"truncated"`
	RemainingLines int      `json:"remainingLines,omitempty"`
}

func (m FileReadMetadata) ToolType() string { return "file_read" }

type FileWriteMetadata struct {
	FilePath string `json:"filePath"`
	Content  string `json:"content"`
	Size     int64  `json:"size"`
	Language string `json:"language,omitempty"`
}

func (m FileWriteMetadata) ToolType() string { return "file_write" }

type FileEditMetadata struct {
	FilePath string `json:"filePath"`
	Edits    []Edit `json:"edits"`
	Language string `json:"language,omitempty"`
	Diff     string `json:"diff,omitempty"`
}

type Edit struct {
	StartLine  int    `json:"startLine"`
	EndLine    int    `json:"endLine"`
	OldContent string `json:"oldContent"`
	NewContent string `json:"newContent"`
}

func (m FileEditMetadata) ToolType() string { return "file_edit" }

// Command execution metadata

type BashMetadata struct {
	Command       string        `json:"command"`
	ExitCode      int           `json:"exitCode"`
	Output        string        `json:"output"`
	ExecutionTime time.Duration `json:"executionTime"`
	WorkingDir    string        `json:"workingDir,omitempty"`
}

func (m BashMetadata) ToolType() string { return "bash" }

// Web fetch metadata

type WebFetchMetadata struct {
	URL           string `json:"url"`
	ContentType   string `json:"contentType"`
	Size          int64  `json:"size"`
	ProcessedType string `json:"processedType"` // "markdown" or "text"
	Content       string `json:"content"`
	Truncated     bool   `json:"truncated,omitempty"`
}

func (m WebFetchMetadata) ToolType() string { return "web_fetch" }

// Agent workflow metadata

type PlanMetadata struct {
	Plan string `json:"plan"`
}

func (m PlanMetadata) ToolType() string { return "plan" }

type ClarifyMetadata struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (m ClarifyMetadata) ToolType() string { return "clarify" }

type SkillMetadata struct {
	SkillName      string            `json:"skillName"`
	Directory      string            `json:"directory,omitempty"`
	Description    string            `json:"description,omitempty"`
	AllowedTools   []string          `json:"allowedTools,omitempty"`
	DefaultOptions map[string]string `json:"defaultOptions,omitempty"`
	Content        string            `json:"content"`
}

func (m SkillMetadata) ToolType() string { return "skill" }

// Restart state metadata

type StateMetadata struct {
	Action string   `json:"action"` // "set", "get" or "clear"
	Key    string   `json:"key,omitempty"`
	Value  string   `json:"value,omitempty"`
	Keys   []string `json:"keys,omitempty"`
}

func (m StateMetadata) ToolType() string { return "state" }

type RestartMetadata struct {
	Instruction string `json:"instruction,omitempty"`
}

func (m RestartMetadata) ToolType() string { return "restart" }

// ExtractMetadata is a helper that handles both pointer and value type assertions
// This is necessary because JSON unmarshaling creates value types, while
// direct creation uses pointer types
func ExtractMetadata(metadata ToolMetadata, target interface{}) bool {
	if metadata == nil {
		return false
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return false
	}

	targetElem := targetValue.Elem()
	metadataValue := reflect.ValueOf(metadata)

	if metadataValue.Kind() == reflect.Ptr && !metadataValue.IsNil() {
		metadataValue = metadataValue.Elem()
	}

	if targetElem.Type() != metadataValue.Type() {
		return false
	}

	targetElem.Set(metadataValue)
	return true
}
