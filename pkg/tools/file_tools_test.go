package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

func marshalInput(t *testing.T, input any) string {
	t.Helper()
	data, err := json.Marshal(input)
	require.NoError(t, err)
	return string(data)
}

func TestFileWriteAndRead(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "hello.go")

	writeTool := &FileWriteTool{}
	params := marshalInput(t, FileWriteInput{FilePath: path, Text: "package main\n\nfunc main() {}\n"})
	require.NoError(t, writeTool.ValidateInput(state, params))

	result := writeTool.Execute(context.TODO(), state, params)
	require.False(t, result.IsError(), result.GetError())
	assert.Contains(t, result.GetResult(), "written successfully")

	readTool := &FileReadTool{}
	readParams := marshalInput(t, FileReadInput{FilePath: path})
	require.NoError(t, readTool.ValidateInput(state, readParams))

	readResult := readTool.Execute(context.TODO(), state, readParams)
	require.False(t, readResult.IsError(), readResult.GetError())
	assert.Contains(t, readResult.GetResult(), "0: package main")

	var meta tooltypes.FileReadMetadata
	require.True(t, tooltypes.ExtractMetadata(readResult.StructuredData().Metadata, &meta))
	assert.Equal(t, "go", meta.Language)
	assert.False(t, meta.Truncated)
}

func TestFileWriteCreatesParentDirs(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "deep", "nested", "file.txt")

	tool := &FileWriteTool{}
	result := tool.Execute(context.TODO(), state, marshalInput(t, FileWriteInput{
		FilePath: path,
		Text:     "content\n",
	}))

	require.False(t, result.IsError(), result.GetError())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content\n", string(data))
}

func TestFileWriteRejectsOutsideWorkingDir(t *testing.T) {
	state := newTestState(t)
	tool := &FileWriteTool{}

	err := tool.ValidateInput(state, marshalInput(t, FileWriteInput{
		FilePath: "/tmp/outside.txt",
		Text:     "nope",
	}))
	assert.Error(t, err)

	err = tool.ValidateInput(state, marshalInput(t, FileWriteInput{
		FilePath: "../escape.txt",
		Text:     "nope",
	}))
	assert.Error(t, err)
}

func TestFileWriteStaleReadGuard(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "guarded.txt")
	require.NoError(t, os.WriteFile(path, []byte("original\n"), 0o644))

	tool := &FileWriteTool{}
	params := marshalInput(t, FileWriteInput{FilePath: path, Text: "updated\n"})

	// Never read: the write is rejected
	err := tool.ValidateInput(state, params)
	assert.Error(t, err)

	// After recording a read, the write passes
	require.NoError(t, state.SetFileLastAccessed(path, time.Now().Add(time.Second)))
	assert.NoError(t, tool.ValidateInput(state, params))

	// External modification after the read is caught
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	assert.Error(t, tool.ValidateInput(state, params))
}

func TestFileReadOffsetAndLimit(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\nd\ne\n"), 0o644))

	tool := &FileReadTool{}
	result := tool.Execute(context.TODO(), state, marshalInput(t, FileReadInput{
		FilePath:  path,
		Offset:    2,
		LineLimit: 2,
	}))

	require.False(t, result.IsError(), result.GetError())
	assert.Contains(t, result.GetResult(), "2: c")
	assert.Contains(t, result.GetResult(), "3: d")
	assert.NotContains(t, result.GetResult(), "4: e")
	assert.Contains(t, result.GetResult(), "truncated")
}

func TestFileReadOffsetPastEnd(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "short.txt")
	require.NoError(t, os.WriteFile(path, []byte("only\n"), 0o644))

	tool := &FileReadTool{}
	result := tool.Execute(context.TODO(), state, marshalInput(t, FileReadInput{
		FilePath: path,
		Offset:   10,
	}))

	require.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "less than the requested offset")
}

func TestFileReadRejectsBinary(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "blob.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02, 0x03}, 0o644))

	tool := &FileReadTool{}
	result := tool.Execute(context.TODO(), state, marshalInput(t, FileReadInput{FilePath: path}))

	require.True(t, result.IsError())
	assert.Contains(t, result.GetError(), "binary")
}

func TestFileEdit(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "edit.go")
	content := "package main\n\nfunc old() {}\n\nfunc keep() {}\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, state.SetFileLastAccessed(path, time.Now().Add(time.Second)))

	tool := &FileEditTool{}
	params := marshalInput(t, FileEditInput{
		FilePath: path,
		OldText:  "func old() {}",
		NewText:  "func renamed() {}",
	})

	require.NoError(t, tool.ValidateInput(state, params))
	result := tool.Execute(context.TODO(), state, params)
	require.False(t, result.IsError(), result.GetError())

	updated, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(updated), "func renamed() {}")
	assert.NotContains(t, string(updated), "func old() {}")

	var meta tooltypes.FileEditMetadata
	require.True(t, tooltypes.ExtractMetadata(result.StructuredData().Metadata, &meta))
	assert.Contains(t, meta.Diff, "-func old() {}")
	assert.Contains(t, meta.Diff, "+func renamed() {}")
	require.Len(t, meta.Edits, 1)
	assert.Equal(t, 3, meta.Edits[0].StartLine)
}

func TestFileEditUniquenessChecks(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "dup.txt")
	require.NoError(t, os.WriteFile(path, []byte("same\nother\nsame\n"), 0o644))
	require.NoError(t, state.SetFileLastAccessed(path, time.Now().Add(time.Second)))

	tool := &FileEditTool{}

	// Duplicate old text
	err := tool.ValidateInput(state, marshalInput(t, FileEditInput{
		FilePath: path,
		OldText:  "same",
		NewText:  "changed",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 times")

	// Missing old text
	err = tool.ValidateInput(state, marshalInput(t, FileEditInput{
		FilePath: path,
		OldText:  "absent",
		NewText:  "changed",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFileEditRequiresReadFirst(t *testing.T) {
	state := newTestState(t)
	path := filepath.Join(state.WorkingDir(), "unread.txt")
	require.NoError(t, os.WriteFile(path, []byte("text\n"), 0o644))

	tool := &FileEditTool{}
	err := tool.ValidateInput(state, marshalInput(t, FileEditInput{
		FilePath: path,
		OldText:  "text",
		NewText:  "new text",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read the file again")
}

func TestFileEditMissingFile(t *testing.T) {
	state := newTestState(t)

	tool := &FileEditTool{}
	err := tool.ValidateInput(state, marshalInput(t, FileEditInput{
		FilePath: filepath.Join(state.WorkingDir(), "missing.txt"),
		OldText:  "x",
		NewText:  "y",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
