package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentWithLineNumber(t *testing.T) {
	result := ContentWithLineNumber([]string{"a", "b", "c"}, 0)
	assert.Equal(t, "0: a\n1: b\n2: c\n", result)
}

func TestContentWithLineNumberPadding(t *testing.T) {
	lines := make([]string, 11)
	for i := range lines {
		lines[i] = "x"
	}
	result := ContentWithLineNumber(lines, 0)
	// Line numbers are right-aligned to the widest number
	assert.Contains(t, result, " 0: x\n")
	assert.Contains(t, result, "10: x\n")
}

func TestContentWithLineNumberOffset(t *testing.T) {
	result := ContentWithLineNumber([]string{"first"}, 42)
	assert.Equal(t, "42: first\n", result)
}

func TestContentWithLineNumberEmpty(t *testing.T) {
	assert.Equal(t, "", ContentWithLineNumber(nil, 0))
}

func TestIsBinaryFile(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "text.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello world\n"), 0o644))
	assert.False(t, IsBinaryFile(textPath))

	binPath := filepath.Join(dir, "bin.dat")
	require.NoError(t, os.WriteFile(binPath, []byte{0x00, 0x01, 0x02}, 0o644))
	assert.True(t, IsBinaryFile(binPath))

	assert.False(t, IsBinaryFile(filepath.Join(dir, "missing")))
}

func TestDetectLanguageFromPath(t *testing.T) {
	assert.Equal(t, "go", DetectLanguageFromPath("/tmp/main.go"))
	assert.Equal(t, "python", DetectLanguageFromPath("script.PY"))
	assert.Equal(t, "", DetectLanguageFromPath("Makefile"))
	assert.Equal(t, "", DetectLanguageFromPath("archive.zzz"))
}
