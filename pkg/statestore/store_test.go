package statestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.Set("phase", "implementation"))
	require.NoError(t, store.Set("attempts", 3))

	value, ok, err := store.Get("phase")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "implementation", value)

	// JSON round-trips numbers as float64
	value, ok, err = store.Get("attempts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float64(3), value)

	_, ok, err = store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetOverwritesExistingKey(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.Set("phase", "one"))
	require.NoError(t, store.Set("phase", "two"))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"phase"}, keys)

	value, _, err := store.Get("phase")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}

func TestSetRejectsEmptyKey(t *testing.T) {
	store := New(t.TempDir())
	assert.Error(t, store.Set("", "value"))
	assert.Error(t, store.Set("   ", "value"))
}

func TestKeysSorted(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.Set("zebra", 1))
	require.NoError(t, store.Set("alpha", 2))
	require.NoError(t, store.Set("mango", 3))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mango", "zebra"}, keys)
}

func TestDeleteAndClear(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	require.NoError(t, store.Set("a", 1))
	require.NoError(t, store.Set("b", 2))

	require.NoError(t, store.Delete("a"))
	require.NoError(t, store.Delete("never-existed"))

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)

	require.NoError(t, store.Clear())
	keys, err = store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = os.Stat(filepath.Join(dir, ".sidekick", "state.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSetInstruction(t *testing.T) {
	store := New(t.TempDir())

	require.NoError(t, store.SetInstruction("finish the migration in db.go"))

	value, ok, err := store.Get(InstructionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "finish the migration in db.go", value)
}

func TestSetInstructionRejectsLoops(t *testing.T) {
	store := New(t.TempDir())

	assert.Error(t, store.SetInstruction("continue"))
	assert.Error(t, store.SetInstruction("  Restart "))
	assert.Error(t, store.SetInstruction("KEEP GOING"))
	assert.Error(t, store.SetInstruction(""))

	_, ok, err := store.Get(InstructionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsumeInstruction(t *testing.T) {
	store := New(t.TempDir())

	instruction, err := store.ConsumeInstruction()
	require.NoError(t, err)
	assert.Empty(t, instruction)

	require.NoError(t, store.SetInstruction("run the test suite and fix failures"))
	require.NoError(t, store.Set("phase", "testing"))

	instruction, err = store.ConsumeInstruction()
	require.NoError(t, err)
	assert.Equal(t, "run the test suite and fix failures", instruction)

	// Consumed: a second read is empty, other keys survive
	instruction, err = store.ConsumeInstruction()
	require.NoError(t, err)
	assert.Empty(t, instruction)

	_, ok, err := store.Get("phase")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCorruptStateFile(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("not json"), 0o644))

	_, _, err := store.Get("anything")
	assert.Error(t, err)
}
