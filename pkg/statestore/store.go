// Package statestore persists a flat key/value map to .sidekick/state.json in
// the working directory. The store survives process restarts, which lets an
// agent leave notes for its next incarnation, including a one-shot instruction
// consumed on startup.
package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// InstructionKey is the reserved key holding the instruction for the next run.
const InstructionKey = "last_instruction"

// loopInstructions are rejected by SetInstruction because storing them makes
// the agent restart forever.
var loopInstructions = map[string]bool{
	"continue":   true,
	"restart":    true,
	"keep going": true,
}

// Store is a file-backed key/value store. All operations read and rewrite the
// whole file under a lock; the map is small by construction.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store rooted at <workingDir>/.sidekick/state.json.
func New(workingDir string) *Store {
	return &Store{
		path: filepath.Join(workingDir, ".sidekick", "state.json"),
	}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, errors.Wrap(err, "failed to read state file")
	}

	state := map[string]any{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrapf(err, "state file %s is corrupt", s.path)
	}
	return state, nil
}

func (s *Store) save(state map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal state")
	}

	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary state file")
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return errors.Wrap(err, "failed to replace state file")
	}
	return nil
}

// Set stores a value under the given key, replacing any existing value.
func (s *Store) Set(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("key must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	state[key] = value
	return s.save(state)
}

// Get returns the value for the key and whether it was present.
func (s *Store) Get(key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, false, err
	}
	value, ok := state[key]
	return value, ok, nil
}

// Keys returns all stored keys in sorted order.
func (s *Store) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return err
	}
	delete(state, key)
	return s.save(state)
}

// Clear removes all stored state.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove state file")
	}
	return nil
}

// SetInstruction stores the instruction for the next run. Bare restart-loop
// phrases are rejected so a restart never schedules another restart.
func (s *Store) SetInstruction(instruction string) error {
	normalized := strings.ToLower(strings.TrimSpace(instruction))
	if normalized == "" {
		return errors.New("instruction must not be empty")
	}
	if loopInstructions[normalized] {
		return errors.Errorf("instruction %q would cause a restart loop; describe the actual task instead", instruction)
	}
	return s.Set(InstructionKey, instruction)
}

// ConsumeInstruction returns the stored instruction and removes it, so an
// instruction drives at most one run. Returns "" when none is stored.
func (s *Store) ConsumeInstruction() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load()
	if err != nil {
		return "", err
	}

	value, ok := state[InstructionKey]
	if !ok {
		return "", nil
	}

	delete(state, InstructionKey)
	if err := s.save(state); err != nil {
		return "", err
	}

	return fmt.Sprintf("%v", value), nil
}
