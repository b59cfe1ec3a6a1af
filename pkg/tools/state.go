package tools

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hmarward/sidekick/pkg/logger"
	"github.com/hmarward/sidekick/pkg/statestore"
	tooltypes "github.com/hmarward/sidekick/pkg/types/tools"
)

var _ tooltypes.State = &BasicState{}

// BasicState implements the State interface with basic functionality
type BasicState struct {
	lastAccessed map[string]time.Time
	mu           sync.RWMutex
	sessionID    string
	workingDir   string
	tools        []tooltypes.Tool

	restartStore     tooltypes.RestartStore
	restartRequested atomic.Bool

	// Per-file locking for atomic file operations
	fileLocks   map[string]*sync.Mutex
	fileLocksMu sync.Mutex
}

// BasicStateOption is a function that configures a BasicState
type BasicStateOption func(ctx context.Context, s *BasicState) error

// WithTools sets the tool set available to the session
func WithTools(tools []tooltypes.Tool) BasicStateOption {
	return func(_ context.Context, s *BasicState) error {
		s.tools = tools
		return nil
	}
}

// WithWorkingDir overrides the working directory used for path containment
func WithWorkingDir(dir string) BasicStateOption {
	return func(_ context.Context, s *BasicState) error {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return errors.Wrap(err, "failed to resolve working directory")
		}
		s.workingDir = abs
		return nil
	}
}

// WithRestartStore sets the restart-state store for the session
func WithRestartStore(store tooltypes.RestartStore) BasicStateOption {
	return func(_ context.Context, s *BasicState) error {
		s.restartStore = store
		return nil
	}
}

// NewBasicState creates a new BasicState with the given options
func NewBasicState(ctx context.Context, workingDir string, opts ...BasicStateOption) (*BasicState, error) {
	abs, err := filepath.Abs(workingDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve working directory")
	}

	state := &BasicState{
		lastAccessed: make(map[string]time.Time),
		sessionID:    uuid.New().String(),
		workingDir:   abs,
		fileLocks:    make(map[string]*sync.Mutex),
	}

	for _, opt := range opts {
		if err := opt(ctx, state); err != nil {
			return nil, err
		}
	}

	if state.restartStore == nil {
		state.restartStore = statestore.New(state.workingDir)
	}

	logger.G(ctx).WithField("session_id", state.sessionID).Debug("session state initialised")
	return state, nil
}

// SetFileLastAccessed records when a file was last read or written
func (s *BasicState) SetFileLastAccessed(path string, lastAccessed time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed[path] = lastAccessed
	return nil
}

// GetFileLastAccessed returns the recorded access time for a file.
// The zero time is returned for files that were never accessed.
func (s *BasicState) GetFileLastAccessed(path string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessed[path], nil
}

// ClearFileLastAccessed removes the access record for a file
func (s *BasicState) ClearFileLastAccessed(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastAccessed, path)
	return nil
}

// FileLastAccess returns a copy of the file access records
func (s *BasicState) FileLastAccess() map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make(map[string]time.Time, len(s.lastAccessed))
	for path, accessed := range s.lastAccessed {
		records[path] = accessed
	}
	return records
}

// SetFileLastAccess replaces the file access records, typically when
// resuming a persisted conversation
func (s *BasicState) SetFileLastAccess(fileLastAccess map[string]time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccessed = make(map[string]time.Time, len(fileLastAccess))
	for path, accessed := range fileLastAccess {
		s.lastAccessed[path] = accessed
	}
}

// LockFile acquires the per-file lock for atomic read-modify-write operations
func (s *BasicState) LockFile(path string) {
	s.fileLocksMu.Lock()
	lock, exists := s.fileLocks[path]
	if !exists {
		lock = &sync.Mutex{}
		s.fileLocks[path] = lock
	}
	s.fileLocksMu.Unlock()
	lock.Lock()
}

// UnlockFile releases the per-file lock
func (s *BasicState) UnlockFile(path string) {
	s.fileLocksMu.Lock()
	lock, exists := s.fileLocks[path]
	s.fileLocksMu.Unlock()
	if exists {
		lock.Unlock()
	}
}

// ValidatePath resolves a path against the working directory and rejects
// anything outside it. Relative paths are resolved from the working directory.
func (s *BasicState) ValidatePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("path must not be empty")
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(s.workingDir, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(s.workingDir, resolved)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve path %s", path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("path %s is outside the working directory %s", path, s.workingDir)
	}

	return resolved, nil
}

// WorkingDir returns the session working directory
func (s *BasicState) WorkingDir() string {
	return s.workingDir
}

// SessionID returns the unique session identifier
func (s *BasicState) SessionID() string {
	return s.sessionID
}

// Tools returns the tool set available to the session
func (s *BasicState) Tools() []tooltypes.Tool {
	return s.tools
}

// RestartState returns the restart-state store
func (s *BasicState) RestartState() tooltypes.RestartStore {
	return s.restartStore
}

// RequestRestart flags the session for re-exec after the current turn
func (s *BasicState) RequestRestart() {
	s.restartRequested.Store(true)
}

// RestartRequested reports whether a restart was requested
func (s *BasicState) RestartRequested() bool {
	return s.restartRequested.Load()
}
