package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
)

const (
	Dir                 = ".flatcfg"
	StateFile           = "state.json"
	CurrentStateVersion = "1"
)

// FileState tracks the last migration of a single legacy configuration.
type FileState struct {
	Hash      string    `json:"hash"`
	Syntax    string    `json:"syntax,omitempty"`
	Output    string    `json:"output,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StepState holds the key/value outputs published by one scanning stage.
type StepState struct {
	Outputs   map[string]string `json:"outputs"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// State is shared between the scan and migrate commands. It is safe for
// concurrent use.
type State struct {
	Version   string               `json:"version"`
	UpdatedAt time.Time            `json:"updated_at"`
	Files     map[string]FileState `json:"files"`
	Steps     map[string]StepState `json:"steps"`

	mu sync.RWMutex
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version: CurrentStateVersion,
		Files:   make(map[string]FileState),
		Steps:   make(map[string]StepState),
	}
}

// Load reads the state stored under root. A missing state file yields an
// empty state.
func Load(root string) (*State, error) {
	path := filepath.Join(root, Dir, StateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, errors.Errorf("failed to read state %s: %w", path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Errorf("failed to decode state %s: %w", path, err)
	}

	migrateState(&state)

	return &state, nil
}

// Save writes the state under root, creating the state directory.
func (s *State) Save(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}

	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, StateFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Errorf("failed to write state %s: %w", path, err)
	}
	return nil
}

// SetStepOutput publishes value under (stage, key).
func (s *State) SetStepOutput(stage, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	step, ok := s.Steps[stage]
	if !ok || step.Outputs == nil {
		step = StepState{Outputs: make(map[string]string)}
	}
	step.Outputs[key] = value
	step.UpdatedAt = time.Now()
	s.Steps[stage] = step
}

// StepOutput returns the value published under (stage, key).
func (s *State) StepOutput(stage, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.Steps[stage].Outputs[key]
	return value, ok
}

// ResetStep drops every output of stage so a new scan starts clean.
func (s *State) ResetStep(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Steps, stage)
}

// SetFile records the migration of a legacy configuration.
func (s *State) SetFile(path string, fs FileState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs.UpdatedAt = time.Now()
	s.Files[path] = fs
}

// GetFileHash returns the stored hash for a file
func (s *State) GetFileHash(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs, ok := s.Files[path]
	if !ok {
		return "", false
	}
	return fs.Hash, true
}

// HasChanged returns true if the file hash differs from stored
func (s *State) HasChanged(path, currentHash string) bool {
	storedHash, ok := s.GetFileHash(path)
	if !ok {
		return true
	}
	return storedHash != currentHash
}

// RemoveFile removes a file from state tracking
func (s *State) RemoveFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Files, path)
}

// DeletedFiles returns tracked files that no longer exist, sorted.
func (s *State) DeletedFiles(currentFiles map[string]bool) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deleted := make([]string, 0)
	for path := range s.Files {
		if !currentFiles[path] {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(deleted)
	return deleted
}

func migrateState(s *State) {
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	if s.Steps == nil {
		s.Steps = make(map[string]StepState)
	}
	for stage, step := range s.Steps {
		if step.Outputs == nil {
			step.Outputs = make(map[string]string)
			s.Steps[stage] = step
		}
	}

	switch s.Version {
	case "":
		s.Version = CurrentStateVersion
	case CurrentStateVersion:
		// no-op
	default:
		// Keep unknown versions untouched but ensure required maps are initialized.
	}
}
