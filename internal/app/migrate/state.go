package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmshift/vmshift/internal/domain/migration"
)

// Run is the persisted record of one migration run. Records are
// observational: a failed run cannot be resumed, only inspected.
type Run struct {
	ID        string             `json:"id"`
	SourceID  string             `json:"source_id"`
	Target    migration.Target   `json:"target"`
	State     migration.State    `json:"state"`
	Failed    bool               `json:"failed,omitempty"`
	Error     string             `json:"error,omitempty"`
	Context   *migration.Context `json:"context,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// RunStore manages persistent storage of migration runs.
type RunStore struct {
	mu       sync.RWMutex
	filePath string
	runs     map[string]*Run
}

// NewRunStore creates a run store backed by the given file.
// If path is empty, defaults to ~/.vmshift/runs.json
func NewRunStore(path string) (*RunStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home dir: %w", err)
		}
		path = filepath.Join(home, ".vmshift", "runs.json")
	}

	store := &RunStore{
		filePath: path,
		runs:     make(map[string]*Run),
	}

	// Load existing runs if the file exists
	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load runs: %w", err)
	}

	return store, nil
}

// Create persists a new run record for the given migration context.
func (s *RunStore) Create(mc *migration.Context) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	run := &Run{
		ID:        uuid.New().String(),
		SourceID:  mc.SourceID,
		Target:    mc.Target,
		State:     mc.State,
		Context:   mc,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.runs[run.ID] = run

	if err := s.persist(); err != nil {
		delete(s.runs, run.ID)
		return nil, fmt.Errorf("failed to persist run: %w", err)
	}

	return run, nil
}

// Update re-persists a run after a state change.
func (s *RunStore) Update(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[run.ID]; !ok {
		return fmt.Errorf("run not found: %s", run.ID)
	}

	run.State = run.Context.State
	run.UpdatedAt = time.Now()
	s.runs[run.ID] = run

	if err := s.persist(); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID.
func (s *RunStore) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("run not found: %s", id)
	}

	return run, nil
}

// List returns all runs, newest first, without the full context payloads.
func (s *RunStore) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Run, 0, len(s.runs))
	for _, run := range s.runs {
		summary := &Run{
			ID:        run.ID,
			SourceID:  run.SourceID,
			Target:    run.Target,
			State:     run.State,
			Failed:    run.Failed,
			Error:     run.Error,
			CreatedAt: run.CreatedAt,
			UpdatedAt: run.UpdatedAt,
		}
		list = append(list, summary)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list
}

// Delete removes a run by ID.
func (s *RunStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("run not found: %s", id)
	}

	delete(s.runs, id)

	if err := s.persist(); err != nil {
		return fmt.Errorf("failed to persist after delete: %w", err)
	}

	return nil
}

// load reads runs from disk.
func (s *RunStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var runs map[string]*Run
	if err := json.Unmarshal(data, &runs); err != nil {
		return fmt.Errorf("failed to unmarshal runs: %w", err)
	}

	s.runs = runs
	return nil
}

// persist writes runs to disk.
func (s *RunStore) persist() error {
	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(s.runs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal runs: %w", err)
	}

	// Write atomically via temp file
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// FilePath returns the storage file path.
func (s *RunStore) FilePath() string {
	return s.filePath
}
