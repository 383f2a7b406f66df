package ingestion

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
)

// checkpointState is the on-disk shape of the file-backed checkpoint.
type checkpointState struct {
	ProcessedFiles []string `json:"processed_files"`
}

// FileCheckpoint tracks processed files in a local JSON file.
type FileCheckpoint struct {
	logger *logrus.Logger
	path   string
	mu     sync.Mutex
}

// NewFileCheckpoint creates a file-backed checkpoint store at path.
func NewFileCheckpoint(path string, logger *logrus.Logger) *FileCheckpoint {
	if logger == nil {
		logger = logrus.New()
	}
	return &FileCheckpoint{logger: logger, path: path}
}

// Contains reports whether name is recorded as processed.
func (c *FileCheckpoint) Contains(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, err := c.load()
	if err != nil {
		return false, err
	}
	for _, f := range state.ProcessedFiles {
		if f == name {
			return true, nil
		}
	}
	return false, nil
}

// Mark records name as processed.
func (c *FileCheckpoint) Mark(_ context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, err := c.load()
	if err != nil {
		return err
	}
	for _, f := range state.ProcessedFiles {
		if f == name {
			return nil
		}
	}
	state.ProcessedFiles = append(state.ProcessedFiles, name)
	sort.Strings(state.ProcessedFiles)
	return c.save(state)
}

// List returns all processed file names.
func (c *FileCheckpoint) List(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, err := c.load()
	if err != nil {
		return nil, err
	}
	return state.ProcessedFiles, nil
}

// Clear forgets all processed files.
func (c *FileCheckpoint) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(&checkpointState{ProcessedFiles: []string{}})
}

// Close is a no-op for the file backend.
func (c *FileCheckpoint) Close() error {
	return nil
}

func (c *FileCheckpoint) load() (*checkpointState, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return &checkpointState{}, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIngestion,
			"CHECKPOINT_UNREADABLE", "cannot read checkpoint file")
	}
	state := &checkpointState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, errors.WrapError(errors.ErrCheckpointCorrupt, errors.ErrorTypeIngestion,
			"CHECKPOINT_CORRUPT", "checkpoint file is not valid JSON").WithDetails(err.Error())
	}
	return state, nil
}

func (c *FileCheckpoint) save(state *checkpointState) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.ErrorTypeIngestion,
				"CHECKPOINT_UNWRITABLE", "cannot create checkpoint directory")
		}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeInternal,
			"CHECKPOINT_ENCODE_FAILED", "cannot encode checkpoint state")
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.ErrorTypeIngestion,
			"CHECKPOINT_UNWRITABLE", "cannot write checkpoint file")
	}
	return nil
}
