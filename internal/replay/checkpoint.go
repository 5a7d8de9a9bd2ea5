package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// StateStore remembers the last operation sequence number a run applied.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, seq uint64) error
}

// Checkpoint is the on-disk progress record of one named run.
type Checkpoint struct {
	Run            string    `json:"run"`
	LastAppliedSeq uint64    `json:"last_applied_seq"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CheckpointStore keeps a Checkpoint in a single JSON file. A zero value or
// one built with an empty path is disabled and forgets everything.
type CheckpointStore struct {
	path string
	run  string
}

func NewCheckpointStore(path, run string, enabled bool) *CheckpointStore {
	if !enabled {
		path = ""
	}
	return &CheckpointStore{path: path, run: run}
}

func (c *CheckpointStore) Load(_ context.Context) (uint64, bool, error) {
	if c.path == "" {
		return 0, false, nil
	}
	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read checkpoint %s: %w", c.path, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("decode checkpoint %s: %w", c.path, err)
	}
	if cp.Run != c.run {
		return 0, false, fmt.Errorf("checkpoint %s belongs to run %q, not %q", c.path, cp.Run, c.run)
	}
	return cp.LastAppliedSeq, true, nil
}

// Save replaces the checkpoint through a temp file in the same directory.
func (c *CheckpointStore) Save(_ context.Context, seq uint64) error {
	if c.path == "" {
		return nil
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	data, err := json.Marshal(Checkpoint{Run: c.run, LastAppliedSeq: seq, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
