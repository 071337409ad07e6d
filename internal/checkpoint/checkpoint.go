// Package checkpoint persists training snapshots as JSON files next to the
// model store prefix.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/polyglotml/wordgram/nn"
)

// LastPath returns the rolling checkpoint path for a store prefix.
func LastPath(prefix string) string { return prefix + "-skip.last" }

// BestPath returns the best-dev-loss checkpoint path for a store prefix.
func BestPath(prefix string) string { return prefix + "-skip.bestNLL" }

// EncodingsPath returns the encoding table path for a store prefix.
func EncodingsPath(prefix string) string { return prefix + ".encodings" }

// Checkpoint is one saved training snapshot.
type Checkpoint struct {
	RunID   string    `json:"run_id"`
	Epoch   int       `json:"epoch"`
	Batches int       `json:"batches"`
	DevNLL  float64   `json:"dev_nll"`
	SavedAt time.Time `json:"saved_at"`
	Params  *nn.State `json:"params"`
}

// Save writes the checkpoint atomically: a temp file in the same directory,
// then a rename over the target.
func Save(path string, ck *Checkpoint) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkpoint: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	enc := json.NewEncoder(tmp)
	if err := enc.Encode(ck); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("checkpoint: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}

// Load reads a checkpoint written by Save.
func Load(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open: %w", err)
	}
	defer f.Close()
	var ck Checkpoint
	if err := json.NewDecoder(f).Decode(&ck); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	return &ck, nil
}
