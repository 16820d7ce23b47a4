package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kaniobed28/campus-sell/basket-service/internal/domain"
)

// Blob is the single on-device record holding the guest basket.
type Blob struct {
	Items       []domain.GuestItem `json:"items"`
	LastUpdated time.Time          `json:"last_updated"`
}

func (b Blob) Empty() bool {
	return len(b.Items) == 0
}

// Store reads and writes the guest basket blob. Implementations are
// synchronous; callers treat a write error as a failed mutation.
type Store interface {
	Read() (Blob, error)
	Write(Blob) error
	Clear() error
}

// FileStore keeps the blob as one JSON file under a fixed path. There is
// no cross-process lock on the read-modify-write cycle; guest usage is
// effectively single-writer and the remote store takes over after sign-in.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Read() (Blob, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Blob{}, nil
		}
		return Blob{}, fmt.Errorf("failed to read guest basket: %w", err)
	}

	var blob Blob
	if err := json.Unmarshal(data, &blob); err != nil {
		// A corrupt blob is unrecoverable; start over rather than wedge
		// every guest operation behind a parse error.
		return Blob{}, nil
	}
	return blob, nil
}

func (f *FileStore) Write(blob Blob) error {
	blob.LastUpdated = time.Now()
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal guest basket: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write guest basket: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace guest basket: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear guest basket: %w", err)
	}
	return nil
}
