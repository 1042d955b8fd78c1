// Package history keeps an append-only ledger of allocation runs.
package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DrSkyle/filealloc/pkg/engine/report"
	"github.com/DrSkyle/filealloc/pkg/storage"
	"github.com/google/uuid"
)

// Snapshot records the outcome of one run.
type Snapshot struct {
	RunID     string `json:"run_id"`
	Timestamp int64  `json:"timestamp"`
	FilesPath string `json:"files_path,omitempty"`
	NodesPath string `json:"nodes_path,omitempty"`
	report.Summary
}

// NewSnapshot stamps a summary with a fresh run id.
func NewSnapshot(at time.Time, s report.Summary) Snapshot {
	return Snapshot{
		RunID:     uuid.NewString(),
		Timestamp: at.Unix(),
		Summary:   s,
	}
}

// Backend defines the storage interface for snapshots.
type Backend interface {
	Append(ctx context.Context, s Snapshot) error
	Load(ctx context.Context, n int) ([]Snapshot, error)
}

// Client manages historical state.
type Client struct {
	backend Backend
}

// NewClient initializes a history client.
// Defaults to FileBackend at the default ledger path.
func NewClient(backend Backend) *Client {
	if backend == nil {
		backend = &FileBackend{}
	}
	return &Client{
		backend: backend,
	}
}

// Append records a new snapshot.
func (c *Client) Append(ctx context.Context, s Snapshot) error {
	return c.backend.Append(ctx, s)
}

// LoadWindow retrieves the last n snapshots, oldest first.
func (c *Client) LoadWindow(ctx context.Context, n int) ([]Snapshot, error) {
	return c.backend.Load(ctx, n)
}

// NewLocalBackend creates a file-based backend at the specified path.
func NewLocalBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// FileBackend implements local filesystem storage.
type FileBackend struct {
	Path string
}

func (b *FileBackend) path() (string, error) {
	if b.Path != "" {
		return b.Path, nil
	}
	return GetLedgerPath()
}

func (b *FileBackend) Append(ctx context.Context, s Snapshot) error {
	path, err := b.path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	_, err = f.Write(append(data, '\n'))
	return err
}

func (b *FileBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	path, err := b.path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	return tail(decode(data), n), nil
}

// BlobBackend keeps the ledger as a single object in a BlobStore.
// Stores cannot append, so every Append rewrites the object.
type BlobBackend struct {
	Store storage.BlobStore
	Key   string
}

func (b *BlobBackend) Append(ctx context.Context, s Snapshot) error {
	existing, err := b.Store.Get(ctx, b.Key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	buf := bytes.NewBuffer(existing)
	if buf.Len() > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.Write(data)
	buf.WriteByte('\n')

	return b.Store.Put(ctx, b.Key, buf.Bytes())
}

func (b *BlobBackend) Load(ctx context.Context, n int) ([]Snapshot, error) {
	data, err := b.Store.Get(ctx, b.Key)
	if errors.Is(err, storage.ErrNotFound) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return tail(decode(data), n), nil
}

// decode parses JSONL, skipping lines that are not snapshots.
func decode(data []byte) []Snapshot {
	history := []Snapshot{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		var s Snapshot
		if err := json.Unmarshal(scanner.Bytes(), &s); err != nil {
			continue
		}
		history = append(history, s)
	}
	return history
}

func tail(history []Snapshot, n int) []Snapshot {
	if n > 0 && len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

// GetLedgerPath provides the default local storage path.
func GetLedgerPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".filealloc", "ledger.jsonl"), nil
}
