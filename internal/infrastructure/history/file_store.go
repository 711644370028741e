package history

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

// FileStore appends history entries to a jsonl file. It is the fallback
// backend when the SQLite database cannot be opened, and a selectable
// backend in its own right (history.backend: jsonl).
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a history store at path, defaulting to
// ~/.fabsh/history.jsonl.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = filepath.Join(userHome(), ".fabsh", "history.jsonl")
	}
	return &FileStore{path: path}
}

// Append implements ports.HistoryStore. The file is synced before control
// returns so a crash cannot lose the entry or corrupt prior ones.
func (f *FileStore) Append(entry domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry = stamp(entry)
	data, err := json.Marshal(entry)
	if err != nil {
		return &domain.HistoryIOError{Op: "append", Err: err}
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return &domain.HistoryIOError{Op: "append", Err: err}
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &domain.HistoryIOError{Op: "append", Err: err}
	}
	defer file.Close()
	if _, err := file.Write(data); err != nil {
		return &domain.HistoryIOError{Op: "append", Err: err}
	}
	if err := file.Sync(); err != nil {
		return &domain.HistoryIOError{Op: "append", Err: err}
	}
	return nil
}

// Query implements ports.HistoryStore. Read failures degrade to "no
// history available".
func (f *FileStore) Query(task string, limit int) []domain.HistoryEntry {
	entries, err := f.load()
	if err != nil {
		return nil
	}
	return rank(entries, task, limit)
}

// Recent returns the newest entries, most recent first.
func (f *FileStore) Recent(limit int) ([]domain.HistoryEntry, error) {
	entries, err := f.load()
	if err != nil {
		return nil, err
	}
	// Stored oldest-first; reverse.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return &domain.HistoryIOError{Op: "clear", Err: err}
	}
	return nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) load() ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &domain.HistoryIOError{Op: "read", Err: err}
	}
	var entries []domain.HistoryEntry
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry domain.HistoryEntry
		// Unknown fields are ignored and missing fields zeroed, so old
		// and new records coexist in one file.
		if err := json.Unmarshal(line, &entry); err == nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func stamp(entry domain.HistoryEntry) domain.HistoryEntry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return entry
}

func userHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.HistoryStore = (*FileStore)(nil)
