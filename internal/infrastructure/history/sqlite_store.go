package history

import (
	"database/sql"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/fabsh/internal/domain"
	"github.com/doeshing/fabsh/internal/ports"
)

// SQLiteStore persists history in a SQLite database. When the database
// cannot be opened or initialized it degrades to the jsonl FileStore so
// learning keeps working.
type SQLiteStore struct {
	db       *sql.DB
	fallback *FileStore
	mu       sync.Mutex
}

// NewSQLiteStore creates (or opens) the history database at path,
// defaulting to ~/.fabsh/history.db.
func NewSQLiteStore(path string) *SQLiteStore {
	if path == "" {
		path = filepath.Join(userHome(), ".fabsh", "history.db")
	}
	store := &SQLiteStore{
		fallback: NewFileStore(filepath.Join(filepath.Dir(path), "history.jsonl")),
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return store
	}
	store.db = db
	if err := store.init(); err != nil {
		store.db = nil
	}
	return store
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS entries (
		rowid_seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT,
		timestamp TEXT,
		task TEXT,
		command TEXT,
		shell TEXT,
		outcome TEXT
	);`)
	return err
}

// Append implements ports.HistoryStore.
func (s *SQLiteStore) Append(entry domain.HistoryEntry) error {
	if s.db == nil {
		return s.fallback.Append(entry)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry = stamp(entry)
	_, err := s.db.Exec(`INSERT INTO entries (id, timestamp, task, command, shell, outcome)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.Format(time.RFC3339),
		entry.Task,
		entry.Command,
		string(entry.Shell),
		string(entry.Outcome),
	)
	if err != nil {
		return &domain.HistoryIOError{Op: "append", Err: err}
	}
	return nil
}

// Query implements ports.HistoryStore. Any read failure degrades to "no
// history available" rather than propagating.
func (s *SQLiteStore) Query(task string, limit int) []domain.HistoryEntry {
	if s.db == nil {
		return s.fallback.Query(task, limit)
	}
	entries, err := s.scan("SELECT id, timestamp, task, command, shell, outcome FROM entries ORDER BY datetime(timestamp) DESC")
	if err != nil {
		return nil
	}
	return rank(entries, task, limit)
}

// Recent returns the newest entries, most recent first.
func (s *SQLiteStore) Recent(limit int) ([]domain.HistoryEntry, error) {
	if s.db == nil {
		return s.fallback.Recent(limit)
	}
	query := "SELECT id, timestamp, task, command, shell, outcome FROM entries ORDER BY datetime(timestamp) DESC"
	if limit > 0 {
		entries, err := s.scan(query)
		if err != nil {
			return nil, err
		}
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}
	return s.scan(query)
}

// Clear deletes all history entries.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fallback.Clear()
	}
	if _, err := s.db.Exec("DELETE FROM entries"); err != nil {
		return &domain.HistoryIOError{Op: "clear", Err: err}
	}
	return nil
}

func (s *SQLiteStore) scan(query string) ([]domain.HistoryEntry, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, &domain.HistoryIOError{Op: "read", Err: err}
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var entry domain.HistoryEntry
		var ts, shell, outcome string
		if err := rows.Scan(&entry.ID, &ts, &entry.Task, &entry.Command, &shell, &outcome); err != nil {
			return nil, &domain.HistoryIOError{Op: "read", Err: err}
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			entry.Timestamp = parsed
		}
		entry.Shell = domain.ShellKind(shell)
		entry.Outcome = domain.Outcome(outcome)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.HistoryIOError{Op: "read", Err: err}
	}
	return entries, nil
}

var _ ports.HistoryStore = (*SQLiteStore)(nil)
