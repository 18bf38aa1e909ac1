// Package storage persists per-repository download histories as JSON files.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/naka-gawa/release-stats/internal/domain"
)

// CorruptHistoryError reports a history file that exists but cannot be
// trusted: malformed JSON, an invalid entry, or a schema version newer than
// this build understands.
type CorruptHistoryError struct {
	Path   string
	Reason string
}

func (e *CorruptHistoryError) Error() string {
	return fmt.Sprintf("corrupt history file %s: %s", e.Path, e.Reason)
}

// Store reads and writes one history file per repository under a single
// data directory. Access is single-process: there is no file locking.
type Store struct {
	dir    string
	logger *log.Logger
}

// NewStore creates a Store rooted at dir. The directory is created lazily
// on the first save.
func NewStore(dir string, logger *log.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Path returns the history file path for a repository.
func (s *Store) Path(repo domain.Repository) string {
	return filepath.Join(s.dir, repo.FileKey()+".json")
}

// Load reads a repository's history. A missing file yields an empty
// history; an unreadable or invalid one yields a CorruptHistoryError.
func (s *Store) Load(repo domain.Repository) ([]domain.Snapshot, error) {
	path := s.Path(repo)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", repo, err)
	}
	var history []domain.Snapshot
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, &CorruptHistoryError{Path: path, Reason: err.Error()}
	}
	for i, snapshot := range history {
		if err := validateSnapshot(snapshot); err != nil {
			return nil, &CorruptHistoryError{Path: path, Reason: fmt.Sprintf("entry %d: %v", i, err)}
		}
	}
	s.logger.Printf("  Loaded %d history entries for %s", len(history), repo)
	return history, nil
}

func validateSnapshot(s domain.Snapshot) error {
	if s.SchemaVersion > domain.HistorySchemaVersion {
		return fmt.Errorf("unsupported schema version %d", s.SchemaVersion)
	}
	if _, err := time.Parse(domain.DateLayout, s.Date); err != nil {
		return fmt.Errorf("invalid date %q", s.Date)
	}
	if s.Total < 0 {
		return fmt.Errorf("negative total %d", s.Total)
	}
	for _, f := range s.Formats {
		if f.Count < 0 {
			return fmt.Errorf("negative count %d for format %q", f.Count, f.Extension)
		}
	}
	return nil
}

// Upsert merges a snapshot into a history and returns the updated history,
// sorted ascending by date.
//
// An entry with the snapshot's date is replaced in place; otherwise the
// snapshot is appended. When the history was empty before the upsert and
// clone data is supplied, one synthesized snapshot per clone entry is
// prepended, preserving the clone entries' own order.
func Upsert(history []domain.Snapshot, snapshot domain.Snapshot, clones []domain.CloneStat) []domain.Snapshot {
	wasEmpty := len(history) == 0

	replaced := false
	for i := range history {
		if history[i].Date == snapshot.Date {
			history[i] = snapshot
			replaced = true
			break
		}
	}
	if !replaced {
		history = append(history, snapshot)
	}

	if wasEmpty && len(clones) > 0 {
		seeded := make([]domain.Snapshot, 0, len(clones)+len(history))
		for _, clone := range clones {
			seeded = append(seeded, domain.Snapshot{
				SchemaVersion: domain.HistorySchemaVersion,
				Date:          clone.Date,
				Total:         clone.Count,
				Formats:       []domain.FormatCount{{Extension: domain.CloneFormat, Count: clone.Count}},
			})
		}
		history = append(seeded, history...)
	}

	// ISO dates are fixed-width, so lexicographic order is date order.
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date < history[j].Date
	})
	return history
}

// Save overwrites the repository's history file with the full array,
// pretty-printed, creating the data directory if needed.
func (s *Store) Save(repo domain.Repository, history []domain.Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", s.dir, err)
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history for %s: %w", repo, err)
	}
	path := s.Path(repo)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write history for %s: %w", repo, err)
	}
	s.logger.Printf("  Wrote %d history entries to %s", len(history), path)
	return nil
}
