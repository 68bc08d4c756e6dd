package history

import (
	"cmp"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/orest-d/liquer/internal/errdef"
)

// Entry is one finished navigation.
type Entry struct {
	ID             string        `json:"id"`
	VisitedAt      time.Time     `json:"visited_at"`
	Server         string        `json:"server,omitempty"`
	Query          string        `json:"query"`
	Status         string        `json:"status"`
	TypeIdentifier string        `json:"type_identifier,omitempty"`
	Mode           string        `json:"mode,omitempty"`
	Message        string        `json:"message,omitempty"`
	Polls          int           `json:"polls,omitempty"`
	Duration       time.Duration `json:"duration"`
	Failed         bool          `json:"failed,omitempty"`
}

const DefaultMaxEntries = 200

// Store keeps visited queries in a JSON file, newest first. The file is read
// lazily on first use and rewritten on every change.
type Store struct {
	path string
	max  int
	now  func() time.Time

	mu      sync.RWMutex
	entries []Entry
	loaded  bool
}

func NewStore(path string, maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{path: path, max: maxEntries, now: time.Now}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Append stores entry, assigning an id and visit time when missing, and
// drops the oldest entries beyond the limit.
func (s *Store) Append(entry Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Entry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.VisitedAt.IsZero() {
		entry.VisitedAt = s.now()
	}

	s.entries = append(s.entries, entry)
	slices.SortStableFunc(s.entries, newestFirst)
	if len(s.entries) > s.max {
		s.entries = s.entries[:s.max]
	}
	if err := s.saveLocked(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Queries returns each visited query once, most recent first.
func (s *Store) Queries() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool, len(s.entries))
	var out []string
	for _, e := range s.entries {
		if !seen[e.Query] {
			seen[e.Query] = true
			out = append(out, e.Query)
		}
	}
	return out
}

// Delete removes the entry with id and reports whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return false, err
	}
	n := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e Entry) bool { return e.ID == id })
	if len(s.entries) == n {
		return false, nil
	}
	if err := s.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = []Entry{}
	s.loaded = true
	return s.saveLocked()
}

// ByQuery returns the visits of q, newest first. Surrounding slashes are
// ignored; a blank q matches everything.
func (s *Store) ByQuery(q string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := strings.Trim(strings.TrimSpace(q), "/")
	if want == "" {
		return slices.Clone(s.entries)
	}
	var out []Entry
	for _, e := range s.entries {
		if strings.Trim(e.Query, "/") == want {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create history dir")
	}
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeHistory, err, "encode history")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write history")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace history file")
	}
	return nil
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		data = nil
	case err != nil:
		return errdef.Wrap(errdef.CodeHistory, err, "read history")
	}
	entries := []Entry{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return errdef.Wrap(errdef.CodeHistory, err, "parse history")
		}
	}
	slices.SortStableFunc(entries, newestFirst)
	s.entries = entries
	s.loaded = true
	return nil
}

// newestFirst orders by visit time, undated entries last, ties by id.
func newestFirst(a, b Entry) int {
	switch az, bz := a.VisitedAt.IsZero(), b.VisitedAt.IsZero(); {
	case az && !bz:
		return 1
	case bz && !az:
		return -1
	case !az && !a.VisitedAt.Equal(b.VisitedAt):
		return b.VisitedAt.Compare(a.VisitedAt)
	}
	return cmp.Compare(b.ID, a.ID)
}
