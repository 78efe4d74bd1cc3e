package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chaterm/chaterm/errors"
)

// Store persists sessions as one JSON file per session under a history
// directory. The filename stem is the session id.
type Store struct {
	dir     string
	enabled bool
}

// NewStore creates a store rooted at dir. When enabled is false, Save is a
// silent no-op; reads still work so old history stays searchable.
func NewStore(dir string, enabled bool) *Store {
	return &Store{dir: dir, enabled: enabled}
}

// Dir returns the history directory.
func (st *Store) Dir() string { return st.dir }

// Enabled reports whether saves are persisted.
func (st *Store) Enabled() bool { return st.enabled }

func (st *Store) path(id string) string {
	return filepath.Join(st.dir, id+".json")
}

// Save writes the full session, overwriting any previous file for the same
// id. It does nothing when persistence is disabled.
func (st *Store) Save(s *Session) error {
	if !st.enabled {
		return nil
	}
	if err := os.MkdirAll(st.dir, 0755); err != nil {
		return errors.Wrapf(err, "could not create history directory %s", st.dir)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to serialize session")
	}
	if err := os.WriteFile(st.path(s.ID), data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write session %s", s.ID)
	}
	return nil
}

// Load reads and deserializes a stored session by id.
func (st *Store) Load(id string) (*Session, error) {
	data, err := os.ReadFile(st.path(id))
	if err != nil {
		return nil, errors.Wrapf(err, "could not read session file %s", st.path(id))
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrapf(err, "could not parse session file %s", st.path(id))
	}
	if s.ID == "" {
		s.ID = id
	}
	return &s, nil
}

// Delete removes a stored session. Deleting an id that has no file is an
// error.
func (st *Store) Delete(id string) error {
	if err := os.Remove(st.path(id)); err != nil {
		return errors.Wrapf(err, "could not delete session %s", id)
	}
	return nil
}

// List enumerates all stored sessions, most recent first. An unreadable
// history directory yields an empty list, and files that do not parse as
// sessions are skipped.
func (st *Store) List() []Summary {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil
	}
	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		s, err := st.Load(id)
		if err != nil {
			continue
		}
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}
