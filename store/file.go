package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"notebins/pkg/logger"
)

const snapshotMode fs.FileMode = 0o644

// FileStore keeps notes in memory and rewrites the whole collection to a
// JSON snapshot file on every mutation. Write cost grows with the number
// of notes; there is no eviction.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	notes map[string]EphemeralNote
}

// NewFileStore hydrates a store from path. A missing file yields an empty
// store; an unreadable or corrupt one is logged and also yields an empty
// store.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path:  path,
		notes: make(map[string]EphemeralNote),
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		logger.Sugar.Warnf("store: cannot create snapshot directory for %s: %v", s.path, err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		logger.Sugar.Warnf("store: cannot read snapshot %s, starting empty: %v", s.path, err)
		return
	}

	var list []EphemeralNote
	if err := json.Unmarshal(data, &list); err != nil {
		logger.Sugar.Warnf("store: corrupt snapshot %s, starting empty: %v", s.path, err)
		return
	}
	for _, n := range list {
		s.notes[n.ID] = n
	}
	logger.Sugar.Infof("store: loaded %d notes from %s", len(s.notes), s.path)
}

// Get returns the note stored under id.
func (s *FileStore) Get(id string) (EphemeralNote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

// Has reports whether a note exists under id.
func (s *FileStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.notes[id]
	return ok
}

// Len returns the number of stored notes.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

// Set stores note under id and rewrites the snapshot before returning.
func (s *FileStore) Set(id string, note EphemeralNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note.ID = id
	s.notes[id] = note
	return s.flush()
}

// Delete removes the note under id. The snapshot is only rewritten when
// something was removed.
func (s *FileStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return false, nil
	}
	delete(s.notes, id)
	return true, s.flush()
}

// flush must be called with mu held.
func (s *FileStore) flush() error {
	list := make([]EphemeralNote, 0, len(s.notes))
	for _, n := range s.notes {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode snapshot: %w", err)
	}

	// Write next to the target and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".notes-*.json")
	if err != nil {
		return fmt.Errorf("store: create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	// CreateTemp opens with 0600; the snapshot keeps the usual file mode.
	if err := tmp.Chmod(snapshotMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: chmod snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace snapshot: %w", err)
	}
	return nil
}
