package store

import "sync"

// MemoryStore is a NoteStore without a backing file.
type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string]EphemeralNote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string]EphemeralNote)}
}

func (s *MemoryStore) Get(id string) (EphemeralNote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	return n, ok
}

func (s *MemoryStore) Has(id string) bool {
	_, ok := s.Get(id)
	return ok
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}

func (s *MemoryStore) Set(id string, note EphemeralNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	note.ID = id
	s.notes[id] = note
	return nil
}

func (s *MemoryStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return false, nil
	}
	delete(s.notes, id)
	return true, nil
}
