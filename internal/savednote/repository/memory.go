package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"notebins/internal/savednote/model"
	"notebins/pkg/apperr"
)

// MemoryRepository keeps saved notes in process memory with the same
// semantics as SavedNoteRepository. Used when no database is configured.
type MemoryRepository struct {
	mu    sync.Mutex
	notes map[string]model.SavedNote // by id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{notes: make(map[string]model.SavedNote)}
}

func (r *MemoryRepository) List(ctx context.Context) ([]model.SavedNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	notes := make([]model.SavedNote, 0, len(r.notes))
	for _, n := range r.notes {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	return notes, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (model.SavedNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return model.SavedNote{}, fmt.Errorf("saved note %s: %w", id, apperr.ErrNotFound)
	}
	return n, nil
}

func (r *MemoryRepository) GetByNoteID(ctx context.Context, noteID string) (model.SavedNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.byNoteIDLocked(noteID); ok {
		return n, nil
	}
	return model.SavedNote{}, fmt.Errorf("saved note for %s: %w", noteID, apperr.ErrNotFound)
}

func (r *MemoryRepository) Upsert(ctx context.Context, n model.SavedNote) (model.SavedNote, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byNoteIDLocked(n.NoteID)
	if !ok {
		n.IsPasswordProtected = n.PasswordHash != ""
		r.notes[n.ID] = n
		return n, true, nil
	}

	existing.Title = n.Title
	existing.Content = n.Content
	existing.URL = n.URL
	existing.UpdatedAt = n.UpdatedAt
	existing.ExpiresAt = n.ExpiresAt
	existing.ContentLength = n.ContentLength
	existing.IsCompressed = n.IsCompressed
	r.notes[existing.ID] = existing
	return existing, false, nil
}

func (r *MemoryRepository) Update(ctx context.Context, n model.SavedNote) (model.SavedNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.notes[n.ID]
	if !ok {
		return model.SavedNote{}, fmt.Errorf("saved note %s: %w", n.ID, apperr.ErrNotFound)
	}
	if other, taken := r.byNoteIDLocked(n.NoteID); taken && other.ID != n.ID {
		return model.SavedNote{}, fmt.Errorf("noteId %s already saved: %w", n.NoteID, apperr.ErrConflict)
	}

	existing.Title = n.Title
	existing.Content = n.Content
	existing.NoteID = n.NoteID
	existing.UpdatedAt = n.UpdatedAt
	existing.ExpiresAt = n.ExpiresAt
	existing.ContentLength = n.ContentLength
	existing.IsCompressed = n.IsCompressed
	r.notes[n.ID] = existing
	return existing, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.notes[id]; !ok {
		return fmt.Errorf("saved note %s: %w", id, apperr.ErrNotFound)
	}
	delete(r.notes, id)
	return nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, n := range r.notes {
		if !n.ExpiresAt.After(now) {
			delete(r.notes, id)
			removed++
		}
	}
	return removed, nil
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) byNoteIDLocked(noteID string) (model.SavedNote, bool) {
	for _, n := range r.notes {
		if n.NoteID == noteID {
			return n, true
		}
	}
	return model.SavedNote{}, false
}
