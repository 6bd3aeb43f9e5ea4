package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"notebins/pkg/apperr"
	"notebins/pkg/logger"
	"notebins/store"
)

const (
	idLength   = 8
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idAttempts = 5
)

// Publisher relays server-side note updates to the note's room.
type Publisher interface {
	Publish(noteID, content string) bool
}

type NoteService struct {
	Store store.NoteStore
	Hub   Publisher
	Now   func() time.Time
}

func NewNoteService(notes store.NoteStore, hub Publisher) *NoteService {
	return &NoteService{Store: notes, Hub: hub, Now: time.Now}
}

func (s *NoteService) Create(content string) (store.EphemeralNote, error) {
	id, err := s.newID()
	if err != nil {
		return store.EphemeralNote{}, err
	}

	now := s.Now().UTC()
	note := store.EphemeralNote{ID: id, Content: content, CreatedAt: now, UpdatedAt: now}
	if err := s.Store.Set(id, note); err != nil {
		return store.EphemeralNote{}, fmt.Errorf("create note %s: %w", id, err)
	}
	logger.Sugar.Infof("Created note: %s", id)
	return note, nil
}

func (s *NoteService) Get(id string) (store.EphemeralNote, error) {
	note, ok := s.Store.Get(id)
	if !ok {
		return store.EphemeralNote{}, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	return note, nil
}

// Update replaces the content of an existing note and pushes it to every
// socket joined to the note.
func (s *NoteService) Update(id, content string) (store.EphemeralNote, error) {
	note, ok := s.Store.Get(id)
	if !ok {
		return store.EphemeralNote{}, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}

	note.Content = content
	note.UpdatedAt = s.Now().UTC()
	if err := s.Store.Set(id, note); err != nil {
		return store.EphemeralNote{}, fmt.Errorf("update note %s: %w", id, err)
	}
	logger.Sugar.Infof("Updated note: %s", id)

	if s.Hub != nil && !s.Hub.Publish(id, content) {
		logger.Sugar.Warnf("Hub stopped, update to note %s not broadcast", id)
	}
	return note, nil
}

func (s *NoteService) Delete(id string) error {
	deleted, err := s.Store.Delete(id)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	if !deleted {
		return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	logger.Sugar.Infof("Deleted note: %s", id)
	return nil
}

// newID draws short random ids, retrying on the rare clash with an
// existing note.
func (s *NoteService) newID() (string, error) {
	for i := 0; i < idAttempts; i++ {
		id, err := randomID()
		if err != nil {
			return "", fmt.Errorf("generate note id: %w", err)
		}
		if !s.Store.Has(id) {
			return id, nil
		}
	}
	return "", errors.New("generate note id: too many collisions")
}

func randomID() (string, error) {
	b := make([]byte, idLength)
	base := big.NewInt(int64(len(idAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b), nil
}
