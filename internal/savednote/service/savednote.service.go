package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notebins/internal/savednote/model"
	"notebins/pkg/apperr"
	"notebins/pkg/codec"
	"notebins/pkg/credential"
	"notebins/pkg/logger"
)

// NoteTTL is how long a saved note lives after its last write.
const NoteTTL = 3 * 24 * time.Hour

// Repository is the storage the service needs. Implemented by
// repository.SavedNoteRepository.
type Repository interface {
	List(ctx context.Context) ([]model.SavedNote, error)
	GetByID(ctx context.Context, id string) (model.SavedNote, error)
	GetByNoteID(ctx context.Context, noteID string) (model.SavedNote, error)
	Upsert(ctx context.Context, n model.SavedNote) (model.SavedNote, bool, error)
	Update(ctx context.Context, n model.SavedNote) (model.SavedNote, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type SavedNoteService struct {
	Repo Repository
	Now  func() time.Time
}

func NewSavedNoteService(repo Repository) *SavedNoteService {
	return &SavedNoteService{Repo: repo, Now: time.Now}
}

// List returns every saved note, most recently updated first, with
// plain-text content. Content of protected notes is left empty; it is
// only released by Get with the password.
func (s *SavedNoteService) List(ctx context.Context) ([]model.SavedNote, error) {
	notes, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list saved notes: %w", err)
	}
	for i := range notes {
		notes[i] = present(notes[i])
		if notes[i].IsPasswordProtected {
			notes[i].Content = ""
		}
	}
	return notes, nil
}

// Get returns the note with id. Protected notes require password.
func (s *SavedNoteService) Get(ctx context.Context, id, password string) (model.SavedNote, error) {
	n, err := s.authorize(ctx, id, password)
	if err != nil {
		return model.SavedNote{}, err
	}
	return present(n), nil
}

// Create saves a note. A note already saved under req.NoteID is updated
// in place and reported with isNew false. The password only applies to a
// new record; a merge keeps whatever protection the record already has.
func (s *SavedNoteService) Create(ctx context.Context, req model.CreateSavedNoteRequest) (model.SavedNote, bool, error) {
	if err := requireFields("title", req.Title, "content", req.Content, "noteId", req.NoteID, "url", req.URL); err != nil {
		return model.SavedNote{}, false, err
	}

	now := s.Now().UTC()
	n := model.SavedNote{
		ID:        uuid.NewString(),
		Title:     req.Title,
		NoteID:    req.NoteID,
		URL:       req.URL,
		CreatedAt: now,
	}
	stamp(&n, req.Content, now)
	if req.Password != "" {
		n.PasswordHash = credential.Hash(req.Password)
		n.IsPasswordProtected = true
	}

	saved, isNew, err := s.Repo.Upsert(ctx, n)
	if err != nil {
		return model.SavedNote{}, false, fmt.Errorf("save note %s: %w", req.NoteID, err)
	}
	logger.Sugar.Infof("Saved note %s for %s (new=%t, compressed=%t)", saved.ID, saved.NoteID, isNew, saved.IsCompressed)
	return present(saved), isNew, nil
}

// Update rewrites title, content and noteId of the note with id and
// restarts its expiry. The password is unchanged.
func (s *SavedNoteService) Update(ctx context.Context, id string, req model.UpdateSavedNoteRequest) (model.SavedNote, error) {
	if err := requireFields("title", req.Title, "content", req.Content, "noteId", req.NoteID); err != nil {
		return model.SavedNote{}, err
	}
	if !validID(id) {
		return model.SavedNote{}, fmt.Errorf("saved note %s: %w", id, apperr.ErrNotFound)
	}

	n := model.SavedNote{ID: id, Title: req.Title, NoteID: req.NoteID}
	stamp(&n, req.Content, s.Now().UTC())

	saved, err := s.Repo.Update(ctx, n)
	if err != nil {
		return model.SavedNote{}, fmt.Errorf("update note %s: %w", id, err)
	}
	return present(saved), nil
}

// Delete removes the note with id. Protected notes require password.
func (s *SavedNoteService) Delete(ctx context.Context, id, password string) error {
	if _, err := s.authorize(ctx, id, password); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	logger.Sugar.Infof("Deleted saved note %s", id)
	return nil
}

// CheckExists reports the saved note for an ephemeral noteId without its
// content.
func (s *SavedNoteService) CheckExists(ctx context.Context, noteID string) (model.SavedNoteSummary, error) {
	n, err := s.Repo.GetByNoteID(ctx, noteID)
	if err != nil {
		return model.SavedNoteSummary{}, fmt.Errorf("check note %s: %w", noteID, err)
	}
	return n.Summary(), nil
}

func (s *SavedNoteService) authorize(ctx context.Context, id, password string) (model.SavedNote, error) {
	if !validID(id) {
		return model.SavedNote{}, fmt.Errorf("saved note %s: %w", id, apperr.ErrNotFound)
	}
	n, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return model.SavedNote{}, err
	}
	if !credential.Allowed(n.PasswordHash, password) {
		return model.SavedNote{}, fmt.Errorf("saved note %s: %w", id, apperr.ErrUnauthorized)
	}
	return n, nil
}

// stamp sets the stored content and every field derived from a write at now.
func stamp(n *model.SavedNote, content string, now time.Time) {
	n.Content, n.IsCompressed = codec.Compress(content)
	n.ContentLength = len(content)
	n.UpdatedAt = now
	n.ExpiresAt = now.Add(NoteTTL)
}

// present converts a stored note into its outbound form.
func present(n model.SavedNote) model.SavedNote {
	n.Content = codec.Decompress(n.Content, n.IsCompressed)
	n.PasswordHash = ""
	return n
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// requireFields takes name/value pairs and fails on the first empty value.
func requireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s is required", apperr.ErrValidation, pairs[i])
		}
	}
	return nil
}
