package model

import "time"

// SavedNote is a persisted, expiring snapshot of an ephemeral note.
// Content holds the stored form (possibly compressed) inside the
// repository and the plain text once it leaves the service.
type SavedNote struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Content             string    `json:"content"`
	NoteID              string    `json:"noteId"`
	URL                 string    `json:"url"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	ExpiresAt           time.Time `json:"expiresAt"`
	ContentLength       int       `json:"contentLength"`
	IsCompressed        bool      `json:"isCompressed"`
	PasswordHash        string    `json:"-"`
	IsPasswordProtected bool      `json:"isPasswordProtected"`
}

// SavedNoteSummary describes a saved note without its content.
type SavedNoteSummary struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	NoteID              string    `json:"noteId"`
	URL                 string    `json:"url"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	ExpiresAt           time.Time `json:"expiresAt"`
	ContentLength       int       `json:"contentLength"`
	IsPasswordProtected bool      `json:"isPasswordProtected"`
}

func (n SavedNote) Summary() SavedNoteSummary {
	return SavedNoteSummary{
		ID:                  n.ID,
		Title:               n.Title,
		NoteID:              n.NoteID,
		URL:                 n.URL,
		CreatedAt:           n.CreatedAt,
		UpdatedAt:           n.UpdatedAt,
		ExpiresAt:           n.ExpiresAt,
		ContentLength:       n.ContentLength,
		IsPasswordProtected: n.IsPasswordProtected,
	}
}

type CreateSavedNoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	NoteID   string `json:"noteId"`
	URL      string `json:"url"`
	Password string `json:"password,omitempty"`
}

type UpdateSavedNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	NoteID  string `json:"noteId"`
}

// CreateSavedNoteResponse tells the client whether the save inserted a
// new record or merged into the one already held for the noteId.
type CreateSavedNoteResponse struct {
	SavedNote
	IsNew bool `json:"isNew"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
