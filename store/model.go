package store

import "time"

// EphemeralNote is a live note edited over the websocket rooms.
type EphemeralNote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteStore holds ephemeral notes keyed by id.
type NoteStore interface {
	Get(id string) (EphemeralNote, bool)
	// Set creates or overwrites a note. The note is visible to Get even
	// when the returned error reports a failed snapshot write.
	Set(id string, note EphemeralNote) error
	Has(id string) bool
	Delete(id string) (bool, error)
	Len() int
}
