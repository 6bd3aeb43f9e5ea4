package model

// NoteRequest is the body of create and update calls. Content is a
// pointer so an empty note ("") can be told apart from a missing field.
type NoteRequest struct {
	Content *string `json:"content"`
}
