package router

import (
	"net/http"

	"notebins/handler"
	"notebins/internal/note"
	noteService "notebins/internal/note/service"
	"notebins/internal/savednote"
	savedService "notebins/internal/savednote/service"
	"notebins/middleware"
	"notebins/socket"
	"notebins/store"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Hub         *socket.Hub
	Notes       store.NoteStore
	SavedNotes  savedService.Repository
	DB          handler.Pinger
	Origins     middleware.OriginPolicy
	Environment string
}

func Setup(d Deps) http.Handler {
	mux := http.NewServeMux()

	// WebSocket
	mux.Handle("GET /ws", socket.NewServer(d.Hub, d.Origins.Allows))

	// Live notes
	noteHandler := note.NewNoteHandler(noteService.NewNoteService(d.Notes, d.Hub))
	mux.HandleFunc("POST /api/notes", noteHandler.CreateNote)
	mux.HandleFunc("GET /api/notes/{id}", noteHandler.GetNote)
	mux.HandleFunc("PUT /api/notes/{id}", noteHandler.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", noteHandler.DeleteNote)

	// Saved notes
	savedHandler := savednote.NewSavedNoteHandler(savedService.NewSavedNoteService(d.SavedNotes))
	password := middleware.NotePassword
	mux.HandleFunc("GET /api/saved-notes", savedHandler.ListNotes)
	mux.HandleFunc("POST /api/saved-notes", savedHandler.CreateNote)
	mux.HandleFunc("GET /api/saved-notes/check/{noteId}", savedHandler.CheckExists)
	mux.Handle("GET /api/saved-notes/{id}", password(http.HandlerFunc(savedHandler.GetNote)))
	mux.HandleFunc("PUT /api/saved-notes/{id}", savedHandler.UpdateNote)
	mux.Handle("DELETE /api/saved-notes/{id}", password(http.HandlerFunc(savedHandler.DeleteNote)))

	// Health
	health := handler.NewHealthHandler(d.DB, d.Environment)
	mux.HandleFunc("GET /{$}", health.Root)
	mux.HandleFunc("GET /api/health", health.Health)
	mux.HandleFunc("GET /api/db/health", health.DatabaseHealth)

	return middleware.RequestLogger(middleware.CORSMiddleware(d.Origins, mux))
}
