package savednote

import (
	"net/http"

	"notebins/handler"
	"notebins/internal/savednote/model"
	"notebins/internal/savednote/service"
	"notebins/middleware"
	"notebins/pkg/apperr"
)

type SavedNoteHandler struct {
	Service *service.SavedNoteService
}

func NewSavedNoteHandler(service *service.SavedNoteService) *SavedNoteHandler {
	return &SavedNoteHandler{Service: service}
}

func (h *SavedNoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Service.List(r.Context())
	if err != nil {
		handler.Error(w, err, "Failed to fetch saved notes")
		return
	}
	handler.JSON(w, http.StatusOK, notes)
}

func (h *SavedNoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	note, err := h.Service.Get(r.Context(), id, middleware.PasswordFrom(r.Context()))
	if err != nil {
		handler.Error(w, err, "Failed to get note")
		return
	}
	handler.JSON(w, http.StatusOK, note)
}

// CreateNote saves a note. A new record answers 201, a merge into the
// record already held for the noteId answers 200.
func (h *SavedNoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSavedNoteRequest
	if !handler.Decode(r, &req) {
		handler.Error(w, apperr.ErrValidation, "Invalid request body")
		return
	}

	note, isNew, err := h.Service.Create(r.Context(), req)
	if err != nil {
		handler.Error(w, err, "Failed to save note")
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	handler.JSON(w, status, model.CreateSavedNoteResponse{SavedNote: note, IsNew: isNew})
}

func (h *SavedNoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateSavedNoteRequest
	if !handler.Decode(r, &req) {
		handler.Error(w, apperr.ErrValidation, "Invalid request body")
		return
	}

	note, err := h.Service.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		handler.Error(w, err, "Failed to update note")
		return
	}
	handler.JSON(w, http.StatusOK, note)
}

func (h *SavedNoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), r.PathValue("id"), middleware.PasswordFrom(r.Context())); err != nil {
		handler.Error(w, err, "Failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SavedNoteHandler) CheckExists(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.CheckExists(r.Context(), r.PathValue("noteId"))
	if err != nil {
		handler.Error(w, err, "Failed to check note")
		return
	}
	handler.JSON(w, http.StatusOK, summary)
}
