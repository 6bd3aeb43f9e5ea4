package note

import (
	"fmt"
	"net/http"

	"notebins/handler"
	"notebins/internal/note/model"
	"notebins/internal/note/service"
	"notebins/pkg/apperr"
)

type NoteHandler struct {
	Service *service.NoteService
}

func NewNoteHandler(service *service.NoteService) *NoteHandler {
	return &NoteHandler{Service: service}
}

func decodeContent(r *http.Request) (string, error) {
	var req model.NoteRequest
	if !handler.Decode(r, &req) || req.Content == nil {
		return "", fmt.Errorf("%w: content is required", apperr.ErrValidation)
	}
	return *req.Content, nil
}

func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	content, err := decodeContent(r)
	if err != nil {
		handler.Error(w, err, "Invalid request body")
		return
	}

	note, err := h.Service.Create(content)
	if err != nil {
		handler.Error(w, err, "Failed to create note. Please try again.")
		return
	}
	handler.JSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.Service.Get(r.PathValue("id"))
	if err != nil {
		handler.Error(w, err, "Failed to get note")
		return
	}
	handler.JSON(w, http.StatusOK, note)
}

func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	content, err := decodeContent(r)
	if err != nil {
		handler.Error(w, err, "Invalid request body")
		return
	}

	note, err := h.Service.Update(r.PathValue("id"), content)
	if err != nil {
		handler.Error(w, err, "Failed to update note")
		return
	}
	handler.JSON(w, http.StatusOK, note)
}

func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.PathValue("id")); err != nil {
		handler.Error(w, err, "Failed to delete note")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
