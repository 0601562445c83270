package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/services"
)

type ProgressHandler struct {
	library *services.Library
}

func NewProgressHandler(library *services.Library) *ProgressHandler {
	return &ProgressHandler{library: library}
}

func (h *ProgressHandler) Routes(r chi.Router) {
	r.Put("/progress", h.put)
	r.Get("/progress/{mangaId}/{chapterId}", h.get)
	r.Get("/preferences", h.getPreferences)
	r.Put("/preferences", h.putPreferences)
}

// put upserts the caller's record for (manga, chapter); the last write wins.
func (h *ProgressHandler) put(w http.ResponseWriter, r *http.Request) {
	var record data.ReadingProgress
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := record.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.library.ForUser(userFrom(r.Context())).RecordProgress(r.Context(), record); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProgressHandler) get(w http.ResponseWriter, r *http.Request) {
	lib := h.library.ForUser(userFrom(r.Context()))
	record, err := lib.GetProgress(r.Context(), chi.URLParam(r, "mangaId"), chi.URLParam(r, "chapterId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "no progress recorded")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *ProgressHandler) getPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := h.library.ForUser(userFrom(r.Context())).Preferences(data.DefaultReaderPreferences())
	writeJSON(w, http.StatusOK, prefs)
}

func (h *ProgressHandler) putPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs data.ReaderPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.library.ForUser(userFrom(r.Context())).SavePreferences(prefs); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
