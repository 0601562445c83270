package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/services"
	"github.com/rs/zerolog/hlog"
)

type LibraryHandler struct {
	library *services.Library
}

func NewLibraryHandler(library *services.Library) *LibraryHandler {
	return &LibraryHandler{library: library}
}

func (h *LibraryHandler) Routes(r chi.Router) {
	r.Get("/mangas", h.listMangas)
	r.Get("/mangas/{id}/chapters", h.listChapters)
	r.Get("/chapters/{id}", h.getChapter)
}

type mangaSummary struct {
	Manga        *data.Manga           `json:"manga"`
	ChapterCount int                   `json:"chapterCount"`
	ReadCount    int                   `json:"readCount"`
	Last         *data.ReadingProgress `json:"lastRead,omitempty"`
}

func (h *LibraryHandler) listMangas(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.library.ForUser(userFrom(r.Context())).Summaries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]mangaSummary, len(summaries))
	for i, s := range summaries {
		out[i] = mangaSummary{Manga: s.Manga, ChapterCount: s.ChapterCount, ReadCount: s.ReadCount, Last: s.Last}
	}
	writeJSON(w, http.StatusOK, map[string]any{"mangas": out})
}

func (h *LibraryHandler) listChapters(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "id")
	chapters, err := h.library.GetChaptersForManga(r.Context(), mangaID)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("manga", mangaID).Msg("chapter list failed")
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if chapters == nil {
		chapters = []*data.Chapter{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chapters": chapters})
}

func (h *LibraryHandler) getChapter(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "id")
	chapter, err := h.library.GetChapter(r.Context(), chapterID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if chapter == nil {
		writeError(w, http.StatusNotFound, "chapter not found")
		return
	}
	writeJSON(w, http.StatusOK, chapter)
}
