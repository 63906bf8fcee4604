package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inkfall/storyloom/internal/assembly"
	"github.com/inkfall/storyloom/internal/bible"
	"github.com/inkfall/storyloom/internal/provider"
	"github.com/inkfall/storyloom/internal/writer"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store    bible.Store
	drafts   bible.DraftStore
	chapters *assembly.ChapterBuilder
	project  *assembly.ProjectBuilder
	writer   *writer.Writer
	router   *provider.Router
	logger   *zap.Logger
}

// NewHandler creates a new API handler. writer and router may be nil
// when no LLM provider is configured; the bible and context endpoints
// keep working.
func NewHandler(
	store bible.Store,
	drafts bible.DraftStore,
	chapters *assembly.ChapterBuilder,
	project *assembly.ProjectBuilder,
	w *writer.Writer,
	router *provider.Router,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		store:    store,
		drafts:   drafts,
		chapters: chapters,
		project:  project,
		writer:   w,
		router:   router,
		logger:   logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Post("/tokens/estimate", h.estimateTokens)
		r.Get("/context", h.projectContext)

		// Story bible routes
		r.Get("/characters", h.listCharacters)
		r.Post("/characters", h.saveCharacter)
		r.Get("/characters/{id}", h.getCharacter)
		r.Delete("/characters/{id}", h.deleteCharacter)

		r.Get("/locations", h.listLocations)
		r.Post("/locations", h.saveLocation)
		r.Get("/locations/{id}", h.getLocation)
		r.Delete("/locations/{id}", h.deleteLocation)

		r.Get("/arcs", h.listArcs)
		r.Post("/arcs", h.saveArc)
		r.Get("/arcs/{id}", h.getArc)
		r.Delete("/arcs/{id}", h.deleteArc)
		r.Get("/arcs/{id}/chapters", h.listArcChapters)

		r.Post("/relations", h.saveRelation)
		r.Delete("/relations/{id}", h.deleteRelation)

		r.Get("/threads", h.listThreads)
		r.Post("/threads", h.saveThread)
		r.Delete("/threads/{id}", h.deleteThread)

		r.Post("/hooks", h.saveHook)
		r.Delete("/hooks/{id}", h.deleteHook)

		r.Get("/world", h.listWorldEntries)
		r.Post("/world", h.saveWorldEntry)
		r.Delete("/world/{id}", h.deleteWorldEntry)

		// Chapter routes
		r.Post("/chapters", h.saveChapter)
		r.Get("/chapters/{id}", h.getChapter)
		r.Delete("/chapters/{id}", h.deleteChapter)
		r.Get("/volumes/{volumeID}/chapters", h.listVolumeChapters)
		r.Get("/chapters/{id}/context", h.chapterContext)
		r.Get("/chapters/{id}/hooks", h.listChapterHooks)
		r.Get("/chapters/{id}/drafts", h.listChapterDrafts)
		r.Post("/chapters/{id}/generate", h.generateDraft)

		// Provider routes
		r.Get("/providers", h.listProviders)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "storyloom"})
}

type estimateRequest struct {
	Text string `json:"text"`
}

func (h *Handler) estimateTokens(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"tokens": assembly.CountTokens(req.Text)})
}

func (h *Handler) projectContext(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.project.Build(r.Context()))
}

func (h *Handler) chapterContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, h.chapters.Build(r.Context(), id))
}

func (h *Handler) generateDraft(w http.ResponseWriter, r *http.Request) {
	if h.writer == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no provider configured"})
		return
	}
	id := chi.URLParam(r, "id")

	var req writer.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	req.ChapterID = id
	if req.Model == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "model is required"})
		return
	}

	draft, err := h.writer.GenerateDraft(r.Context(), &req)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (h *Handler) listChapterDrafts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	drafts, err := h.drafts.DraftsForChapter(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if drafts == nil {
		drafts = []*bible.Draft{}
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (h *Handler) listCharacters(w http.ResponseWriter, r *http.Request) {
	chars, err := h.store.AllCharacters(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, chars)
}

func (h *Handler) saveCharacter(w http.ResponseWriter, r *http.Request) {
	var c bible.Character
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if c.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.New().String()
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	if err := h.store.SaveCharacter(r.Context(), &c); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) getCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.store.FindCharacter(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if c == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "character not found"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCharacter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteCharacter(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.store.AllLocations(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

func (h *Handler) saveLocation(w http.ResponseWriter, r *http.Request) {
	var l bible.Location
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if l.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	now := time.Now().UTC()
	if l.ID == "" {
		l.ID = uuid.New().String()
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	if err := h.store.SaveLocation(r.Context(), &l); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *Handler) getLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, err := h.store.FindLocation(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if l == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) deleteLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteLocation(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listArcs(w http.ResponseWriter, r *http.Request) {
	arcs, err := h.store.AllArcs(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, arcs)
}

func (h *Handler) saveArc(w http.ResponseWriter, r *http.Request) {
	var a bible.Arc
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if a.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.New().String()
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if err := h.store.SaveArc(r.Context(), &a); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) getArc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.store.FindArc(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "arc not found"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) deleteArc(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteArc(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) saveRelation(w http.ResponseWriter, r *http.Request) {
	var rel bible.Relation
	if err := json.NewDecoder(r.Body).Decode(&rel); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if rel.SourceID == "" || rel.TargetID == "" || rel.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "source_id, target_id and type are required"})
		return
	}
	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	rel.UpdatedAt = time.Now().UTC()
	if err := h.store.SaveRelation(r.Context(), &rel); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (h *Handler) deleteRelation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteRelation(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.store.ActiveForeshadowing(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (h *Handler) saveThread(w http.ResponseWriter, r *http.Request) {
	var f bible.Foreshadowing
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if f.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if f.Status == "" {
		f.Status = bible.ThreadPlanted
	}
	now := time.Now().UTC()
	if f.ID == "" {
		f.ID = uuid.New().String()
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	if err := h.store.SaveForeshadowing(r.Context(), &f); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handler) deleteThread(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteForeshadowing(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) saveHook(w http.ResponseWriter, r *http.Request) {
	var hk bible.Hook
	if err := json.NewDecoder(r.Body).Decode(&hk); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if hk.ChapterID == "" || hk.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "chapter_id and content are required"})
		return
	}
	if hk.Kind == "" {
		hk.Kind = "cliffhanger"
	}
	if hk.ID == "" {
		hk.ID = uuid.New().String()
		hk.CreatedAt = time.Now().UTC()
	}
	if err := h.store.SaveHook(r.Context(), &hk); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, hk)
}

func (h *Handler) deleteHook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteHook(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listChapterHooks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hooks, err := h.store.HooksForChapter(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if hooks == nil {
		hooks = []*bible.Hook{}
	}
	writeJSON(w, http.StatusOK, hooks)
}

func (h *Handler) listWorldEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.AllWorldEntries(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) saveWorldEntry(w http.ResponseWriter, r *http.Request) {
	var e bible.WorldEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if e.Title == "" || e.Rule == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and rule are required"})
		return
	}
	if e.Kind == "" {
		e.Kind = bible.WorldSocialRule
	}
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.New().String()
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	if err := h.store.SaveWorldEntry(r.Context(), &e); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) deleteWorldEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteWorldEntry(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) saveChapter(w http.ResponseWriter, r *http.Request) {
	var ch bible.Chapter
	if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if ch.Title == "" || ch.VolumeID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title and volume_id are required"})
		return
	}
	now := time.Now().UTC()
	if ch.ID == "" {
		ch.ID = uuid.New().String()
		ch.CreatedAt = now
	}
	ch.UpdatedAt = now
	if err := h.store.SaveChapter(r.Context(), &ch); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (h *Handler) getChapter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ch, err := h.store.FindChapter(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if ch == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "chapter not found"})
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (h *Handler) deleteChapter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteChapter(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) listVolumeChapters(w http.ResponseWriter, r *http.Request) {
	volumeID := chi.URLParam(r, "volumeID")
	chapters, err := h.store.ChaptersInVolume(r.Context(), volumeID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if chapters == nil {
		chapters = []*bible.Chapter{}
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (h *Handler) listArcChapters(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	chapters, err := h.store.ChaptersInArc(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if chapters == nil {
		chapters = []*bible.Chapter{}
	}
	writeJSON(w, http.StatusOK, chapters)
}

type providerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *Handler) listProviders(w http.ResponseWriter, r *http.Request) {
	infos := []providerInfo{}
	if h.router != nil {
		for _, p := range h.router.ListProviders() {
			infos = append(infos, providerInfo{ID: p.ID(), Name: p.Name()})
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
