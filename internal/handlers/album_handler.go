package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photoalbum/server/internal/models"
	"github.com/photoalbum/server/internal/observability"
	"github.com/photoalbum/server/internal/services"
)

// AlbumHandler handles album-related endpoints
type AlbumHandler struct {
	albums  *services.AlbumService
	metrics *observability.BusinessMetrics
}

// NewAlbumHandler creates a new AlbumHandler
func NewAlbumHandler(albums *services.AlbumService, metrics *observability.BusinessMetrics) *AlbumHandler {
	return &AlbumHandler{albums: albums, metrics: metrics}
}

// Create handles album creation
// @Summary Create an album
// @Description Create a new album and its storage directories
// @Tags albums
// @Accept json
// @Produce json
// @Param request body models.CreateAlbumRequest true "Album to create"
// @Success 201 {object} models.AlbumResponse "Album created"
// @Failure 400 {object} models.ErrorResponse "Invalid album name"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Security ApiKeyAuth
// @Router /api/albums [post]
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, models.InvalidArgumentf("request body must be JSON"))
		return
	}

	album, err := h.albums.Create(r.Context(), req.AlbumName)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.metrics.RecordAlbumCreate(r.Context())
	observability.WithContext(r.Context()).Infof("Album created: %d (%s)", album.ID, album.Name)

	respondJSON(w, http.StatusCreated, models.AlbumToResponse(album, 0, nil))
}

// Get handles album retrieval by ID
// @Summary Get an album
// @Description Get a single album with its photo count
// @Tags albums
// @Produce json
// @Param albumId path int true "Album ID"
// @Success 200 {object} models.AlbumResponse "Album found"
// @Failure 400 {object} models.ErrorResponse "Invalid album ID"
// @Failure 404 {object} models.ErrorResponse "Album not found"
// @Security ApiKeyAuth
// @Router /api/albums/{albumId} [get]
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "albumId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	album, count, err := h.albums.Get(r.Context(), albumID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.AlbumToResponse(album, count, nil))
}

// List handles album listing with search and sort
// @Summary List albums
// @Description List albums matching a keyword, with photo counts and recent thumbnails
// @Tags albums
// @Produce json
// @Param keyword query string false "Filter albums whose name contains this substring"
// @Param sort query string false "Sort field: byDate or byName" default(byDate)
// @Param orderBy query string false "Sort order: asc or desc" default(desc)
// @Success 200 {array} models.AlbumResponse "Matching albums"
// @Failure 400 {object} models.ErrorResponse "Unknown sort criteria"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Security ApiKeyAuth
// @Router /api/albums [get]
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	sort := queryDefault(r, "sort", "byDate")
	orderBy := queryDefault(r, "orderBy", "desc")

	summaries, err := h.albums.List(r.Context(), keyword, sort, orderBy)
	if err != nil {
		respondError(w, r, err)
		return
	}

	responses := make([]models.AlbumResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, models.AlbumToResponse(summary.Album, summary.Count, summary.ThumbURLs))
	}

	respondJSON(w, http.StatusOK, responses)
}

// pathID parses an integer URL parameter
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, models.InvalidArgumentf("%s must be an integer", name)
	}
	return id, nil
}

// queryDefault returns a query parameter or its default when absent
func queryDefault(r *http.Request, name, def string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return v
	}
	return def
}
