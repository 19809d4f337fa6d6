package handlers

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/photoalbum/server/internal/models"
	"github.com/photoalbum/server/internal/observability"
	"github.com/photoalbum/server/internal/services"
)

// maxUploadMemory caps how much of a multipart upload is held in memory
// before spilling to temp files.
const maxUploadMemory = 50 << 20

// PhotoHandler handles photo-related endpoints
type PhotoHandler struct {
	photos  *services.PhotoService
	metrics *observability.BusinessMetrics
}

// NewPhotoHandler creates a new PhotoHandler
func NewPhotoHandler(photos *services.PhotoService, metrics *observability.BusinessMetrics) *PhotoHandler {
	return &PhotoHandler{photos: photos, metrics: metrics}
}

// Upload handles photo uploads into an album
// @Summary Upload photos
// @Description Upload one or more photos into an album. Colliding file names get a numbered suffix.
// @Tags photos
// @Accept multipart/form-data
// @Produce json
// @Param albumId path int true "Album ID"
// @Param photos formData file true "Photo files to upload"
// @Success 200 {array} models.PhotoResponse "Created photo metadata"
// @Failure 400 {object} models.ErrorResponse "Non-image content or invalid request"
// @Failure 404 {object} models.ErrorResponse "Album not found"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Security ApiKeyAuth
// @Router /api/albums/{albumId}/photos [post]
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	albumID, err := pathID(r, "albumId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondError(w, r, models.InvalidArgumentf("request must be multipart/form-data"))
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		respondError(w, r, models.InvalidArgumentf("no files provided in field %q", "photos"))
		return
	}

	responses := make([]models.PhotoResponse, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			respondError(w, r, models.IOFailure("open uploaded file", err))
			return
		}

		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondError(w, r, models.IOFailure("read uploaded file", err))
			return
		}

		photo, err := h.photos.Upload(r.Context(), content, header.Filename, header.Header.Get("Content-Type"), albumID)
		if err != nil {
			h.metrics.RecordPhotoUpload(r.Context(), albumID, int64(len(content)), false)
			respondError(w, r, err)
			return
		}

		h.metrics.RecordPhotoUpload(r.Context(), albumID, photo.FileSize, true)
		observability.WithContext(r.Context()).Infof("Photo uploaded: %d (%s) into album %d", photo.ID, photo.FileName, albumID)

		responses = append(responses, models.PhotoToResponse(photo))
	}

	respondJSON(w, http.StatusOK, responses)
}

// Get handles photo retrieval by ID
// @Summary Get a photo
// @Description Get a single photo's metadata
// @Tags photos
// @Produce json
// @Param albumId path int true "Album ID"
// @Param photoId path int true "Photo ID"
// @Success 200 {object} models.PhotoResponse "Photo found"
// @Failure 400 {object} models.ErrorResponse "Invalid photo ID"
// @Failure 404 {object} models.ErrorResponse "Photo not found"
// @Security ApiKeyAuth
// @Router /api/albums/{albumId}/photos/{photoId} [get]
func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	photoID, err := pathID(r, "photoId")
	if err != nil {
		respondError(w, r, err)
		return
	}

	photo, err := h.photos.Get(r.Context(), photoID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.PhotoToResponse(photo))
}

// List handles photo listing with search and sort
// @Summary List photos
// @Description List photos whose file name contains a keyword
// @Tags photos
// @Produce json
// @Param albumId path int true "Album ID"
// @Param keyword query string false "Filter photos whose file name contains this substring"
// @Param sort query string false "Sort field: byDate or byName" default(byDate)
// @Param orderBy query string false "Sort order: asc or desc" default(desc)
// @Success 200 {array} models.PhotoResponse "Matching photos"
// @Failure 400 {object} models.ErrorResponse "Unknown sort criteria"
// @Failure 500 {object} models.ErrorResponse "Server error"
// @Security ApiKeyAuth
// @Router /api/albums/{albumId}/photos [get]
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	sort := queryDefault(r, "sort", "byDate")
	orderBy := queryDefault(r, "orderBy", "desc")

	photos, err := h.photos.List(r.Context(), keyword, sort, orderBy)
	if err != nil {
		respondError(w, r, err)
		return
	}

	responses := make([]models.PhotoResponse, 0, len(photos))
	for _, photo := range photos {
		responses = append(responses, models.PhotoToResponse(photo))
	}

	respondJSON(w, http.StatusOK, responses)
}

// Download handles photo downloads
// @Summary Download photos
// @Description Stream a single photo's original bytes, or a zip archive for multiple photo IDs
// @Tags photos
// @Produce octet-stream
// @Param albumId path int true "Album ID"
// @Param photoIds query string true "Comma-separated photo IDs"
// @Success 200 {file} binary "Photo bytes or zip archive"
// @Failure 400 {object} models.ErrorResponse "Invalid photo IDs"
// @Failure 404 {object} models.ErrorResponse "Photo not found"
// @Failure 500 {object} models.ErrorResponse "I/O failure"
// @Security ApiKeyAuth
// @Router /api/albums/{albumId}/photos/download [get]
func (h *PhotoHandler) Download(w http.ResponseWriter, r *http.Request) {
	photoIDs, err := parsePhotoIDs(r.URL.Query()["photoIds"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.metrics.RecordPhotoDownload(r.Context(), len(photoIDs))

	if len(photoIDs) == 1 {
		h.downloadSingle(w, r, photoIDs[0])
		return
	}
	h.downloadZip(w, r, photoIDs)
}

func (h *PhotoHandler) downloadSingle(w http.ResponseWriter, r *http.Request, photoID int64) {
	path, fileName, err := h.photos.OriginalFilePath(r.Context(), photoID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		respondError(w, r, models.IOFailure("open original file", err))
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if _, err := io.Copy(w, file); err != nil {
		observability.WithContext(r.Context()).Errorf("Streaming photo %d failed: %v", photoID, err)
	}
}

func (h *PhotoHandler) downloadZip(w http.ResponseWriter, r *http.Request, photoIDs []int64) {
	// Resolve every file up front so lookup failures still produce a clean
	// error response instead of a truncated archive.
	type entry struct {
		path     string
		fileName string
	}
	entries := make([]entry, 0, len(photoIDs))
	for _, photoID := range photoIDs {
		path, fileName, err := h.photos.OriginalFilePath(r.Context(), photoID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		entries = append(entries, entry{path: path, fileName: fileName})
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "photos-"+uuid.NewString()+".zip"))

	zw := zip.NewWriter(w)
	for _, e := range entries {
		file, err := os.Open(e.path)
		if err != nil {
			observability.WithContext(r.Context()).Errorf("Opening %s for archive failed: %v", e.path, err)
			zw.Close()
			return
		}

		entryWriter, err := zw.Create(e.fileName)
		if err == nil {
			_, err = io.Copy(entryWriter, file)
		}
		file.Close()
		if err != nil {
			observability.WithContext(r.Context()).Errorf("Writing %s to archive failed: %v", e.fileName, err)
			zw.Close()
			return
		}
	}

	if err := zw.Close(); err != nil {
		observability.WithContext(r.Context()).Errorf("Closing archive failed: %v", err)
	}
}

// Move handles moving photos between albums
// @Summary Move photos
// @Description Move photos from one album to another, relocating their files
// @Tags photos
// @Produce json
// @Param albumId path int true "Album ID"
// @Param fromAlbumId query int true "Source album ID"
// @Param toAlbumId query int true "Destination album ID"
// @Param photoIds query string true "Comma-separated photo IDs"
// @Success 200 {array} models.PhotoResponse "Moved photo metadata"
// @Failure 400 {object} models.ErrorResponse "Invalid parameters"
// @Failure 404 {object} models.ErrorResponse "Album or photo not found"
// @Failure 500 {object} models.ErrorResponse "I/O failure"
// @Security ApiKeyAuth
// @Router /api/albums/{albumId}/photos/move [put]
func (h *PhotoHandler) Move(w http.ResponseWriter, r *http.Request) {
	fromAlbumID, err := queryID(r, "fromAlbumId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	toAlbumID, err := queryID(r, "toAlbumId")
	if err != nil {
		respondError(w, r, err)
		return
	}
	photoIDs, err := parsePhotoIDs(r.URL.Query()["photoIds"])
	if err != nil {
		respondError(w, r, err)
		return
	}

	moved, err := h.photos.Move(r.Context(), fromAlbumID, toAlbumID, photoIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}

	h.metrics.RecordPhotoMove(r.Context(), fromAlbumID, toAlbumID, len(moved))
	observability.WithContext(r.Context()).Infof("Moved %d photos from album %d to album %d", len(moved), fromAlbumID, toAlbumID)

	responses := make([]models.PhotoResponse, 0, len(moved))
	for _, photo := range moved {
		responses = append(responses, models.PhotoToResponse(photo))
	}

	respondJSON(w, http.StatusOK, responses)
}

// Delete handles photo deletion
// @Summary Delete photos
// @Description Delete photos and their stored files
// @Tags photos
// @Accept json
// @Produce json
// @Param albumId path int true "Album ID"
// @Param request body models.DeletePhotosRequest true "Photo IDs to delete"
// @Success 200 {array} models.PhotoResponse "Deleted photo metadata"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 404 {object} models.ErrorResponse "Photo not found"
// @Failure 500 {object} models.ErrorResponse "I/O failure"
// @Security ApiKeyAuth
// @Router /api/albums/{albumId}/photos [delete]
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.DeletePhotosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, models.InvalidArgumentf("request body must be JSON"))
		return
	}
	if len(req.PhotoIDs) == 0 {
		respondError(w, r, models.InvalidArgumentf("no photo IDs provided"))
		return
	}

	deleted, err := h.photos.Delete(r.Context(), req.PhotoIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var bytesFreed int64
	for _, photo := range deleted {
		bytesFreed += photo.FileSize
	}
	h.metrics.RecordPhotoDelete(r.Context(), len(deleted), bytesFreed)
	observability.WithContext(r.Context()).Infof("Deleted %d photos", len(deleted))

	responses := make([]models.PhotoResponse, 0, len(deleted))
	for _, photo := range deleted {
		responses = append(responses, models.PhotoToResponse(photo))
	}

	respondJSON(w, http.StatusOK, responses)
}

// queryID parses an integer query parameter
func queryID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0, models.InvalidArgumentf("%s must be an integer", name)
	}
	return id, nil
}

// parsePhotoIDs flattens repeated and comma-separated photoIds parameters
// into an ordered ID list.
func parsePhotoIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, models.InvalidArgumentf("photoIds must be integers, got %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, models.InvalidArgumentf("no photo IDs provided")
	}
	return ids, nil
}
