package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/photoalbum/server/internal/models"
	"github.com/photoalbum/server/internal/observability"
	"github.com/photoalbum/server/internal/repository"
)

// recentThumbCount is how many recent thumbnails each album summary carries
const recentThumbCount = 4

// AlbumService manages albums and their listing summaries
type AlbumService struct {
	albums  repository.AlbumRepo
	photos  repository.PhotoRepo
	storage *StorageService
}

// NewAlbumService creates a new AlbumService
func NewAlbumService(albums repository.AlbumRepo, photos repository.PhotoRepo, storage *StorageService) *AlbumService {
	return &AlbumService{albums: albums, photos: photos, storage: storage}
}

// Create validates the name, persists the album and creates its storage
// directories. A directory failure after the insert surfaces as an IO
// failure with the record left in place.
func (s *AlbumService) Create(ctx context.Context, name string) (*models.Album, error) {
	ctx, span := observability.StartServiceSpan(ctx, "AlbumService", "Create")
	defer span.End()
	span.SetAttributes(attribute.String("album.name", name))

	album, err := models.NewAlbum(name)
	if err != nil {
		return nil, err
	}

	if err := s.albums.Add(ctx, album); err != nil {
		observability.RecordError(span, err)
		return nil, models.Internal("save album record", err)
	}

	if err := s.storage.EnsureAlbumDirs(album.ID); err != nil {
		observability.RecordError(span, err)
		return nil, models.IOFailure("create album directories", err)
	}

	observability.SetSuccess(span)
	return album, nil
}

// Get retrieves an album by ID together with its photo count
func (s *AlbumService) Get(ctx context.Context, albumID int64) (*models.Album, int, error) {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, 0, models.Internal("look up album", err)
	}
	if album == nil {
		return nil, 0, models.NotFoundf("album %d not found", albumID)
	}

	count, err := s.photos.CountByAlbum(ctx, albumID)
	if err != nil {
		return nil, 0, models.Internal("count photos", err)
	}
	return album, count, nil
}

// GetByName retrieves an album by exact name, or nil when none matches
func (s *AlbumService) GetByName(ctx context.Context, name string) (*models.Album, error) {
	album, err := s.albums.GetByName(ctx, name)
	if err != nil {
		return nil, models.Internal("look up album", err)
	}
	return album, nil
}

// List retrieves album summaries whose name contains keyword, sorted per
// the requested field and order. Each summary carries the photo count and
// the thumbnail paths of the album's most recent photos, resolved against
// the storage root.
func (s *AlbumService) List(ctx context.Context, keyword, sort, orderBy string) ([]*models.AlbumSummary, error) {
	var albums []*models.Album
	var err error

	// Exactly four recognized (sort, orderBy) pairs; anything else is an
	// invalid argument, including a bad orderBy on a good sort field.
	switch {
	case sort == "byName" && orderBy == "asc":
		albums, err = s.albums.List(ctx, keyword, repository.AlbumsByNameAsc)
	case sort == "byName" && orderBy == "desc":
		albums, err = s.albums.List(ctx, keyword, repository.AlbumsByNameDesc)
	case sort == "byDate" && orderBy == "asc":
		albums, err = s.albums.List(ctx, keyword, repository.AlbumsByDateAsc)
	case sort == "byDate" && orderBy == "desc":
		albums, err = s.albums.List(ctx, keyword, repository.AlbumsByDateDesc)
	default:
		return nil, models.InvalidArgumentf("unknown sort criteria %q with order %q", sort, orderBy)
	}
	if err != nil {
		return nil, models.Internal("list albums", err)
	}

	summaries := make([]*models.AlbumSummary, 0, len(albums))
	for _, album := range albums {
		count, err := s.photos.CountByAlbum(ctx, album.ID)
		if err != nil {
			return nil, models.Internal("count photos", err)
		}

		recent, err := s.photos.TopRecentByAlbum(ctx, album.ID, recentThumbCount)
		if err != nil {
			return nil, models.Internal("list recent photos", err)
		}

		thumbURLs := make([]string, 0, len(recent))
		for _, photo := range recent {
			path, err := s.storage.FullPath(photo.ThumbURL)
			if err != nil {
				return nil, err
			}
			thumbURLs = append(thumbURLs, path)
		}

		summaries = append(summaries, &models.AlbumSummary{
			Album:     album,
			Count:     count,
			ThumbURLs: thumbURLs,
		})
	}

	return summaries, nil
}
