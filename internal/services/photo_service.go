package services

import (
	"bytes"
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/photoalbum/server/internal/models"
	"github.com/photoalbum/server/internal/observability"
	"github.com/photoalbum/server/internal/repository"
)

// maxInsertAttempts bounds how often an upload re-allocates after losing
// the file-name race to a concurrent upload.
const maxInsertAttempts = 3

// PhotoService orchestrates photo upload, move, delete and lookup. Every
// multi-step operation is a sequence of independent file and database
// writes with no shared transaction; a crash mid-operation can leave the
// two stores inconsistent.
type PhotoService struct {
	albums           repository.AlbumRepo
	photos           repository.PhotoRepo
	storage          *StorageService
	thumbs           *ThumbnailService
	exif             *EXIFService
	alloc            *FilenameAllocator
	maxFileSizeBytes int64
}

// NewPhotoService creates a new PhotoService
func NewPhotoService(
	albums repository.AlbumRepo,
	photos repository.PhotoRepo,
	storage *StorageService,
	thumbs *ThumbnailService,
	exif *EXIFService,
	alloc *FilenameAllocator,
	maxFileSizeMB int64,
) *PhotoService {
	return &PhotoService{
		albums:           albums,
		photos:           photos,
		storage:          storage,
		thumbs:           thumbs,
		exif:             exif,
		alloc:            alloc,
		maxFileSizeBytes: maxFileSizeMB * 1024 * 1024,
	}
}

// IsImageType reports whether the declared content type is an image
func (s *PhotoService) IsImageType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image")
}

// Upload stores one photo in an album: validate, allocate a collision-free
// name, write the original, write the thumbnail, insert the record.
//
// If the insert loses the allocation race (uniqueness violation), the files
// are renamed to a freshly allocated name and the insert is retried a
// bounded number of times.
func (s *PhotoService) Upload(ctx context.Context, content []byte, fileName, mimeType string, albumID int64) (*models.Photo, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PhotoService", "Upload")
	defer span.End()
	span.SetAttributes(observability.AlbumID(albumID), attribute.String("photo.file_name", fileName))

	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return nil, models.Internal("look up album", err)
	}
	if album == nil {
		return nil, models.NotFoundf("album %d not found", albumID)
	}

	if !s.IsImageType(mimeType) {
		return nil, models.InvalidArgumentf("content type %q is not an image", mimeType)
	}
	if int64(len(content)) > s.maxFileSizeBytes {
		return nil, models.InvalidArgumentf("file exceeds the %d byte limit", s.maxFileSizeBytes)
	}

	fileName = models.SanitizeFileName(fileName)
	// Reject unencodable names before anything touches the disk, so a
	// thumbnail failure cannot orphan an already-written original.
	if !s.thumbs.CanEncode(fileName) {
		return nil, models.InvalidArgumentf("file %q has no encodable extension", fileName)
	}

	name, err := s.alloc.Allocate(ctx, fileName, albumID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if err := s.storage.WriteOriginal(albumID, name, bytes.NewReader(content)); err != nil {
		observability.RecordError(span, err)
		return nil, models.IOFailure("write original file", err)
	}

	if err := s.writeThumbnail(content, albumID, name); err != nil {
		// Remove the original so the failed upload leaves no orphan
		s.storage.Remove(s.storage.OriginalURL(albumID, name))
		observability.RecordError(span, err)
		return nil, err
	}

	photo := &models.Photo{
		AlbumID:     albumID,
		FileName:    name,
		FileSize:    int64(len(content)),
		OriginalURL: s.storage.OriginalURL(albumID, name),
		ThumbURL:    s.storage.ThumbURL(albumID, name),
		UploadedAt:  time.Now().UTC(),
	}

	for attempt := 1; ; attempt++ {
		err := s.photos.Add(ctx, photo)
		if err == nil {
			break
		}

		if !repository.IsUniqueViolation(err) || attempt >= maxInsertAttempts {
			s.removeFiles(photo)
			observability.RecordError(span, err)
			return nil, models.Internal("save photo record", err)
		}

		// A concurrent upload claimed the name between the probe and the
		// insert. Allocate again and move the files under the new name.
		next, aerr := s.alloc.Allocate(ctx, fileName, albumID)
		if aerr != nil {
			s.removeFiles(photo)
			observability.RecordError(span, aerr)
			return nil, aerr
		}
		if rerr := s.renameFiles(photo, next); rerr != nil {
			observability.RecordError(span, rerr)
			return nil, models.IOFailure("rename files after name conflict", rerr)
		}
	}

	observability.SetSuccess(span)
	return photo, nil
}

func (s *PhotoService) writeThumbnail(content []byte, albumID int64, fileName string) error {
	thumbPath, err := s.storage.FullPath(s.storage.ThumbURL(albumID, fileName))
	if err != nil {
		return err
	}

	orientation := s.exif.Orientation(content)
	if err := s.thumbs.Generate(content, thumbPath, orientation); err != nil {
		if models.KindOf(err) == models.KindInvalidArgument {
			return err
		}
		return models.IOFailure("write thumbnail", err)
	}
	return nil
}

func (s *PhotoService) removeFiles(photo *models.Photo) {
	// Best effort: the record was never created
	s.storage.Remove(photo.OriginalURL)
	s.storage.Remove(photo.ThumbURL)
}

func (s *PhotoService) renameFiles(photo *models.Photo, newName string) error {
	newOriginal := s.storage.OriginalURL(photo.AlbumID, newName)
	newThumb := s.storage.ThumbURL(photo.AlbumID, newName)

	if err := s.storage.Rename(photo.OriginalURL, newOriginal); err != nil {
		return err
	}
	if err := s.storage.Rename(photo.ThumbURL, newThumb); err != nil {
		return err
	}

	photo.FileName = newName
	photo.OriginalURL = newOriginal
	photo.ThumbURL = newThumb
	return nil
}

// Get retrieves a photo by ID
func (s *PhotoService) Get(ctx context.Context, photoID int64) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, photoID)
	if err != nil {
		return nil, models.Internal("look up photo", err)
	}
	if photo == nil {
		return nil, models.NotFoundf("photo %d not found", photoID)
	}
	return photo, nil
}

// List retrieves photos whose file name contains keyword, sorted per the
// requested field and order.
func (s *PhotoService) List(ctx context.Context, keyword, sort, orderBy string) ([]*models.Photo, error) {
	var photos []*models.Photo
	var err error

	switch sort {
	case "byDate":
		// TODO: confirm whether the asc/desc inversion for date ordering is
		// a client convention or a defect; album listing maps them straight.
		if orderBy == "asc" {
			photos, err = s.photos.List(ctx, keyword, repository.PhotosByDateDesc)
		} else {
			photos, err = s.photos.List(ctx, keyword, repository.PhotosByDateAsc)
		}
	case "byName":
		if orderBy == "asc" {
			photos, err = s.photos.List(ctx, keyword, repository.PhotosByNameAsc)
		} else {
			photos, err = s.photos.List(ctx, keyword, repository.PhotosByNameDesc)
		}
	default:
		return nil, models.InvalidArgumentf("unknown sort criteria %q", sort)
	}

	if err != nil {
		return nil, models.Internal("list photos", err)
	}
	return photos, nil
}

// Move transfers photos to another album: copy both files under a name
// allocated in the destination, delete the sources, update the record. Not
// atomic across the list or across the copy/delete pair of one photo.
func (s *PhotoService) Move(ctx context.Context, fromAlbumID, toAlbumID int64, photoIDs []int64) ([]*models.Photo, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PhotoService", "Move")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("album.from_id", fromAlbumID),
		attribute.Int64("album.to_id", toAlbumID),
		attribute.Int("photo.count", len(photoIDs)),
	)

	toAlbum, err := s.albums.GetByID(ctx, toAlbumID)
	if err != nil {
		return nil, models.Internal("look up album", err)
	}
	if toAlbum == nil {
		return nil, models.NotFoundf("album %d not found", toAlbumID)
	}

	var moved []*models.Photo
	for _, photoID := range photoIDs {
		photo, err := s.photos.GetByID(ctx, photoID)
		if err != nil {
			return nil, models.Internal("look up photo", err)
		}
		if photo == nil {
			return nil, models.NotFoundf("photo %d not found", photoID)
		}

		name, err := s.alloc.Allocate(ctx, photo.FileName, toAlbumID)
		if err != nil {
			observability.RecordError(span, err)
			return nil, err
		}

		newOriginal := s.storage.OriginalURL(toAlbumID, name)
		newThumb := s.storage.ThumbURL(toAlbumID, name)

		if err := s.storage.Copy(photo.OriginalURL, newOriginal); err != nil {
			observability.RecordError(span, err)
			return nil, models.IOFailure("copy original file", err)
		}
		if err := s.storage.Copy(photo.ThumbURL, newThumb); err != nil {
			observability.RecordError(span, err)
			return nil, models.IOFailure("copy thumbnail file", err)
		}
		if err := s.storage.Remove(photo.OriginalURL); err != nil {
			observability.RecordError(span, err)
			return nil, models.IOFailure("remove source original", err)
		}
		if err := s.storage.Remove(photo.ThumbURL); err != nil {
			observability.RecordError(span, err)
			return nil, models.IOFailure("remove source thumbnail", err)
		}

		photo.AlbumID = toAlbumID
		photo.FileName = name
		photo.OriginalURL = newOriginal
		photo.ThumbURL = newThumb

		if err := s.photos.Update(ctx, photo); err != nil {
			observability.RecordError(span, err)
			return nil, models.Internal("update photo record", err)
		}

		moved = append(moved, photo)
	}

	observability.SetSuccess(span)
	return moved, nil
}

// Delete removes photos: both files first, then the record. A missing file
// is a fatal IO failure; a crash between the two steps leaves a dangling
// record.
func (s *PhotoService) Delete(ctx context.Context, photoIDs []int64) ([]*models.Photo, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PhotoService", "Delete")
	defer span.End()
	span.SetAttributes(attribute.Int("photo.count", len(photoIDs)))

	var deleted []*models.Photo
	for _, photoID := range photoIDs {
		photo, err := s.photos.GetByID(ctx, photoID)
		if err != nil {
			return nil, models.Internal("look up photo", err)
		}
		if photo == nil {
			return nil, models.NotFoundf("photo %d not found", photoID)
		}

		if err := s.storage.Remove(photo.OriginalURL); err != nil {
			observability.RecordError(span, err)
			return nil, models.IOFailure("remove original file", err)
		}
		if err := s.storage.Remove(photo.ThumbURL); err != nil {
			observability.RecordError(span, err)
			return nil, models.IOFailure("remove thumbnail file", err)
		}

		if _, err := s.photos.Delete(ctx, photoID); err != nil {
			observability.RecordError(span, err)
			return nil, models.Internal("delete photo record", err)
		}

		deleted = append(deleted, photo)
	}

	observability.SetSuccess(span)
	return deleted, nil
}

// OriginalFilePath resolves a photo ID to the absolute path of its original
// file and its display name, for download streaming.
func (s *PhotoService) OriginalFilePath(ctx context.Context, photoID int64) (string, string, error) {
	photo, err := s.Get(ctx, photoID)
	if err != nil {
		return "", "", err
	}

	path, err := s.storage.FullPath(photo.OriginalURL)
	if err != nil {
		return "", "", err
	}
	return path, photo.FileName, nil
}
