package repository

import (
	"context"
	"database/sql"

	"github.com/photoalbum/server/internal/models"
)

const photoColumns = `photo_id, album_id, file_name, file_size, original_url, thumb_url, uploaded_at`

// PhotoRepository handles photo persistence on SQLite
type PhotoRepository struct {
	db DB
}

// NewPhotoRepository creates a new PhotoRepository
func NewPhotoRepository(db DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func scanPhoto(row interface{ Scan(...interface{}) error }) (*models.Photo, error) {
	var photo models.Photo
	err := row.Scan(
		&photo.ID,
		&photo.AlbumID,
		&photo.FileName,
		&photo.FileSize,
		&photo.OriginalURL,
		&photo.ThumbURL,
		&photo.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// GetByID retrieves a photo by its ID, or nil if absent
func (r *PhotoRepository) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE photo_id = ?`

	photo, err := scanPhoto(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// GetByNameInAlbum retrieves a photo by its exact display name within an
// album, or nil if absent. This is the filename allocator's probe query.
func (r *PhotoRepository) GetByNameInAlbum(ctx context.Context, albumID int64, fileName string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE album_id = ? AND file_name = ?`

	photo, err := scanPhoto(r.db.QueryRowContext(ctx, query, albumID, fileName))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// List retrieves photos whose file name contains keyword, in the requested
// order. Case-sensitive, as with album listing.
func (r *PhotoRepository) List(ctx context.Context, keyword string, sort PhotoSort) ([]*models.Photo, error) {
	var orderBy string
	switch sort {
	case PhotosByNameAsc:
		orderBy = "file_name ASC"
	case PhotosByNameDesc:
		orderBy = "file_name DESC"
	case PhotosByDateAsc:
		orderBy = "uploaded_at ASC"
	case PhotosByDateDesc:
		orderBy = "uploaded_at DESC"
	default:
		return nil, models.InvalidArgumentf("unknown photo sort %d", sort)
	}

	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE instr(file_name, ?) > 0 OR ? = ''
		ORDER BY ` + orderBy

	rows, err := r.db.QueryContext(ctx, query, keyword, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPhotos(rows)
}

// TopRecentByAlbum retrieves up to limit photos of an album, most recently
// uploaded first. Used for album list thumbnail previews.
func (r *PhotoRepository) TopRecentByAlbum(ctx context.Context, albumID int64, limit int) ([]*models.Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE album_id = ?
		ORDER BY uploaded_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, albumID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPhotos(rows)
}

// CountByAlbum returns the number of photos in an album
func (r *PhotoRepository) CountByAlbum(ctx context.Context, albumID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos WHERE album_id = ?`, albumID).Scan(&count)
	return count, err
}

// Add inserts a new photo and assigns its generated ID. Violating the
// (album_id, file_name) uniqueness constraint surfaces as an error that
// IsUniqueViolation recognizes.
func (r *PhotoRepository) Add(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (album_id, file_name, file_size, original_url, thumb_url, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		photo.AlbumID,
		photo.FileName,
		photo.FileSize,
		photo.OriginalURL,
		photo.ThumbURL,
		photo.UploadedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	photo.ID = id
	return nil
}

// Update rewrites the mutable fields of a photo record (album, name and
// URLs change on move)
func (r *PhotoRepository) Update(ctx context.Context, photo *models.Photo) error {
	query := `
		UPDATE photos
		SET album_id = ?, file_name = ?, original_url = ?, thumb_url = ?
		WHERE photo_id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		photo.AlbumID,
		photo.FileName,
		photo.OriginalURL,
		photo.ThumbURL,
		photo.ID,
	)
	return err
}

// Delete removes a photo by ID
func (r *PhotoRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE photo_id = ?`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func collectPhotos(rows *sql.Rows) ([]*models.Photo, error) {
	var photos []*models.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photos = append(photos, photo)
	}

	if photos == nil {
		photos = []*models.Photo{}
	}

	return photos, rows.Err()
}
