package repository

import (
	"context"
	"database/sql"

	"github.com/photoalbum/server/internal/models"
)

// PhotoRepositoryPostgres handles photo persistence on PostgreSQL
type PhotoRepositoryPostgres struct {
	db DB
}

// NewPhotoRepositoryPostgres creates a new PhotoRepositoryPostgres
func NewPhotoRepositoryPostgres(db DB) *PhotoRepositoryPostgres {
	return &PhotoRepositoryPostgres{db: db}
}

// GetByID retrieves a photo by its ID, or nil if absent
func (r *PhotoRepositoryPostgres) GetByID(ctx context.Context, id int64) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE photo_id = $1`

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
// album, or nil if absent
func (r *PhotoRepositoryPostgres) GetByNameInAlbum(ctx context.Context, albumID int64, fileName string) (*models.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE album_id = $1 AND file_name = $2`

	photo, err := scanPhoto(r.db.QueryRowContext(ctx, query, albumID, fileName))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

// List retrieves photos whose file name contains keyword, in the requested order
func (r *PhotoRepositoryPostgres) List(ctx context.Context, keyword string, sort PhotoSort) ([]*models.Photo, error) {
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
		WHERE strpos(file_name, $1) > 0 OR $1 = ''
		ORDER BY ` + orderBy

	rows, err := r.db.QueryContext(ctx, query, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPhotos(rows)
}

// TopRecentByAlbum retrieves up to limit photos of an album, most recently
// uploaded first
func (r *PhotoRepositoryPostgres) TopRecentByAlbum(ctx context.Context, albumID int64, limit int) ([]*models.Photo, error) {
	query := `
		SELECT ` + photoColumns + `
		FROM photos
		WHERE album_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, albumID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPhotos(rows)
}

// CountByAlbum returns the number of photos in an album
func (r *PhotoRepositoryPostgres) CountByAlbum(ctx context.Context, albumID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM photos WHERE album_id = $1`, albumID).Scan(&count)
	return count, err
}

// Add inserts a new photo and assigns its generated ID
func (r *PhotoRepositoryPostgres) Add(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (album_id, file_name, file_size, original_url, thumb_url, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING photo_id
	`

	return r.db.QueryRowContext(ctx, query,
		photo.AlbumID,
		photo.FileName,
		photo.FileSize,
		photo.OriginalURL,
		photo.ThumbURL,
		photo.UploadedAt,
	).Scan(&photo.ID)
}

// Update rewrites the mutable fields of a photo record
func (r *PhotoRepositoryPostgres) Update(ctx context.Context, photo *models.Photo) error {
	query := `
		UPDATE photos
		SET album_id = $1, file_name = $2, original_url = $3, thumb_url = $4
		WHERE photo_id = $5
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
func (r *PhotoRepositoryPostgres) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM photos WHERE photo_id = $1`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}
