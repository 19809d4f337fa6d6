package repository

import (
	"context"
	"database/sql"

	"github.com/photoalbum/server/internal/models"
)

// AlbumRepositoryPostgres handles album persistence on PostgreSQL
type AlbumRepositoryPostgres struct {
	db DB
}

// NewAlbumRepositoryPostgres creates a new AlbumRepositoryPostgres
func NewAlbumRepositoryPostgres(db DB) *AlbumRepositoryPostgres {
	return &AlbumRepositoryPostgres{db: db}
}

// GetByID retrieves an album by its ID, or nil if absent
func (r *AlbumRepositoryPostgres) GetByID(ctx context.Context, id int64) (*models.Album, error) {
	query := `SELECT album_id, album_name, created_at FROM albums WHERE album_id = $1`

	var album models.Album
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&album.ID,
		&album.Name,
		&album.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &album, nil
}

// GetByName retrieves the first album with the exact name, or nil if absent
func (r *AlbumRepositoryPostgres) GetByName(ctx context.Context, name string) (*models.Album, error) {
	query := `SELECT album_id, album_name, created_at FROM albums WHERE album_name = $1 LIMIT 1`

	var album models.Album
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&album.ID,
		&album.Name,
		&album.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &album, nil
}

// List retrieves albums whose name contains keyword, in the requested order.
// strpos() keeps the substring match case-sensitive.
func (r *AlbumRepositoryPostgres) List(ctx context.Context, keyword string, sort AlbumSort) ([]*models.Album, error) {
	var orderBy string
	switch sort {
	case AlbumsByNameAsc:
		orderBy = "album_name ASC"
	case AlbumsByNameDesc:
		orderBy = "album_name DESC"
	case AlbumsByDateAsc:
		orderBy = "created_at ASC"
	case AlbumsByDateDesc:
		orderBy = "created_at DESC"
	default:
		return nil, models.InvalidArgumentf("unknown album sort %d", sort)
	}

	query := `
		SELECT album_id, album_name, created_at
		FROM albums
		WHERE strpos(album_name, $1) > 0 OR $1 = ''
		ORDER BY ` + orderBy

	rows, err := r.db.QueryContext(ctx, query, keyword)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var albums []*models.Album
	for rows.Next() {
		var album models.Album
		if err := rows.Scan(&album.ID, &album.Name, &album.CreatedAt); err != nil {
			return nil, err
		}
		albums = append(albums, &album)
	}

	if albums == nil {
		albums = []*models.Album{}
	}

	return albums, rows.Err()
}

// Add inserts a new album and assigns its generated ID
func (r *AlbumRepositoryPostgres) Add(ctx context.Context, album *models.Album) error {
	query := `INSERT INTO albums (album_name, created_at) VALUES ($1, $2) RETURNING album_id`

	return r.db.QueryRowContext(ctx, query, album.Name, album.CreatedAt).Scan(&album.ID)
}
