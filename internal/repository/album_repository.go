package repository

import (
	"context"
	"database/sql"

	"github.com/photoalbum/server/internal/models"
)

// AlbumRepository handles album persistence on SQLite
type AlbumRepository struct {
	db DB
}

// NewAlbumRepository creates a new AlbumRepository
func NewAlbumRepository(db DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// GetByID retrieves an album by its ID, or nil if absent
func (r *AlbumRepository) GetByID(ctx context.Context, id int64) (*models.Album, error) {
	query := `SELECT album_id, album_name, created_at FROM albums WHERE album_id = ?`

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
func (r *AlbumRepository) GetByName(ctx context.Context, name string) (*models.Album, error) {
	query := `SELECT album_id, album_name, created_at FROM albums WHERE album_name = ? LIMIT 1`

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
// instr() keeps the substring match case-sensitive; LIKE would fold ASCII
// case on SQLite.
func (r *AlbumRepository) List(ctx context.Context, keyword string, sort AlbumSort) ([]*models.Album, error) {
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
		WHERE instr(album_name, ?) > 0 OR ? = ''
		ORDER BY ` + orderBy

	rows, err := r.db.QueryContext(ctx, query, keyword, keyword)
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
func (r *AlbumRepository) Add(ctx context.Context, album *models.Album) error {
	query := `INSERT INTO albums (album_name, created_at) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, album.Name, album.CreatedAt)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	album.ID = id
	return nil
}
