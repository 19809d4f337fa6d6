package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/photoalbum/server/internal/models"
)

// DB is the subset of *sql.DB the repositories use. It is also satisfied by
// observability.TraceDB so queries can be traced without changing the
// repositories.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// AlbumSort identifies one of the four concrete album listing query shapes.
type AlbumSort int

const (
	AlbumsByNameAsc AlbumSort = iota
	AlbumsByNameDesc
	AlbumsByDateAsc
	AlbumsByDateDesc
)

// PhotoSort identifies one of the four concrete photo listing query shapes.
type PhotoSort int

const (
	PhotosByNameAsc PhotoSort = iota
	PhotosByNameDesc
	PhotosByDateAsc
	PhotosByDateDesc
)

// AlbumRepo defines the interface for album persistence operations
type AlbumRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Album, error)
	GetByName(ctx context.Context, name string) (*models.Album, error)
	List(ctx context.Context, keyword string, sort AlbumSort) ([]*models.Album, error)
	Add(ctx context.Context, album *models.Album) error
}

// PhotoRepo defines the interface for photo persistence operations
type PhotoRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Photo, error)
	GetByNameInAlbum(ctx context.Context, albumID int64, fileName string) (*models.Photo, error)
	List(ctx context.Context, keyword string, sort PhotoSort) ([]*models.Photo, error)
	TopRecentByAlbum(ctx context.Context, albumID int64, limit int) ([]*models.Photo, error)
	CountByAlbum(ctx context.Context, albumID int64) (int, error)
	Add(ctx context.Context, photo *models.Photo) error
	Update(ctx context.Context, photo *models.Photo) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// IsUniqueViolation reports whether err is a uniqueness-constraint violation
// from either supported driver. Used to detect two uploads racing for the
// same file name in an album.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
