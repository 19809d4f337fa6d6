package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS albums (
		album_id BIGSERIAL PRIMARY KEY,
		album_name TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_albums_name ON albums(album_name);
	CREATE INDEX IF NOT EXISTS idx_albums_created ON albums(created_at);

	CREATE TABLE IF NOT EXISTS photos (
		photo_id BIGSERIAL PRIMARY KEY,
		album_id BIGINT NOT NULL REFERENCES albums(album_id) ON DELETE CASCADE,
		file_name TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		original_url TEXT NOT NULL,
		thumb_url TEXT NOT NULL,
		uploaded_at TIMESTAMP NOT NULL,
		UNIQUE(album_id, file_name)
	);

	CREATE INDEX IF NOT EXISTS idx_photos_album_id ON photos(album_id);
	CREATE INDEX IF NOT EXISTS idx_photos_uploaded ON photos(uploaded_at);
	`

	_, err := db.Exec(schema)
	return err
}
