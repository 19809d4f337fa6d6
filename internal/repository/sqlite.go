package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys so album deletion cascades to photos
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS albums (
		album_id INTEGER PRIMARY KEY AUTOINCREMENT,
		album_name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_albums_name ON albums(album_name);
	CREATE INDEX IF NOT EXISTS idx_albums_created ON albums(created_at);

	CREATE TABLE IF NOT EXISTS photos (
		photo_id INTEGER PRIMARY KEY AUTOINCREMENT,
		album_id INTEGER NOT NULL REFERENCES albums(album_id) ON DELETE CASCADE,
		file_name TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		original_url TEXT NOT NULL,
		thumb_url TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL,
		UNIQUE(album_id, file_name)
	);

	CREATE INDEX IF NOT EXISTS idx_photos_album_id ON photos(album_id);
	CREATE INDEX IF NOT EXISTS idx_photos_uploaded ON photos(uploaded_at);
	`

	_, err := db.Exec(schema)
	return err
}
