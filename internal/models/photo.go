package models

import (
	"path/filepath"
	"strings"
	"time"
)

// Photo is a single uploaded image with an original file and a generated
// thumbnail, owned by exactly one album.
type Photo struct {
	ID          int64     `json:"photoId"`
	AlbumID     int64     `json:"albumId"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	OriginalURL string    `json:"originalUrl"`
	ThumbURL    string    `json:"thumbUrl"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// SanitizeFileName strips path components and replaces characters that are
// unsafe in a stored file name.
func SanitizeFileName(filename string) string {
	name := filepath.Base(filename)

	// filepath.Base plus the slash replacements neutralize traversal, so
	// interior dots stay intact. Only leading dots are stripped.
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(name)
	name = strings.TrimLeft(name, ".")

	// Limit length, keeping the extension intact
	const maxLength = 200
	if len(name) > maxLength {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		if len(stem) > maxLength-len(ext) {
			stem = stem[:maxLength-len(ext)]
		}
		name = stem + ext
	}

	return name
}
