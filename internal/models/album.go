package models

import (
	"strings"
	"time"
)

// Album is a named collection of photos with its own storage subtree.
type Album struct {
	ID        int64     `json:"albumId"`
	Name      string    `json:"albumName"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewAlbum creates a new Album with validation. The ID is assigned by the
// store on insert.
func NewAlbum(name string) (*Album, error) {
	if strings.TrimSpace(name) == "" {
		return nil, InvalidArgumentf("album name cannot be empty")
	}

	return &Album{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AlbumSummary is an Album enriched with its live photo count and the
// thumbnail URLs of its most recent photos.
type AlbumSummary struct {
	Album     *Album
	Count     int
	ThumbURLs []string
}
