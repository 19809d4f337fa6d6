package models

import "time"

// CreateAlbumRequest is the album creation payload.
type CreateAlbumRequest struct {
	AlbumName string `json:"albumName"`
}

// DeletePhotosRequest lists the photo IDs to delete.
type DeletePhotosRequest struct {
	PhotoIDs []int64 `json:"photoIds"`
}

// AlbumResponse is the API representation of an album.
type AlbumResponse struct {
	AlbumID   int64     `json:"albumId"`
	AlbumName string    `json:"albumName"`
	CreatedAt time.Time `json:"createdAt"`
	Count     int       `json:"count"`
	ThumbURLs []string  `json:"thumbUrls,omitempty"`
}

// PhotoResponse is the API representation of a photo.
type PhotoResponse struct {
	PhotoID     int64     `json:"photoId"`
	AlbumID     int64     `json:"albumId"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	OriginalURL string    `json:"originalUrl"`
	ThumbURL    string    `json:"thumbUrl"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// AlbumToResponse converts an Album with its enrichment data
func AlbumToResponse(album *Album, count int, thumbURLs []string) AlbumResponse {
	return AlbumResponse{
		AlbumID:   album.ID,
		AlbumName: album.Name,
		CreatedAt: album.CreatedAt,
		Count:     count,
		ThumbURLs: thumbURLs,
	}
}

// PhotoToResponse converts a Photo to its API representation
func PhotoToResponse(photo *Photo) PhotoResponse {
	return PhotoResponse{
		PhotoID:     photo.ID,
		AlbumID:     photo.AlbumID,
		FileName:    photo.FileName,
		FileSize:    photo.FileSize,
		OriginalURL: photo.OriginalURL,
		ThumbURL:    photo.ThumbURL,
		UploadedAt:  photo.UploadedAt,
	}
}
