package services

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIFService reads EXIF metadata from uploaded images
type EXIFService struct{}

// NewEXIFService creates a new EXIFService
func NewEXIFService() *EXIFService {
	return &EXIFService{}
}

// Orientation returns the EXIF orientation tag (1-8) of an image, or 1 when
// the image carries no usable EXIF data. Thumbnails are rotated to match
// before resizing.
func (s *EXIFService) Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	if val, err := tag.Int(0); err == nil && val >= 1 && val <= 8 {
		return val
	}
	return 1
}
