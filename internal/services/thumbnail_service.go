package services

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/photoalbum/server/internal/models"
)

// ThumbnailService generates thumbnails that fit within a square bounding
// box, preserving aspect ratio. The thumbnail mirrors the original's file
// name, so it is encoded in the same format as the original.
type ThumbnailService struct {
	boxSize int
}

// NewThumbnailService creates a ThumbnailService with the given bounding
// box size in pixels.
func NewThumbnailService(boxSize int) *ThumbnailService {
	return &ThumbnailService{boxSize: boxSize}
}

// CanEncode reports whether a thumbnail can be written for the file's
// extension. An extension-less or unencodable name is rejected before any
// file is written.
func (s *ThumbnailService) CanEncode(fileName string) bool {
	_, err := imaging.FormatFromExtension(filepath.Ext(fileName))
	return err == nil
}

// Generate decodes imageData, corrects its EXIF orientation, resizes it to
// fit the bounding box and writes it to destPath in the format implied by
// the destination extension.
func (s *ThumbnailService) Generate(imageData []byte, destPath string, orientation int) error {
	format, err := imaging.FormatFromExtension(filepath.Ext(destPath))
	if err != nil {
		return models.InvalidArgumentf("file %q has no encodable extension", filepath.Base(destPath))
	}

	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		return models.InvalidArgumentf("cannot decode %q as an image", filepath.Base(destPath))
	}

	img = applyOrientation(img, orientation)
	thumb := imaging.Fit(img, s.boxSize, s.boxSize, imaging.Lanczos)

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create thumbnail file: %w", err)
	}

	if err := imaging.Encode(out, thumb, format); err != nil {
		out.Close()
		os.Remove(destPath) // Clean up on failure
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	return out.Close()
}

// applyOrientation corrects image orientation based on the EXIF tag value
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Rotate270(imaging.FlipH(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Rotate90(imaging.FlipH(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
