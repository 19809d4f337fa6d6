package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/photoalbum/server/internal/models"
	"github.com/photoalbum/server/internal/repository"
)

// FilenameAllocator resolves display-name collisions within an album by
// probing suffixed variants against the photo store: "a.jpg", "a (2).jpg",
// "a (3).jpg", … The first free name wins.
//
// The probe is check-then-write and therefore racy under concurrent uploads
// of the same name; the (album_id, file_name) uniqueness constraint catches
// the loser, which re-allocates (see PhotoService.Upload).
type FilenameAllocator struct {
	photos    repository.PhotoRepo
	maxProbes int
}

// NewFilenameAllocator creates a FilenameAllocator. maxProbes caps the
// number of suffix variants tried before giving up.
func NewFilenameAllocator(photos repository.PhotoRepo, maxProbes int) *FilenameAllocator {
	if maxProbes <= 0 {
		maxProbes = 1000
	}
	return &FilenameAllocator{photos: photos, maxProbes: maxProbes}
}

// Allocate returns a file name not yet used in the album, starting from the
// desired name. Exhausting the probe budget fails with a distinct error
// rather than looping forever.
func (a *FilenameAllocator) Allocate(ctx context.Context, desiredName string, albumID int64) (string, error) {
	ext := filepath.Ext(desiredName)
	stem := strings.TrimSuffix(desiredName, ext)

	candidate := desiredName
	for probe := 0; probe < a.maxProbes; probe++ {
		existing, err := a.photos.GetByNameInAlbum(ctx, albumID, candidate)
		if err != nil {
			return "", models.Internal("probe file name", err)
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, probe+2, ext)
	}

	return "", models.InvalidArgumentf("too many name collisions for %q in album %d", desiredName, albumID)
}
