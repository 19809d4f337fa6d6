package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/photoalbum/server/internal/models"
)

// StorageService owns the on-disk photo layout. Originals and thumbnails
// live in mirrored per-album subtrees:
//
//	<root>/photos/original/<albumId>/<fileName>
//	<root>/photos/thumb/<albumId>/<fileName>
//
// Stored URLs are the same paths without the root, with a leading slash.
type StorageService struct {
	root string
}

// NewStorageService creates a StorageService rooted at basePath, creating
// the photos/original and photos/thumb trees if needed.
func NewStorageService(basePath string) (*StorageService, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	for _, sub := range []string{"photos/original", "photos/thumb"} {
		if err := os.MkdirAll(filepath.Join(absPath, filepath.FromSlash(sub)), 0755); err != nil {
			return nil, err
		}
	}

	return &StorageService{root: absPath}, nil
}

// Root returns the absolute storage root path
func (s *StorageService) Root() string {
	return s.root
}

// EnsureAlbumDirs creates the original and thumbnail directories for an
// album. Idempotent; parents are created as needed.
func (s *StorageService) EnsureAlbumDirs(albumID int64) error {
	for _, url := range []string{s.originalDirURL(albumID), s.thumbDirURL(albumID)} {
		dir, err := s.FullPath(url)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func (s *StorageService) originalDirURL(albumID int64) string {
	return fmt.Sprintf("/photos/original/%d", albumID)
}

func (s *StorageService) thumbDirURL(albumID int64) string {
	return fmt.Sprintf("/photos/thumb/%d", albumID)
}

// OriginalURL returns the stored URL of an original file
func (s *StorageService) OriginalURL(albumID int64, fileName string) string {
	return s.originalDirURL(albumID) + "/" + fileName
}

// ThumbURL returns the stored URL of a thumbnail file
func (s *StorageService) ThumbURL(albumID int64, fileName string) string {
	return s.thumbDirURL(albumID) + "/" + fileName
}

// FullPath resolves a stored URL to an absolute filesystem path, rejecting
// anything that escapes the storage root.
func (s *StorageService) FullPath(url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("stored url cannot be empty")
	}

	fullPath := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(url, "/")))

	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if absPath != s.root && !strings.HasPrefix(absPath, s.root+string(filepath.Separator)) {
		return "", models.InvalidArgumentf("stored url %q escapes the storage root", url)
	}

	return absPath, nil
}

// WriteOriginal writes an original file under the album's original
// directory. The write fails if a file already exists at that exact path.
func (s *StorageService) WriteOriginal(albumID int64, fileName string, r io.Reader) error {
	path, err := s.FullPath(s.OriginalURL(albumID, fileName))
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(path) // Clean up the partial write
		return err
	}

	return file.Close()
}

// Copy duplicates a stored file to another stored URL, failing if the
// destination already exists.
func (s *StorageService) Copy(srcURL, dstURL string) error {
	srcPath, err := s.FullPath(srcURL)
	if err != nil {
		return err
	}
	dstPath, err := s.FullPath(dstURL)
	if err != nil {
		return err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return err
	}

	return dst.Close()
}

// Rename moves a stored file to another stored URL within the same tree
func (s *StorageService) Rename(oldURL, newURL string) error {
	oldPath, err := s.FullPath(oldURL)
	if err != nil {
		return err
	}
	newPath, err := s.FullPath(newURL)
	if err != nil {
		return err
	}
	return os.Rename(oldPath, newPath)
}

// Remove deletes a stored file. A missing file is an error: the caller is
// expected to hold a record that says the file exists.
func (s *StorageService) Remove(url string) error {
	path, err := s.FullPath(url)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// Exists checks whether a stored URL resolves to an existing file
func (s *StorageService) Exists(url string) bool {
	path, err := s.FullPath(url)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
