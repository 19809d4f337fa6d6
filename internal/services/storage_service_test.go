package services

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *StorageService {
	svc, err := NewStorageService(t.TempDir())
	require.NoError(t, err)
	return svc
}

func TestNewStorageService(t *testing.T) {
	t.Run("creates the original and thumb trees", func(t *testing.T) {
		svc := setupTestStorage(t)

		for _, sub := range []string{"photos/original", "photos/thumb"} {
			info, err := os.Stat(filepath.Join(svc.Root(), filepath.FromSlash(sub)))
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		}
	})

	t.Run("rejects an empty root", func(t *testing.T) {
		_, err := NewStorageService("  ")
		assert.Error(t, err)
	})
}

func TestStorageService_WriteOriginal(t *testing.T) {
	t.Run("writes under the album's original directory", func(t *testing.T) {
		svc := setupTestStorage(t)
		require.NoError(t, svc.EnsureAlbumDirs(1))

		err := svc.WriteOriginal(1, "beach.png", bytes.NewReader([]byte("image bytes")))
		require.NoError(t, err)

		path, err := svc.FullPath(svc.OriginalURL(1, "beach.png"))
		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("image bytes"), content)
	})

	t.Run("fails when the file already exists", func(t *testing.T) {
		svc := setupTestStorage(t)
		require.NoError(t, svc.EnsureAlbumDirs(1))

		require.NoError(t, svc.WriteOriginal(1, "beach.png", bytes.NewReader([]byte("first"))))
		err := svc.WriteOriginal(1, "beach.png", bytes.NewReader([]byte("second")))
		assert.Error(t, err)

		// First write is untouched
		path, err := svc.FullPath(svc.OriginalURL(1, "beach.png"))
		require.NoError(t, err)
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), content)
	})
}

func TestStorageService_Copy(t *testing.T) {
	t.Run("duplicates the file to the destination URL", func(t *testing.T) {
		svc := setupTestStorage(t)
		require.NoError(t, svc.EnsureAlbumDirs(1))
		require.NoError(t, svc.EnsureAlbumDirs(2))
		require.NoError(t, svc.WriteOriginal(1, "a.png", bytes.NewReader([]byte("payload"))))

		err := svc.Copy(svc.OriginalURL(1, "a.png"), svc.OriginalURL(2, "a.png"))
		require.NoError(t, err)

		assert.True(t, svc.Exists(svc.OriginalURL(1, "a.png")))
		assert.True(t, svc.Exists(svc.OriginalURL(2, "a.png")))
	})

	t.Run("fails when the destination exists", func(t *testing.T) {
		svc := setupTestStorage(t)
		require.NoError(t, svc.EnsureAlbumDirs(1))
		require.NoError(t, svc.EnsureAlbumDirs(2))
		require.NoError(t, svc.WriteOriginal(1, "a.png", bytes.NewReader([]byte("src"))))
		require.NoError(t, svc.WriteOriginal(2, "a.png", bytes.NewReader([]byte("dst"))))

		err := svc.Copy(svc.OriginalURL(1, "a.png"), svc.OriginalURL(2, "a.png"))
		assert.Error(t, err)
	})
}

func TestStorageService_Rename(t *testing.T) {
	t.Run("moves the file to the new URL", func(t *testing.T) {
		svc := setupTestStorage(t)
		require.NoError(t, svc.EnsureAlbumDirs(1))
		require.NoError(t, svc.WriteOriginal(1, "old.png", bytes.NewReader([]byte("payload"))))

		err := svc.Rename(svc.OriginalURL(1, "old.png"), svc.OriginalURL(1, "new.png"))
		require.NoError(t, err)

		assert.False(t, svc.Exists(svc.OriginalURL(1, "old.png")))
		assert.True(t, svc.Exists(svc.OriginalURL(1, "new.png")))
	})
}

func TestStorageService_Remove(t *testing.T) {
	t.Run("removes an existing file", func(t *testing.T) {
		svc := setupTestStorage(t)
		require.NoError(t, svc.EnsureAlbumDirs(1))
		require.NoError(t, svc.WriteOriginal(1, "a.png", bytes.NewReader([]byte("payload"))))

		require.NoError(t, svc.Remove(svc.OriginalURL(1, "a.png")))
		assert.False(t, svc.Exists(svc.OriginalURL(1, "a.png")))
	})

	t.Run("fails for a missing file", func(t *testing.T) {
		svc := setupTestStorage(t)
		require.NoError(t, svc.EnsureAlbumDirs(1))

		err := svc.Remove(svc.OriginalURL(1, "missing.png"))
		assert.Error(t, err)
	})
}

func TestStorageService_FullPath(t *testing.T) {
	t.Run("resolves a stored URL under the root", func(t *testing.T) {
		svc := setupTestStorage(t)

		path, err := svc.FullPath("/photos/original/1/a.png")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(path))
		assert.Contains(t, path, svc.Root())
	})

	t.Run("rejects URLs that escape the root", func(t *testing.T) {
		svc := setupTestStorage(t)

		_, err := svc.FullPath("/../../etc/passwd")
		assert.Error(t, err)
	})

	t.Run("rejects a sibling directory sharing the root as a name prefix", func(t *testing.T) {
		svc := setupTestStorage(t)

		// Resolves to <parent>/<rootName>-extra/a.png, outside the root
		url := "/../" + filepath.Base(svc.Root()) + "-extra/a.png"
		_, err := svc.FullPath(url)
		assert.Error(t, err)
	})

	t.Run("rejects an empty URL", func(t *testing.T) {
		svc := setupTestStorage(t)

		_, err := svc.FullPath("")
		assert.Error(t, err)
	})
}
