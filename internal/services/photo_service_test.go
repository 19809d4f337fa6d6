package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoalbum/server/internal/models"
	"github.com/photoalbum/server/internal/repository"
)

type testStack struct {
	photos  *PhotoService
	albums  *AlbumService
	storage *StorageService
}

func setupStack(t *testing.T) *testStack {
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	albumRepo := repository.NewAlbumRepository(db)
	photoRepo := repository.NewPhotoRepository(db)

	storage, err := NewStorageService(t.TempDir())
	require.NoError(t, err)

	photos := NewPhotoService(
		albumRepo,
		photoRepo,
		storage,
		NewThumbnailService(150),
		NewEXIFService(),
		NewFilenameAllocator(photoRepo, 0),
		50,
	)
	albums := NewAlbumService(albumRepo, photoRepo, storage)

	return &testStack{photos: photos, albums: albums, storage: storage}
}

func (s *testStack) createAlbum(t *testing.T, name string) *models.Album {
	album, err := s.albums.Create(context.Background(), name)
	require.NoError(t, err)
	return album
}

func (s *testStack) upload(t *testing.T, albumID int64, fileName string) *models.Photo {
	photo, err := s.photos.Upload(context.Background(), pngBytes(t, 300, 200), fileName, "image/png", albumID)
	require.NoError(t, err)
	return photo
}

// contestedPhotoRepo claims the incoming photo's name with a rival record
// right before delegating the insert, making the delegated insert fail with
// a uniqueness violation. It does so up to remaining times.
type contestedPhotoRepo struct {
	repository.PhotoRepo
	remaining int
}

func (r *contestedPhotoRepo) Add(ctx context.Context, photo *models.Photo) error {
	if r.remaining > 0 {
		r.remaining--
		rival := &models.Photo{
			AlbumID:     photo.AlbumID,
			FileName:    photo.FileName,
			FileSize:    1,
			OriginalURL: photo.OriginalURL + ".rival",
			ThumbURL:    photo.ThumbURL + ".rival",
			UploadedAt:  time.Now().UTC(),
		}
		if err := r.PhotoRepo.Add(ctx, rival); err != nil {
			return err
		}
	}
	return r.PhotoRepo.Add(ctx, photo)
}

func setupContestedStack(t *testing.T, remaining int) *testStack {
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	albumRepo := repository.NewAlbumRepository(db)
	photoRepo := &contestedPhotoRepo{
		PhotoRepo: repository.NewPhotoRepository(db),
		remaining: remaining,
	}

	storage, err := NewStorageService(t.TempDir())
	require.NoError(t, err)

	photos := NewPhotoService(
		albumRepo,
		photoRepo,
		storage,
		NewThumbnailService(150),
		NewEXIFService(),
		NewFilenameAllocator(photoRepo, 0),
		50,
	)
	albums := NewAlbumService(albumRepo, photoRepo, storage)

	return &testStack{photos: photos, albums: albums, storage: storage}
}

func TestPhotoService_Upload(t *testing.T) {
	t.Run("stores the original and a thumbnail", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")

		photo := stack.upload(t, album.ID, "beach.png")

		assert.Positive(t, photo.ID)
		assert.Equal(t, "beach.png", photo.FileName)
		assert.Equal(t, album.ID, photo.AlbumID)
		assert.True(t, stack.storage.Exists(photo.OriginalURL))
		assert.True(t, stack.storage.Exists(photo.ThumbURL))
	})

	t.Run("suffixes colliding names", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")

		first := stack.upload(t, album.ID, "beach.png")
		second := stack.upload(t, album.ID, "beach.png")
		third := stack.upload(t, album.ID, "beach.png")

		assert.Equal(t, "beach.png", first.FileName)
		assert.Equal(t, "beach (2).png", second.FileName)
		assert.Equal(t, "beach (3).png", third.FileName)

		for _, photo := range []*models.Photo{first, second, third} {
			assert.True(t, stack.storage.Exists(photo.OriginalURL))
			assert.True(t, stack.storage.Exists(photo.ThumbURL))
		}
	})

	t.Run("retries under a fresh name when the insert loses the allocation race", func(t *testing.T) {
		stack := setupContestedStack(t, 1)
		album := stack.createAlbum(t, "holidays")

		photo := stack.upload(t, album.ID, "beach.png")

		assert.Equal(t, "beach (2).png", photo.FileName)
		assert.True(t, stack.storage.Exists(photo.OriginalURL))
		assert.True(t, stack.storage.Exists(photo.ThumbURL))

		// The files written under the contested name were moved, not copied
		assert.False(t, stack.storage.Exists(stack.storage.OriginalURL(album.ID, "beach.png")))
		assert.False(t, stack.storage.Exists(stack.storage.ThumbURL(album.ID, "beach.png")))
	})

	t.Run("gives up and cleans up after repeated insert conflicts", func(t *testing.T) {
		stack := setupContestedStack(t, 10)
		album := stack.createAlbum(t, "holidays")

		_, err := stack.photos.Upload(context.Background(), pngBytes(t, 300, 200), "beach.png", "image/png", album.ID)
		require.Error(t, err)
		assert.Equal(t, models.KindInternal, models.KindOf(err))

		for _, name := range []string{"beach.png", "beach (2).png", "beach (3).png"} {
			assert.False(t, stack.storage.Exists(stack.storage.OriginalURL(album.ID, name)))
			assert.False(t, stack.storage.Exists(stack.storage.ThumbURL(album.ID, name)))
		}
	})

	t.Run("rejects non-image content types", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")

		_, err := stack.photos.Upload(context.Background(), []byte("hello"), "notes.txt", "text/plain", album.ID)
		require.Error(t, err)
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	})

	t.Run("rejects an unencodable extension before writing anything", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")

		_, err := stack.photos.Upload(context.Background(), pngBytes(t, 50, 50), "photo.webp", "image/webp", album.ID)
		require.Error(t, err)
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
		assert.False(t, stack.storage.Exists(stack.storage.OriginalURL(album.ID, "photo.webp")))
	})

	t.Run("removes the original when the thumbnail fails", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")

		_, err := stack.photos.Upload(context.Background(), []byte("not an image"), "broken.png", "image/png", album.ID)
		require.Error(t, err)
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
		assert.False(t, stack.storage.Exists(stack.storage.OriginalURL(album.ID, "broken.png")))
	})

	t.Run("fails for an unknown album", func(t *testing.T) {
		stack := setupStack(t)

		_, err := stack.photos.Upload(context.Background(), pngBytes(t, 50, 50), "a.png", "image/png", 999)
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		albumRepo := repository.NewAlbumRepository(db)
		photoRepo := repository.NewPhotoRepository(db)
		storage, err := NewStorageService(t.TempDir())
		require.NoError(t, err)

		// 0 MB limit makes any payload oversized
		photos := NewPhotoService(albumRepo, photoRepo, storage,
			NewThumbnailService(150), NewEXIFService(),
			NewFilenameAllocator(photoRepo, 0), 0)
		albums := NewAlbumService(albumRepo, photoRepo, storage)

		album, err := albums.Create(context.Background(), "holidays")
		require.NoError(t, err)

		_, err = photos.Upload(context.Background(), pngBytes(t, 50, 50), "a.png", "image/png", album.ID)
		require.Error(t, err)
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	})
}

func TestPhotoService_Get(t *testing.T) {
	t.Run("fails not found for an unknown photo", func(t *testing.T) {
		stack := setupStack(t)

		_, err := stack.photos.Get(context.Background(), 42)
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})
}

func TestPhotoService_List(t *testing.T) {
	t.Run("filters by keyword and sorts by name", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")
		stack.upload(t, album.ID, "cat.png")
		stack.upload(t, album.ID, "beach.png")
		stack.upload(t, album.ID, "alps.png")

		photos, err := stack.photos.List(context.Background(), "", "byName", "asc")
		require.NoError(t, err)
		require.Len(t, photos, 3)
		assert.Equal(t, "alps.png", photos[0].FileName)
		assert.Equal(t, "cat.png", photos[2].FileName)

		filtered, err := stack.photos.List(context.Background(), "ea", "byName", "asc")
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, "beach.png", filtered[0].FileName)
	})

	t.Run("date order asc yields newest first", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")
		stack.upload(t, album.ID, "older.png")
		time.Sleep(10 * time.Millisecond)
		stack.upload(t, album.ID, "newer.png")

		photos, err := stack.photos.List(context.Background(), "", "byDate", "asc")
		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Equal(t, "newer.png", photos[0].FileName)

		photos, err = stack.photos.List(context.Background(), "", "byDate", "desc")
		require.NoError(t, err)
		assert.Equal(t, "older.png", photos[0].FileName)
	})

	t.Run("fails for unknown sort criteria", func(t *testing.T) {
		stack := setupStack(t)

		_, err := stack.photos.List(context.Background(), "", "bySize", "asc")
		require.Error(t, err)
		assert.Equal(t, models.KindInvalidArgument, models.KindOf(err))
	})
}

func TestPhotoService_Move(t *testing.T) {
	t.Run("relocates files and rewrites URLs", func(t *testing.T) {
		stack := setupStack(t)
		from := stack.createAlbum(t, "from")
		to := stack.createAlbum(t, "to")
		photo := stack.upload(t, from.ID, "beach.png")
		oldOriginal := photo.OriginalURL
		oldThumb := photo.ThumbURL

		moved, err := stack.photos.Move(context.Background(), from.ID, to.ID, []int64{photo.ID})
		require.NoError(t, err)
		require.Len(t, moved, 1)

		assert.Equal(t, to.ID, moved[0].AlbumID)
		assert.Contains(t, moved[0].OriginalURL, fmt.Sprintf("/%d/", to.ID))
		assert.Contains(t, moved[0].ThumbURL, fmt.Sprintf("/%d/", to.ID))
		assert.False(t, stack.storage.Exists(oldOriginal))
		assert.False(t, stack.storage.Exists(oldThumb))
		assert.True(t, stack.storage.Exists(moved[0].OriginalURL))
		assert.True(t, stack.storage.Exists(moved[0].ThumbURL))

		got, err := stack.photos.Get(context.Background(), photo.ID)
		require.NoError(t, err)
		assert.Equal(t, to.ID, got.AlbumID)
	})

	t.Run("renames on collision in the destination album", func(t *testing.T) {
		stack := setupStack(t)
		from := stack.createAlbum(t, "from")
		to := stack.createAlbum(t, "to")
		stack.upload(t, to.ID, "beach.png")
		photo := stack.upload(t, from.ID, "beach.png")

		moved, err := stack.photos.Move(context.Background(), from.ID, to.ID, []int64{photo.ID})
		require.NoError(t, err)
		require.Len(t, moved, 1)
		assert.Equal(t, "beach (2).png", moved[0].FileName)
	})

	t.Run("fails for an unknown destination album", func(t *testing.T) {
		stack := setupStack(t)
		from := stack.createAlbum(t, "from")
		photo := stack.upload(t, from.ID, "beach.png")

		_, err := stack.photos.Move(context.Background(), from.ID, 999, []int64{photo.ID})
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("fails for an unknown photo", func(t *testing.T) {
		stack := setupStack(t)
		from := stack.createAlbum(t, "from")
		to := stack.createAlbum(t, "to")

		_, err := stack.photos.Move(context.Background(), from.ID, to.ID, []int64{999})
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})
}

func TestPhotoService_Delete(t *testing.T) {
	t.Run("removes files and the record", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")
		photo := stack.upload(t, album.ID, "beach.png")

		deleted, err := stack.photos.Delete(context.Background(), []int64{photo.ID})
		require.NoError(t, err)
		require.Len(t, deleted, 1)

		assert.False(t, stack.storage.Exists(photo.OriginalURL))
		assert.False(t, stack.storage.Exists(photo.ThumbURL))

		_, err = stack.photos.Get(context.Background(), photo.ID)
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("fails for an unknown photo", func(t *testing.T) {
		stack := setupStack(t)

		_, err := stack.photos.Delete(context.Background(), []int64{999})
		require.Error(t, err)
		assert.Equal(t, models.KindNotFound, models.KindOf(err))
	})

	t.Run("frees the name for a later upload", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")
		photo := stack.upload(t, album.ID, "beach.png")

		_, err := stack.photos.Delete(context.Background(), []int64{photo.ID})
		require.NoError(t, err)

		again := stack.upload(t, album.ID, "beach.png")
		assert.Equal(t, "beach.png", again.FileName)
	})
}

func TestPhotoService_OriginalFilePath(t *testing.T) {
	t.Run("resolves to the stored file", func(t *testing.T) {
		stack := setupStack(t)
		album := stack.createAlbum(t, "holidays")
		photo := stack.upload(t, album.ID, "beach.png")

		path, fileName, err := stack.photos.OriginalFilePath(context.Background(), photo.ID)
		require.NoError(t, err)
		assert.Equal(t, "beach.png", fileName)
		assert.FileExists(t, path)
	})
}
