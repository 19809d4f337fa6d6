package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoalbum/server/internal/models"
)

func addPhoto(t *testing.T, repo *PhotoRepository, albumID int64, fileName string, uploadedAt time.Time) *models.Photo {
	photo := &models.Photo{
		AlbumID:     albumID,
		FileName:    fileName,
		FileSize:    int64(len(fileName)),
		OriginalURL: fmt.Sprintf("/photos/original/%d/%s", albumID, fileName),
		ThumbURL:    fmt.Sprintf("/photos/thumb/%d/%s", albumID, fileName),
		UploadedAt:  uploadedAt,
	}
	require.NoError(t, repo.Add(context.Background(), photo))
	return photo
}

func setupPhotoRepo(t *testing.T) (*PhotoRepository, *models.Album) {
	db := setupTestDB(t)
	albums := NewAlbumRepository(db)
	album := addAlbum(t, albums, "test", time.Now().UTC())
	return NewPhotoRepository(db), album
}

func TestPhotoRepository_Add(t *testing.T) {
	t.Run("assigns a generated ID", func(t *testing.T) {
		repo, album := setupPhotoRepo(t)

		photo := addPhoto(t, repo, album.ID, "a.jpg", time.Now().UTC())
		assert.Positive(t, photo.ID)
	})

	t.Run("rejects a duplicate name within the same album", func(t *testing.T) {
		repo, album := setupPhotoRepo(t)
		addPhoto(t, repo, album.ID, "a.jpg", time.Now().UTC())

		dup := &models.Photo{
			AlbumID:     album.ID,
			FileName:    "a.jpg",
			OriginalURL: "/x",
			ThumbURL:    "/y",
			UploadedAt:  time.Now().UTC(),
		}
		err := repo.Add(context.Background(), dup)
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("allows the same name in different albums", func(t *testing.T) {
		db := setupTestDB(t)
		albums := NewAlbumRepository(db)
		repo := NewPhotoRepository(db)
		first := addAlbum(t, albums, "first", time.Now().UTC())
		second := addAlbum(t, albums, "second", time.Now().UTC())

		addPhoto(t, repo, first.ID, "a.jpg", time.Now().UTC())
		addPhoto(t, repo, second.ID, "a.jpg", time.Now().UTC())
	})
}

func TestPhotoRepository_GetByNameInAlbum(t *testing.T) {
	t.Run("finds a photo by exact name", func(t *testing.T) {
		repo, album := setupPhotoRepo(t)
		created := addPhoto(t, repo, album.ID, "beach.png", time.Now().UTC())

		got, err := repo.GetByNameInAlbum(context.Background(), album.ID, "beach.png")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("returns nil when the name is free", func(t *testing.T) {
		repo, album := setupPhotoRepo(t)

		got, err := repo.GetByNameInAlbum(context.Background(), album.ID, "missing.png")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestPhotoRepository_List(t *testing.T) {
	setup := func(t *testing.T) *PhotoRepository {
		repo, album := setupPhotoRepo(t)
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		addPhoto(t, repo, album.ID, "cat.jpg", base)
		addPhoto(t, repo, album.ID, "beach.jpg", base.Add(time.Hour))
		addPhoto(t, repo, album.ID, "alps.jpg", base.Add(2*time.Hour))
		return repo
	}

	t.Run("sorts by name ascending", func(t *testing.T) {
		repo := setup(t)

		photos, err := repo.List(context.Background(), "", PhotosByNameAsc)
		require.NoError(t, err)
		require.Len(t, photos, 3)
		assert.Equal(t, "alps.jpg", photos[0].FileName)
		assert.Equal(t, "cat.jpg", photos[2].FileName)
	})

	t.Run("sorts by upload time descending", func(t *testing.T) {
		repo := setup(t)

		photos, err := repo.List(context.Background(), "", PhotosByDateDesc)
		require.NoError(t, err)
		require.Len(t, photos, 3)
		assert.Equal(t, "alps.jpg", photos[0].FileName)
		assert.Equal(t, "cat.jpg", photos[2].FileName)
	})

	t.Run("filters by file name substring", func(t *testing.T) {
		repo := setup(t)

		photos, err := repo.List(context.Background(), "ea", PhotosByNameAsc)
		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Equal(t, "beach.jpg", photos[0].FileName)
	})
}

func TestPhotoRepository_TopRecentByAlbum(t *testing.T) {
	t.Run("returns the newest photos first, capped at the limit", func(t *testing.T) {
		repo, album := setupPhotoRepo(t)
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 6; i++ {
			addPhoto(t, repo, album.ID, fmt.Sprintf("p%d.jpg", i), base.Add(time.Duration(i)*time.Hour))
		}

		photos, err := repo.TopRecentByAlbum(context.Background(), album.ID, 4)
		require.NoError(t, err)
		require.Len(t, photos, 4)
		assert.Equal(t, "p5.jpg", photos[0].FileName)
		assert.Equal(t, "p2.jpg", photos[3].FileName)
	})
}

func TestPhotoRepository_CountByAlbum(t *testing.T) {
	t.Run("counts only the album's photos", func(t *testing.T) {
		db := setupTestDB(t)
		albums := NewAlbumRepository(db)
		repo := NewPhotoRepository(db)
		first := addAlbum(t, albums, "first", time.Now().UTC())
		second := addAlbum(t, albums, "second", time.Now().UTC())

		addPhoto(t, repo, first.ID, "a.jpg", time.Now().UTC())
		addPhoto(t, repo, first.ID, "b.jpg", time.Now().UTC())
		addPhoto(t, repo, second.ID, "c.jpg", time.Now().UTC())

		count, err := repo.CountByAlbum(context.Background(), first.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestPhotoRepository_Update(t *testing.T) {
	t.Run("rewrites album, name and URLs", func(t *testing.T) {
		db := setupTestDB(t)
		albums := NewAlbumRepository(db)
		repo := NewPhotoRepository(db)
		from := addAlbum(t, albums, "from", time.Now().UTC())
		to := addAlbum(t, albums, "to", time.Now().UTC())

		photo := addPhoto(t, repo, from.ID, "a.jpg", time.Now().UTC())

		photo.AlbumID = to.ID
		photo.FileName = "a (2).jpg"
		photo.OriginalURL = fmt.Sprintf("/photos/original/%d/a (2).jpg", to.ID)
		photo.ThumbURL = fmt.Sprintf("/photos/thumb/%d/a (2).jpg", to.ID)
		require.NoError(t, repo.Update(context.Background(), photo))

		got, err := repo.GetByID(context.Background(), photo.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, to.ID, got.AlbumID)
		assert.Equal(t, "a (2).jpg", got.FileName)
		assert.Contains(t, got.OriginalURL, fmt.Sprintf("/%d/", to.ID))
	})
}

func TestPhotoRepository_Delete(t *testing.T) {
	t.Run("reports whether a row was removed", func(t *testing.T) {
		repo, album := setupPhotoRepo(t)
		photo := addPhoto(t, repo, album.ID, "a.jpg", time.Now().UTC())

		deleted, err := repo.Delete(context.Background(), photo.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = repo.Delete(context.Background(), photo.ID)
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestCascadeDelete(t *testing.T) {
	t.Run("deleting an album removes its photos", func(t *testing.T) {
		db := setupTestDB(t)
		albums := NewAlbumRepository(db)
		repo := NewPhotoRepository(db)
		album := addAlbum(t, albums, "doomed", time.Now().UTC())
		photo := addPhoto(t, repo, album.ID, "a.jpg", time.Now().UTC())

		_, err := db.Exec("DELETE FROM albums WHERE album_id = ?", album.ID)
		require.NoError(t, err)

		got, err := repo.GetByID(context.Background(), photo.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
