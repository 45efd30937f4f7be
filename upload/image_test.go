package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/krishkalaria12/snap-upload/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testPhoto struct {
	ID      uint `gorm:"primaryKey"`
	Image   string
	Pending `gorm:"-" json:"-"`
}

var photoUploads *Set

func (p *testPhoto) BeforeSave(tx *gorm.DB) error   { return photoUploads.BeforeSave(tx, p) }
func (p *testPhoto) AfterSave(tx *gorm.DB) error    { return photoUploads.AfterSave(tx, p) }
func (p *testPhoto) BeforeDelete(tx *gorm.DB) error { return photoUploads.BeforeDelete(tx, p) }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageSize(t *testing.T, root, key string) (int, int) {
	t.Helper()
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func setupPhotos(t *testing.T, b *ImageBehavior, root string) *gorm.DB {
	t.Helper()

	photoUploads = NewSet(b)
	photoUploads.Bind(Env{Storage: storage.NewLocal(root)})
	return openTestDB(t, &testPhoto{})
}

func testImageBehavior() *ImageBehavior {
	b := NewImageBehavior("")
	b.Thumbs = map[string]ThumbProfile{
		"thumb":  {Width: 20, Height: 10},
		"square": {Width: 8, Height: 8, Filters: map[string]string{"grayscale": ""}},
	}
	return b
}

func TestImageCreateWritesThumbs(t *testing.T) {
	root := t.TempDir()
	db := setupPhotos(t, testImageBehavior(), root)

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("Sunset.PNG", pngBytes(t, 40, 40)))
	require.NoError(t, db.Create(photo).Error)

	assert.Equal(t, "/images/testPhoto/image/1.png", photo.Image)

	w, h := imageSize(t, root, photo.Image)
	assert.Equal(t, 40, w)
	assert.Equal(t, 40, h)

	w, h = imageSize(t, root, "/images/testPhoto/image/thumb/1.png")
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)

	w, h = imageSize(t, root, "/images/testPhoto/image/square/1.png")
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)
}

func TestImageDeleteRemovesThumbs(t *testing.T) {
	root := t.TempDir()
	db := setupPhotos(t, testImageBehavior(), root)

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("a.png", pngBytes(t, 30, 30)))
	require.NoError(t, db.Create(photo).Error)

	require.NoError(t, db.Delete(photo).Error)
	for _, key := range []string{
		"/images/testPhoto/image/1.png",
		"/images/testPhoto/image/thumb/1.png",
		"/images/testPhoto/image/square/1.png",
	} {
		assertNoFile(t, root, key)
	}
}

func TestImageReplaceRegeneratesThumbs(t *testing.T) {
	root := t.TempDir()
	db := setupPhotos(t, testImageBehavior(), root)

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("a.png", pngBytes(t, 30, 30)))
	require.NoError(t, db.Create(photo).Error)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 12, 12))))
	photo.Attach("image", FromBytes("b.PNG", buf.Bytes()))
	require.NoError(t, db.Save(photo).Error)

	assert.Equal(t, "/images/testPhoto/image/1.png", photo.Image)
	w, h := imageSize(t, root, "/images/testPhoto/image/thumb/1.png")
	assert.Equal(t, 12, w, "small source is cropped, not enlarged")
	assert.Equal(t, 10, h)
}

func TestImageRejectsNonImageExtension(t *testing.T) {
	db := setupPhotos(t, testImageBehavior(), t.TempDir())

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("notes.txt", []byte("hi")))
	assert.ErrorIs(t, db.Create(photo).Error, ErrInvalidFile)
}

func TestThumbsOnRequest(t *testing.T) {
	root := t.TempDir()
	b := testImageBehavior()
	b.CreateThumbsOnSave = false
	b.CreateThumbsOnRequest = true
	db := setupPhotos(t, b, root)

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("a.png", pngBytes(t, 40, 40)))
	require.NoError(t, db.Create(photo).Error)
	assertNoFile(t, root, "/images/testPhoto/image/thumb/1.png")

	url, err := photoUploads.ThumbFileURL(context.Background(), photo, "image", "thumb")
	require.NoError(t, err)
	assert.Equal(t, "/images/testPhoto/image/thumb/1.png", url)

	w, h := imageSize(t, root, url)
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)

	_, err = photoUploads.ThumbFileURL(context.Background(), photo, "image", "poster")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestCreateThumbsSkipsExisting(t *testing.T) {
	root := t.TempDir()
	db := setupPhotos(t, testImageBehavior(), root)

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("a.png", pngBytes(t, 40, 40)))
	require.NoError(t, db.Create(photo).Error)

	thumb := filepath.Join(root, "images", "testPhoto", "image", "thumb", "1.png")
	require.NoError(t, os.WriteFile(thumb, []byte("keep"), 0644))

	b, err := photoUploads.Image("image")
	require.NoError(t, err)
	require.NoError(t, b.CreateThumbs(context.Background(), photo))

	data, err := os.ReadFile(thumb)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestImageThumbsFromLargeSource(t *testing.T) {
	root := t.TempDir()
	db := setupPhotos(t, testImageBehavior(), root)

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("panorama.png", pngBytes(t, 4500, 10)))
	require.NoError(t, db.Create(photo).Error)

	w, h := imageSize(t, root, "/images/testPhoto/image/thumb/1.png")
	assert.Equal(t, 20, w)
	assert.Equal(t, 10, h)
}

func TestImageFailedCallbackRemovesOriginalAndThumbs(t *testing.T) {
	root := t.TempDir()
	b := testImageBehavior()
	db := setupPhotos(t, b, root)
	b.OnFileSave(func(ctx context.Context, rec Record) error {
		return errors.New("publish failed")
	})

	photo := &testPhoto{}
	photo.Attach("image", FromBytes("a.png", pngBytes(t, 40, 40)))
	assert.Error(t, db.Create(photo).Error)

	for _, key := range []string{
		"/images/testPhoto/image/1.png",
		"/images/testPhoto/image/thumb/1.png",
		"/images/testPhoto/image/square/1.png",
	} {
		assertNoFile(t, root, key)
	}
}
