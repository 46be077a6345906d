package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
)

func encodePNG(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return &buf
}

func TestGenerateThumbnailScalesDown(t *testing.T) {
	src := encodePNG(t, 1200, 800)

	data, err := GenerateThumbnail(src)
	assert.NoError(t, err)
	assert.NotEmpty(t, data)

	thumb, _, err := image.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.LessOrEqual(t, thumb.Bounds().Dx(), ThumbnailMaxSize)
	assert.LessOrEqual(t, thumb.Bounds().Dy(), ThumbnailMaxSize)
	// aspect ratio preserved: 1200x800 -> 400x266
	assert.Equal(t, ThumbnailMaxSize, thumb.Bounds().Dx())
}

func TestGenerateThumbnailKeepsSmallImages(t *testing.T) {
	src := encodePNG(t, 100, 60)

	data, err := GenerateThumbnail(src)
	assert.NoError(t, err)

	thumb, _, err := image.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
	assert.Equal(t, 100, thumb.Bounds().Dx())
	assert.Equal(t, 60, thumb.Bounds().Dy())
}

func TestGenerateThumbnailRejectsGarbage(t *testing.T) {
	_, err := GenerateThumbnail(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestCanThumbnail(t *testing.T) {
	assert.True(t, CanThumbnail("image/jpeg"))
	assert.True(t, CanThumbnail("image/png"))
	assert.False(t, CanThumbnail("image/svg+xml"))
	assert.False(t, CanThumbnail("application/pdf"))
}

func TestThumbnailObjectKey(t *testing.T) {
	assert.Equal(t, "artworks/2026/08/abc_thumb.jpg", ThumbnailObjectKey("artworks/2026/08/abc.png"))
	assert.Equal(t, "artworks/2026/08/noext_thumb.jpg", ThumbnailObjectKey("artworks/2026/08/noext"))
}
