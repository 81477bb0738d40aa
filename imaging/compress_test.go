package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testJPEG renders a gradient so the encoders have real content to chew on.
func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: uint8((x + y) * 255 / (width + height)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestCompress_ScalesToProfileBounds(t *testing.T) {
	src := testJPEG(t, 3000, 2000)

	result, err := Compress(src, ProfileThumbnail)
	require.NoError(t, err)

	assert.Equal(t, 400, result.Width)
	assert.Equal(t, 267, result.Height)

	w, h := decodeSize(t, result.Compressed)
	assert.Equal(t, result.Width, w)
	assert.Equal(t, result.Height, h)
}

func TestCompress_NeverUpscales(t *testing.T) {
	src := testJPEG(t, 320, 240)

	result, err := Compress(src, ProfileHero)
	require.NoError(t, err)

	assert.Equal(t, 320, result.Width)
	assert.Equal(t, 240, result.Height)
}

func TestCompress_ReportsRatio(t *testing.T) {
	src := testJPEG(t, 1600, 1200)

	result, err := Compress(src, ProfileBandwidth)
	require.NoError(t, err)

	assert.Greater(t, result.CompressionRatio, 0.0)
	assert.InDelta(t, (1-result.CompressionRatio)*100, result.SizeReduction, 0.001)
	assert.NotEmpty(t, result.Compressed)
	assert.Equal(t, src, result.Original)
}

func TestCompress_SiblingFormats(t *testing.T) {
	src := testJPEG(t, 800, 600)

	withSiblings, err := Compress(src, ProfileGallery)
	require.NoError(t, err)
	assert.NotEmpty(t, withSiblings.WebP, "gallery profile emits webp")
	assert.NotEmpty(t, withSiblings.AVIF, "gallery profile emits avif")

	webpOnly, err := Compress(src, ProfileMobile)
	require.NoError(t, err)
	assert.NotEmpty(t, webpOnly.WebP)
	assert.Empty(t, webpOnly.AVIF, "mobile profile skips avif")

	jpegOnly, err := Compress(src, ProfileBandwidth)
	require.NoError(t, err)
	assert.Empty(t, jpegOnly.WebP)
	assert.Empty(t, jpegOnly.AVIF)
}

func TestCompress_RejectsGarbage(t *testing.T) {
	_, err := Compress([]byte("not an image"), ProfileGallery)
	assert.Error(t, err)
}

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("gallery")
	assert.NoError(t, err)
	assert.Equal(t, ProfileGallery, p)

	_, err = ProfileByName("nope")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "nope"))
}
