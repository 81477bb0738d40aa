package imaging

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateThumbnails_AllRungs(t *testing.T) {
	src := testJPEG(t, 3000, 2000)

	thumbs, err := GenerateThumbnails(src)
	require.NoError(t, err)
	require.Len(t, thumbs, len(Ladder))

	for _, rung := range Ladder {
		thumb, ok := thumbs[rung.Name]
		require.True(t, ok, "missing rung %s", rung.Name)
		assert.Equal(t, rung.Name, thumb.Rung)
		assert.Equal(t, rung.Quality, thumb.Quality)
		assert.NotEmpty(t, thumb.Data)
		assert.LessOrEqual(t, thumb.Width, rung.MaxWidth)
		assert.LessOrEqual(t, thumb.Height, rung.MaxHeight)

		w, h := decodeSize(t, thumb.Data)
		assert.Equal(t, thumb.Width, w)
		assert.Equal(t, thumb.Height, h)
	}

	// Rungs shrink the image progressively.
	assert.Less(t, thumbs["micro"].Width, thumbs["small"].Width)
	assert.Less(t, thumbs["small"].Width, thumbs["medium"].Width)
	assert.Less(t, thumbs["medium"].Width, thumbs["large"].Width)
}

func TestGenerateThumbnails_SmallSourceKeepsSize(t *testing.T) {
	src := testJPEG(t, 100, 100)

	thumbs, err := GenerateThumbnails(src)
	require.NoError(t, err)

	// Every rung with room to spare keeps the original dimensions.
	assert.Equal(t, 100, thumbs["medium"].Width)
	assert.Equal(t, 100, thumbs["large"].Width)
	assert.Equal(t, 80, thumbs["micro"].Width)
}

func TestGenerateThumbnails_BadInput(t *testing.T) {
	_, err := GenerateThumbnails([]byte{0x00, 0x01})
	assert.Error(t, err)
}

func TestRungByName(t *testing.T) {
	rung, ok := RungByName("hero")
	assert.True(t, ok)
	assert.Equal(t, 1200, rung.MaxWidth)
	assert.Equal(t, 800, rung.MaxHeight)

	_, ok = RungByName("giant")
	assert.False(t, ok)
}

func TestBlurPlaceholder(t *testing.T) {
	src := testJPEG(t, 1200, 800)

	placeholder, err := BlurPlaceholder(src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(placeholder, "data:image/jpeg;base64,"))
	assert.Less(t, len(placeholder), 4096, "placeholder must stay inline-sized")

	_, err = BlurPlaceholder([]byte("garbage"))
	assert.Error(t, err)
}

func TestFallbackPlaceholder(t *testing.T) {
	placeholder := FallbackPlaceholder()
	assert.True(t, strings.HasPrefix(placeholder, "data:image/svg+xml;base64,"))
}

func TestDimensions(t *testing.T) {
	src := testJPEG(t, 640, 480)

	w, h, err := Dimensions(src)
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	_, _, err = Dimensions([]byte("garbage"))
	assert.Error(t, err)
}

func TestExtractEXIF_NoExifBlock(t *testing.T) {
	src := testJPEG(t, 64, 64)

	meta, err := ExtractEXIF(src)
	assert.NoError(t, err)
	assert.Nil(t, meta, "images without exif yield no metadata and no error")
}
