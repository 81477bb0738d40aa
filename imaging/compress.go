package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
)

// CompressionResult carries every rendition produced for one profile.
// It is transient: callers persist the derived byte buffers, never the
// result itself.
type CompressionResult struct {
	Original   []byte
	Compressed []byte
	WebP       []byte
	AVIF       []byte

	Width  int
	Height int

	// CompressionRatio is compressed size over original size; SizeReduction
	// is the same thing expressed as a saved percentage.
	CompressionRatio float64
	SizeReduction    float64
}

// Compress decodes data, scales it to fit the profile bounds without
// enlarging, and encodes a JPEG at the profile quality. WebP and AVIF
// siblings are emitted at the same quality and dimensions when the profile
// enables them; a sibling encoder failure degrades to the JPEG alone.
func Compress(data []byte, profile Profile) (*CompressionResult, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), profile.MaxWidth, profile.MaxHeight)

	img := image.Image(src)
	if width != bounds.Dx() || height != bounds.Dy() {
		img = imaging.Resize(src, width, height, imaging.Lanczos)
	}

	var jpegBuf bytes.Buffer
	if err := imaging.Encode(&jpegBuf, img, imaging.JPEG, imaging.JPEGQuality(profile.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	result := &CompressionResult{
		Original:   data,
		Compressed: jpegBuf.Bytes(),
		Width:      width,
		Height:     height,
	}

	if len(data) > 0 {
		result.CompressionRatio = float64(len(result.Compressed)) / float64(len(data))
		result.SizeReduction = (1 - result.CompressionRatio) * 100
	}

	if profile.WebP {
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, webp.Options{Quality: profile.Quality}); err == nil {
			result.WebP = buf.Bytes()
		}
	}
	if profile.AVIF {
		var buf bytes.Buffer
		if err := avif.Encode(&buf, img, avif.Options{Quality: profile.Quality}); err == nil {
			result.AVIF = buf.Bytes()
		}
	}

	return result, nil
}
