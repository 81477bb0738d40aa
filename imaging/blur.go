package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	blurBound   = 20
	blurQuality = 20
)

// BlurPlaceholder renders a tiny low-quality JPEG preview of the source,
// fitted inside a 20x20 box, and returns it as a data URL suitable for
// inlining as a loading placeholder.
func BlurPlaceholder(data []byte) (string, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), blurBound, blurBound)
	tiny := imaging.Resize(src, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, tiny, imaging.JPEG, imaging.JPEGQuality(blurQuality)); err != nil {
		return "", fmt.Errorf("encode placeholder: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// FallbackPlaceholder is the neutral gradient used when a real placeholder
// cannot be derived from the image bytes.
func FallbackPlaceholder() string {
	const svg = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20">` +
		`<defs><linearGradient id="g" x1="0" y1="0" x2="1" y2="1">` +
		`<stop offset="0%" stop-color="#d4d4d8"/>` +
		`<stop offset="100%" stop-color="#a1a1aa"/>` +
		`</linearGradient></defs>` +
		`<rect width="20" height="20" fill="url(#g)"/></svg>`
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
