package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Rung is one named size tier in the thumbnail ladder. Bounds are maxima;
// actual dimensions are recomputed per image with the same aspect-preserving
// scale-to-fit math as compression.
type Rung struct {
	Name      string
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// Ladder is the fixed ordered set of thumbnail renditions, smallest first.
var Ladder = []Rung{
	{Name: "micro", MaxWidth: 80, MaxHeight: 80, Quality: 60},
	{Name: "small", MaxWidth: 200, MaxHeight: 200, Quality: 70},
	{Name: "medium", MaxWidth: 400, MaxHeight: 400, Quality: 80},
	{Name: "large", MaxWidth: 800, MaxHeight: 800, Quality: 85},
	{Name: "hero", MaxWidth: 1200, MaxHeight: 800, Quality: 90},
}

// RungByName returns the ladder rung with the given name.
func RungByName(name string) (Rung, bool) {
	for _, r := range Ladder {
		if r.Name == name {
			return r, true
		}
	}
	return Rung{}, false
}

// Thumbnail is one generated rendition.
type Thumbnail struct {
	Rung    string
	Data    []byte
	Width   int
	Height  int
	Quality int
}

// GenerateThumbnails renders every ladder rung from the source bytes.
// One rung failing never aborts the others; the returned map holds
// whatever subset succeeded. Only a decode failure is an error.
func GenerateThumbnails(data []byte) (map[string]Thumbnail, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumbs := make(map[string]Thumbnail, len(Ladder))
	for _, rung := range Ladder {
		thumb, err := renderRung(src, rung)
		if err != nil {
			continue
		}
		thumbs[rung.Name] = thumb
	}
	return thumbs, nil
}

func renderRung(src image.Image, rung Rung) (Thumbnail, error) {
	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), rung.MaxWidth, rung.MaxHeight)

	img := src
	if width != bounds.Dx() || height != bounds.Dy() {
		img = imaging.Resize(src, width, height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(rung.Quality)); err != nil {
		return Thumbnail{}, err
	}

	return Thumbnail{
		Rung:    rung.Name,
		Data:    buf.Bytes(),
		Width:   width,
		Height:  height,
		Quality: rung.Quality,
	}, nil
}
