// Package imaging derives image renditions: compressed display copies,
// the thumbnail ladder, and blur placeholders. Every function here is pure
// over image bytes; no I/O happens beyond the codecs.
package imaging

import "math"

// FitWithin computes target dimensions that preserve the source aspect
// ratio and fit inside the given bounds. A bound <= 0 means unbounded on
// that axis. The source is never enlarged.
func FitWithin(origW, origH, maxW, maxH int) (int, int) {
	if origW <= 0 || origH <= 0 {
		return origW, origH
	}

	scale := 1.0
	if maxW > 0 {
		scale = math.Min(scale, float64(maxW)/float64(origW))
	}
	if maxH > 0 {
		scale = math.Min(scale, float64(maxH)/float64(origH))
	}
	if scale >= 1 {
		return origW, origH
	}

	w := int(math.Round(float64(origW) * scale))
	h := int(math.Round(float64(origH) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	// Rounding can nudge a dimension one pixel past its bound.
	if maxW > 0 && w > maxW {
		w = maxW
	}
	if maxH > 0 && h > maxH {
		h = maxH
	}
	return w, h
}

// Orientation is a descriptive classification of an image's shape. It is
// metadata only and never drives cropping decisions.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
	OrientationSquare    Orientation = "square"
)

// Classify buckets an aspect ratio with thresholds at 1.1 and 0.9.
func Classify(width, height int) Orientation {
	if width <= 0 || height <= 0 {
		return OrientationSquare
	}
	ratio := float64(width) / float64(height)
	switch {
	case ratio > 1.1:
		return OrientationLandscape
	case ratio < 0.9:
		return OrientationPortrait
	default:
		return OrientationSquare
	}
}
