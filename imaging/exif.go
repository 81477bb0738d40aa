package imaging

import (
	"bytes"
	"image"
	"strconv"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"
)

// Meta holds the camera metadata worth surfacing in a gallery. Every field
// is optional; absence of EXIF data is normal for screenshots and exports.
type Meta struct {
	Make         string     `json:"make,omitempty"`
	Model        string     `json:"model,omitempty"`
	TakenAt      *time.Time `json:"takenAt,omitempty"`
	ExposureTime string     `json:"exposureTime,omitempty"`
	FNumber      float64    `json:"fNumber,omitempty"`
	ISO          int        `json:"iso,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
}

// ExtractEXIF reads camera metadata from the image bytes. Images without an
// EXIF block return a nil Meta and no error.
func ExtractEXIF(data []byte) (*Meta, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil
	}

	meta := &Meta{}

	if tag, err := x.Get(exif.Make); err == nil {
		meta.Make, _ = tag.StringVal()
	}
	if tag, err := x.Get(exif.Model); err == nil {
		meta.Model, _ = tag.StringVal()
	}
	if taken, err := x.DateTime(); err == nil {
		meta.TakenAt = &taken
	}
	if tag, err := x.Get(exif.ExposureTime); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			meta.ExposureTime = ratioString(num, den)
		}
	}
	if tag, err := x.Get(exif.FNumber); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			meta.FNumber = float64(num) / float64(den)
		}
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil {
			meta.ISO = iso
		}
	}
	if lat, long, err := x.LatLong(); err == nil {
		meta.Latitude = &lat
		meta.Longitude = &long
	}

	return meta, nil
}

func ratioString(num, den int64) string {
	if num >= den {
		// Long exposures read better as plain seconds.
		return strconv.FormatFloat(float64(num)/float64(den), 'g', 3, 64) + "s"
	}
	return strconv.FormatInt(num, 10) + "/" + strconv.FormatInt(den, 10) + "s"
}

// Dimensions returns the pixel width and height of the encoded image
// without decoding the full bitmap.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
