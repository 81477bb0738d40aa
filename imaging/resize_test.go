package imaging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name       string
		origW      int
		origH      int
		maxW       int
		maxH       int
		wantW      int
		wantH      int
	}{
		{"landscape into square bound", 3000, 2000, 400, 400, 400, 267},
		{"portrait into square bound", 2000, 3000, 400, 400, 267, 400},
		{"already within bounds", 300, 200, 400, 400, 300, 200},
		{"exact fit", 400, 400, 400, 400, 400, 400},
		{"never upscales", 100, 50, 1920, 1080, 100, 50},
		{"wide bound limits height", 4000, 3000, 1920, 1080, 1440, 1080},
		{"unbounded width", 3000, 2000, 0, 1000, 1500, 1000},
		{"unbounded both", 3000, 2000, 0, 0, 3000, 2000},
		{"tiny source stays at least one pixel", 1, 1000, 400, 400, 1, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitWithin(tt.origW, tt.origH, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestFitWithin_NeverExceedsBounds(t *testing.T) {
	sizes := [][2]int{{6000, 4000}, {4000, 6000}, {1234, 987}, {50, 50}, {7680, 1080}}
	for _, rung := range Ladder {
		for _, size := range sizes {
			t.Run(fmt.Sprintf("%s_%dx%d", rung.Name, size[0], size[1]), func(t *testing.T) {
				w, h := FitWithin(size[0], size[1], rung.MaxWidth, rung.MaxHeight)
				assert.LessOrEqual(t, w, rung.MaxWidth)
				assert.LessOrEqual(t, h, rung.MaxHeight)
				assert.LessOrEqual(t, w, size[0])
				assert.LessOrEqual(t, h, size[1])
				assert.GreaterOrEqual(t, w, 1)
				assert.GreaterOrEqual(t, h, 1)
			})
		}
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OrientationLandscape, Classify(3000, 2000))
	assert.Equal(t, OrientationPortrait, Classify(2000, 3000))
	assert.Equal(t, OrientationSquare, Classify(1000, 1000))
	assert.Equal(t, OrientationSquare, Classify(1050, 1000), "1.05 is inside the square band")
	assert.Equal(t, OrientationLandscape, Classify(1200, 1000))
	assert.Equal(t, OrientationSquare, Classify(0, 100))
}
