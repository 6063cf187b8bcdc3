package mask

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"room-studio/pkg/geometry"
)

// Coverage returns the fraction of mask pixels that are selected, in [0,1].
func Coverage(m *image.Gray) float64 {
	if m == nil || len(m.Pix) == 0 {
		return 0
	}
	vals := make([]float64, len(m.Pix))
	for i, p := range m.Pix {
		if p >= 0x80 {
			vals[i] = 1
		}
	}
	return stat.Mean(vals, nil)
}

// SelectionArea returns the normalized polygon's area as a fraction of the
// image, computed with the shoelace formula. For simple polygons this
// approximates the mask coverage before expansion.
func SelectionArea(polygon []geometry.Point2D) float64 {
	return geometry.Area(polygon)
}
