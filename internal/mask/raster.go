// Package mask converts normalized selection polygons into binary raster
// masks for inpainting-style models. The mask convention follows the
// hosted models: white pixels are editable, black pixels are preserved.
package mask

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/vector"

	"room-studio/pkg/geometry"
)

// ErrInvalidSelection indicates the polygon cannot describe an area
// (fewer than three vertices). This is a caller error, never degraded.
var ErrInvalidSelection = errors.New("selection needs at least 3 points")

// ErrAssetFetch indicates the source image could not be fetched or decoded.
var ErrAssetFetch = errors.New("failed to fetch source image")

// Rasterize scales the normalized polygon by width and height and fills it
// into a single-channel mask: selected pixels are white (0xff), everything
// else black. Edges are straight lines and the path is implicitly closed
// from the last vertex back to the first. Self-intersecting polygons are
// filled with the non-zero winding rule (the rule used by x/image/vector).
func Rasterize(polygon []geometry.Point2D, width, height int) (*image.Gray, error) {
	if len(polygon) < 3 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidSelection, len(polygon))
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid mask dimensions %dx%d", width, height)
	}

	z := vector.NewRasterizer(width, height)
	w := float32(width)
	h := float32(height)
	z.MoveTo(float32(polygon[0].X)*w, float32(polygon[0].Y)*h)
	for _, p := range polygon[1:] {
		z.LineTo(float32(p.X)*w, float32(p.Y)*h)
	}
	z.ClosePath()

	coverage := image.NewAlpha(image.Rect(0, 0, width, height))
	z.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})

	// Threshold antialiased coverage into a hard binary mask.
	out := image.NewGray(image.Rect(0, 0, width, height))
	for i, a := range coverage.Pix {
		if a >= 0x80 {
			out.Pix[i] = 0xff
		}
	}
	return out, nil
}

// EncodePNG serializes a mask for upload.
func EncodePNG(mask image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, mask); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	return buf.Bytes(), nil
}

// Selected reports whether the mask marks the given pixel as editable.
func Selected(mask *image.Gray, x, y int) bool {
	return mask.GrayAt(x, y).Y >= 0x80
}
