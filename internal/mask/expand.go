package mask

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultExpansion is how many pixels the selected region grows before the
// mask is uploaded. Inpainting models blend poorly along a hard polygon
// edge; a modest dilation gives them room to feather the boundary.
const DefaultExpansion = 15

// Expand grows the white region of the mask by radius pixels using
// morphological dilation with an elliptical kernel.
func Expand(m *image.Gray, radius int) (*image.Gray, error) {
	if radius <= 0 {
		return m, nil
	}

	src, err := gocv.ImageGrayToMatGray(m)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask: %w", err)
	}
	defer src.Close()

	side := 2*radius + 1
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(side, side))
	defer kernel.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Dilate(src, &dst, kernel)

	img, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert dilated mask: %w", err)
	}
	if gray, ok := img.(*image.Gray); ok {
		return gray, nil
	}

	// ToImage may hand back another format depending on the Mat type.
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out, nil
}
