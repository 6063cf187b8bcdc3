package mask

import (
	"errors"
	"math"
	"testing"

	"room-studio/pkg/geometry"
)

func square(x0, y0, x1, y1 float64) []geometry.Point2D {
	return []geometry.Point2D{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
	}
}

func TestRasterizeDimensionsMatchSource(t *testing.T) {
	cases := []struct {
		name string
		w, h int
	}{
		{"small", 16, 16},
		{"landscape", 640, 480},
		{"odd", 123, 77},
	}
	poly := square(0.25, 0.25, 0.75, 0.75)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Rasterize(poly, tc.w, tc.h)
			if err != nil {
				t.Fatalf("rasterize: %v", err)
			}
			b := m.Bounds()
			if b.Dx() != tc.w || b.Dy() != tc.h {
				t.Errorf("mask is %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.w, tc.h)
			}
		})
	}
}

func TestRasterizeFillsInterior(t *testing.T) {
	m, err := Rasterize(square(0.25, 0.25, 0.75, 0.75), 100, 100)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}

	if !Selected(m, 50, 50) {
		t.Error("center of the polygon is not selected")
	}
	for _, p := range [][2]int{{5, 5}, {95, 5}, {5, 95}, {95, 95}} {
		if Selected(m, p[0], p[1]) {
			t.Errorf("pixel (%d,%d) outside the polygon is selected", p[0], p[1])
		}
	}
}

func TestRasterizeNonRectangular(t *testing.T) {
	// Triangle covering the lower-left half.
	tri := []geometry.Point2D{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	m, err := Rasterize(tri, 200, 200)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}

	if !Selected(m, 40, 160) {
		t.Error("point inside the triangle is not selected")
	}
	if Selected(m, 160, 40) {
		t.Error("point outside the triangle is selected")
	}
}

func TestRasterizeSelfIntersecting(t *testing.T) {
	// Bowtie: both lobes have non-zero winding and must be filled.
	bowtie := []geometry.Point2D{
		{X: 0.1, Y: 0.1},
		{X: 0.9, Y: 0.9},
		{X: 0.9, Y: 0.1},
		{X: 0.1, Y: 0.9},
	}
	m, err := Rasterize(bowtie, 100, 100)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}

	if !Selected(m, 20, 50) {
		t.Error("left lobe not filled under the non-zero rule")
	}
	if !Selected(m, 80, 50) {
		t.Error("right lobe not filled under the non-zero rule")
	}
	if Selected(m, 50, 15) || Selected(m, 50, 85) {
		t.Error("region outside both lobes is selected")
	}
}

func TestRasterizeRejectsTooFewPoints(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		poly := square(0.2, 0.2, 0.8, 0.8)[:n]
		_, err := Rasterize(poly, 50, 50)
		if !errors.Is(err, ErrInvalidSelection) {
			t.Errorf("%d points: err = %v, want ErrInvalidSelection", n, err)
		}
	}
}

func TestCoverage(t *testing.T) {
	m, err := Rasterize(square(0, 0, 0.5, 1), 200, 200)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	got := Coverage(m)
	if math.Abs(got-0.5) > 0.02 {
		t.Errorf("coverage = %.3f, want ~0.5", got)
	}
}

func TestSelectionArea(t *testing.T) {
	got := SelectionArea(square(0.25, 0.25, 0.75, 0.75))
	if math.Abs(got-0.25) > 1e-9 {
		t.Errorf("area = %.4f, want 0.25", got)
	}
}

func TestEncodePNG(t *testing.T) {
	m, err := Rasterize(square(0.2, 0.2, 0.8, 0.8), 32, 32)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	data, err := EncodePNG(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// PNG signature.
	if len(data) < 8 || data[0] != 0x89 || string(data[1:4]) != "PNG" {
		t.Error("output is not a PNG")
	}
}
