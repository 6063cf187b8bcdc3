// Command maskgen rasterizes a polygon JSON file into a PNG mask, sized
// either explicitly or from a source image's true pixel dimensions.
//
// The polygon file holds normalized vertices:
//
//	[{"x":0.2,"y":0.2},{"x":0.8,"y":0.2},{"x":0.5,"y":0.8}]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"room-studio/internal/mask"
	"room-studio/pkg/geometry"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		polyPath = flag.String("polygon", "", "path to the polygon JSON file (required)")
		imageURL = flag.String("image", "", "source image URL; the mask matches its pixel dimensions")
		width    = flag.Int("w", 0, "mask width in pixels (ignored with -image)")
		height   = flag.Int("h", 0, "mask height in pixels (ignored with -image)")
		expand   = flag.Int("expand", mask.DefaultExpansion, "grow the selection by this many pixels")
		outPath  = flag.String("out", "mask.png", "output PNG path")
	)
	flag.Parse()

	if *polyPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*polyPath)
	if err != nil {
		log.Fatalf("Failed to read polygon: %v", err)
	}
	var polygon []geometry.Point2D
	if err := json.Unmarshal(data, &polygon); err != nil {
		log.Fatalf("Failed to parse polygon: %v", err)
	}

	w, h := *width, *height
	if *imageURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		w, h, err = mask.SourceDimensions(ctx, http.DefaultClient, *imageURL)
		if err != nil {
			log.Fatalf("Failed to read source dimensions: %v", err)
		}
		log.Printf("Source image is %dx%d", w, h)
	}
	if w <= 0 || h <= 0 {
		log.Fatal("Provide -image, or positive -w and -h")
	}

	bb := geometry.BoundingBox(polygon)
	ctr := geometry.Centroid(polygon)
	log.Printf("Selection spans %.0fx%.0f px centered at (%.0f, %.0f)",
		bb.Width*float64(w), bb.Height*float64(h),
		ctr.X*float64(w), ctr.Y*float64(h))

	m, err := mask.Rasterize(polygon, w, h)
	if err != nil {
		log.Fatalf("Failed to rasterize: %v", err)
	}
	if *expand > 0 {
		m, err = mask.Expand(m, *expand)
		if err != nil {
			log.Fatalf("Failed to expand mask: %v", err)
		}
	}

	png, err := mask.EncodePNG(m)
	if err != nil {
		log.Fatalf("Failed to encode: %v", err)
	}
	if err := os.WriteFile(*outPath, png, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *outPath, err)
	}
	fmt.Printf("Wrote %s (%dx%d, %.1f%% selected)\n", *outPath, w, h, 100*mask.Coverage(m))
}
