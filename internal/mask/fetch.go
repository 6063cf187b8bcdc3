package mask

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"room-studio/pkg/geometry"
)

// SourceDimensions fetches the source image and reads its true pixel
// dimensions from the encoded header. The displayed size is never used
// for rasterization.
func SourceDimensions(ctx context.Context, client *http.Client, url string) (int, int, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrAssetFetch, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrAssetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("%w: status %d for %s", ErrAssetFetch, resp.StatusCode, url)
	}

	cfg, _, err := image.DecodeConfig(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: decode: %v", ErrAssetFetch, err)
	}
	return cfg.Width, cfg.Height, nil
}

// FromImageURL builds the upload-ready mask for a polygon drawn over the
// image at url: it fetches the image's pixel dimensions, rasterizes the
// polygon at that size, and grows the selected region by expandPx so the
// model has room to blend edges (pass 0 to skip expansion).
func FromImageURL(ctx context.Context, client *http.Client, url string, polygon []geometry.Point2D, expandPx int) (*image.Gray, error) {
	if len(polygon) < 3 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidSelection, len(polygon))
	}

	w, h, err := SourceDimensions(ctx, client, url)
	if err != nil {
		return nil, err
	}

	m, err := Rasterize(polygon, w, h)
	if err != nil {
		return nil, err
	}
	if expandPx > 0 {
		m, err = Expand(m, expandPx)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}
