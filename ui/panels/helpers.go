// Package panels provides the toolbar, versions strip, and the per-operation
// side panels.
package panels

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	xdraw "golang.org/x/image/draw"

	"room-studio/internal/asset"
)

// Runner launches an operation off the UI thread. Completion and errors
// surface through state events, so callers fire and forget.
type Runner func(op func(ctx context.Context) (*asset.Asset, error))

// thumbCache holds downscaled thumbnails by URL so rebuilding the versions
// strip does not re-fetch.
var thumbCache = struct {
	mu sync.Mutex
	m  map[string]image.Image
}{m: make(map[string]image.Image)}

// RemoteImage returns a canvas image that fills itself from url in the
// background, downscaled to fit maxDim.
func RemoteImage(client *http.Client, url string, maxDim int, size fyne.Size) *fynecanvas.Image {
	img := fynecanvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = fynecanvas.ImageFillContain
	img.SetMinSize(size)

	go func() {
		thumb, err := fetchThumb(client, url, maxDim)
		if err != nil {
			log.Printf("[panels] thumbnail %s: %v", url, err)
			return
		}
		fyne.Do(func() {
			img.Image = thumb
			img.Refresh()
		})
	}()
	return img
}

func fetchThumb(client *http.Client, url string, maxDim int) (image.Image, error) {
	thumbCache.mu.Lock()
	cached, ok := thumbCache.m[url]
	thumbCache.mu.Unlock()
	if ok {
		return cached, nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	src, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxDim || h > maxDim {
		if w >= h {
			h = h * maxDim / w
			w = maxDim
		} else {
			w = w * maxDim / h
			h = maxDim
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	thumbCache.mu.Lock()
	thumbCache.m[url] = dst
	thumbCache.mu.Unlock()
	return dst, nil
}
