// Package canvas provides the capture canvas: the active image with the
// polygon selection overlay.
package canvas

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"net/http"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"room-studio/internal/app"
	"room-studio/internal/asset"
	"room-studio/internal/mask"
	"room-studio/pkg/geometry"
)

// CaptureCanvas displays the active image fit to width with vertical
// scrolling. In capture mode, clicks append polygon vertices through the
// state's capture engine; the overlay shows committed segments, the hover
// preview, and the closable first vertex.
type CaptureCanvas struct {
	widget.BaseWidget

	state *app.State
	httpc *http.Client

	img    image.Image
	imgURL string

	area   *captureArea
	scroll *container.Scroll
	status *widget.Label
	closeB *widget.Button
	clearB *widget.Button

	dispSize fyne.Size
}

// New creates the capture canvas and registers its display rectangle with
// the state's capture engine.
func New(state *app.State, httpc *http.Client) *CaptureCanvas {
	c := &CaptureCanvas{
		state:  state,
		httpc:  httpc,
		status: widget.NewLabel("Select an image to begin"),
	}
	if c.httpc == nil {
		c.httpc = http.DefaultClient
	}
	c.area = newCaptureArea(c)
	c.scroll = container.NewVScroll(c.area)
	c.closeB = widget.NewButton("Close Polygon", func() {
		c.state.Capture.Close()
		c.Refresh()
	})
	c.clearB = widget.NewButton("Clear Selection", func() {
		c.state.Capture.Clear()
		c.Refresh()
	})
	c.ExtendBaseWidget(c)

	state.SetCaptureRect(c.displayRect)
	return c
}

func (c *CaptureCanvas) CreateRenderer() fyne.WidgetRenderer {
	buttons := container.NewHBox(c.closeB, c.clearB)
	bottom := container.NewBorder(nil, nil, nil, buttons, c.status)
	return widget.NewSimpleRenderer(container.NewBorder(nil, bottom, nil, nil, c.scroll))
}

// ShowAsset loads the asset's image in the background and displays it.
// Loading a different image than the one currently shown discards any
// polygon drawn against the old image.
func (c *CaptureCanvas) ShowAsset(a *asset.Asset) {
	if a == nil {
		c.img = nil
		c.imgURL = ""
		c.state.Capture.Reset()
		c.Refresh()
		return
	}
	if a.URL == c.imgURL {
		c.Refresh()
		return
	}

	url := a.URL
	go func() {
		img, err := fetchImage(c.httpc, url)
		if err != nil {
			log.Printf("[canvas] failed to load %s: %v", url, err)
			return
		}
		fyne.Do(func() {
			c.img = img
			c.imgURL = url
			c.state.Capture.Reset()
			c.Refresh()
		})
	}()
}

// ImageURL returns the URL of the displayed image, or "".
func (c *CaptureCanvas) ImageURL() string {
	return c.imgURL
}

// displayRect reports the displayed image rectangle in the coordinate
// space of pointer events, recomputed on demand because layout changes
// with every resize.
func (c *CaptureCanvas) displayRect() (geometry.Rect, bool) {
	if c.img == nil || c.dispSize.Width <= 0 {
		return geometry.Rect{}, false
	}
	return geometry.Rect{
		X:      0,
		Y:      0,
		Width:  float64(c.dispSize.Width),
		Height: float64(c.dispSize.Height),
	}, true
}

func (c *CaptureCanvas) Refresh() {
	c.updateStatus()
	c.closeB.Disable()
	c.clearB.Disable()
	if c.state.Capture.Closable() {
		c.closeB.Enable()
	}
	if c.state.Capture.Len() > 0 || c.state.Capture.Closed() {
		c.clearB.Enable()
	}
	c.area.Refresh()
	c.BaseWidget.Refresh()
}

func (c *CaptureCanvas) updateStatus() {
	if c.img == nil {
		c.status.SetText("Select an image to begin")
		return
	}
	if !c.state.CaptureMode() {
		c.status.SetText("")
		return
	}
	eng := c.state.Capture
	switch {
	case eng.Closed():
		pct := 100 * mask.SelectionArea(eng.Points())
		c.status.SetText(fmt.Sprintf("Selection closed (%.1f%% of image). Press Escape to clear.", pct))
	case eng.Len() == 0:
		c.status.SetText("Click to start drawing polygon")
	case eng.Len() < 3:
		c.status.SetText(fmt.Sprintf("Click to add point (%d/3+)", eng.Len()))
	default:
		c.status.SetText("Click near first point or press Enter to close polygon")
	}
}

// captureArea is the scrollable content: the image raster sized to fit the
// canvas width. It receives the pointer events.
type captureArea struct {
	widget.BaseWidget
	owner  *CaptureCanvas
	raster *fynecanvas.Raster
}

func newCaptureArea(owner *CaptureCanvas) *captureArea {
	a := &captureArea{owner: owner}
	a.raster = fynecanvas.NewRaster(a.render)
	a.ExtendBaseWidget(a)
	return a
}

func (a *captureArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(a.raster)
}

func (a *captureArea) MinSize() fyne.Size {
	img := a.owner.img
	if img == nil {
		return fyne.NewSize(400, 300)
	}
	w := a.owner.Size().Width
	if w <= 0 {
		w = 800
	}
	b := img.Bounds()
	h := w * float32(b.Dy()) / float32(b.Dx())
	a.owner.dispSize = fyne.NewSize(w, h)
	return a.owner.dispSize
}

// contentPos converts an event position to content coordinates, which is
// the space the display rectangle lives in. Event positions are relative
// to the viewport, so the scroll offset is added back.
func (a *captureArea) contentPos(ev *fyne.PointEvent) (float64, float64) {
	off := a.owner.scroll.Offset
	return float64(ev.Position.X + off.X), float64(ev.Position.Y + off.Y)
}

// Tapped appends a polygon vertex while in capture mode.
func (a *captureArea) Tapped(ev *fyne.PointEvent) {
	if !a.owner.state.CaptureMode() || a.owner.img == nil {
		return
	}
	size := a.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}
	x, y := a.contentPos(ev)
	a.owner.state.Capture.AddViewportPoint(x, y)
	a.owner.Refresh()
}

var _ desktop.Hoverable = (*captureArea)(nil)

func (a *captureArea) MouseIn(ev *desktop.MouseEvent) {}

// MouseMoved tracks the hover preview vertex.
func (a *captureArea) MouseMoved(ev *desktop.MouseEvent) {
	if !a.owner.state.CaptureMode() {
		return
	}
	x, y := a.contentPos(&ev.PointEvent)
	a.owner.state.Capture.SetViewportHover(x, y)
	if a.owner.state.Capture.Len() > 0 {
		a.raster.Refresh()
	}
}

func (a *captureArea) MouseOut() {
	a.owner.state.Capture.ClearHover()
	a.raster.Refresh()
}

// render composes the scaled image and the polygon overlay at raster
// resolution. Normalized vertices scale directly to raster pixels because
// the image fills the raster exactly.
func (a *captureArea) render(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return out
	}
	for i := range out.Pix {
		out.Pix[i] = 0x20
	}
	img := a.owner.img
	if img != nil {
		xdraw.ApproxBiLinear.Scale(out, out.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	}

	eng := a.owner.state.Capture
	pts := eng.Points()
	if len(pts) == 0 {
		return out
	}

	px := make([]image.Point, len(pts))
	for i, p := range pts {
		px[i] = image.Pt(int(p.X*float64(w)), int(p.Y*float64(h)))
	}

	if eng.Closed() {
		if m, err := mask.Rasterize(pts, w, h); err == nil {
			tintMasked(out, m, app.PolygonFillColor)
		}
	}

	for i := 1; i < len(px); i++ {
		drawLine(out, px[i-1], px[i], app.PolygonLineColor)
	}
	if eng.Closed() && len(px) >= 2 {
		drawLine(out, px[len(px)-1], px[0], app.PolygonLineColor)
	} else if hv, ok := eng.Hover(); ok {
		hp := image.Pt(int(hv.X*float64(w)), int(hv.Y*float64(h)))
		drawLine(out, px[len(px)-1], hp, app.PolygonLineColor)
	}

	for i, p := range px {
		col := app.PolygonLineColor
		if i == 0 && (eng.Closable() || eng.Closed()) {
			col = app.FirstVertexColor
		}
		drawDot(out, p, 4, col)
	}
	return out
}

func tintMasked(dst *image.RGBA, m *image.Gray, col color.NRGBA) {
	b := dst.Bounds()
	alpha := int(col.A)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !mask.Selected(m, x, y) {
				continue
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i] = uint8((int(dst.Pix[i])*(255-alpha) + int(col.R)*alpha) / 255)
			dst.Pix[i+1] = uint8((int(dst.Pix[i+1])*(255-alpha) + int(col.G)*alpha) / 255)
			dst.Pix[i+2] = uint8((int(dst.Pix[i+2])*(255-alpha) + int(col.B)*alpha) / 255)
		}
	}
}

// drawLine draws a 3px-wide line between two points.
func drawLine(dst *image.RGBA, p0, p1 image.Point, col color.NRGBA) {
	dx := abs(p1.X - p0.X)
	dy := abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	err := dx - dy
	x, y := p0.X, p0.Y
	for {
		drawDot(dst, image.Pt(x, y), 1, col)
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func drawDot(dst *image.RGBA, p image.Point, r int, col color.NRGBA) {
	b := dst.Bounds()
	for y := p.Y - r; y <= p.Y+r; y++ {
		for x := p.X - r; x <= p.X+r; x++ {
			if x < b.Min.X || y < b.Min.Y || x >= b.Max.X || y >= b.Max.Y {
				continue
			}
			if (x-p.X)*(x-p.X)+(y-p.Y)*(y-p.Y) > r*r {
				continue
			}
			i := dst.PixOffset(x, y)
			dst.Pix[i] = col.R
			dst.Pix[i+1] = col.G
			dst.Pix[i+2] = col.B
			dst.Pix[i+3] = 0xff
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func fetchImage(client *http.Client, url string) (image.Image, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d for %s", resp.StatusCode, url)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return img, nil
}
