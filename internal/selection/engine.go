// Package selection turns pointer input over a displayed image into a
// closed polygon in normalized image coordinates.
package selection

import (
	"sync"

	"room-studio/pkg/geometry"
)

// CloseRadius is the normalized distance to the first vertex within which
// a click closes the polygon instead of adding a point.
const CloseRadius = 0.02

// MinPoints is the minimum vertex count for a closable polygon.
const MinPoints = 3

// RectFunc reports the image's current on-screen rectangle in viewport
// coordinates. It is consulted on every pointer event because the display
// rectangle moves with scrolling and zooming.
type RectFunc func() (geometry.Rect, bool)

// Engine accumulates polygon vertices. All committed points are stored in
// normalized [0,1]² image coordinates. The engine is safe for concurrent
// use: the UI thread feeds it pointer events while operation goroutines
// read the selection and reset it. onChange runs outside the engine's
// lock, so a consumer may call back into the engine.
// The zero Engine is not usable; use New.
type Engine struct {
	mu     sync.Mutex
	rectFn RectFunc
	points []geometry.Point2D
	closed bool

	hover    geometry.Point2D
	hasHover bool

	// onChange receives the committed polygon when it closes, and nil when
	// the selection is cleared or reopened.
	onChange func([]geometry.Point2D)
}

// New creates an engine that maps viewport points through rectFn.
func New(rectFn RectFunc, onChange func([]geometry.Point2D)) *Engine {
	return &Engine{rectFn: rectFn, onChange: onChange}
}

// AddViewportPoint maps a viewport-space point into normalized image
// coordinates and appends it. Points outside the displayed image rectangle
// are discarded silently. If the polygon has at least MinPoints vertices
// and the new point lands within CloseRadius of the first vertex, the
// polygon closes instead of gaining a vertex. Adding a point to a closed
// polygon reopens it first.
func (e *Engine) AddViewportPoint(x, y float64) {
	if e.rectFn == nil {
		return
	}
	rect, ok := e.rectFn()
	if !ok {
		return
	}
	p, ok := rect.Normalize(geometry.NewPoint2D(x, y))
	if !ok {
		return
	}
	e.AddPoint(p)
}

// AddPoint appends an already-normalized point, applying the same closing
// and reopening rules as AddViewportPoint.
func (e *Engine) AddPoint(p geometry.Point2D) {
	e.mu.Lock()
	reopened := false
	if e.closed {
		e.closed = false
		reopened = true
	}

	var closedPts []geometry.Point2D
	if len(e.points) >= MinPoints && p.Distance(e.points[0]) < CloseRadius {
		e.closed = true
		e.hasHover = false
		closedPts = e.pointsLocked()
	} else {
		e.points = append(e.points, p)
	}
	e.mu.Unlock()

	if reopened {
		e.notify(nil)
	}
	if closedPts != nil {
		e.notify(closedPts)
	}
}

// Close finalizes the polygon. It does nothing when fewer than MinPoints
// vertices exist or the polygon is already closed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed || len(e.points) < MinPoints {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.hasHover = false
	pts := e.pointsLocked()
	e.mu.Unlock()

	e.notify(pts)
}

// Clear resets the engine to an empty, open state and notifies the
// consumer that no selection exists.
func (e *Engine) Clear() {
	e.mu.Lock()
	e.points = nil
	e.closed = false
	e.hasHover = false
	e.mu.Unlock()

	e.notify(nil)
}

// Reset drops all capture state without notifying. Called when the image
// under the selector changes identity or the editing role switches, so a
// stale polygon can never be submitted against a different image.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.points = nil
	e.closed = false
	e.hasHover = false
	e.mu.Unlock()
}

// SetViewportHover updates the transient preview vertex from a viewport
// point. The preview is render-only and never becomes a committed point.
func (e *Engine) SetViewportHover(x, y float64) {
	if e.rectFn == nil {
		return
	}
	rect, ok := e.rectFn()
	if !ok {
		e.ClearHover()
		return
	}
	p, ok := rect.Normalize(geometry.NewPoint2D(x, y))
	if !ok {
		e.ClearHover()
		return
	}
	e.mu.Lock()
	e.hover = p
	e.hasHover = true
	e.mu.Unlock()
}

// ClearHover removes the preview vertex.
func (e *Engine) ClearHover() {
	e.mu.Lock()
	e.hasHover = false
	e.mu.Unlock()
}

// Hover returns the preview vertex, valid only while the polygon is open
// and at least one committed point exists.
func (e *Engine) Hover() (geometry.Point2D, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(e.points) == 0 {
		return geometry.Point2D{}, false
	}
	return e.hover, e.hasHover
}

// Points returns a copy of the committed vertices in insertion order.
func (e *Engine) Points() []geometry.Point2D {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pointsLocked()
}

func (e *Engine) pointsLocked() []geometry.Point2D {
	out := make([]geometry.Point2D, len(e.points))
	copy(out, e.points)
	return out
}

// Len returns the committed vertex count.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.points)
}

// Closed reports whether the polygon has been finalized.
func (e *Engine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Closable reports whether an explicit close would succeed.
func (e *Engine) Closable() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && len(e.points) >= MinPoints
}

// Selection returns the finalized polygon, or nil while the polygon is
// open. Only a closed polygon is submittable.
func (e *Engine) Selection() []geometry.Point2D {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		return nil
	}
	return e.pointsLocked()
}

func (e *Engine) notify(points []geometry.Point2D) {
	if e.onChange != nil {
		e.onChange(points)
	}
}
