package selection

import (
	"sync"
	"testing"

	"room-studio/pkg/geometry"
)

// fixedRect returns a RectFunc for an image displayed at (100,50) sized 200x100.
func fixedRect() RectFunc {
	return func() (geometry.Rect, bool) {
		return geometry.NewRect(100, 50, 200, 100), true
	}
}

func TestAddViewportPointMapsToNormalized(t *testing.T) {
	e := New(fixedRect(), nil)

	e.AddViewportPoint(100, 50)  // top-left corner
	e.AddViewportPoint(300, 150) // bottom-right corner
	e.AddViewportPoint(200, 100) // center

	pts := e.Points()
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	want := []geometry.Point2D{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 0.5, Y: 0.5}}
	for i, p := range pts {
		if p != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, p, want[i])
		}
	}
}

func TestPointsOutsideImageAreDiscarded(t *testing.T) {
	e := New(fixedRect(), nil)

	e.AddViewportPoint(50, 50)   // left of the image
	e.AddViewportPoint(100, 200) // below the image
	if e.Len() != 0 {
		t.Fatalf("outside points were committed: %d", e.Len())
	}
}

func TestClickNearFirstPointCloses(t *testing.T) {
	var got []geometry.Point2D
	notified := false
	e := New(nil, func(pts []geometry.Point2D) {
		got = pts
		notified = true
	})

	e.AddPoint(geometry.NewPoint2D(0.1, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.5))
	e.AddPoint(geometry.NewPoint2D(0.1, 0.5))

	before := e.Len()
	// Within the 0.02 close radius of the first point.
	e.AddPoint(geometry.NewPoint2D(0.105, 0.095))

	if !e.Closed() {
		t.Fatal("polygon did not close")
	}
	if e.Len() != before {
		t.Errorf("closing click appended a point: %d -> %d", before, e.Len())
	}
	if !notified || len(got) != 4 {
		t.Errorf("consumer got %d points, want 4", len(got))
	}
}

func TestCloseRequiresThreePoints(t *testing.T) {
	e := New(nil, nil)
	e.AddPoint(geometry.NewPoint2D(0.1, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.1))

	e.Close()
	if e.Closed() {
		t.Error("polygon closed with fewer than 3 points")
	}

	// A click near the first point must also not close a 2-point polygon.
	e.AddPoint(geometry.NewPoint2D(0.101, 0.101))
	if e.Closed() {
		t.Error("near-first click closed a polygon below the minimum")
	}
	if e.Len() != 3 {
		t.Errorf("expected the near-first click to append, got %d points", e.Len())
	}
}

func TestSelectionOnlyWhenClosed(t *testing.T) {
	e := New(nil, nil)
	e.AddPoint(geometry.NewPoint2D(0.1, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.5))

	if e.Selection() != nil {
		t.Error("open polygon reported a submittable selection")
	}
	e.Close()
	if got := e.Selection(); len(got) != 3 {
		t.Errorf("closed selection has %d points, want 3", len(got))
	}
}

func TestReopenAppendsWithoutClearing(t *testing.T) {
	e := New(nil, nil)
	e.AddPoint(geometry.NewPoint2D(0.1, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.5))
	e.Close()

	e.AddPoint(geometry.NewPoint2D(0.3, 0.7))
	if e.Closed() {
		t.Error("adding a point did not reopen the polygon")
	}
	if e.Len() != 4 {
		t.Errorf("reopening cleared points: got %d, want 4", e.Len())
	}
}

func TestClearNotifiesNoSelection(t *testing.T) {
	calls := 0
	var last []geometry.Point2D
	e := New(nil, func(pts []geometry.Point2D) {
		calls++
		last = pts
	})

	e.AddPoint(geometry.NewPoint2D(0.1, 0.1))
	e.Clear()

	if e.Len() != 0 || e.Closed() {
		t.Error("clear did not reset the engine")
	}
	if calls != 1 || last != nil {
		t.Errorf("consumer not told about cleared selection (calls=%d)", calls)
	}
}

func TestHoverIsRenderOnly(t *testing.T) {
	e := New(fixedRect(), nil)

	// No committed points: hover invisible.
	e.SetViewportHover(200, 100)
	if _, ok := e.Hover(); ok {
		t.Error("hover visible with no committed points")
	}

	e.AddViewportPoint(150, 75)
	e.SetViewportHover(250, 125)
	h, ok := e.Hover()
	if !ok {
		t.Fatal("hover not tracked while open")
	}
	if h.X != 0.75 || h.Y != 0.75 {
		t.Errorf("hover = %+v, want (0.75, 0.75)", h)
	}
	if e.Len() != 1 {
		t.Errorf("hover became a committed point: %d", e.Len())
	}

	// Hover outside the image clears the preview.
	e.SetViewportHover(10, 10)
	if _, ok := e.Hover(); ok {
		t.Error("hover survived moving off the image")
	}
}

// The UI thread feeds pointer events while operation goroutines read the
// selection and reset it; the engine must tolerate that interleaving.
func TestConcurrentPointerAndOperationAccess(t *testing.T) {
	e := New(fixedRect(), func([]geometry.Point2D) {})

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			e.AddViewportPoint(float64(100+i%200), float64(50+i%100))
			e.SetViewportHover(float64(100+i%200), float64(50+i%100))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			e.Selection()
			e.Points()
			e.Closed()
			e.Hover()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			e.Close()
			e.Reset()
		}
	}()
	wg.Wait()

	e.Clear()
	if e.Len() != 0 || e.Closed() {
		t.Error("engine inconsistent after concurrent use")
	}
}

func TestResetDropsStateSilently(t *testing.T) {
	calls := 0
	e := New(nil, func([]geometry.Point2D) { calls++ })

	e.AddPoint(geometry.NewPoint2D(0.1, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.1))
	e.AddPoint(geometry.NewPoint2D(0.5, 0.5))
	e.Close()
	calls = 0

	e.Reset()
	if e.Len() != 0 || e.Closed() {
		t.Error("reset did not drop capture state")
	}
	if calls != 0 {
		t.Errorf("reset notified the consumer %d times", calls)
	}
}
