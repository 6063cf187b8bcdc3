package panels

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"room-studio/internal/app"
)

// Toolbar holds the global actions: uploading photos and opening the
// before/after comparison. Operation buttons live in the side panels.
type Toolbar struct {
	state *app.State

	uploadBtn  *widget.Button
	compareBtn *widget.Button
	progress   *widget.ProgressBarInfinite
	box        fyne.CanvasObject
}

// NewToolbar builds the toolbar. onUpload and onCompare run on the UI
// thread.
func NewToolbar(state *app.State, onUpload, onCompare func()) *Toolbar {
	t := &Toolbar{state: state}
	t.uploadBtn = widget.NewButton("Upload Photo", onUpload)
	t.compareBtn = widget.NewButton("Compare Before / After", onCompare)
	t.progress = widget.NewProgressBarInfinite()
	t.progress.Hide()

	t.box = container.NewHBox(t.uploadBtn, t.compareBtn, t.progress)
	t.Refresh()
	return t
}

// Object returns the toolbar's canvas object.
func (t *Toolbar) Object() fyne.CanvasObject {
	return t.box
}

// Refresh re-evaluates button availability against the state machine.
func (t *Toolbar) Refresh() {
	if t.state.Busy() {
		t.uploadBtn.Disable()
		t.progress.Show()
		t.progress.Start()
	} else {
		t.uploadBtn.Enable()
		t.progress.Stop()
		t.progress.Hide()
	}
	if t.state.CanCompare() {
		t.compareBtn.Enable()
	} else {
		t.compareBtn.Disable()
	}
}
