package panels

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"room-studio/internal/app"
	"room-studio/internal/asset"
)

// CleanPanel drives object removal. The user either outlines the object on
// the canvas or describes it; a drawn polygon wins over the prompt.
type CleanPanel struct {
	state  *app.State
	prompt *widget.Entry
	runBtn *widget.Button
	box    fyne.CanvasObject
}

func NewCleanPanel(state *app.State, run Runner) *CleanPanel {
	p := &CleanPanel{state: state}

	p.prompt = widget.NewEntry()
	p.prompt.SetPlaceHolder("Describe what to remove, e.g. \"the boxes in the corner\"")
	p.prompt.OnChanged = func(text string) {
		state.SetPrompt(app.RoleClean, text)
	}

	p.runBtn = widget.NewButton("Remove Objects", func() {
		run(func(ctx context.Context) (*asset.Asset, error) {
			return state.RunClean(ctx)
		})
	})

	p.box = container.NewVBox(
		widget.NewLabelWithStyle("Clean Up", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Draw a polygon around the object, or describe it below."),
		p.prompt,
		p.runBtn,
	)
	return p
}

// Object returns the panel's canvas object.
func (p *CleanPanel) Object() fyne.CanvasObject {
	return p.box
}

// Refresh syncs the panel with the state machine.
func (p *CleanPanel) Refresh() {
	if p.prompt.Text != p.state.Prompt(app.RoleClean) {
		p.prompt.SetText(p.state.Prompt(app.RoleClean))
	}
	if p.state.CanClean() {
		p.runBtn.Enable()
	} else {
		p.runBtn.Disable()
	}
}
