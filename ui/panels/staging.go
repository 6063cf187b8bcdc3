package panels

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"room-studio/internal/app"
	"room-studio/internal/asset"
)

// StagingStyles are the furnishing presets offered for virtual staging.
var StagingStyles = []string{
	"modern",
	"scandinavian",
	"industrial",
	"bohemian",
	"traditional",
	"luxury",
}

// StagingPanel drives virtual staging. A style preset and a custom prompt
// are mutually exclusive; picking one clears the other.
type StagingPanel struct {
	state *app.State

	styles  *widget.RadioGroup
	prompt  *widget.Entry
	runBtn  *widget.Button
	box     fyne.CanvasObject
	syncing bool
}

func NewStagingPanel(state *app.State, run Runner) *StagingPanel {
	p := &StagingPanel{state: state}

	p.styles = widget.NewRadioGroup(StagingStyles, func(style string) {
		if p.syncing {
			return
		}
		state.SelectStagingStyle(style)
		p.Refresh()
	})

	p.prompt = widget.NewEntry()
	p.prompt.SetPlaceHolder("Or describe the staging yourself")
	p.prompt.OnChanged = func(text string) {
		if p.syncing {
			return
		}
		state.SetPrompt(app.RoleStaging, text)
		p.Refresh()
	}

	p.runBtn = widget.NewButton("Stage Room", func() {
		run(func(ctx context.Context) (*asset.Asset, error) {
			return state.RunStage(ctx)
		})
	})

	p.box = container.NewVBox(
		widget.NewLabelWithStyle("Virtual Staging", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Furnish the empty room in a style:"),
		p.styles,
		p.prompt,
		p.runBtn,
	)
	p.Refresh()
	return p
}

// Object returns the panel's canvas object.
func (p *StagingPanel) Object() fyne.CanvasObject {
	return p.box
}

// Refresh syncs the widgets with the state's drafts without re-triggering
// their change handlers.
func (p *StagingPanel) Refresh() {
	p.syncing = true
	if p.styles.Selected != p.state.StagingStyle() {
		p.styles.SetSelected(p.state.StagingStyle())
	}
	if p.prompt.Text != p.state.Prompt(app.RoleStaging) {
		p.prompt.SetText(p.state.Prompt(app.RoleStaging))
	}
	p.syncing = false

	if p.state.CanStage() {
		p.runBtn.Enable()
	} else {
		p.runBtn.Disable()
	}
}
