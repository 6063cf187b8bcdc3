package panels

import (
	"context"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"room-studio/internal/app"
	"room-studio/internal/asset"
)

const (
	duration5  = "5 seconds"
	duration10 = "10 seconds"
)

// VideoPanel drives image-to-video generation.
type VideoPanel struct {
	state *app.State

	prompt   *widget.Entry
	duration *widget.RadioGroup
	runBtn   *widget.Button
	box      fyne.CanvasObject
	syncing  bool
}

func NewVideoPanel(state *app.State, run Runner) *VideoPanel {
	p := &VideoPanel{state: state}

	p.prompt = widget.NewEntry()
	p.prompt.SetPlaceHolder("Describe the motion, e.g. \"slow pan across the room\"")
	p.prompt.OnChanged = func(text string) {
		if p.syncing {
			return
		}
		state.SetPrompt(app.RoleVideo, text)
	}

	p.duration = widget.NewRadioGroup([]string{duration5, duration10}, func(choice string) {
		if p.syncing {
			return
		}
		if choice == duration10 {
			state.SetVideoDuration(10)
		} else {
			state.SetVideoDuration(5)
		}
	})

	p.runBtn = widget.NewButton("Generate Video", func() {
		run(func(ctx context.Context) (*asset.Asset, error) {
			return state.RunGenerateVideo(ctx)
		})
	})

	p.box = container.NewVBox(
		widget.NewLabelWithStyle("Generate Video", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		p.prompt,
		p.duration,
		p.runBtn,
	)
	p.Refresh()
	return p
}

// Object returns the panel's canvas object.
func (p *VideoPanel) Object() fyne.CanvasObject {
	return p.box
}

// Refresh syncs the widgets with the state's drafts.
func (p *VideoPanel) Refresh() {
	p.syncing = true
	want := duration5
	if p.state.VideoDuration() == 10 {
		want = duration10
	}
	if p.duration.Selected != want {
		p.duration.SetSelected(want)
	}
	if p.prompt.Text != p.state.Prompt(app.RoleVideo) {
		p.prompt.SetText(p.state.Prompt(app.RoleVideo))
	}
	p.syncing = false

	if p.state.CanGenerateVideo() {
		p.runBtn.Enable()
	} else {
		p.runBtn.Disable()
	}
}
