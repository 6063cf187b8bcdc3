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
	modePrompt    = "Describe the item"
	modeReference = "Use a reference photo"
)

// AddItemPanel drives item insertion. The target region always comes from
// the drawn polygon; the item itself comes from a text description or an
// uploaded reference photo.
type AddItemPanel struct {
	state *app.State

	mode     *widget.RadioGroup
	prompt   *widget.Entry
	refBtn   *widget.Button
	refLabel *widget.Label
	runBtn   *widget.Button
	box      fyne.CanvasObject
	syncing  bool
}

// NewAddItemPanel builds the panel. onUploadReference opens the file
// picker and feeds the chosen image through the state machine.
func NewAddItemPanel(state *app.State, run Runner, onUploadReference func()) *AddItemPanel {
	p := &AddItemPanel{state: state}

	p.mode = widget.NewRadioGroup([]string{modePrompt, modeReference}, func(choice string) {
		if p.syncing {
			return
		}
		state.SetAddItemUseReference(choice == modeReference)
		p.Refresh()
	})

	p.prompt = widget.NewEntry()
	p.prompt.SetPlaceHolder("e.g. \"a potted fiddle-leaf fig\"")
	p.prompt.OnChanged = func(text string) {
		if p.syncing {
			return
		}
		state.SetPrompt(app.RoleAddItem, text)
	}

	p.refBtn = widget.NewButton("Upload Reference…", onUploadReference)
	p.refLabel = widget.NewLabel("No reference uploaded")
	p.refLabel.Truncation = fyne.TextTruncateEllipsis

	p.runBtn = widget.NewButton("Add Item", func() {
		run(func(ctx context.Context) (*asset.Asset, error) {
			return state.RunAddItem(ctx)
		})
	})

	p.box = container.NewVBox(
		widget.NewLabelWithStyle("Add Item", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Outline where the item goes, then pick how to describe it."),
		p.mode,
		p.prompt,
		container.NewBorder(nil, nil, p.refBtn, nil, p.refLabel),
		p.runBtn,
	)
	p.Refresh()
	return p
}

// Object returns the panel's canvas object.
func (p *AddItemPanel) Object() fyne.CanvasObject {
	return p.box
}

// Refresh syncs the widgets with the state's drafts.
func (p *AddItemPanel) Refresh() {
	p.syncing = true
	want := modePrompt
	if p.state.AddItemUseReference() {
		want = modeReference
	}
	if p.mode.Selected != want {
		p.mode.SetSelected(want)
	}
	if p.prompt.Text != p.state.Prompt(app.RoleAddItem) {
		p.prompt.SetText(p.state.Prompt(app.RoleAddItem))
	}
	p.syncing = false

	if ref := p.state.ReferenceImageURL(); ref != "" {
		p.refLabel.SetText(ref)
	} else {
		p.refLabel.SetText("No reference uploaded")
	}
	if p.state.CanAddItem() {
		p.runBtn.Enable()
	} else {
		p.runBtn.Disable()
	}
}
