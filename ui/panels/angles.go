package panels

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"room-studio/internal/app"
	"room-studio/internal/asset"
)

// AnglePanel drives the camera re-angle operation with azimuth, elevation,
// and zoom sliders.
type AnglePanel struct {
	state *app.State

	azimuth   *widget.Slider
	elevation *widget.Slider
	zoom      *widget.Slider
	azLabel   *widget.Label
	elLabel   *widget.Label
	zoomLabel *widget.Label
	runBtn    *widget.Button
	box       fyne.CanvasObject
}

func NewAnglePanel(state *app.State, run Runner) *AnglePanel {
	p := &AnglePanel{state: state}

	p.azimuth = widget.NewSlider(0, 360)
	p.azimuth.Step = 5
	p.elevation = widget.NewSlider(-30, 90)
	p.elevation.Step = 5
	p.zoom = widget.NewSlider(0, 10)
	p.zoom.Step = 0.5

	p.azLabel = widget.NewLabel("")
	p.elLabel = widget.NewLabel("")
	p.zoomLabel = widget.NewLabel("")

	onChange := func(float64) {
		state.SetAngleParams(p.azimuth.Value, p.elevation.Value, p.zoom.Value)
		p.updateLabels()
	}
	p.azimuth.OnChanged = onChange
	p.elevation.OnChanged = onChange
	p.zoom.OnChanged = onChange

	p.runBtn = widget.NewButton("Generate Angle", func() {
		run(func(ctx context.Context) (*asset.Asset, error) {
			return state.RunDifferentAngles(ctx)
		})
	})

	p.box = container.NewVBox(
		widget.NewLabelWithStyle("Different Angles", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		p.azLabel, p.azimuth,
		p.elLabel, p.elevation,
		p.zoomLabel, p.zoom,
		p.runBtn,
	)
	p.Refresh()
	return p
}

// Object returns the panel's canvas object.
func (p *AnglePanel) Object() fyne.CanvasObject {
	return p.box
}

// Refresh syncs the sliders with the state's draft parameters.
func (p *AnglePanel) Refresh() {
	az, el, zoom := p.state.AngleParams()
	p.azimuth.Value = az
	p.elevation.Value = el
	p.zoom.Value = zoom
	p.azimuth.Refresh()
	p.elevation.Refresh()
	p.zoom.Refresh()
	p.updateLabels()

	if p.state.CanChangeAngle() {
		p.runBtn.Enable()
	} else {
		p.runBtn.Disable()
	}
}

func (p *AnglePanel) updateLabels() {
	az, el, zoom := p.state.AngleParams()
	p.azLabel.SetText(fmt.Sprintf("Direction: %.0f° (%s)", az, compassName(az)))
	p.elLabel.SetText(fmt.Sprintf("Height: %.0f° (%s)", el, elevationName(el)))
	p.zoomLabel.SetText(fmt.Sprintf("Zoom: %.1f", zoom))
}

// compassName names the azimuth relative to the original camera position.
func compassName(az float64) string {
	switch {
	case az < 45 || az >= 315:
		return "Front"
	case az < 135:
		return "Right"
	case az < 225:
		return "Back"
	default:
		return "Left"
	}
}

// elevationName names the camera height band.
func elevationName(el float64) string {
	switch {
	case el >= 80:
		return "Zenith"
	case el >= 45:
		return "High Angle"
	case el >= 15:
		return "Elevated"
	case el >= -15:
		return "Eye Level"
	default:
		return "Low Angle"
	}
}
