// Package mainwindow assembles the studio's main window and wires it to
// the application state.
package mainwindow

import (
	"context"
	"io"
	"log"
	"net/url"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fynestorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"room-studio/internal/app"
	"room-studio/internal/asset"
	"room-studio/internal/edit"
	"room-studio/internal/version"
	uicanvas "room-studio/ui/canvas"
	"room-studio/ui/panels"
	"room-studio/ui/prefs"
)

var imageFilter = fynestorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".webp", ".tif", ".tiff"})

// Window is the main application window.
type Window struct {
	state *app.State
	prefs *prefs.Prefs
	win   fyne.Window

	canvas  *uicanvas.CaptureCanvas
	toolbar *panels.Toolbar
	strip   *panels.VersionsStrip

	cleanPanel   *panels.CleanPanel
	stagingPanel *panels.StagingPanel
	addItemPanel *panels.AddItemPanel
	anglePanel   *panels.AnglePanel
	videoPanel   *panels.VideoPanel
	viewLabel    *widget.Label
	openVideoBtn *widget.Button
	side         *fyne.Container

	banner      *widget.Label
	bannerTimer *time.Timer
}

// New builds the window and subscribes to state events.
func New(a fyne.App, state *app.State, p *prefs.Prefs, client *edit.Client) *Window {
	w := &Window{
		state: state,
		prefs: p,
		win:   a.NewWindow(version.AppName),
	}

	w.canvas = uicanvas.New(state, client.HTTPClient())
	w.toolbar = panels.NewToolbar(state, w.uploadPhoto, w.showCompare)
	w.strip = panels.NewVersionsStrip(state, client.HTTPClient(), w.win)

	w.cleanPanel = panels.NewCleanPanel(state, w.run)
	w.stagingPanel = panels.NewStagingPanel(state, w.run)
	w.addItemPanel = panels.NewAddItemPanel(state, w.run, w.uploadReference)
	w.anglePanel = panels.NewAnglePanel(state, w.run)
	w.videoPanel = panels.NewVideoPanel(state, w.run)
	w.viewLabel = widget.NewLabel("Viewing. Pick an edit from a version's menu.")
	w.viewLabel.Wrapping = fyne.TextWrapWord
	w.openVideoBtn = widget.NewButton("Open Video", w.openViewedVideo)
	w.openVideoBtn.Hide()

	w.side = container.NewVBox(
		w.cleanPanel.Object(),
		w.stagingPanel.Object(),
		w.addItemPanel.Object(),
		w.anglePanel.Object(),
		w.videoPanel.Object(),
		w.viewLabel,
		w.openVideoBtn,
	)

	w.banner = widget.NewLabel("")
	w.banner.Wrapping = fyne.TextWrapWord
	w.banner.Importance = widget.DangerImportance
	w.banner.Hide()

	top := container.NewVBox(w.toolbar.Object(), w.banner)
	right := container.NewVScroll(w.side)
	right.SetMinSize(fyne.NewSize(280, 0))
	content := container.NewBorder(top, w.strip.Object(), nil, right, w.canvas)
	w.win.SetContent(content)

	w.win.Resize(fyne.NewSize(
		float32(p.Float("window_width", 1280)),
		float32(p.Float("window_height", 860)),
	))
	w.win.SetOnClosed(func() {
		w.SavePreferences()
	})
	w.win.Canvas().SetOnTypedKey(w.typedKey)

	w.subscribe()
	w.syncAll()
	return w
}

// Window returns the underlying Fyne window.
func (w *Window) Window() fyne.Window {
	return w.win
}

// Show shows the window.
func (w *Window) Show() {
	w.win.Show()
}

// SavePreferences persists window geometry.
func (w *Window) SavePreferences() {
	size := w.win.Canvas().Size()
	w.prefs.SetFloat("window_width", float64(size.Width))
	w.prefs.SetFloat("window_height", float64(size.Height))
	if err := w.prefs.Save(); err != nil {
		log.Printf("[window] failed to save preferences: %v", err)
	}
}

// subscribe routes state events onto the UI thread. Events can fire from
// operation goroutines, so every handler hops through fyne.Do.
func (w *Window) subscribe() {
	w.state.On(app.EventAssetsChanged, func(interface{}) {
		fyne.Do(w.strip.Reload)
	})
	w.state.On(app.EventRolesChanged, func(interface{}) {
		fyne.Do(w.syncAll)
	})
	w.state.On(app.EventSelectionChanged, func(interface{}) {
		fyne.Do(func() {
			w.canvas.Refresh()
			w.cleanPanel.Refresh()
			w.addItemPanel.Refresh()
		})
	})
	w.state.On(app.EventCaptureModeChanged, func(interface{}) {
		fyne.Do(w.canvas.Refresh)
	})
	w.state.On(app.EventOperationStarted, func(interface{}) {
		fyne.Do(w.refreshPanels)
	})
	w.state.On(app.EventOperationFinished, func(interface{}) {
		fyne.Do(w.refreshPanels)
	})
	w.state.On(app.EventErrorRaised, func(data interface{}) {
		msg, _ := data.(string)
		fyne.Do(func() { w.showBanner(msg) })
	})
}

// syncAll brings the canvas, side panel, strip, and toolbar in line with
// the current role assignments.
func (w *Window) syncAll() {
	role, id := w.state.ActivePrimary()
	shown := w.state.Assets.Get(id)
	if shown == nil {
		if a := w.state.RoleAsset(app.RoleAfter); a != nil {
			shown = a
		} else if a := w.state.RoleAsset(app.RoleBefore); a != nil {
			shown = a
		}
	}
	w.canvas.ShowAsset(shown)

	w.cleanPanel.Object().Hide()
	w.stagingPanel.Object().Hide()
	w.addItemPanel.Object().Hide()
	w.anglePanel.Object().Hide()
	w.videoPanel.Object().Hide()
	w.viewLabel.Hide()
	w.openVideoBtn.Hide()

	switch role {
	case app.RoleClean:
		w.cleanPanel.Object().Show()
	case app.RoleStaging:
		w.stagingPanel.Object().Show()
	case app.RoleAddItem:
		w.addItemPanel.Object().Show()
	case app.RoleAngles:
		w.anglePanel.Object().Show()
	case app.RoleVideo:
		w.videoPanel.Object().Show()
	case app.RoleView:
		w.viewLabel.Show()
		if shown != nil && shown.IsVideo() {
			w.openVideoBtn.Show()
		}
	}

	w.refreshPanels()
	w.strip.Reload()
}

func (w *Window) refreshPanels() {
	w.toolbar.Refresh()
	w.cleanPanel.Refresh()
	w.stagingPanel.Refresh()
	w.addItemPanel.Refresh()
	w.anglePanel.Refresh()
	w.videoPanel.Refresh()
}

func (w *Window) typedKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyReturn, fyne.KeyEnter:
		w.state.Capture.Close()
		w.canvas.Refresh()
	case fyne.KeyEscape:
		w.state.Capture.Clear()
		w.canvas.Refresh()
	}
}

// showBanner displays a transient error message above the canvas.
func (w *Window) showBanner(msg string) {
	if msg == "" {
		return
	}
	w.banner.SetText(msg)
	w.banner.Show()
	if w.bannerTimer != nil {
		w.bannerTimer.Stop()
	}
	w.bannerTimer = time.AfterFunc(6*time.Second, func() {
		fyne.Do(w.banner.Hide)
	})
}

// run executes an operation in the background. Completion, promotion, and
// errors all come back through state events.
func (w *Window) run(op func(ctx context.Context) (*asset.Asset, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := op(ctx); err != nil {
			log.Printf("[window] operation failed: %v", err)
		}
	}()
}

func (w *Window) uploadPhoto() {
	w.pickImage(func(name string, data []byte) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := w.state.UploadImage(ctx, name, data); err != nil {
				log.Printf("[window] upload failed: %v", err)
			}
		}()
	})
}

func (w *Window) uploadReference() {
	w.pickImage(func(name string, data []byte) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if _, err := w.state.UploadReference(ctx, name, data); err != nil {
				log.Printf("[window] reference upload failed: %v", err)
			}
		}()
	})
}

func (w *Window) pickImage(use func(name string, data []byte)) {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, w.win)
			return
		}
		use(rc.URI().Name(), data)
	}, w.win)
	fd.SetFilter(imageFilter)
	fd.Show()
}

func (w *Window) showCompare() {
	before := w.state.RoleAsset(app.RoleBefore)
	after := w.state.RoleAsset(app.RoleAfter)
	if before == nil || after == nil {
		return
	}

	left := container.NewBorder(widget.NewLabelWithStyle("Before", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}), nil, nil, nil,
		panels.RemoteImage(nil, before.URL, 1600, fyne.NewSize(480, 360)))
	right := container.NewBorder(widget.NewLabelWithStyle("After", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}), nil, nil, nil,
		panels.RemoteImage(nil, after.URL, 1600, fyne.NewSize(480, 360)))

	split := container.NewHSplit(left, right)
	split.Offset = 0.5
	dialog.ShowCustom("Before / After", "Close", split, w.win)
}

func (w *Window) openViewedVideo() {
	a := w.state.RoleAsset(app.RoleView)
	if a == nil || !a.IsVideo() {
		return
	}
	if u, err := url.Parse(a.VideoURL); err == nil {
		_ = fyne.CurrentApp().OpenURL(u)
	}
}
