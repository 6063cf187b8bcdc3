package panels

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"room-studio/internal/app"
	"room-studio/internal/asset"
)

const thumbDim = 160

// VersionsStrip shows every stored asset newest-first with its role badges.
// Tapping a thumbnail opens the role-assignment menu.
type VersionsStrip struct {
	state *app.State
	httpc *http.Client
	win   fyne.Window

	row    *fyne.Container
	scroll *container.Scroll
}

// NewVersionsStrip builds the strip. Call Reload after the asset list or
// role assignments change.
func NewVersionsStrip(state *app.State, httpc *http.Client, win fyne.Window) *VersionsStrip {
	v := &VersionsStrip{
		state: state,
		httpc: httpc,
		win:   win,
		row:   container.NewHBox(),
	}
	v.scroll = container.NewHScroll(v.row)
	v.scroll.SetMinSize(fyne.NewSize(0, 150))
	v.Reload()
	return v
}

// Object returns the strip's canvas object.
func (v *VersionsStrip) Object() fyne.CanvasObject {
	return v.scroll
}

// Reload rebuilds the strip from the asset store.
func (v *VersionsStrip) Reload() {
	v.row.RemoveAll()
	for _, a := range v.state.Assets.All() {
		v.row.Add(v.makeItem(a))
	}
	v.row.Refresh()
}

func (v *VersionsStrip) makeItem(a *asset.Asset) fyne.CanvasObject {
	thumb := RemoteImage(v.httpc, a.URL, thumbDim, fyne.NewSize(120, 90))

	caption := a.Kind.Label()
	if badges := v.badges(a.ID); badges != "" {
		caption += "  " + badges
	}
	label := widget.NewLabel(caption)
	label.Truncation = fyne.TextTruncateEllipsis

	item := newTappableItem(container.NewVBox(thumb, label), func(ev *fyne.PointEvent) {
		v.showMenu(a, ev.AbsolutePosition)
	})
	return item
}

func (v *VersionsStrip) badges(id string) string {
	roles := v.state.RolesFor(id)
	if len(roles) == 0 {
		return ""
	}
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = "[" + r.Label() + "]"
	}
	return strings.Join(parts, " ")
}

func (v *VersionsStrip) showMenu(a *asset.Asset, pos fyne.Position) {
	assign := func(role app.Role) func() {
		return func() {
			if err := v.state.AssignRole(role, a.ID); err != nil {
				dialog.ShowError(err, v.win)
			}
			v.Reload()
		}
	}

	items := []*fyne.MenuItem{
		fyne.NewMenuItem("Set as Before", assign(app.RoleBefore)),
		fyne.NewMenuItem("Set as After", assign(app.RoleAfter)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("View", assign(app.RoleView)),
		fyne.NewMenuItem("Clean Up", assign(app.RoleClean)),
		fyne.NewMenuItem("Virtual Staging", assign(app.RoleStaging)),
		fyne.NewMenuItem("Add Item", assign(app.RoleAddItem)),
		fyne.NewMenuItem("Different Angles", assign(app.RoleAngles)),
		fyne.NewMenuItem("Generate Video", assign(app.RoleVideo)),
	}

	if a.IsVideo() {
		videoURL := a.VideoURL
		items = append(items, fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Open Video", func() {
				if u, err := url.Parse(videoURL); err == nil {
					_ = fyne.CurrentApp().OpenURL(u)
				}
			}))
	}

	items = append(items, fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete…", func() {
			msg := fmt.Sprintf("Delete this %s version? Any roles it holds will be cleared.", a.Kind.Label())
			dialog.ShowConfirm("Delete Version", msg, func(ok bool) {
				if !ok {
					return
				}
				if err := v.state.DeleteAsset(a.ID); err != nil {
					dialog.ShowError(err, v.win)
				}
			}, v.win)
		}))

	menu := fyne.NewMenu("", items...)
	widget.ShowPopUpMenuAtPosition(menu, v.win.Canvas(), pos)
}

// tappableItem wraps content and reports taps with their screen position,
// which the popup menu needs.
type tappableItem struct {
	widget.BaseWidget
	content  fyne.CanvasObject
	onTapped func(*fyne.PointEvent)
}

func newTappableItem(content fyne.CanvasObject, onTapped func(*fyne.PointEvent)) *tappableItem {
	t := &tappableItem{content: content, onTapped: onTapped}
	t.ExtendBaseWidget(t)
	return t
}

func (t *tappableItem) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(t.content)
}

func (t *tappableItem) Tapped(ev *fyne.PointEvent) {
	if t.onTapped != nil {
		t.onTapped(ev)
	}
}
