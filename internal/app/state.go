// Package app provides the application state machine, role assignments,
// operation dispatch, and events.
package app

import (
	"log"
	"sync"

	"room-studio/internal/asset"
	"room-studio/internal/edit"
	"room-studio/internal/selection"
	"room-studio/internal/storage"
	"room-studio/pkg/geometry"
)

// Role names a slot an asset can occupy. The six primary roles are mutually
// exclusive editing contexts; before and after form the comparison pair and
// may coexist with any primary.
type Role string

const (
	RoleBefore  Role = "before"
	RoleAfter   Role = "after"
	RoleClean   Role = "clean"
	RoleStaging Role = "staging"
	RoleAddItem Role = "addItem"
	RoleView    Role = "view"
	RoleAngles  Role = "differentAngles"
	RoleVideo   Role = "video"
)

// primaryRoles in display order. At most one holds an asset at a time.
var primaryRoles = []Role{RoleClean, RoleStaging, RoleAddItem, RoleView, RoleAngles, RoleVideo}

// IsPrimary reports whether the role is an exclusive editing context.
func (r Role) IsPrimary() bool {
	for _, p := range primaryRoles {
		if r == p {
			return true
		}
	}
	return false
}

// NeedsCapture reports whether the role's operation consumes a drawn polygon.
func (r Role) NeedsCapture() bool {
	return r == RoleClean || r == RoleAddItem
}

// Label returns the badge text for the role.
func (r Role) Label() string {
	switch r {
	case RoleBefore:
		return "Before"
	case RoleAfter:
		return "After"
	case RoleClean:
		return "Clean"
	case RoleStaging:
		return "Staging"
	case RoleAddItem:
		return "Add Item"
	case RoleView:
		return "Viewing"
	case RoleAngles:
		return "Angles"
	case RoleVideo:
		return "Video"
	default:
		return string(r)
	}
}

// EventType identifies application events.
type EventType int

const (
	EventAssetsChanged EventType = iota
	EventRolesChanged
	EventCaptureModeChanged
	EventSelectionChanged
	EventOperationStarted
	EventOperationFinished
	EventErrorRaised
)

// EventListener is called when an event occurs. Listeners run on whatever
// goroutine emitted the event; UI listeners must hop to the UI thread.
type EventListener func(data interface{})

const selectionsKey = "selections"

// selectionsDoc is the persisted role document. All eight fields are always
// written; absent fields on load mean the role is empty.
type selectionsDoc struct {
	BeforeID  string `json:"before"`
	AfterID   string `json:"after"`
	CleanID   string `json:"clean"`
	StagingID string `json:"staging"`
	AddItemID string `json:"addItem"`
	ViewID    string `json:"view"`
	AnglesID  string `json:"differentAngles"`
	VideoID   string `json:"video"`
}

// State holds the whole application: the asset store, the polygon capture
// engine, role assignments, per-operation drafts, and event listeners.
type State struct {
	mu sync.RWMutex

	docs   *storage.Store
	Assets *asset.Store

	// Capture is the polygon engine for the active image. Pointer events
	// reach it through the canvas; role and image changes reset it here.
	Capture *selection.Engine

	roles       map[Role]string
	captureMode bool
	inFlight    int

	// Operation drafts. Never persisted.
	prompts             map[Role]string
	stagingStyle        string
	addItemUseReference bool
	referenceImageURL   string
	azimuth             float64
	elevation           float64
	zoom                float64
	videoDuration       int

	editor    Editor
	buildMask MaskBuilder

	rectFn    selection.RectFunc
	listeners map[EventType][]EventListener
}

// NewState creates the application state, loading previously persisted role
// assignments and validating them against the asset store.
func NewState(docs *storage.Store, assets *asset.Store, editor Editor) *State {
	s := &State{
		docs:          docs,
		Assets:        assets,
		roles:         make(map[Role]string),
		prompts:       make(map[Role]string),
		stagingStyle:  "modern",
		zoom:          5,
		videoDuration: 5,
		editor:        editor,
		listeners:     make(map[EventType][]EventListener),
	}
	s.buildMask = defaultMaskBuilder(editor)
	s.Capture = selection.New(s.captureRect, func(pts []geometry.Point2D) {
		s.Emit(EventSelectionChanged, pts)
	})
	s.restoreSelections()
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetCaptureRect installs the function that reports the displayed image's
// viewport rectangle. The canvas calls this once it is laid out.
func (s *State) SetCaptureRect(fn selection.RectFunc) {
	s.mu.Lock()
	s.rectFn = fn
	s.mu.Unlock()
}

func (s *State) captureRect() (geometry.Rect, bool) {
	s.mu.RLock()
	fn := s.rectFn
	s.mu.RUnlock()
	if fn == nil {
		return geometry.Rect{}, false
	}
	return fn()
}

// RoleID returns the asset ID assigned to the role, or "".
func (s *State) RoleID(role Role) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[role]
}

// RoleAsset returns the asset assigned to the role, or nil.
func (s *State) RoleAsset(role Role) *asset.Asset {
	return s.Assets.Get(s.RoleID(role))
}

// RolesFor returns every role the asset currently occupies, in badge order.
func (s *State) RolesFor(id string) []Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Role
	for _, r := range []Role{RoleBefore, RoleAfter, RoleClean, RoleStaging, RoleAddItem, RoleView, RoleAngles, RoleVideo} {
		if s.roles[r] == id {
			out = append(out, r)
		}
	}
	return out
}

// ActivePrimary returns the populated primary role and its asset ID, or
// ("", "") when no context is active.
func (s *State) ActivePrimary() (Role, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPrimaryLocked()
}

func (s *State) currentPrimaryLocked() (Role, string) {
	for _, r := range primaryRoles {
		if s.roles[r] != "" {
			return r, s.roles[r]
		}
	}
	return "", ""
}

// CaptureMode reports whether clicks on the canvas add polygon vertices.
func (s *State) CaptureMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captureMode
}

// AssignRole points a role at a stored asset. Switching to a different
// primary context clears the previous context, its draft prompt, and any
// in-progress polygon; re-selecting the active context only discards the
// polygon. Assigning after without a before in place is rejected without
// any state change. Pointing either side of the comparison pair at the
// other side's asset releases the other slot.
func (s *State) AssignRole(role Role, id string) error {
	if s.Assets.Get(id) == nil {
		return edit.Validationf("unknown asset %q", id)
	}

	s.mu.Lock()
	if role == RoleAfter && s.roles[RoleBefore] == "" {
		s.mu.Unlock()
		return edit.Validationf("assign a before image first")
	}

	if role.IsPrimary() && s.roles[role] == id {
		s.Capture.Reset()
		s.mu.Unlock()
		s.Emit(EventSelectionChanged, nil)
		return nil
	}

	captureChanged := false
	if role.IsPrimary() {
		if prev, prevID := s.currentPrimaryLocked(); prevID != "" && prev != role {
			s.roles[prev] = ""
			delete(s.prompts, prev)
		}
		s.roles[role] = id
		s.Capture.Reset()
		captureChanged = s.setCaptureModeLocked(role.NeedsCapture())
	} else {
		// The comparison pair never holds the same asset on both sides:
		// whichever assignment happens second releases the other slot.
		if role == RoleBefore && s.roles[RoleAfter] == id {
			s.roles[RoleAfter] = ""
		}
		if role == RoleAfter && s.roles[RoleBefore] == id {
			s.roles[RoleBefore] = ""
		}
		s.roles[role] = id
	}
	err := s.persistSelectionsLocked()
	s.mu.Unlock()

	s.Emit(EventRolesChanged, nil)
	if role.IsPrimary() {
		s.Emit(EventSelectionChanged, nil)
	}
	if captureChanged {
		s.Emit(EventCaptureModeChanged, s.CaptureMode())
	}
	return err
}

// UnassignRole clears a role. Clearing the active primary context also
// leaves capture mode and discards the polygon.
func (s *State) UnassignRole(role Role) error {
	s.mu.Lock()
	if s.roles[role] == "" {
		s.mu.Unlock()
		return nil
	}
	s.roles[role] = ""
	captureChanged := false
	if role.IsPrimary() {
		s.Capture.Reset()
		captureChanged = s.setCaptureModeLocked(false)
	}
	err := s.persistSelectionsLocked()
	s.mu.Unlock()

	s.Emit(EventRolesChanged, nil)
	if role.IsPrimary() {
		s.Emit(EventSelectionChanged, nil)
	}
	if captureChanged {
		s.Emit(EventCaptureModeChanged, false)
	}
	return err
}

// DeleteAsset removes an asset from the store and clears every role that
// pointed at it. A deleted reference image also clears the reference-image
// draft so a dead URL can never be submitted.
func (s *State) DeleteAsset(id string) error {
	removed, err := s.Assets.Remove(id)
	if err != nil {
		return err
	}
	if removed == nil {
		return nil
	}

	s.mu.Lock()
	rolesChanged := false
	captureChanged := false
	for r, rid := range s.roles {
		if rid != id {
			continue
		}
		s.roles[r] = ""
		rolesChanged = true
		if r.IsPrimary() {
			s.Capture.Reset()
			if s.setCaptureModeLocked(false) {
				captureChanged = true
			}
		}
	}
	if removed.Kind == asset.KindReference && s.referenceImageURL == removed.URL {
		s.referenceImageURL = ""
	}
	var perr error
	if rolesChanged {
		perr = s.persistSelectionsLocked()
	}
	s.mu.Unlock()

	s.Emit(EventAssetsChanged, nil)
	if rolesChanged {
		s.Emit(EventRolesChanged, nil)
		s.Emit(EventSelectionChanged, nil)
	}
	if captureChanged {
		s.Emit(EventCaptureModeChanged, false)
	}
	return perr
}

// restoreSelections loads the persisted role document, dropping any IDs the
// asset store no longer knows. When nothing is populated and assets exist,
// the newest asset becomes the viewing context.
func (s *State) restoreSelections() {
	var doc selectionsDoc
	ok, err := s.docs.Get(selectionsKey, &doc)
	if err != nil {
		log.Printf("[state] failed to load selections: %v", err)
	}
	if ok {
		for role, id := range doc.toMap() {
			if id != "" && s.Assets.Has(id) {
				s.roles[role] = id
			}
		}
	}

	populated := false
	for _, id := range s.roles {
		if id != "" {
			populated = true
			break
		}
	}
	if !populated {
		if newest := s.Assets.Newest(); newest != nil {
			s.roles[RoleView] = newest.ID
		}
	}
	s.captureMode = s.roles[RoleClean] != "" || s.roles[RoleAddItem] != ""
}

func (s *State) persistSelectionsLocked() error {
	doc := selectionsDoc{
		BeforeID:  s.roles[RoleBefore],
		AfterID:   s.roles[RoleAfter],
		CleanID:   s.roles[RoleClean],
		StagingID: s.roles[RoleStaging],
		AddItemID: s.roles[RoleAddItem],
		ViewID:    s.roles[RoleView],
		AnglesID:  s.roles[RoleAngles],
		VideoID:   s.roles[RoleVideo],
	}
	return s.docs.Put(selectionsKey, doc)
}

func (d *selectionsDoc) toMap() map[Role]string {
	return map[Role]string{
		RoleBefore:  d.BeforeID,
		RoleAfter:   d.AfterID,
		RoleClean:   d.CleanID,
		RoleStaging: d.StagingID,
		RoleAddItem: d.AddItemID,
		RoleView:    d.ViewID,
		RoleAngles:  d.AnglesID,
		RoleVideo:   d.VideoID,
	}
}

func (s *State) setCaptureModeLocked(v bool) bool {
	if s.captureMode == v {
		return false
	}
	s.captureMode = v
	return true
}

// Busy reports whether any operation is in flight.
func (s *State) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// CanClean reports whether the clean operation can start.
func (s *State) CanClean() bool { return s.RoleID(RoleClean) != "" && !s.Busy() }

// CanStage reports whether the staging operation can start.
func (s *State) CanStage() bool { return s.RoleID(RoleStaging) != "" && !s.Busy() }

// CanAddItem reports whether the add-item operation can start.
func (s *State) CanAddItem() bool { return s.RoleID(RoleAddItem) != "" && !s.Busy() }

// CanChangeAngle reports whether the camera-angle operation can start.
func (s *State) CanChangeAngle() bool { return s.RoleID(RoleAngles) != "" && !s.Busy() }

// CanGenerateVideo reports whether video generation can start.
func (s *State) CanGenerateVideo() bool { return s.RoleID(RoleVideo) != "" && !s.Busy() }

// CanCompare reports whether the before/after comparison has both sides.
func (s *State) CanCompare() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[RoleBefore] != "" && s.roles[RoleAfter] != ""
}

// Prompt returns the draft prompt for the role.
func (s *State) Prompt(role Role) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prompts[role]
}

// SetPrompt stores the draft prompt for the role. A non-empty staging
// prompt clears the style preset; exactly one of the two drives staging.
func (s *State) SetPrompt(role Role, text string) {
	s.mu.Lock()
	s.prompts[role] = text
	if role == RoleStaging && text != "" {
		s.stagingStyle = ""
	}
	s.mu.Unlock()
}

// StagingStyle returns the selected style preset, or "" when a custom
// prompt is in use.
func (s *State) StagingStyle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stagingStyle
}

// SelectStagingStyle picks a style preset and clears the custom prompt.
func (s *State) SelectStagingStyle(style string) {
	s.mu.Lock()
	s.stagingStyle = style
	if style != "" {
		s.prompts[RoleStaging] = ""
	}
	s.mu.Unlock()
}

// AddItemUseReference reports whether add-item runs in reference mode.
func (s *State) AddItemUseReference() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addItemUseReference
}

// SetAddItemUseReference switches add-item between prompt and reference mode.
func (s *State) SetAddItemUseReference(v bool) {
	s.mu.Lock()
	s.addItemUseReference = v
	s.mu.Unlock()
}

// ReferenceImageURL returns the uploaded reference image URL, or "".
func (s *State) ReferenceImageURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.referenceImageURL
}

// SetReferenceImageURL stores the reference image URL draft.
func (s *State) SetReferenceImageURL(url string) {
	s.mu.Lock()
	s.referenceImageURL = url
	s.mu.Unlock()
}

// AngleParams returns the camera parameters: azimuth in degrees (0-360),
// elevation in degrees (-30-90), and zoom (0-10).
func (s *State) AngleParams() (azimuth, elevation, zoom float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.azimuth, s.elevation, s.zoom
}

// SetAngleParams stores camera parameters, clamping each to its range.
func (s *State) SetAngleParams(azimuth, elevation, zoom float64) {
	s.mu.Lock()
	s.azimuth = clamp(azimuth, 0, 360)
	s.elevation = clamp(elevation, -30, 90)
	s.zoom = clamp(zoom, 0, 10)
	s.mu.Unlock()
}

// VideoDuration returns the selected clip length in seconds.
func (s *State) VideoDuration() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.videoDuration
}

// SetVideoDuration stores the clip length. Anything other than 10 becomes 5.
func (s *State) SetVideoDuration(seconds int) {
	if seconds != 10 {
		seconds = 5
	}
	s.mu.Lock()
	s.videoDuration = seconds
	s.mu.Unlock()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
