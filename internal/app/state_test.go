package app

import (
	"context"
	"fmt"
	"testing"

	"room-studio/internal/asset"
	"room-studio/internal/edit"
	"room-studio/internal/storage"
	"room-studio/pkg/geometry"
)

// stubEditor satisfies Editor without a network. Every call records its
// request; err, when set, fails all operations.
type stubEditor struct {
	err error

	imageURL string
	videoURL string

	uploads    int
	cleanCalls int
	addCalls   int
	videoCalls int

	lastClean  edit.CleanRequest
	lastStage  edit.StageRequest
	lastAdd    edit.AddItemRequest
	lastAngles edit.AnglesRequest
	lastVideo  edit.VideoRequest
}

func (e *stubEditor) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.uploads++
	return fmt.Sprintf("https://img.test/upload-%d.png", e.uploads), nil
}

func (e *stubEditor) result() (edit.ImageResult, error) {
	if e.err != nil {
		return edit.ImageResult{}, e.err
	}
	url := e.imageURL
	if url == "" {
		url = "https://img.test/result.png"
	}
	return edit.ImageResult{ImageURL: url}, nil
}

func (e *stubEditor) Clean(ctx context.Context, r edit.CleanRequest) (edit.ImageResult, error) {
	e.cleanCalls++
	e.lastClean = r
	return e.result()
}

func (e *stubEditor) Stage(ctx context.Context, r edit.StageRequest) (edit.ImageResult, error) {
	e.lastStage = r
	return e.result()
}

func (e *stubEditor) AddItem(ctx context.Context, r edit.AddItemRequest) (edit.ImageResult, error) {
	e.addCalls++
	e.lastAdd = r
	return e.result()
}

func (e *stubEditor) DifferentAngles(ctx context.Context, r edit.AnglesRequest) (edit.ImageResult, error) {
	e.lastAngles = r
	return e.result()
}

func (e *stubEditor) GenerateVideo(ctx context.Context, r edit.VideoRequest) (edit.VideoResult, error) {
	e.videoCalls++
	e.lastVideo = r
	if e.err != nil {
		return edit.VideoResult{}, e.err
	}
	return edit.VideoResult{ImageURL: r.ImageURL, VideoURL: e.videoURL}, nil
}

func newTestState(t *testing.T) (*State, *stubEditor) {
	t.Helper()
	docs, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	assets, err := asset.NewStore(docs)
	if err != nil {
		t.Fatalf("open asset store: %v", err)
	}
	stub := &stubEditor{videoURL: "https://img.test/clip.mp4"}
	s := NewState(docs, assets, stub)
	s.SetMaskBuilder(func(ctx context.Context, imageURL string, polygon []geometry.Point2D) (string, error) {
		return "https://img.test/mask.png", nil
	})
	return s, stub
}

func addAsset(t *testing.T, s *State, kind asset.Kind) *asset.Asset {
	t.Helper()
	a, err := s.Assets.Add(asset.Asset{URL: "https://img.test/" + string(kind) + ".png", Kind: kind})
	if err != nil {
		t.Fatalf("add asset: %v", err)
	}
	return a
}

func closeSquare(s *State) {
	s.Capture.AddPoint(geometry.Point2D{X: 0.2, Y: 0.2})
	s.Capture.AddPoint(geometry.Point2D{X: 0.8, Y: 0.2})
	s.Capture.AddPoint(geometry.Point2D{X: 0.8, Y: 0.8})
	s.Capture.AddPoint(geometry.Point2D{X: 0.2, Y: 0.8})
	s.Capture.Close()
}

func TestAssignAfterRequiresBefore(t *testing.T) {
	s, _ := newTestState(t)
	a := addAsset(t, s, asset.KindOriginal)

	err := s.AssignRole(RoleAfter, a.ID)
	if !edit.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if s.RoleID(RoleAfter) != "" {
		t.Error("after was assigned despite the rejection")
	}
}

func TestBeforeAfterNeverSameAsset(t *testing.T) {
	s, _ := newTestState(t)
	a := addAsset(t, s, asset.KindOriginal)
	b := addAsset(t, s, asset.KindCleaned)

	if err := s.AssignRole(RoleBefore, a.ID); err != nil {
		t.Fatalf("assign before: %v", err)
	}

	// Pointing after at the current before releases the before slot.
	if err := s.AssignRole(RoleAfter, a.ID); err != nil {
		t.Fatalf("assign after: %v", err)
	}
	if s.RoleID(RoleBefore) != "" {
		t.Error("before still set after after took its asset")
	}
	if s.RoleID(RoleAfter) != a.ID {
		t.Errorf("after = %q, want %q", s.RoleID(RoleAfter), a.ID)
	}

	// Rebuild the pair, then point before at the current after: the
	// second assignment wins in this direction too.
	if err := s.AssignRole(RoleBefore, b.ID); err != nil {
		t.Fatalf("assign before: %v", err)
	}
	if err := s.AssignRole(RoleBefore, a.ID); err != nil {
		t.Fatalf("reassign before: %v", err)
	}
	if s.RoleID(RoleAfter) != "" {
		t.Error("after still set after before took its asset")
	}
	if s.RoleID(RoleBefore) != a.ID {
		t.Errorf("before = %q, want %q", s.RoleID(RoleBefore), a.ID)
	}
}

func TestPrimaryRolesAreExclusive(t *testing.T) {
	s, _ := newTestState(t)
	a := addAsset(t, s, asset.KindOriginal)

	if err := s.AssignRole(RoleClean, a.ID); err != nil {
		t.Fatalf("assign clean: %v", err)
	}
	if !s.CaptureMode() {
		t.Error("clean context did not enter capture mode")
	}

	if err := s.AssignRole(RoleStaging, a.ID); err != nil {
		t.Fatalf("assign staging: %v", err)
	}
	if s.RoleID(RoleClean) != "" {
		t.Error("clean survived a switch to staging")
	}
	if s.CaptureMode() {
		t.Error("staging context left capture mode on")
	}

	if err := s.AssignRole(RoleAddItem, a.ID); err != nil {
		t.Fatalf("assign addItem: %v", err)
	}
	if s.RoleID(RoleStaging) != "" {
		t.Error("staging survived a switch to addItem")
	}
	if !s.CaptureMode() {
		t.Error("addItem context did not enter capture mode")
	}
}

func TestSwitchingPrimaryClearsPolygonAndPrompt(t *testing.T) {
	s, _ := newTestState(t)
	a := addAsset(t, s, asset.KindOriginal)

	if err := s.AssignRole(RoleClean, a.ID); err != nil {
		t.Fatalf("assign clean: %v", err)
	}
	s.SetPrompt(RoleClean, "the sofa")
	closeSquare(s)

	if err := s.AssignRole(RoleStaging, a.ID); err != nil {
		t.Fatalf("assign staging: %v", err)
	}
	if s.Capture.Selection() != nil {
		t.Error("polygon survived the context switch")
	}
	if s.Prompt(RoleClean) != "" {
		t.Error("outgoing draft prompt survived the context switch")
	}
}

func TestReassigningSameContextClearsPolygonOnly(t *testing.T) {
	s, _ := newTestState(t)
	a := addAsset(t, s, asset.KindOriginal)

	if err := s.AssignRole(RoleClean, a.ID); err != nil {
		t.Fatalf("assign clean: %v", err)
	}
	s.SetPrompt(RoleClean, "the sofa")
	closeSquare(s)

	if err := s.AssignRole(RoleClean, a.ID); err != nil {
		t.Fatalf("reassign clean: %v", err)
	}
	if s.Capture.Selection() != nil {
		t.Error("polygon survived re-selecting the context")
	}
	if s.Prompt(RoleClean) != "the sofa" {
		t.Error("prompt was cleared on re-selecting the same context")
	}
	if s.RoleID(RoleClean) != a.ID {
		t.Error("clean role lost its asset")
	}
	if !s.CaptureMode() {
		t.Error("capture mode dropped")
	}
}

func TestDeleteAssetClearsItsRoles(t *testing.T) {
	s, _ := newTestState(t)
	a := addAsset(t, s, asset.KindOriginal)
	b := addAsset(t, s, asset.KindCleaned)

	if err := s.AssignRole(RoleBefore, a.ID); err != nil {
		t.Fatalf("assign before: %v", err)
	}
	if err := s.AssignRole(RoleClean, b.ID); err != nil {
		t.Fatalf("assign clean: %v", err)
	}

	if err := s.DeleteAsset(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.RoleID(RoleClean) != "" {
		t.Error("clean still points at the deleted asset")
	}
	if s.RoleID(RoleBefore) != a.ID {
		t.Error("unrelated role was cleared")
	}
	if s.CaptureMode() {
		t.Error("capture mode survived losing its context")
	}
	if s.Assets.Has(b.ID) {
		t.Error("asset still in the store")
	}
}

func TestDeleteReferenceClearsDraftURL(t *testing.T) {
	s, _ := newTestState(t)
	ref := addAsset(t, s, asset.KindReference)
	s.SetReferenceImageURL(ref.URL)

	if err := s.DeleteAsset(ref.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.ReferenceImageURL() != "" {
		t.Error("reference draft still points at the deleted upload")
	}
}

func TestSelectionsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	docs, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	assets, err := asset.NewStore(docs)
	if err != nil {
		t.Fatalf("open asset store: %v", err)
	}
	s := NewState(docs, assets, &stubEditor{})

	a, _ := s.Assets.Add(asset.Asset{URL: "https://img.test/a.png", Kind: asset.KindOriginal})
	b, _ := s.Assets.Add(asset.Asset{URL: "https://img.test/b.png", Kind: asset.KindCleaned})
	if err := s.AssignRole(RoleBefore, a.ID); err != nil {
		t.Fatalf("assign before: %v", err)
	}
	if err := s.AssignRole(RoleAfter, b.ID); err != nil {
		t.Fatalf("assign after: %v", err)
	}
	if err := s.AssignRole(RoleClean, a.ID); err != nil {
		t.Fatalf("assign clean: %v", err)
	}

	// A fresh process over the same directory.
	docs2, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("reopen storage: %v", err)
	}
	assets2, err := asset.NewStore(docs2)
	if err != nil {
		t.Fatalf("reopen asset store: %v", err)
	}
	s2 := NewState(docs2, assets2, &stubEditor{})

	if s2.RoleID(RoleBefore) != a.ID || s2.RoleID(RoleAfter) != b.ID || s2.RoleID(RoleClean) != a.ID {
		t.Errorf("restored roles = %q/%q/%q", s2.RoleID(RoleBefore), s2.RoleID(RoleAfter), s2.RoleID(RoleClean))
	}
	if !s2.CaptureMode() {
		t.Error("capture mode not restored for the clean context")
	}
}

func TestRestoreDropsDanglingAndAutoSelectsNewest(t *testing.T) {
	dir := t.TempDir()
	docs, err := storage.Open(dir)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	assets, err := asset.NewStore(docs)
	if err != nil {
		t.Fatalf("open asset store: %v", err)
	}
	newest, _ := assets.Add(asset.Asset{URL: "https://img.test/n.png", Kind: asset.KindOriginal})

	// A selections document pointing only at an asset that no longer exists.
	if err := docs.Put(selectionsKey, selectionsDoc{CleanID: "1-gone"}); err != nil {
		t.Fatalf("seed selections: %v", err)
	}

	s := NewState(docs, assets, &stubEditor{})
	if s.RoleID(RoleClean) != "" {
		t.Error("dangling clean assignment survived restore")
	}
	if s.RoleID(RoleView) != newest.ID {
		t.Errorf("view = %q, want newest asset %q", s.RoleID(RoleView), newest.ID)
	}
	if s.CaptureMode() {
		t.Error("capture mode on without a capture context")
	}
}

func TestStagingStyleAndPromptAreMutuallyExclusive(t *testing.T) {
	s, _ := newTestState(t)

	if s.StagingStyle() != "modern" {
		t.Errorf("default style = %q, want modern", s.StagingStyle())
	}
	s.SetPrompt(RoleStaging, "mid-century office")
	if s.StagingStyle() != "" {
		t.Error("style preset survived a custom prompt")
	}
	s.SelectStagingStyle("scandinavian")
	if s.Prompt(RoleStaging) != "" {
		t.Error("custom prompt survived picking a preset")
	}
}

func TestAngleParamsClamp(t *testing.T) {
	s, _ := newTestState(t)

	az, el, zoom := s.AngleParams()
	if az != 0 || el != 0 || zoom != 5 {
		t.Errorf("defaults = %v/%v/%v, want 0/0/5", az, el, zoom)
	}

	s.SetAngleParams(400, -90, 42)
	az, el, zoom = s.AngleParams()
	if az != 360 || el != -30 || zoom != 10 {
		t.Errorf("clamped = %v/%v/%v, want 360/-30/10", az, el, zoom)
	}
}

func TestVideoDurationCoercion(t *testing.T) {
	s, _ := newTestState(t)

	if s.VideoDuration() != 5 {
		t.Errorf("default duration = %d, want 5", s.VideoDuration())
	}
	s.SetVideoDuration(7)
	if s.VideoDuration() != 5 {
		t.Errorf("duration 7 coerced to %d, want 5", s.VideoDuration())
	}
	s.SetVideoDuration(10)
	if s.VideoDuration() != 10 {
		t.Errorf("duration = %d, want 10", s.VideoDuration())
	}
}
