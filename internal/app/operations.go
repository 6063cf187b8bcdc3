package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"room-studio/internal/asset"
	"room-studio/internal/edit"
	"room-studio/internal/mask"
	"room-studio/internal/selection"
	"room-studio/pkg/geometry"
)

// Editor is the hosted model API as the dispatcher sees it. *edit.Client
// implements it; tests substitute a stub.
type Editor interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
	Clean(ctx context.Context, r edit.CleanRequest) (edit.ImageResult, error)
	Stage(ctx context.Context, r edit.StageRequest) (edit.ImageResult, error)
	AddItem(ctx context.Context, r edit.AddItemRequest) (edit.ImageResult, error)
	DifferentAngles(ctx context.Context, r edit.AnglesRequest) (edit.ImageResult, error)
	GenerateVideo(ctx context.Context, r edit.VideoRequest) (edit.VideoResult, error)
}

// MaskBuilder rasterizes a closed polygon against the image at imageURL and
// returns the URL of the uploaded mask PNG.
type MaskBuilder func(ctx context.Context, imageURL string, polygon []geometry.Point2D) (string, error)

func defaultMaskBuilder(editor Editor) MaskBuilder {
	return func(ctx context.Context, imageURL string, polygon []geometry.Point2D) (string, error) {
		httpc := http.DefaultClient
		if hc, ok := editor.(interface{ HTTPClient() *http.Client }); ok {
			httpc = hc.HTTPClient()
		}
		m, err := mask.FromImageURL(ctx, httpc, imageURL, polygon, mask.DefaultExpansion)
		if err != nil {
			return "", err
		}
		png, err := mask.EncodePNG(m)
		if err != nil {
			return "", err
		}
		log.Printf("[edit] mask coverage %.1f%%", 100*mask.Coverage(m))
		return editor.Upload(ctx, "mask.png", png)
	}
}

// SetMaskBuilder replaces the mask pipeline. Used by tests.
func (s *State) SetMaskBuilder(fn MaskBuilder) {
	s.mu.Lock()
	s.buildMask = fn
	s.mu.Unlock()
}

// UploadImage stores raw image bytes remotely, records the asset, and makes
// it the viewing context.
func (s *State) UploadImage(ctx context.Context, filename string, data []byte) (*asset.Asset, error) {
	url, err := s.editor.Upload(ctx, filename, data)
	if err != nil {
		return nil, s.raise(err)
	}
	a, err := s.Assets.Add(asset.Asset{URL: url, Kind: asset.KindOriginal})
	if err != nil {
		return nil, s.raise(err)
	}
	s.Emit(EventAssetsChanged, nil)
	if err := s.AssignRole(RoleView, a.ID); err != nil {
		return a, err
	}
	return a, nil
}

// UploadReference stores a reference image for add-item and switches the
// add-item draft into reference mode.
func (s *State) UploadReference(ctx context.Context, filename string, data []byte) (*asset.Asset, error) {
	url, err := s.editor.Upload(ctx, filename, data)
	if err != nil {
		return nil, s.raise(err)
	}
	a, err := s.Assets.Add(asset.Asset{URL: url, Kind: asset.KindReference})
	if err != nil {
		return nil, s.raise(err)
	}

	s.mu.Lock()
	s.referenceImageURL = url
	s.addItemUseReference = true
	s.mu.Unlock()

	s.Emit(EventAssetsChanged, nil)
	return a, nil
}

// RunClean removes objects from the clean-context image. A closed polygon
// is rasterized into a mask and takes precedence over the prompt; without
// one the prompt names what to remove.
func (s *State) RunClean(ctx context.Context) (*asset.Asset, error) {
	src := s.RoleAsset(RoleClean)
	if src == nil {
		return nil, s.raise(edit.Validationf("assign an image to clean first"))
	}
	polygon := s.Capture.Selection()
	prompt := s.Prompt(RoleClean)
	if polygon == nil && prompt == "" {
		return nil, s.raise(edit.Validationf("describe what to remove or outline it on the image"))
	}

	s.begin("clean")
	maskURL := ""
	if len(polygon) >= selection.MinPoints {
		var err error
		maskURL, err = s.maskBuilder()(ctx, src.URL, polygon)
		if err != nil {
			return nil, s.fail("clean", err)
		}
	}

	res, err := s.editor.Clean(ctx, edit.CleanRequest{ImageURL: src.URL, MaskURL: maskURL, Prompt: prompt})
	if err != nil {
		return nil, s.fail("clean", err)
	}
	return s.commit("clean", RoleClean, src.ID, asset.Asset{
		URL:      res.ImageURL,
		Kind:     asset.KindCleaned,
		Metadata: metadataFor(prompt, polygon),
	})
}

// RunStage furnishes the staging-context image using either the custom
// prompt or the selected style preset.
func (s *State) RunStage(ctx context.Context) (*asset.Asset, error) {
	src := s.RoleAsset(RoleStaging)
	if src == nil {
		return nil, s.raise(edit.Validationf("assign an image to stage first"))
	}
	prompt := s.Prompt(RoleStaging)
	style := s.StagingStyle()
	if prompt == "" && style == "" {
		return nil, s.raise(edit.Validationf("pick a furnishing style or describe the staging"))
	}

	s.begin("stage")
	res, err := s.editor.Stage(ctx, edit.StageRequest{ImageURL: src.URL, Style: style, Prompt: prompt})
	if err != nil {
		return nil, s.fail("stage", err)
	}
	recorded := prompt
	if recorded == "" {
		recorded = style
	}
	return s.commit("stage", RoleStaging, src.ID, asset.Asset{
		URL:      res.ImageURL,
		Kind:     asset.KindStaged,
		Metadata: metadataFor(recorded, nil),
	})
}

// RunAddItem inserts an item into the masked region of the add-item image.
// Reference mode requires an uploaded reference image; prompt mode requires
// a description. Both require a closed polygon.
func (s *State) RunAddItem(ctx context.Context) (*asset.Asset, error) {
	src := s.RoleAsset(RoleAddItem)
	if src == nil {
		return nil, s.raise(edit.Validationf("assign an image to add an item to first"))
	}
	polygon := s.Capture.Selection()
	if polygon == nil {
		return nil, s.raise(edit.Validationf("outline where the item should go"))
	}
	prompt := s.Prompt(RoleAddItem)
	useRef := s.AddItemUseReference()
	ref := s.ReferenceImageURL()
	if useRef && ref == "" {
		return nil, s.raise(edit.Validationf("upload a reference image first"))
	}
	if !useRef && prompt == "" {
		return nil, s.raise(edit.Validationf("describe the item to add"))
	}

	s.begin("add item")
	maskURL, err := s.maskBuilder()(ctx, src.URL, polygon)
	if err != nil {
		return nil, s.fail("add item", err)
	}

	req := edit.AddItemRequest{ImageURL: src.URL, MaskURL: maskURL, Prompt: prompt}
	if useRef {
		req.ReferenceImageURL = ref
	}
	res, err := s.editor.AddItem(ctx, req)
	if err != nil {
		return nil, s.fail("add item", err)
	}
	return s.commit("add item", RoleAddItem, src.ID, asset.Asset{
		URL:      res.ImageURL,
		Kind:     asset.KindItemAdded,
		Metadata: metadataFor(prompt, polygon),
	})
}

// RunDifferentAngles re-renders the angle-context image from the drafted
// camera position.
func (s *State) RunDifferentAngles(ctx context.Context) (*asset.Asset, error) {
	src := s.RoleAsset(RoleAngles)
	if src == nil {
		return nil, s.raise(edit.Validationf("assign an image to re-angle first"))
	}
	azimuth, elevation, zoom := s.AngleParams()

	s.begin("different angles")
	res, err := s.editor.DifferentAngles(ctx, edit.AnglesRequest{
		ImageURL:  src.URL,
		Azimuth:   azimuth,
		Elevation: elevation,
		Zoom:      zoom,
	})
	if err != nil {
		return nil, s.fail("different angles", err)
	}
	return s.commit("different angles", RoleAngles, src.ID, asset.Asset{
		URL:      res.ImageURL,
		Kind:     asset.KindAngle,
		Metadata: metadataFor(fmt.Sprintf("azimuth %.0f, elevation %.0f, zoom %.1f", azimuth, elevation, zoom), nil),
	})
}

// RunGenerateVideo animates the video-context image into a clip. The new
// asset keeps the source image URL for its thumbnail and becomes the
// viewing context rather than the after image.
func (s *State) RunGenerateVideo(ctx context.Context) (*asset.Asset, error) {
	src := s.RoleAsset(RoleVideo)
	if src == nil {
		return nil, s.raise(edit.Validationf("assign an image to animate first"))
	}
	prompt := s.Prompt(RoleVideo)
	if prompt == "" {
		return nil, s.raise(edit.Validationf("describe the camera motion for the video"))
	}
	duration := s.VideoDuration()
	if duration != 5 && duration != 10 {
		duration = 5
	}

	s.begin("generate video")
	res, err := s.editor.GenerateVideo(ctx, edit.VideoRequest{ImageURL: src.URL, Prompt: prompt, Duration: duration})
	if err != nil {
		return nil, s.fail("generate video", err)
	}
	return s.commit("generate video", RoleVideo, src.ID, asset.Asset{
		URL:           res.ImageURL,
		VideoURL:      res.VideoURL,
		Kind:          asset.KindVideo,
		SourceAssetID: src.ID,
		Metadata:      metadataFor(prompt, nil),
	})
}

func (s *State) maskBuilder() MaskBuilder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buildMask
}

// raise surfaces a pre-flight error without touching operation state.
func (s *State) raise(err error) error {
	s.Emit(EventErrorRaised, edit.UserMessage(err))
	return err
}

func (s *State) begin(name string) {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	log.Printf("[edit] %s started", name)
	s.Emit(EventOperationStarted, name)
}

// fail ends a running operation, leaving every role, draft, and the polygon
// exactly as they were.
func (s *State) fail(name string, err error) error {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	log.Printf("[edit] %s failed: %v", name, err)
	s.Emit(EventOperationFinished, name)
	s.Emit(EventErrorRaised, edit.UserMessage(err))
	return err
}

// commit stores the operation's output and applies its promotion rule:
// the source becomes before, the new asset becomes after, and the
// operation's context is released, so a context the user switched to
// mid-flight survives. Video output instead becomes the viewing context,
// leaving the comparison pair alone; view is a primary role, so any other
// active context yields to it. Only video assets record their source id.
func (s *State) commit(name string, opRole Role, sourceID string, template asset.Asset) (*asset.Asset, error) {
	created, err := s.Assets.Add(template)
	if err != nil {
		return nil, s.fail(name, err)
	}

	s.mu.Lock()
	if opRole == RoleVideo {
		for _, r := range primaryRoles {
			s.roles[r] = ""
		}
		s.roles[RoleView] = created.ID
	} else {
		s.roles[RoleBefore] = sourceID
		s.roles[RoleAfter] = created.ID
		s.roles[opRole] = ""
	}
	delete(s.prompts, opRole)
	s.Capture.Reset()
	active, _ := s.currentPrimaryLocked()
	captureChanged := s.setCaptureModeLocked(active.NeedsCapture())
	perr := s.persistSelectionsLocked()
	s.inFlight--
	s.mu.Unlock()

	log.Printf("[edit] %s finished: %s", name, created.URL)
	s.Emit(EventAssetsChanged, nil)
	s.Emit(EventRolesChanged, nil)
	s.Emit(EventSelectionChanged, nil)
	if captureChanged {
		s.Emit(EventCaptureModeChanged, s.CaptureMode())
	}
	s.Emit(EventOperationFinished, name)
	if perr != nil {
		return created, perr
	}
	return created, nil
}

func metadataFor(prompt string, polygon []geometry.Point2D) *asset.Metadata {
	if prompt == "" && polygon == nil {
		return nil
	}
	return &asset.Metadata{Prompt: prompt, Selection: polygon}
}
