package edit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL   = "https://fal.run"
	defaultUploadURL = "https://fal.run/storage/upload"

	modelRemoveMasked  = "fal-ai/object-removal/mask"
	modelRemovePrompt  = "fal-ai/object-removal"
	modelStaging       = "fal-ai/flux-2-lora-gallery/apartment-staging"
	modelFill          = "fal-ai/flux-pro/v1/fill"
	modelInpaintRef    = "fal-ai/flux-kontext-lora/inpaint"
	modelCameraAngle   = "fal-ai/image-editing/reangle"
	modelImageToVideo  = "fal-ai/kling-video/v1.6/standard/image-to-video"
	stagingPromptShape = "A high-end %s style room with modern furniture, realistic lighting, and professional decor."
)

// Config carries the client settings. Zero values fall back to the hosted
// API defaults and a 5-minute HTTP client (model invocations are slow).
type Config struct {
	APIKey     string
	BaseURL    string
	UploadURL  string
	HTTPClient *http.Client
}

// Client invokes the hosted editing models. All methods are safe for
// concurrent use; the client holds no per-request state.
type Client struct {
	key       string
	baseURL   string
	uploadURL string
	http      *http.Client
}

// NewClient builds a client from cfg.
func NewClient(cfg Config) *Client {
	c := &Client{
		key:       cfg.APIKey,
		baseURL:   cfg.BaseURL,
		uploadURL: cfg.UploadURL,
		http:      cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.uploadURL == "" {
		c.uploadURL = defaultUploadURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 5 * time.Minute}
	}
	return c
}

// NewClientFromEnv reads the API key from FAL_KEY. A missing key is not an
// error here; every operation reports ErrNotConfigured instead.
func NewClientFromEnv() *Client {
	return NewClient(Config{APIKey: os.Getenv("FAL_KEY")})
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.key != ""
}

// HTTPClient exposes the underlying client so mask building can fetch
// source images through the same transport.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// CleanRequest removes objects from ImageURL. MaskURL takes precedence:
// when present the prompt is ignored and the masked region is removed.
type CleanRequest struct {
	ImageURL string
	MaskURL  string
	Prompt   string
}

// StageRequest furnishes an empty room. A non-empty Prompt is sent verbatim;
// otherwise the prompt is built from the Style preset.
type StageRequest struct {
	ImageURL string
	Style    string
	Prompt   string
}

// AddItemRequest inserts an item into the masked region, described either
// by Prompt or by a ReferenceImageURL (reference takes precedence).
type AddItemRequest struct {
	ImageURL          string
	MaskURL           string
	Prompt            string
	ReferenceImageURL string
}

// AnglesRequest re-renders the room from a different camera position.
type AnglesRequest struct {
	ImageURL  string
	Azimuth   float64
	Elevation float64
	Zoom      float64
}

// VideoRequest animates a still image. Duration is in seconds and must be
// 5 or 10.
type VideoRequest struct {
	ImageURL string
	Prompt   string
	Duration int
}

// ImageResult is the outcome of every still-image operation.
type ImageResult struct {
	ImageURL string
}

// VideoResult carries the generated clip alongside the source frame.
type VideoResult struct {
	ImageURL string
	VideoURL string
}

// Upload stores raw image bytes and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if err := w.Close(); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TransportError{Op: "upload", Err: httpError(resp)}
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &TransportError{Op: "upload", Err: err}
	}
	if out.URL == "" {
		return "", &TransportError{Op: "upload", Err: fmt.Errorf("response carried no url")}
	}
	return out.URL, nil
}

// Clean removes objects from the image. With a mask the removal model runs
// in masked mode and the prompt is not sent; without one the prompt names
// what to remove.
func (c *Client) Clean(ctx context.Context, r CleanRequest) (ImageResult, error) {
	if r.MaskURL != "" {
		return c.invokeImage(ctx, modelRemoveMasked, map[string]interface{}{
			"image_url": r.ImageURL,
			"mask_url":  r.MaskURL,
			"model":     "best_quality",
		})
	}
	if r.Prompt == "" {
		return ImageResult{}, Validationf("describe what to remove or outline it on the image")
	}
	return c.invokeImage(ctx, modelRemovePrompt, map[string]interface{}{
		"image_url": r.ImageURL,
		"prompt":    r.Prompt,
	})
}

// Stage virtually furnishes the room in the requested style.
func (c *Client) Stage(ctx context.Context, r StageRequest) (ImageResult, error) {
	prompt := r.Prompt
	if prompt == "" {
		if r.Style == "" {
			return ImageResult{}, Validationf("pick a furnishing style or describe the staging")
		}
		prompt = fmt.Sprintf(stagingPromptShape, r.Style)
	}
	return c.invokeImage(ctx, modelStaging, map[string]interface{}{
		"image_urls":          []string{r.ImageURL},
		"prompt":              prompt,
		"lora_scale":          1.2,
		"guidance_scale":      3.5,
		"num_inference_steps": 30,
		"image_size":          "square_hd",
	})
}

// AddItem places a new item inside the masked region. A reference image
// switches to the reference-guided inpainting model.
func (c *Client) AddItem(ctx context.Context, r AddItemRequest) (ImageResult, error) {
	if r.MaskURL == "" {
		return ImageResult{}, Validationf("outline where the item should go")
	}
	if r.ReferenceImageURL != "" {
		return c.invokeImage(ctx, modelInpaintRef, map[string]interface{}{
			"image_url":           r.ImageURL,
			"mask_url":            r.MaskURL,
			"reference_image_url": r.ReferenceImageURL,
			"prompt":              r.Prompt,
			"strength":            0.65,
			"guidance_scale":      3.5,
			"num_inference_steps": 40,
		})
	}
	if r.Prompt == "" {
		return ImageResult{}, Validationf("describe the item to add or pick a reference image")
	}
	return c.invokeImage(ctx, modelFill, map[string]interface{}{
		"image_url":        r.ImageURL,
		"mask_url":         r.MaskURL,
		"prompt":           r.Prompt,
		"safety_tolerance": "5",
	})
}

// DifferentAngles re-renders the room from another camera position.
func (c *Client) DifferentAngles(ctx context.Context, r AnglesRequest) (ImageResult, error) {
	return c.invokeImage(ctx, modelCameraAngle, map[string]interface{}{
		"image_url": r.ImageURL,
		"azimuth":   r.Azimuth,
		"elevation": r.Elevation,
		"zoom":      r.Zoom,
	})
}

// GenerateVideo animates the image into a short clip. A success response
// without a clip URL is treated as a failure.
func (c *Client) GenerateVideo(ctx context.Context, r VideoRequest) (VideoResult, error) {
	if !c.Configured() {
		return VideoResult{}, ErrNotConfigured
	}

	var out struct {
		Video struct {
			URL string `json:"url"`
		} `json:"video"`
	}
	err := c.invoke(ctx, modelImageToVideo, map[string]interface{}{
		"image_url": r.ImageURL,
		"prompt":    r.Prompt,
		"duration":  fmt.Sprintf("%d", r.Duration),
	}, &out)
	if err != nil {
		return VideoResult{}, err
	}
	if out.Video.URL == "" {
		return VideoResult{}, &TransportError{Op: modelImageToVideo, Err: fmt.Errorf("response carried no video url")}
	}
	return VideoResult{ImageURL: r.ImageURL, VideoURL: out.Video.URL}, nil
}

func (c *Client) invokeImage(ctx context.Context, model string, input map[string]interface{}) (ImageResult, error) {
	if !c.Configured() {
		return ImageResult{}, ErrNotConfigured
	}

	var out struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
	}
	if err := c.invoke(ctx, model, input, &out); err != nil {
		return ImageResult{}, err
	}

	url := out.Image.URL
	if len(out.Images) > 0 {
		url = out.Images[0].URL
	}
	if url == "" {
		return ImageResult{}, &TransportError{Op: model, Err: fmt.Errorf("response carried no image url")}
	}
	return ImageResult{ImageURL: url}, nil
}

func (c *Client) invoke(ctx context.Context, model string, input map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(input)
	if err != nil {
		return &TransportError{Op: model, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+model, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Op: model, Err: err}
	}
	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: model, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Op: model, Err: httpError(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: model, Err: err}
	}
	log.Printf("[edit] %s finished in %s", model, time.Since(start).Round(time.Millisecond))
	return nil
}

func httpError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var detail struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &detail) == nil {
		if detail.Detail != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, detail.Detail)
		}
		if detail.Error != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, detail.Error)
		}
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}
