// Package asset provides stored media records and the durable asset store.
package asset

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"room-studio/pkg/geometry"
)

// Kind classifies how an asset was produced.
type Kind string

const (
	KindOriginal  Kind = "original"
	KindCleaned   Kind = "cleaned"
	KindStaged    Kind = "staged"
	KindReference Kind = "reference"
	KindItemAdded Kind = "item-added"
	KindAngle     Kind = "angle-variant"
	KindVideo     Kind = "video"
)

// Label returns a human-readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindOriginal:
		return "Original"
	case KindCleaned:
		return "Cleaned"
	case KindStaged:
		return "Staged"
	case KindReference:
		return "Reference"
	case KindItemAdded:
		return "Add Item"
	case KindAngle:
		return "Angle"
	case KindVideo:
		return "Video"
	default:
		return string(k)
	}
}

// Asset is a persisted unit of generated or uploaded media. URL always
// points at an image, even for video assets, so the versions strip can
// render a thumbnail; VideoURL carries the motion asset.
type Asset struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`

	// Set only for Kind == KindVideo.
	VideoURL      string `json:"video_url,omitempty"`
	SourceAssetID string `json:"source_asset_id,omitempty"`

	Metadata *Metadata `json:"metadata,omitempty"`
}

// Metadata records the inputs used to produce an asset.
type Metadata struct {
	Prompt    string             `json:"prompt,omitempty"`
	Selection []geometry.Point2D `json:"selection,omitempty"`
}

// IsVideo reports whether the asset carries a motion asset.
func (a *Asset) IsVideo() bool {
	return a.Kind == KindVideo && a.VideoURL != ""
}

// NewID generates an opaque unique identifier: creation time in unix
// milliseconds plus a random base36 suffix.
func NewID() string {
	suffix := strconv.FormatInt(rand.Int63(), 36)
	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}
