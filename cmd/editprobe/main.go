// Command editprobe exercises the hosted editing API from the command
// line, useful for checking credentials and model behavior without the UI.
//
// Examples:
//
//	editprobe -op clean -image https://... -mask https://...
//	editprobe -op stage -image https://... -style scandinavian
//	editprobe -op video -image https://... -duration 10
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"room-studio/internal/edit"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		op        = flag.String("op", "", "operation: clean | stage | additem | angles | video")
		image     = flag.String("image", "", "source image URL (required)")
		maskURL   = flag.String("mask", "", "mask PNG URL (clean, additem)")
		prompt    = flag.String("prompt", "", "text prompt")
		style     = flag.String("style", "", "staging style preset")
		reference = flag.String("ref", "", "reference image URL (additem)")
		azimuth   = flag.Float64("azimuth", 0, "camera azimuth 0-360 (angles)")
		elevation = flag.Float64("elevation", 0, "camera elevation -30-90 (angles)")
		zoom      = flag.Float64("zoom", 5, "camera zoom 0-10 (angles)")
		duration  = flag.Int("duration", 5, "clip length in seconds: 5 or 10 (video)")
		timeout   = flag.Duration("timeout", 5*time.Minute, "request timeout")
	)
	flag.Parse()

	if *op == "" || *image == "" {
		flag.Usage()
		os.Exit(2)
	}

	client := edit.NewClientFromEnv()
	if !client.Configured() {
		log.Fatal("FAL_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *op {
	case "clean":
		res, err := client.Clean(ctx, edit.CleanRequest{ImageURL: *image, MaskURL: *maskURL, Prompt: *prompt})
		report(res.ImageURL, "", err)
	case "stage":
		res, err := client.Stage(ctx, edit.StageRequest{ImageURL: *image, Style: *style, Prompt: *prompt})
		report(res.ImageURL, "", err)
	case "additem":
		res, err := client.AddItem(ctx, edit.AddItemRequest{
			ImageURL:          *image,
			MaskURL:           *maskURL,
			Prompt:            *prompt,
			ReferenceImageURL: *reference,
		})
		report(res.ImageURL, "", err)
	case "angles":
		res, err := client.DifferentAngles(ctx, edit.AnglesRequest{
			ImageURL:  *image,
			Azimuth:   *azimuth,
			Elevation: *elevation,
			Zoom:      *zoom,
		})
		report(res.ImageURL, "", err)
	case "video":
		res, err := client.GenerateVideo(ctx, edit.VideoRequest{ImageURL: *image, Prompt: *prompt, Duration: *duration})
		report(res.ImageURL, res.VideoURL, err)
	default:
		log.Fatalf("Unknown operation %q", *op)
	}
}

func report(imageURL, videoURL string, err error) {
	if err != nil {
		log.Fatalf("Operation failed: %v", err)
	}
	fmt.Println("image:", imageURL)
	if videoURL != "" {
		fmt.Println("video:", videoURL)
	}
}
