// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging generates listing thumbnails for uploaded image assets.
// Thumbnails are JPEG whatever the source format; originals are stored
// untouched.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// quality is the JPEG encode quality for thumbnails.
const quality = 80

// Thumb is one generated thumbnail ready for upload.
type Thumb struct {
	Width       int
	Height      int
	Data        []byte
	ContentType string
}

// Supported reports whether thumbnails can be generated for the given
// content type.
func Supported(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// Thumbnail scales the image down to at most maxWidth pixels wide, keeping
// the aspect ratio. Images already narrow enough are re-encoded at their
// original size rather than upscaled.
func Thumbnail(original []byte, maxWidth int) (*Thumb, error) {
	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("image has no pixels")
	}

	tw, th := w, h
	if w > maxWidth {
		tw = maxWidth
		th = (h*maxWidth + w/2) / w
		if th < 1 {
			th = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return &Thumb{
		Width:       tw,
		Height:      th,
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
	}, nil
}
