// Package images resizes and re-encodes cover art referenced by posts so the
// exported site ships web-sized assets.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	defaultMaxWidth    = 1300
	defaultJPEGQuality = 80
)

// Options controls resizing and encoding behaviour.
type Options struct {
	// MaxWidth caps the output width in pixels; zero uses the default.
	MaxWidth int
	// Quality sets the JPEG quality (1-100); zero uses the default.
	Quality int
}

// Result describes the processed image.
type Result struct {
	Width  int
	Height int
	Size   int
}

// Processor re-encodes images as JPEG, downscaling anything wider than the
// configured maximum. It is stateless and safe for concurrent use.
type Processor struct {
	maxWidth int
	quality  int
}

// NewProcessor builds a Processor with the supplied options.
func NewProcessor(opts Options) *Processor {
	maxWidth := opts.MaxWidth
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	return &Processor{maxWidth: maxWidth, quality: quality}
}

// Process decodes an image from src, resizes it when wider than the maximum,
// and writes the JPEG encoding to dst.
func (p *Processor) Process(src io.Reader, dst io.Writer) (Result, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Result{}, fmt.Errorf("images: decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > p.maxWidth {
		newH := h * p.maxWidth / w
		scaled := image.NewRGBA(image.Rect(0, 0, p.maxWidth, newH))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		img = scaled
		w = p.maxWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return Result{}, fmt.Errorf("images: encode jpeg: %w", err)
	}

	size := buf.Len()
	if _, err := io.Copy(dst, &buf); err != nil {
		return Result{}, fmt.Errorf("images: write: %w", err)
	}

	return Result{Width: w, Height: h, Size: size}, nil
}

// ProcessBytes is a convenience wrapper over Process for in-memory payloads.
func (p *Processor) ProcessBytes(data []byte) ([]byte, Result, error) {
	var out bytes.Buffer
	result, err := p.Process(bytes.NewReader(data), &out)
	if err != nil {
		return nil, Result{}, err
	}
	return out.Bytes(), result, nil
}
