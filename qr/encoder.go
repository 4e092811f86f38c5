// Package qr turns text into QR raster images. Matrix encoding is done by
// go-qrcode; rasterization onto a sized, margined two-tone canvas by gg.
package qr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"
)

// Level is a QR error-correction level.
type Level string

const (
	LevelLow      Level = "L"
	LevelMedium   Level = "M"
	LevelQuartile Level = "Q"
	LevelHigh     Level = "H"
)

// ParseLevel accepts L, M, Q or H in either case.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelLow, LevelMedium, LevelQuartile, LevelHigh:
		return l, nil
	default:
		return "", fmt.Errorf("unknown error correction level %q", s)
	}
}

func (l Level) recovery() qrcode.RecoveryLevel {
	switch l {
	case LevelLow:
		return qrcode.Low
	case LevelQuartile:
		return qrcode.High
	case LevelHigh:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// Options is the fixed render configuration handed to an Encoder.
type Options struct {
	Width  int    // output edge length in pixels
	Margin int    // quiet zone in modules
	Dark   string // hex color of dark modules
	Light  string // hex color of light modules and margin
	Level  Level
}

// DefaultOptions matches the shipped configuration.
func DefaultOptions() Options {
	return Options{
		Width:  200,
		Margin: 2,
		Dark:   "#1f2937",
		Light:  "#ffffff",
		Level:  LevelMedium,
	}
}

// Encoder produces a PNG raster for text.
type Encoder interface {
	Encode(ctx context.Context, text string, opts Options) ([]byte, error)
}

// PNGEncoder is the Encoder backed by go-qrcode.
type PNGEncoder struct{}

// NewEncoder returns the go-qrcode backed Encoder.
func NewEncoder() *PNGEncoder {
	return &PNGEncoder{}
}

// Encode renders text and returns PNG bytes.
func (e *PNGEncoder) Encode(ctx context.Context, text string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := Render(text, opts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Render draws the QR matrix for text onto an opts.Width square canvas with
// opts.Margin light modules on each side. Module edges are snapped to whole
// pixels so the output stays crisp at any width.
func Render(text string, opts Options) (image.Image, error) {
	if opts.Width <= 0 {
		return nil, fmt.Errorf("invalid width %d", opts.Width)
	}
	if opts.Margin < 0 {
		return nil, fmt.Errorf("invalid margin %d", opts.Margin)
	}

	bits, err := Bitmap(text, opts.Level, false)
	if err != nil {
		return nil, err
	}

	total := len(bits) + 2*opts.Margin
	if opts.Width < total {
		return nil, fmt.Errorf("width %d too small for %d modules", opts.Width, total)
	}
	scale := float64(opts.Width) / float64(total)
	edge := func(i int) float64 {
		return math.Floor(float64(i+opts.Margin) * scale)
	}

	dc := gg.NewContext(opts.Width, opts.Width)
	dc.SetHexColor(opts.Light)
	dc.Clear()

	dc.SetHexColor(opts.Dark)
	for y, row := range bits {
		y0, y1 := edge(y), edge(y+1)
		for x, dark := range row {
			if !dark {
				continue
			}
			x0, x1 := edge(x), edge(x+1)
			dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		}
	}
	dc.Fill()

	return dc.Image(), nil
}

// Bitmap returns the module matrix for text, true meaning dark. With border
// set, go-qrcode's standard four-module quiet zone is included.
func Bitmap(text string, level Level, border bool) ([][]bool, error) {
	q, err := qrcode.New(text, level.recovery())
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	q.DisableBorder = !border
	return q.Bitmap(), nil
}

// DataURL wraps PNG bytes as a data URL usable in an <img> src attribute.
func DataURL(raster []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raster)
}
