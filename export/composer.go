// Package export assembles the downloadable composite image: an optional
// title, the QR raster and a watermark caption on one opaque canvas.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
)

// Layout holds the canvas geometry and styling of a composite.
type Layout struct {
	QRSize                 int
	Padding                int
	TitleHeight            int
	TitlePlaceholderHeight int
	TitleBaseline          int // offset of the title baseline below the top padding
	WatermarkHeight        int
	WatermarkBaseline      int // offset of the watermark baseline above the bottom edge
	Watermark              string
	Background             string
	Foreground             string
	WatermarkColor         string
	TitleFontSize          float64
	WatermarkFontSize      float64
	JPEGQuality            int
}

// DefaultLayout matches the shipped configuration.
func DefaultLayout() Layout {
	return Layout{
		QRSize:                 200,
		Padding:                40,
		TitleHeight:            60,
		TitlePlaceholderHeight: 20,
		TitleBaseline:          35,
		WatermarkHeight:        30,
		WatermarkBaseline:      10,
		Watermark:              "QR generated by gitanshu.world",
		Background:             "#ffffff",
		Foreground:             "#1f2937",
		WatermarkColor:         "#6b7280",
		TitleFontSize:          24,
		WatermarkFontSize:      12,
		JPEGQuality:            92,
	}
}

// Size returns the canvas dimensions, which depend only on whether a title
// is drawn.
func (l Layout) Size(hasTitle bool) (width, height int) {
	width = l.QRSize + 2*l.Padding
	height = l.QRSize + l.titleBand(hasTitle) + l.WatermarkHeight + 2*l.Padding
	return width, height
}

func (l Layout) titleBand(hasTitle bool) int {
	if hasTitle {
		return l.TitleHeight
	}
	return l.TitlePlaceholderHeight
}

// Blob is an encoded composite ready for a save service. SourceText is not
// set by the Composer; callers that know the encoded text fill it in.
type Blob struct {
	Data       []byte
	MIME       string
	Filename   string
	Format     Format
	Title      string
	SourceText string
}

// Composer renders composites with a fixed Layout. It holds no per-call
// state, so concurrent Compose calls do not interfere.
type Composer struct {
	layout Layout
	log    *slog.Logger
}

// NewComposer returns a Composer for layout.
func NewComposer(layout Layout, log *slog.Logger) *Composer {
	return &Composer{layout: layout, log: log}
}

// Layout returns the composer's layout.
func (c *Composer) Layout() Layout {
	return c.layout
}

// Compose draws title, raster and watermark and encodes the result. If the
// raster cannot be decoded nothing after the title is drawn and an error is
// returned.
func (c *Composer) Compose(ctx context.Context, raster []byte, title string, format Format) (Blob, error) {
	if format != FormatPNG && format != FormatJPG {
		return Blob{}, fmt.Errorf("unsupported export format %q", format)
	}
	l := c.layout
	hasTitle := strings.TrimSpace(title) != ""
	width, height := l.Size(hasTitle)

	dc := gg.NewContext(width, height)
	dc.SetHexColor(l.Background)
	dc.Clear()

	if hasTitle {
		face, err := newFace(boldFont, l.TitleFontSize)
		if err != nil {
			return Blob{}, err
		}
		defer face.Close()
		dc.SetFontFace(face)
		dc.SetHexColor(l.Foreground)
		dc.DrawStringAnchored(title, float64(width)/2, float64(l.Padding+l.TitleBaseline), 0.5, 0)
	}

	img, _, err := image.Decode(bytes.NewReader(raster))
	if err != nil {
		return Blob{}, fmt.Errorf("decode raster: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}
	dc.DrawImage(fit(img, l.QRSize), l.Padding, l.Padding+l.titleBand(hasTitle))

	face, err := newFace(regularFont, l.WatermarkFontSize)
	if err != nil {
		return Blob{}, err
	}
	defer face.Close()
	dc.SetFontFace(face)
	dc.SetHexColor(l.WatermarkColor)
	dc.DrawStringAnchored(l.Watermark, float64(width-l.Padding), float64(height-l.WatermarkBaseline), 1, 0)

	var buf bytes.Buffer
	switch format {
	case FormatJPG:
		err = jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: l.JPEGQuality})
	default:
		err = dc.EncodePNG(&buf)
	}
	if err != nil {
		return Blob{}, fmt.Errorf("encode %s: %w", format, err)
	}

	c.log.Debug("composite rendered", "format", format, "width", width, "height", height, "bytes", buf.Len())

	return Blob{
		Data:     buf.Bytes(),
		MIME:     format.MIME(),
		Filename: Filename(title, format),
		Format:   format,
		Title:    title,
	}, nil
}

// fit scales img to a size×size square with nearest-neighbour sampling so
// module edges stay sharp. Images already at size are returned unchanged.
func fit(img image.Image, size int) image.Image {
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
