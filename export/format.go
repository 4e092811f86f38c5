package export

import (
	"fmt"
	"strings"
)

// Format is the output encoding of a composite export.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
)

// DefaultName is used for the file name when the code has no title.
const DefaultName = "qr-code"

// ParseFormat accepts png, jpg and jpeg in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// MIME returns the media type written for f.
func (f Format) MIME() string {
	if f == FormatJPG {
		return "image/jpeg"
	}
	return "image/png"
}

// Ext returns the file extension without the leading dot.
func (f Format) Ext() string {
	return string(f)
}

// Filename derives the download name: the title when one is set, otherwise
// DefaultName, followed by the format extension. A whitespace-only title
// counts as unset, so it never yields a name like "  .png".
func Filename(title string, f Format) string {
	name := title
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return name + "." + f.Ext()
}
