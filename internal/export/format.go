package export

import (
	"fmt"
	"strings"
)

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts png, jpg (or jpeg) and pdf, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

func (f Format) Valid() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatPDF:
		return true
	}
	return false
}

// Filename is fixed per format.
func (f Format) Filename() string {
	return "resume." + string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Artifact is a finished export. It is only ever returned whole.
type Artifact struct {
	Format      Format
	Filename    string
	ContentType string
	Data        []byte
	// Width and Height are the raster dimensions in device pixels.
	Width    int
	Height   int
	Warnings []string

	// preview is the raster a PDF was composed from.
	preview []byte
}

// Raster returns the captured image behind the artifact: the data itself for
// PNG and JPEG, the composed raster for PDF.
func (a *Artifact) Raster() []byte {
	if a.preview != nil {
		return a.preview
	}
	return a.Data
}
