package export

import (
	"fmt"
	"math"
)

// Page is a PDF page size in points.
type Page struct {
	Width  float64
	Height float64
}

// A4 in PostScript points.
var A4 = Page{Width: 595.28, Height: 841.89}

// TopMargin is the fixed distance from the top edge to the image, in points.
const TopMargin = 40.0

// Placement is where the raster lands on the page, in points.
type Placement struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// PlaceOnPage scales a w x h raster to fit below the top margin, keeping
// its aspect ratio, and centers it horizontally. The vertical ratio is
// (page.Height-TopMargin)/h rather than page.Height/h, so a tall raster
// still satisfies y+height <= page.Height.
func PlaceOnPage(page Page, w, h int) (Placement, error) {
	if w <= 0 || h <= 0 {
		return Placement{}, fmt.Errorf("%w: empty raster %dx%d", ErrCaptureFailure, w, h)
	}
	usable := page.Height - TopMargin
	if page.Width <= 0 || usable <= 0 {
		return Placement{}, fmt.Errorf("%w: page %.2fx%.2f too small", ErrCaptureFailure, page.Width, page.Height)
	}

	ratio := math.Min(page.Width/float64(w), usable/float64(h))
	width := float64(w) * ratio
	height := float64(h) * ratio
	return Placement{
		X:      (page.Width - width) / 2,
		Y:      TopMargin,
		Width:  width,
		Height: height,
	}, nil
}
