package export

import "context"

// Encoding is the image encoding a surface capture produces.
type Encoding string

const (
	EncodingPNG  Encoding = "png"
	EncodingJPEG Encoding = "jpeg"
)

// PixelRatio is the oversampling factor of every capture: one CSS pixel
// becomes a 2x2 block of raster pixels.
const PixelRatio = 2

// JPEGQuality corresponds to an encoder quality of 0.95.
const JPEGQuality = 95

// PlaceholderImage replaces images that fail to load in PNG captures.
// It is a 1x1 transparent PNG.
const PlaceholderImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

type CaptureOptions struct {
	PixelRatio  float64
	Encoding    Encoding
	Quality     int
	Transparent bool
	// Placeholder, when set, is substituted for every broken image before
	// capturing. When empty a broken image fails the capture.
	Placeholder string
}

// Raster is the encoded result of one capture.
type Raster struct {
	Data     []byte
	Encoding Encoding
	// Substituted lists the sources replaced by the placeholder.
	Substituted []string
}

// Surface is a mounted, rendered view that can be captured.
type Surface interface {
	// Size returns the CSS size of the render root.
	Size() (width, height float64)
	Capture(ctx context.Context, opts CaptureOptions) (Raster, error)
	Close() error
}

// Target is a stable handle to a renderable surface. Mount returns
// ErrNoRenderTarget when nothing is rendered.
type Target interface {
	Mount(ctx context.Context) (Surface, error)
}

// Composer lays out an HTML page (see ComposeHTML) as a one-page PDF.
type Composer interface {
	Compose(ctx context.Context, html string, page Page) ([]byte, error)
}
