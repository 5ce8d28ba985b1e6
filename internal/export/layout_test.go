package export

import (
	"bytes"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOnPage_AspectAndBounds(t *testing.T) {
	sizes := []int{1, 2, 7, 100, 595, 842, 1000, 1700, 2200, 5000, 12000}
	const eps = 1e-6

	for _, w := range sizes {
		for _, h := range sizes {
			p, err := PlaceOnPage(A4, w, h)
			require.NoError(t, err)

			assert.InEpsilon(t, float64(w)/float64(h), p.Width/p.Height, 1e-9, "%dx%d", w, h)
			assert.LessOrEqual(t, p.X+p.Width, A4.Width+eps, "%dx%d", w, h)
			assert.LessOrEqual(t, p.Y+p.Height, A4.Height+eps, "%dx%d", w, h)
			assert.GreaterOrEqual(t, p.X, -eps)
			assert.Equal(t, TopMargin, p.Y)
			assert.InDelta(t, A4.Width-p.X-p.Width, p.X, eps, "centered %dx%d", w, h)
		}
	}
}

func TestPlaceOnPage_WideRasterFillsWidth(t *testing.T) {
	p, err := PlaceOnPage(A4, 1700, 200)
	require.NoError(t, err)
	assert.InDelta(t, A4.Width, p.Width, 1e-9)
	assert.InDelta(t, 0, p.X, 1e-9)
}

func TestPlaceOnPage_TallRasterFillsUsableHeight(t *testing.T) {
	p, err := PlaceOnPage(A4, 1700, 20000)
	require.NoError(t, err)
	assert.InDelta(t, A4.Height-TopMargin, p.Height, 1e-9)
	assert.Greater(t, p.X, 0.0)
}

func TestPlaceOnPage_EmptyRaster(t *testing.T) {
	_, err := PlaceOnPage(A4, 0, 10)
	assert.ErrorIs(t, err, ErrCaptureFailure)
}

func TestComposeHTML(t *testing.T) {
	html := ComposeHTML([]byte{1, 2, 3}, EncodingJPEG, A4, Placement{X: 10, Y: 40, Width: 575.28, Height: 300})
	assert.Contains(t, html, "size: 595.280pt 841.890pt")
	assert.Contains(t, html, "data:image/jpeg;base64,AQID")
	assert.Contains(t, html, "left: 10.000pt; top: 40.000pt; width: 575.280pt; height: 300.000pt")
}

func TestThumbnail(t *testing.T) {
	raster := encodeTestImage(t, 1700, 2200, EncodingPNG)

	thumb, err := Thumbnail(raster, 340)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 340, cfg.Width)
	assert.Equal(t, 440, cfg.Height)

	_, err = Thumbnail([]byte("nope"), 100)
	assert.Error(t, err)
}
