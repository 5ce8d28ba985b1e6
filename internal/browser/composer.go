package browser

import (
	"context"
	"fmt"
	"io"

	"github.com/go-rod/rod/lib/proto"

	"liveResume/internal/export"
)

const pointsPerInch = 72.0

// Composer prints single-page HTML documents to PDF.
type Composer struct {
	browser *Browser
}

var _ export.Composer = (*Composer)(nil)

func NewComposer(b *Browser) *Composer {
	return &Composer{browser: b}
}

func (c *Composer) Compose(ctx context.Context, html string, page export.Page) ([]byte, error) {
	p, release, err := c.browser.openPage(ctx, html)
	if err != nil {
		return nil, err
	}
	defer release()

	reader, err := p.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        float64Ptr(page.Width / pointsPerInch),
		PaperHeight:       float64Ptr(page.Height / pointsPerInch),
		MarginTop:         float64Ptr(0),
		MarginBottom:      float64Ptr(0),
		MarginLeft:        float64Ptr(0),
		MarginRight:       float64Ptr(0),
		PageRanges:        "1",
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf bytes: %w", err)
	}
	return data, nil
}
