package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"liveResume/internal/export"
	"liveResume/internal/render"
)

const viewportHeight = 1200

// Target mounts a rendered HTML page in Chromium on demand.
type Target struct {
	browser *Browser
	html    string
}

var _ export.Target = (*Target)(nil)

func NewTarget(b *Browser, html string) *Target {
	return &Target{browser: b, html: html}
}

// Targets returns a factory that mounts HTML on b.
func (b *Browser) Targets() func(html string) export.Target {
	return func(html string) export.Target {
		return NewTarget(b, html)
	}
}

// Mount opens the page and locates the render root. A missing or empty root
// is export.ErrNoRenderTarget.
func (t *Target) Mount(ctx context.Context) (_ export.Surface, err error) {
	if t == nil || t.browser == nil || t.html == "" {
		return nil, export.ErrNoRenderTarget
	}

	page, release, err := t.browser.openPage(ctx, t.html)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             render.RootWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	has, root, err := page.Has(render.RootSelector)
	if err != nil {
		return nil, fmt.Errorf("query render root: %w", err)
	}
	if !has {
		return nil, export.ErrNoRenderTarget
	}
	empty, err := root.Eval(`function () { return this.childElementCount === 0 }`)
	if err != nil {
		return nil, fmt.Errorf("inspect render root: %w", err)
	}
	if empty.Value.Bool() {
		return nil, export.ErrNoRenderTarget
	}

	box, err := rootBox(page)
	if err != nil {
		return nil, err
	}
	return &surface{page: page, release: release, box: box}, nil
}

type rect struct {
	X, Y, Width, Height float64
}

func rootBox(page *rod.Page) (rect, error) {
	res, err := page.Eval(`(sel) => {
	  const el = document.querySelector(sel);
	  if (!el) return null;
	  const r = el.getBoundingClientRect();
	  return { x: r.left + window.scrollX, y: r.top + window.scrollY, width: r.width, height: r.height };
	}`, render.RootSelector)
	if err != nil {
		return rect{}, fmt.Errorf("measure render root: %w", err)
	}
	if res.Value.Nil() {
		return rect{}, export.ErrNoRenderTarget
	}
	return rect{
		X:      res.Value.Get("x").Num(),
		Y:      res.Value.Get("y").Num(),
		Width:  res.Value.Get("width").Num(),
		Height: res.Value.Get("height").Num(),
	}, nil
}

type surface struct {
	page      *rod.Page
	release   func()
	box       rect
	closeOnce sync.Once
}

func (s *surface) Size() (float64, float64) {
	return s.box.Width, s.box.Height
}

// Close frees the page slot. Calling it more than once is a no-op.
func (s *surface) Close() error {
	s.closeOnce.Do(s.release)
	return nil
}

// Capture screenshots the render root. Every image inside the root is
// checked first: broken ones are replaced by opts.Placeholder, or fail the
// capture when no placeholder is given.
func (s *surface) Capture(ctx context.Context, opts export.CaptureOptions) (export.Raster, error) {
	page := s.page.Context(ctx)

	bg := &proto.DOMRGBA{R: 255, G: 255, B: 255, A: float64Ptr(1)}
	if opts.Transparent {
		bg = &proto.DOMRGBA{A: float64Ptr(0)}
	}
	if err := (proto.EmulationSetDefaultBackgroundColorOverride{Color: bg}).Call(page); err != nil {
		return export.Raster{}, fmt.Errorf("set background: %w", err)
	}

	broken, err := brokenImages(page, opts.Placeholder)
	if err != nil {
		return export.Raster{}, err
	}
	if len(broken) > 0 && opts.Placeholder == "" {
		return export.Raster{}, fmt.Errorf("%w: %d image(s) failed to load", export.ErrCaptureFailure, len(broken))
	}

	// 替换占位图后布局可能变化，重新测量。
	box, err := rootBox(page)
	if err != nil {
		if errors.Is(err, export.ErrNoRenderTarget) {
			return export.Raster{}, fmt.Errorf("%w: render root disappeared", export.ErrCaptureFailure)
		}
		return export.Raster{}, err
	}

	ratio := opts.PixelRatio
	if ratio <= 0 {
		ratio = export.PixelRatio
	}
	req := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  ratio,
		},
		CaptureBeyondViewport: true,
	}
	enc := export.EncodingPNG
	if opts.Encoding == export.EncodingJPEG {
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = intPtr(opts.Quality)
		enc = export.EncodingJPEG
	}

	data, err := page.Screenshot(false, req)
	if err != nil {
		return export.Raster{}, fmt.Errorf("page screenshot: %w", err)
	}
	return export.Raster{Data: data, Encoding: enc, Substituted: broken}, nil
}

// brokenImages lists the sources of images under the root that finished
// loading without pixels. With a placeholder they are swapped in place.
func brokenImages(page *rod.Page, placeholder string) ([]string, error) {
	res, err := page.Eval(`(sel, placeholder) => {
	  const broken = [];
	  for (const img of Array.from(document.querySelectorAll(sel + ' img'))) {
	    if (img.complete && img.naturalWidth === 0) {
	      broken.push(img.getAttribute('src') || '');
	      if (placeholder) img.src = placeholder;
	    }
	  }
	  return broken;
	}`, render.RootSelector, placeholder)
	if err != nil {
		return nil, fmt.Errorf("inspect images: %w", err)
	}

	var broken []string
	for _, v := range res.Value.Arr() {
		broken = append(broken, v.Str())
	}
	if len(broken) > 0 && placeholder != "" {
		if _, err := page.Eval(`(sel) => Promise.all(
		  Array.from(document.querySelectorAll(sel + ' img')).map((img) => img.decode().catch(() => null))
		)`, render.RootSelector); err != nil {
			return nil, fmt.Errorf("wait for placeholder images: %w", err)
		}
	}
	return broken, nil
}
