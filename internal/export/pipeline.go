// Package export captures a rendered resume surface and encodes it as a
// PNG, JPEG or single-page A4 PDF.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Pipeline runs at most one export at a time.
type Pipeline struct {
	composer Composer
	logger   *slog.Logger
	busy     atomic.Bool
}

func NewPipeline(composer Composer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{composer: composer, logger: logger}
}

// InFlight reports whether an export is running.
func (p *Pipeline) InFlight() bool {
	return p.busy.Load()
}

// Export mounts target, captures it at PixelRatio and encodes the result.
//
// Errors are ErrNoRenderTarget (nothing mounted, nothing captured),
// ErrExportInProgress (another export holds the guard) or ErrCaptureFailure.
// The guard is always released before Export returns.
func (p *Pipeline) Export(ctx context.Context, target Target, format Format) (*Artifact, error) {
	if target == nil {
		return nil, ErrNoRenderTarget
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if !p.busy.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer p.busy.Store(false)

	start := time.Now()
	log := p.logger.With(slog.String("format", string(format)))

	surface, err := target.Mount(ctx)
	if err != nil {
		if errors.Is(err, ErrNoRenderTarget) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: mount surface: %v", ErrCaptureFailure, err)
	}
	var closeOnce sync.Once
	release := func() {
		closeOnce.Do(func() {
			if cerr := surface.Close(); cerr != nil {
				log.Warn("close surface failed", slog.Any("error", cerr))
			}
		})
	}
	defer release()

	w, h := surface.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: zero-size surface %.0fx%.0f", ErrCaptureFailure, w, h)
	}

	var artifact *Artifact
	switch format {
	case FormatPNG:
		artifact, err = p.exportRaster(ctx, surface, format, CaptureOptions{
			PixelRatio:  PixelRatio,
			Encoding:    EncodingPNG,
			Transparent: true,
			Placeholder: PlaceholderImage,
		})
	case FormatJPEG:
		artifact, err = p.exportRaster(ctx, surface, format, CaptureOptions{
			PixelRatio: PixelRatio,
			Encoding:   EncodingJPEG,
			Quality:    JPEGQuality,
		})
	case FormatPDF:
		artifact, err = p.exportPDF(ctx, surface, release)
	}
	if err != nil {
		log.Warn("export failed", slog.Any("error", err))
		return nil, err
	}

	log.Info("export finished",
		slog.Int("bytes", len(artifact.Data)),
		slog.Int("width", artifact.Width),
		slog.Int("height", artifact.Height),
		slog.Duration("elapsed", time.Since(start)),
	)
	return artifact, nil
}

func (p *Pipeline) exportRaster(ctx context.Context, surface Surface, format Format, opts CaptureOptions) (*Artifact, error) {
	raster, err := capture(ctx, surface, opts)
	if err != nil {
		return nil, err
	}
	cfg, err := decodeSize(raster.Data)
	if err != nil {
		return nil, err
	}

	var warnings []string
	for _, src := range raster.Substituted {
		warnings = append(warnings, "image replaced by placeholder: "+truncate(src, 120))
	}
	return &Artifact{
		Format:      format,
		Filename:    format.Filename(),
		ContentType: format.ContentType(),
		Data:        raster.Data,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Warnings:    warnings,
	}, nil
}

// exportPDF releases the surface before composing: surface and composer may
// draw from the same bounded pool of browser pages.
func (p *Pipeline) exportPDF(ctx context.Context, surface Surface, release func()) (*Artifact, error) {
	if p.composer == nil {
		return nil, fmt.Errorf("%w: no pdf composer configured", ErrCaptureFailure)
	}

	raster, err := capture(ctx, surface, CaptureOptions{
		PixelRatio: PixelRatio,
		Encoding:   EncodingPNG,
	})
	if err != nil {
		return nil, err
	}
	cfg, err := decodeSize(raster.Data)
	if err != nil {
		return nil, err
	}
	release()

	placement, err := PlaceOnPage(A4, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}

	data, err := p.composer.Compose(ctx, ComposeHTML(raster.Data, raster.Encoding, A4, placement), A4)
	if err != nil {
		return nil, fmt.Errorf("%w: compose pdf: %v", ErrCaptureFailure, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: composer returned empty document", ErrCaptureFailure)
	}

	return &Artifact{
		Format:      FormatPDF,
		Filename:    FormatPDF.Filename(),
		ContentType: FormatPDF.ContentType(),
		Data:        data,
		Width:       cfg.Width,
		Height:      cfg.Height,
		preview:     raster.Data,
	}, nil
}

func capture(ctx context.Context, surface Surface, opts CaptureOptions) (Raster, error) {
	raster, err := surface.Capture(ctx, opts)
	if err != nil {
		if errors.Is(err, ErrCaptureFailure) {
			return Raster{}, err
		}
		return Raster{}, fmt.Errorf("%w: %v", ErrCaptureFailure, err)
	}
	if len(raster.Data) == 0 {
		return Raster{}, fmt.Errorf("%w: empty raster", ErrCaptureFailure)
	}
	if raster.Encoding == "" {
		raster.Encoding = opts.Encoding
	}
	return raster, nil
}

func decodeSize(data []byte) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, fmt.Errorf("%w: decode raster: %v", ErrCaptureFailure, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return image.Config{}, fmt.Errorf("%w: empty raster", ErrCaptureFailure)
	}
	return cfg, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
