package browser

import (
	"bytes"
	"context"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveResume/internal/export"
	"liveResume/internal/render"
	"liveResume/internal/resume"
)

func launchForTest(t *testing.T) *Browser {
	t.Helper()
	return launchWithPages(t, 2)
}

func launchWithPages(t *testing.T, maxPages int) *Browser {
	t.Helper()
	if testing.Short() {
		t.Skip("chromium tests skipped in -short mode")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("chromium not found")
	}
	b, err := Launch(Config{PageTimeout: 20 * time.Second, MaxPages: maxPages}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestTarget_ExportAllFormats(t *testing.T) {
	b := launchForTest(t)

	doc := resume.Default()
	doc.Name = "Ada Lovelace"
	doc.Skills = []string{"Go"}
	html, err := render.MustNew().Render(doc)
	require.NoError(t, err)

	p := export.NewPipeline(NewComposer(b), nil)
	for _, f := range []export.Format{export.FormatPNG, export.FormatJPEG, export.FormatPDF} {
		a, err := p.Export(context.Background(), NewTarget(b, html), f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, a.Data)
		assert.Equal(t, render.RootWidth*export.PixelRatio, a.Width)

		if f == export.FormatPDF {
			assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF")))
			continue
		}
		cfg, _, err := image.DecodeConfig(bytes.NewReader(a.Data))
		require.NoError(t, err)
		assert.Equal(t, a.Width, cfg.Width)
	}
}

func TestTarget_MissingRoot(t *testing.T) {
	b := launchForTest(t)

	_, err := export.NewPipeline(nil, nil).Export(context.Background(), NewTarget(b, "<html><body><p>nothing</p></body></html>"), export.FormatPNG)
	assert.ErrorIs(t, err, export.ErrNoRenderTarget)
}

func TestTarget_BrokenPhoto(t *testing.T) {
	b := launchForTest(t)

	doc := resume.Default()
	doc.Photo = "http://127.0.0.1:1/missing.png"
	html, err := render.MustNew().Render(doc)
	require.NoError(t, err)

	p := export.NewPipeline(NewComposer(b), nil)

	a, err := p.Export(context.Background(), NewTarget(b, html), export.FormatPNG)
	require.NoError(t, err)
	assert.Len(t, a.Warnings, 1)

	_, err = p.Export(context.Background(), NewTarget(b, html), export.FormatJPEG)
	assert.ErrorIs(t, err, export.ErrCaptureFailure)
}

func TestTarget_EmptyHTML(t *testing.T) {
	_, err := NewTarget(nil, "").Mount(context.Background())
	assert.ErrorIs(t, err, export.ErrNoRenderTarget)
}

func TestTarget_PDFWithOnePage(t *testing.T) {
	b := launchWithPages(t, 1)
	html, err := render.MustNew().Render(resume.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := export.NewPipeline(NewComposer(b), nil).Export(ctx, NewTarget(b, html), export.FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(a.Data, []byte("%PDF")))
}

func TestTarget_ConcurrentPDFs(t *testing.T) {
	b := launchWithPages(t, 2)
	html, err := render.MustNew().Render(resume.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = export.NewPipeline(NewComposer(b), nil).Export(ctx, NewTarget(b, html), export.FormatPDF)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}
}
