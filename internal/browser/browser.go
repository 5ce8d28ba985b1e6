// Package browser drives headless Chromium (go-rod) to mount rendered resume
// pages, capture them and print PDF pages.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"
)

type Config struct {
	// Bin overrides the Chromium binary. Empty means auto-detect.
	Bin         string
	PageTimeout time.Duration
	MaxPages    int
}

// Browser is one Chromium process shared by all sessions. At most MaxPages
// tabs are open at the same time.
type Browser struct {
	launch      *launcher.Launcher
	rod         *rod.Browser
	pages       *semaphore.Weighted
	pageTimeout time.Duration
	logger      *slog.Logger
}

// Launch starts Chromium and connects to it.
func Launch(cfg Config, logger *slog.Logger) (_ *Browser, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 30 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 2
	}

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	defer func() {
		if err != nil {
			launch.Cleanup()
		}
	}()

	if bin := strings.TrimSpace(cfg.Bin); bin != "" {
		launch = launch.Bin(bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	rb := rod.New().ControlURL(controlURL)
	if err := rb.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	logger.Info("chromium started", slog.Int("max_pages", cfg.MaxPages), slog.Duration("page_timeout", cfg.PageTimeout))
	return &Browser{
		launch:      launch,
		rod:         rb,
		pages:       semaphore.NewWeighted(int64(cfg.MaxPages)),
		pageTimeout: cfg.PageTimeout,
		logger:      logger,
	}, nil
}

func (b *Browser) Close() error {
	err := b.rod.Close()
	b.launch.Cleanup()
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// openPage waits for a free tab slot and opens a blank page holding html.
// The returned release closes the page and frees the slot.
func (b *Browser) openPage(ctx context.Context, html string) (_ *rod.Page, release func(), err error) {
	if err := b.pages.Acquire(ctx, 1); err != nil {
		return nil, nil, fmt.Errorf("wait for browser page: %w", err)
	}

	page, err := b.rod.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		b.pages.Release(1)
		return nil, nil, fmt.Errorf("create page: %w", err)
	}
	release = func() {
		_ = page.Close()
		b.pages.Release(1)
	}
	defer func() {
		if err != nil {
			release()
		}
	}()

	page = page.Timeout(b.pageTimeout)
	if err := page.SetDocumentContent(html); err != nil {
		return nil, nil, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, nil, fmt.Errorf("wait load: %w", err)
	}

	// 等待字体就绪，避免回退字体导致排版差异。
	if _, evalErr := page.Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		b.logger.Warn("document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	return page, release, nil
}

func float64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
