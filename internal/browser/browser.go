// Package browser drives a headless Chromium via the DevTools protocol.
// It is the rendering collaborator: it loads articles, marks matches,
// measures geometry, injects padding and produces clipped rasters. Each
// Page is an exclusively-owned tab; the refinement loop's measure and
// correct steps must never interleave across owners.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Browser owns the Chromium process. Pages share it but each has its own
// target, so distinct documents can be processed concurrently.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	width       int
	height      int
	dpr         float64
	settle      time.Duration
	timeout     time.Duration
}

// Options configures the browser at launch.
type Options struct {
	Width    int
	Height   int
	DPR      float64
	SettleMS int
}

// Launch starts a headless Chromium allocator. The process itself spawns
// lazily on the first page; a missing binary therefore surfaces as a
// fatal collaborator error from NewPage, before any artifact is written.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid viewport %dx%d", opts.Width, opts.Height)
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(opts.Width, opts.Height),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("force-device-scale-factor", fmt.Sprintf("%g", opts.DPR)),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	return &Browser{
		allocCtx:    allocCtx,
		allocCancel: cancel,
		width:       opts.Width,
		height:      opts.Height,
		dpr:         opts.DPR,
		settle:      time.Duration(opts.SettleMS) * time.Millisecond,
		timeout:     20 * time.Second,
	}, nil
}

// Close tears down the browser process and every page derived from it.
func (b *Browser) Close() {
	b.allocCancel()
}

// NewPage opens a fresh tab and verifies the browser is reachable.
func (b *Browser) NewPage(ctx context.Context) (*Page, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	p := &Page{
		ctx:    tabCtx,
		cancel: cancel,
		dpr:    b.dpr,
		width:  b.width,
		height: b.height,
		settle: b.settle,
	}
	// Force target creation now so collaborator unavailability is
	// reported up front rather than mid-document.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(
		int64(b.width), int64(b.height), chromedp.EmulateScale(b.dpr),
	)); err != nil {
		cancel()
		return nil, fmt.Errorf("open page context: %w", err)
	}
	return p, nil
}
