package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/reedalexschultz/wikisplice/internal/capture"
)

// Page is one exclusively-owned tab. It implements capture.Surface and
// must not be shared across document workers; the refinement loop relies
// on layout staying consistent between its measure and correct steps.
type Page struct {
	ctx    context.Context
	cancel context.CancelFunc
	dpr    float64
	width  int
	height int
	settle time.Duration

	captureSeq int
}

// Close releases the tab.
func (p *Page) Close() error {
	p.cancel()
	return nil
}

// run executes actions on the tab, honoring cancellation from the caller
// as well as from the tab's own lifetime.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(p.ctx, actions...)
}

// Load navigates to a document and prepares it for measurement: site
// chrome hidden, transparent background and fonts loaded.
func (p *Page) Load(ctx context.Context, url string) error {
	err := p.run(ctx,
		chromedp.Navigate(url),
		emulation.SetDefaultBackgroundColorOverride().WithColor(&cdp.RGBA{R: 0, G: 0, B: 0, A: 0}),
		chromedp.Evaluate(hideChromeJS, nil),
		awaitPromise(waitFontsJS),
	)
	if err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	return nil
}

// MarkMatches wraps occurrences of the term in measurable spans and
// returns their ids in document order. An empty result means the page
// has no (remaining) matches and is skipped, not an error.
func (p *Page) MarkMatches(ctx context.Context, term string, opts capture.MarkOptions) ([]string, error) {
	payload, err := json.Marshal(map[string]any{
		"term":          term,
		"caseSensitive": opts.CaseSensitive,
		"wholeWord":     opts.WholeWord,
		"maxMatches":    opts.MaxMatches,
		"highlightAll":  opts.HighlightAll,
	})
	if err != nil {
		return nil, err
	}

	var ids []string
	err = p.run(ctx,
		chromedp.Evaluate(fmt.Sprintf("(%s)(%s)", markMatchesJS, payload), &ids),
		awaitPromise(waitFontsJS),
		awaitPromise(flushLayoutJS),
	)
	if err != nil {
		return nil, fmt.Errorf("mark matches: %w", err)
	}
	return ids, nil
}

type rectResult struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// MeasureMark implements capture.Surface.
func (p *Page) MeasureMark(ctx context.Context, markID string) (capture.Rect, bool, error) {
	var res *rectResult
	err := p.run(ctx, chromedp.Evaluate(fmt.Sprintf("(%s)(%q)", getRectJS, markID), &res))
	if err != nil {
		return capture.Rect{}, false, fmt.Errorf("measure %s: %w", markID, err)
	}
	if res == nil || res.W <= 0 || res.H <= 0 {
		return capture.Rect{}, false, nil
	}
	return capture.Rect{X: res.X, Y: res.Y, W: res.W, H: res.H}, true, nil
}

// PageSize implements capture.Surface.
func (p *Page) PageSize(ctx context.Context) (float64, float64, error) {
	var res struct {
		W float64 `json:"w"`
		H float64 `json:"h"`
	}
	if err := p.run(ctx, chromedp.Evaluate(pageSizeJS, &res)); err != nil {
		return 0, 0, fmt.Errorf("page size: %w", err)
	}
	return res.W, res.H, nil
}

// InsertPadding implements capture.Surface. It grows the document
// vertically and waits the settle interval for layout to stabilize
// before the caller measures again.
func (p *Page) InsertPadding(ctx context.Context, top, bottom float64) error {
	err := p.run(ctx,
		chromedp.Evaluate(fmt.Sprintf("(%s)([%f,%f])", setPaddingJS, top, bottom), nil),
		chromedp.Sleep(p.settle),
		awaitPromise(waitFontsJS),
		awaitPromise(flushLayoutJS),
	)
	if err != nil {
		return fmt.Errorf("insert padding: %w", err)
	}
	return nil
}

// CaptureClip rasterizes the crop rectangle at the page's device pixel
// ratio and returns PNG bytes with a transparent background. When the
// clip falls outside the rasterizable surface, it retries through a
// synthetic capture element.
func (p *Page) CaptureClip(ctx context.Context, r capture.Rect) ([]byte, error) {
	var buf []byte
	err := p.run(ctx, chromedp.ActionFunc(func(cctx context.Context) error {
		data, err := cdppage.CaptureScreenshot().
			WithFormat(cdppage.CaptureScreenshotFormatPng).
			WithCaptureBeyondViewport(true).
			WithClip(&cdppage.Viewport{
				X:      r.X,
				Y:      r.Y,
				Width:  r.W,
				Height: r.H,
				Scale:  p.dpr,
			}).Do(cctx)
		if err != nil {
			return err
		}
		buf = data
		return nil
	}))
	if err == nil {
		return buf, nil
	}

	return p.captureViaElement(ctx, r, err)
}

// captureViaElement is the fallback path: an absolutely positioned div
// covering the clip is screenshotted and removed.
func (p *Page) captureViaElement(ctx context.Context, r capture.Rect, cause error) ([]byte, error) {
	p.captureSeq++
	elemID := fmt.Sprintf("ws_capture_%d", p.captureSeq)
	payload, _ := json.Marshal(map[string]any{
		"id": elemID, "x": r.X, "y": r.Y, "w": r.W, "h": r.H,
	})

	var buf []byte
	err := p.run(ctx,
		chromedp.Evaluate(fmt.Sprintf("(%s)(%s)", captureElementJS, payload), nil),
		chromedp.Screenshot("#"+elemID, &buf, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf("(%s)(%q)", removeElementJS, elemID), nil),
	)
	if err != nil {
		return nil, fmt.Errorf("capture clip: %w (element fallback after: %v)", err, cause)
	}
	return buf, nil
}

// awaitPromise evaluates a script and waits for its promise to resolve.
func awaitPromise(script string) chromedp.Action {
	return chromedp.Evaluate(script, nil, func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
		return params.WithAwaitPromise(true)
	})
}
