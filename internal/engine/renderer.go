package engine

import (
	"context"

	"github.com/reedalexschultz/wikisplice/internal/browser"
)

// ChromeRenderer adapts the chromedp browser to the Renderer interface.
type ChromeRenderer struct {
	Browser *browser.Browser
}

func (r ChromeRenderer) NewPage(ctx context.Context) (Document, error) {
	return r.Browser.NewPage(ctx)
}
