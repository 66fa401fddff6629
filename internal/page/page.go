// Package page implements the capture.Page capability over chromedp.
package page

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/chartsnap/chartsnap/internal/capture"
)

// Chrome drives a page through the Chrome DevTools Protocol. The contexts
// passed to its methods must originate from chromedp.NewContext; Chrome
// itself holds no state, so one value can serve any number of tabs.
type Chrome struct{}

var _ capture.Page = Chrome{}

// Navigate loads the given URL in the tab.
func (Chrome) Navigate(ctx context.Context, url string) error {
	return chromedp.Run(ctx, chromedp.Navigate(url))
}

// WaitVisible blocks until the locator matches a visible element.
// BySearch accepts both CSS selectors and XPath expressions.
func (Chrome) WaitVisible(ctx context.Context, locator string) error {
	return chromedp.Run(ctx, chromedp.WaitVisible(locator, chromedp.BySearch))
}

// Click clicks the first element matching the locator.
func (Chrome) Click(ctx context.Context, locator string) error {
	return chromedp.Run(ctx, chromedp.Click(locator, chromedp.BySearch))
}

// Metrics queries element and page geometry in a single evaluate so all
// values come from the same layout pass.
func (Chrome) Metrics(ctx context.Context, locator string) (*capture.Metrics, error) {
	var m *capture.Metrics
	expr := fmt.Sprintf(metricsJS, locator)
	if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &m)); err != nil {
		return nil, fmt.Errorf("geometry query: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("geometry query matched no element for %q", locator)
	}
	return m, nil
}

// CaptureViewport returns the current viewport as a PNG.
func (Chrome) CaptureViewport(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

// SetViewport overrides the device metrics so the page lays out at the given size.
func (Chrome) SetViewport(ctx context.Context, width, height int) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false).Do(ctx)
	}))
}

// ScrollTo scrolls the window to an absolute vertical offset.
func (Chrome) ScrollTo(ctx context.Context, y int) error {
	return chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf("window.scrollTo(0, %d)", y), nil))
}

// metricsJS resolves the locator (XPath when it starts with "/" or "(",
// CSS otherwise) and returns one geometry snapshot. Returns null when the
// locator matches nothing.
const metricsJS = `(() => {
	const loc = %q;
	let e;
	if (loc.startsWith('/') || loc.startsWith('(')) {
		e = document.evaluate(loc, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
	} else {
		e = document.querySelector(loc);
	}
	if (!e) return null;
	const r = e.getBoundingClientRect();
	return {
		left: r.left,
		top: r.top,
		width: r.width,
		height: r.height,
		scrollY: window.scrollY,
		docWidth: Math.max(document.documentElement.scrollWidth, document.body.scrollWidth),
		docHeight: Math.max(document.documentElement.scrollHeight, document.body.scrollHeight),
		viewportWidth: window.innerWidth,
		viewportHeight: window.innerHeight
	};
})()`
