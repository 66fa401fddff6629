// Package capture produces single-image screenshots of page elements,
// including elements taller than the viewport, by scrolling and stitching
// viewport tiles. It drives the page through the Page interface so any
// browser backend can plug in.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"time"
)

var (
	// ErrElementNotFound means the locator never matched within the wait timeout.
	ErrElementNotFound = errors.New("element not found")
	// ErrMetricsUnavailable means the geometry query failed or returned garbage.
	ErrMetricsUnavailable = errors.New("element metrics unavailable")
	// ErrStitchFailed means tiling produced no usable rows. Tile generation
	// covers the whole element span, so hitting this indicates the metrics
	// query and the captured buffers disagree.
	ErrStitchFailed = errors.New("tiled stitching produced no rows")
)

// Metrics is a point-in-time snapshot of element and page geometry.
// Rect fields are relative to the viewport, as reported by
// getBoundingClientRect, and may be fractional.
type Metrics struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	ScrollY        float64 `json:"scrollY"`
	DocWidth       int     `json:"docWidth"`
	DocHeight      int     `json:"docHeight"`
	ViewportWidth  int     `json:"viewportWidth"`
	ViewportHeight int     `json:"viewportHeight"`
}

// Page is the capability set the compositor needs from a browser page.
// Implementations own locator resolution; locators are opaque strings here.
// A Page is exclusively owned for the duration of one capture call: scroll
// position and viewport size are shared mutable state on the render surface.
type Page interface {
	// WaitVisible blocks until the locator matches a visible element or ctx expires.
	WaitVisible(ctx context.Context, locator string) error
	// Metrics runs a single geometry query for the element and page.
	Metrics(ctx context.Context, locator string) (*Metrics, error)
	// CaptureViewport returns the current viewport as an encoded PNG.
	CaptureViewport(ctx context.Context) ([]byte, error)
	// SetViewport resizes the viewport to the given dimensions.
	SetViewport(ctx context.Context, width, height int) error
	// ScrollTo scrolls to an absolute vertical offset.
	ScrollTo(ctx context.Context, y int) error
	// Click clicks the first element matching the locator.
	Click(ctx context.Context, locator string) error
}

// Result describes a finished capture.
type Result struct {
	Width  int
	Height int
	Tiled  bool
}

// Compositor captures element screenshots. The zero value is usable.
type Compositor struct {
	// WaitTimeout bounds the initial wait for the element to appear.
	WaitTimeout time.Duration
	// SettleDelay is how long to wait after a scroll or resize before
	// capturing, so the page has repainted.
	SettleDelay time.Duration
}

const (
	defaultWaitTimeout = 15 * time.Second
	defaultSettleDelay = 300 * time.Millisecond

	minViewportWidth  = 800
	minViewportHeight = 600
)

// elemRect is the element's absolute document-space rectangle, with
// fractional widths and heights rounded up so sub-pixel rects don't
// truncate content.
type elemRect struct {
	left, top, width, height int
}

func rectFromMetrics(m *Metrics) elemRect {
	return elemRect{
		left:   int(m.Left),
		top:    int(m.Top + m.ScrollY),
		width:  int(math.Ceil(m.Width)),
		height: int(math.Ceil(m.Height)),
	}
}

// CaptureFull captures the element's full extent to outPath, even when the
// element is taller than the viewport. When the whole document fits within
// maxSingleHeight the viewport is resized once and a single buffer is
// cropped; otherwise the page is scrolled tile by tile and the tiles are
// stitched. The page's scroll position is not restored; the viewport size is
// restored only on the single-shot path.
func (c *Compositor) CaptureFull(ctx context.Context, pg Page, locator, outPath string, maxSingleHeight int) (*Result, error) {
	m, r, err := c.waitAndMeasure(ctx, pg, locator)
	if err != nil {
		return nil, err
	}

	if m.DocHeight <= maxSingleHeight {
		return c.captureSingle(ctx, pg, m, r, outPath)
	}
	return c.captureTiled(ctx, pg, m, r, outPath)
}

// CaptureElement captures just the visible extent of the element: it scrolls
// the element into view and crops one viewport buffer to the element rect.
// Elements taller than the viewport are clipped; use CaptureFull for those.
func (c *Compositor) CaptureElement(ctx context.Context, pg Page, locator, outPath string) (*Result, error) {
	m, r, err := c.waitAndMeasure(ctx, pg, locator)
	if err != nil {
		return nil, err
	}

	// Center the element vertically when it fits, otherwise align its top.
	scrollY := r.top - (m.ViewportHeight-r.height)/2
	if r.height >= m.ViewportHeight {
		scrollY = r.top
	}
	if scrollY < 0 {
		scrollY = 0
	}
	if err := pg.ScrollTo(ctx, scrollY); err != nil {
		return nil, fmt.Errorf("scroll to element: %w", err)
	}
	c.settle()

	buf, err := pg.CaptureViewport(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture viewport: %w", err)
	}
	img, err := decodePNG(buf)
	if err != nil {
		return nil, err
	}

	relTop := r.top - scrollY
	cropBottom := relTop + r.height
	if cropBottom > m.ViewportHeight {
		cropBottom = m.ViewportHeight
	}
	crop, err := cropImage(img, image.Rect(r.left, relTop, r.left+r.width, cropBottom))
	if err != nil {
		return nil, err
	}

	if err := writePNG(outPath, crop); err != nil {
		return nil, err
	}
	b := crop.Bounds()
	return &Result{Width: b.Dx(), Height: b.Dy()}, nil
}

// Dismiss is a best-effort pre-step that tries to click each locator in turn,
// for cookie banners and similar overlays. Failures are swallowed; capture
// proceeds regardless.
func Dismiss(ctx context.Context, pg Page, locators ...string) {
	for _, loc := range locators {
		attemptCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := pg.WaitVisible(attemptCtx, loc); err == nil {
			_ = pg.Click(attemptCtx, loc)
		}
		cancel()
	}
}

// TileOffsets returns the scroll offsets for tiled capture of the document
// row span [top, bottom). The first offset is anchored to the largest
// multiple of viewportH at or below top, so tiles land on natural scroll
// boundaries; subsequent offsets step by exactly one viewport height until
// the span is covered.
func TileOffsets(top, bottom, viewportH int) []int {
	if viewportH <= 0 || bottom <= top {
		return nil
	}
	var offsets []int
	y := top - top%viewportH
	if y < 0 {
		y = 0
	}
	for ; y < bottom; y += viewportH {
		offsets = append(offsets, y)
	}
	return offsets
}

func (c *Compositor) waitAndMeasure(ctx context.Context, pg Page, locator string) (*Metrics, elemRect, error) {
	waitTimeout := c.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = defaultWaitTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	if err := pg.WaitVisible(waitCtx, locator); err != nil {
		return nil, elemRect{}, fmt.Errorf("%w: %q: %v", ErrElementNotFound, locator, err)
	}

	m, err := pg.Metrics(ctx, locator)
	if err != nil {
		return nil, elemRect{}, fmt.Errorf("%w: %v", ErrMetricsUnavailable, err)
	}
	r := rectFromMetrics(m)
	if m.ViewportHeight <= 0 || m.ViewportWidth <= 0 || r.width <= 0 || r.height <= 0 {
		return nil, elemRect{}, fmt.Errorf("%w: degenerate geometry %+v", ErrMetricsUnavailable, *m)
	}
	return m, r, nil
}

// captureSingle resizes the viewport so the whole document renders at once,
// captures one buffer, and crops the element's absolute rect out of it. The
// original viewport size is restored unconditionally, even when the crop or
// save fails.
func (c *Compositor) captureSingle(ctx context.Context, pg Page, m *Metrics, r elemRect, outPath string) (*Result, error) {
	w := max(m.DocWidth, minViewportWidth)
	h := max(m.DocHeight, minViewportHeight)
	if err := pg.SetViewport(ctx, w, h); err != nil {
		return nil, fmt.Errorf("resize viewport: %w", err)
	}
	defer func() {
		// Scoped resource release: a leaked viewport size would corrupt
		// every later capture on this page.
		_ = pg.SetViewport(ctx, m.ViewportWidth, m.ViewportHeight)
	}()
	c.settle()

	buf, err := pg.CaptureViewport(ctx)
	if err != nil {
		return nil, fmt.Errorf("capture viewport: %w", err)
	}
	img, err := decodePNG(buf)
	if err != nil {
		return nil, err
	}

	crop, err := cropImage(img, image.Rect(r.left, r.top, r.left+r.width, r.top+r.height))
	if err != nil {
		return nil, err
	}
	if err := writePNG(outPath, crop); err != nil {
		return nil, err
	}
	b := crop.Bounds()
	return &Result{Width: b.Dx(), Height: b.Dy()}, nil
}

// captureTiled scrolls through the element one viewport at a time and pastes
// each tile's visible slice of the element into a canvas sized exactly to
// the element rect.
func (c *Compositor) captureTiled(ctx context.Context, pg Page, m *Metrics, r elemRect, outPath string) (*Result, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	pasted := false

	for _, scrollY := range TileOffsets(r.top, r.top+r.height, m.ViewportHeight) {
		if err := pg.ScrollTo(ctx, scrollY); err != nil {
			return nil, fmt.Errorf("scroll to %d: %w", scrollY, err)
		}
		c.settle()

		buf, err := pg.CaptureViewport(ctx)
		if err != nil {
			return nil, fmt.Errorf("capture tile at %d: %w", scrollY, err)
		}
		tile, err := decodePNG(buf)
		if err != nil {
			return nil, err
		}

		// Visible slice of the element within this viewport buffer.
		relTop := r.top - scrollY
		cropTop := max(relTop, 0)
		cropBottom := min(m.ViewportHeight, relTop+r.height)
		if cropBottom <= cropTop {
			continue
		}

		src := image.Rect(r.left, cropTop, r.left+r.width, cropBottom)
		src = src.Intersect(tile.Bounds())
		if src.Empty() {
			continue
		}

		destTop := max(scrollY-r.top, 0)
		dst := image.Rect(0, destTop, src.Dx(), destTop+src.Dy())
		draw.Draw(canvas, dst, tile, src.Min, draw.Src)
		pasted = true
	}

	if !pasted {
		return nil, ErrStitchFailed
	}
	if err := writePNG(outPath, canvas); err != nil {
		return nil, err
	}
	return &Result{Width: r.width, Height: r.height, Tiled: true}, nil
}

func (c *Compositor) settle() {
	d := c.SettleDelay
	if d <= 0 {
		d = defaultSettleDelay
	}
	time.Sleep(d)
}

func decodePNG(buf []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode captured buffer: %w", err)
	}
	return img, nil
}

// cropImage copies the given rect of img into a fresh canvas. The rect is
// clamped to the image bounds; a rect entirely outside them is an error.
func cropImage(img image.Image, rect image.Rectangle) (image.Image, error) {
	src := rect.Intersect(img.Bounds())
	if src.Empty() {
		return nil, fmt.Errorf("crop rect %v outside captured image %v", rect, img.Bounds())
	}
	out := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(out, out.Bounds(), img, src.Min, draw.Src)
	return out, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
