// Package app wires config, browser, compositor, store and notifier into
// the capture workflow.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/chartsnap/chartsnap/internal/browser"
	"github.com/chartsnap/chartsnap/internal/capture"
	"github.com/chartsnap/chartsnap/internal/config"
	"github.com/chartsnap/chartsnap/internal/notifier"
	"github.com/chartsnap/chartsnap/internal/page"
	"github.com/chartsnap/chartsnap/internal/report"
	"github.com/chartsnap/chartsnap/internal/store"
)

// targetTimeout bounds one target's navigate-wait-capture sequence.
const targetTimeout = 5 * time.Minute

// App holds the application state.
type App struct {
	cfg      *config.Config
	store    *store.Store
	notifier *notifier.Notifier // nil when sending is disabled

	outputDir string
}

// New creates a new App instance. notif may be nil, in which case captures
// are only written to disk and recorded.
func New(cfg *config.Config, st *store.Store, notif *notifier.Notifier) (*App, error) {
	outputDir := cfg.Capture.OutputDir
	if outputDir == "" {
		cacheDir, err := config.CacheDir()
		if err != nil {
			return nil, err
		}
		outputDir = filepath.Join(cacheDir, "screenshots")
	}
	if err := os.MkdirAll(outputDir, 0700); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &App{
		cfg:       cfg,
		store:     st,
		notifier:  notif,
		outputDir: outputDir,
	}, nil
}

// CaptureAll captures every configured target. The browser is launched once
// and each capture gets its own tab. A failed target is logged and does not
// stop the rest; the combined error is returned at the end.
func (a *App) CaptureAll(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, browser.Options(a.cfg.Browser)...)
	defer allocCancel()

	var errs []error
	for _, t := range a.cfg.Targets {
		log.Printf("[app] Capturing %s (%s)", t.Name, t.URL)
		if err := a.captureTarget(allocCtx, t); err != nil {
			log.Printf("[app] Capture %s failed: %v", t.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
		}
	}
	return errors.Join(errs...)
}

// captureTarget captures a target once per configured interval. A target
// without intervals is captured once, straight off its URL.
func (a *App) captureTarget(allocCtx context.Context, t config.TargetConfig) error {
	intervals := t.Intervals
	if len(intervals) == 0 {
		intervals = []string{""}
	}

	var errs []error
	for _, iv := range intervals {
		if err := a.captureInterval(allocCtx, t, iv); err != nil {
			if iv != "" {
				err = fmt.Errorf("interval %s: %w", iv, err)
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// captureInterval captures one target at one chart interval in a fresh
// browser tab, records it, and delivers it when sending is enabled.
func (a *App) captureInterval(allocCtx context.Context, t config.TargetConfig, interval string) error {
	pageURL, err := targetURL(t.URL, interval)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, targetTimeout)
	defer timeoutCancel()

	pg := page.Chrome{}
	if err := pg.Navigate(tabCtx, pageURL); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	// Chart widgets draw well after load; give them time.
	time.Sleep(time.Duration(a.cfg.Capture.LoadWaitSeconds) * time.Second)

	capture.Dismiss(tabCtx, pg, a.cfg.Capture.DismissSelectors...)

	comp := &capture.Compositor{
		WaitTimeout: time.Duration(a.cfg.Capture.WaitTimeoutSeconds) * time.Second,
		SettleDelay: time.Duration(a.cfg.Capture.SettleDelayMS) * time.Millisecond,
	}

	outPath := filepath.Join(a.outputDir, Filename(t.Name, interval, time.Now()))

	var res *capture.Result
	if t.Full {
		res, err = comp.CaptureFull(tabCtx, pg, t.Selector, outPath, a.cfg.Capture.MaxSingleHeight)
	} else {
		res, err = comp.CaptureElement(tabCtx, pg, t.Selector, outPath)
	}
	if err != nil {
		return err
	}
	log.Printf("[app] Saved %s (%dx%d, tiled=%v)", outPath, res.Width, res.Height, res.Tiled)

	rec := &store.Capture{
		Target:     t.Name,
		Interval:   interval,
		URL:        pageURL,
		Selector:   t.Selector,
		FilePath:   outPath,
		Width:      res.Width,
		Height:     res.Height,
		Tiled:      res.Tiled,
		CapturedAt: time.Now(),
	}
	if err := a.store.SaveCapture(rec); err != nil {
		return fmt.Errorf("record capture: %w", err)
	}

	if a.notifier == nil || !a.cfg.Telegram.Send {
		return nil
	}

	caption := Caption(t.Name, interval, rec.CapturedAt)
	if err := a.notifier.SendCapture(allocCtx, outPath, caption); err != nil {
		if dbErr := a.store.MarkSendError(rec.ID, err.Error()); dbErr != nil {
			log.Printf("[app] Failed to record send error: %v", dbErr)
		}
		return fmt.Errorf("send capture: %w", err)
	}
	if err := a.store.MarkSent(rec.ID, time.Now()); err != nil {
		log.Printf("[app] Failed to mark capture sent: %v", err)
	}
	log.Printf("[app] Sent %s to Telegram", t.Name)
	return nil
}

// targetURL sets the chart interval as a query parameter on the target URL.
// An empty interval leaves the URL untouched.
func targetURL(rawURL, interval string) (string, error) {
	if interval == "" {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("interval", interval)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Caption labels a delivered capture with its target, interval and time.
func Caption(target, interval string, at time.Time) string {
	ts := at.Format("2006-01-02 15:04")
	if interval == "" {
		return fmt.Sprintf("%s @ %s", target, ts)
	}
	return fmt.Sprintf("%s %s @ %s", target, interval, ts)
}

// SendDailyReport summarizes the last 24 hours of captures as a text message.
func (a *App) SendDailyReport(ctx context.Context) error {
	if a.notifier == nil {
		return fmt.Errorf("reporting requires a configured notifier")
	}

	since := time.Now().Add(-24 * time.Hour)
	stats, err := a.store.StatsSince(since)
	if err != nil {
		return fmt.Errorf("load stats: %w", err)
	}

	r, err := report.Build(stats, since)
	if err != nil {
		log.Printf("[app] No report to send: %v", err)
		return nil
	}
	return a.notifier.SendReport(ctx, r.Text)
}

// Filename builds a screenshot file name from a target name and interval,
// replacing characters that are path separators or awkward on common
// filesystems. "NSE:NIFTY" at interval "15" becomes
// "NSE_NIFTY_15_<timestamp>.png".
func Filename(target, interval string, at time.Time) string {
	r := strings.NewReplacer(
		":", "_",
		"/", "_",
		"\\", "_",
		" ", "_",
	)
	name := r.Replace(target)
	if interval != "" {
		name += "_" + r.Replace(interval)
	}
	return fmt.Sprintf("%s_%s.png", name, at.Format("20060102_150405"))
}
