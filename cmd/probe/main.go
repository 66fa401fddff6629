// Command probe opens a capture target in a visible browser window and
// outlines the configured selector, so you can verify it matches the chart
// before scheduling captures. Chart sites change their DOM often; run this
// when captures start coming back wrong.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chromedp/chromedp"

	"github.com/chartsnap/chartsnap/internal/browser"
	"github.com/chartsnap/chartsnap/internal/config"
	"github.com/chartsnap/chartsnap/internal/page"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if len(cfg.Targets) == 0 {
		log.Fatal("No targets configured")
	}

	target := cfg.Targets[0]
	if len(os.Args) > 1 {
		found := false
		for _, t := range cfg.Targets {
			if t.Name == os.Args[1] {
				target, found = t, true
				break
			}
		}
		if !found {
			log.Fatalf("No target named %q in config", os.Args[1])
		}
	}

	log.Printf("Probing %s (%s)", target.Name, target.URL)

	browserCfg := cfg.Browser
	browserCfg.Headless = false // you need to see the outline

	opts := browser.Options(browserCfg)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	pg := page.Chrome{}
	if err := pg.Navigate(ctx, target.URL); err != nil {
		log.Fatalf("Failed to navigate: %v", err)
	}
	if err := pg.WaitVisible(ctx, target.Selector); err != nil {
		log.Fatalf("Selector %q never became visible: %v", target.Selector, err)
	}

	if err := chromedp.Run(ctx, chromedp.Evaluate(outlineJS(target.Selector), nil)); err != nil {
		log.Printf("Failed to outline element: %v", err)
	} else {
		m, err := pg.Metrics(ctx, target.Selector)
		if err != nil {
			log.Printf("Geometry query failed: %v", err)
		} else {
			log.Printf("Element: %.0fx%.0f at (%.0f, %.0f), document %dx%d",
				m.Width, m.Height, m.Left, m.Top+m.ScrollY, m.DocWidth, m.DocHeight)
		}
	}

	fmt.Println("Press Enter to close the browser...")
	fmt.Scanln()

	log.Println("Done.")
}

func outlineJS(locator string) string {
	return fmt.Sprintf(`(() => {
		const loc = %q;
		let e;
		if (loc.startsWith('/') || loc.startsWith('(')) {
			e = document.evaluate(loc, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		} else {
			e = document.querySelector(loc);
		}
		if (e) e.style.outline = '3px solid red';
		return e !== null;
	})()`, locator)
}
