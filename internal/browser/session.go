// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/privsuite/verify-cli/internal/config"
)

// Visit is the raw evidence gathered from navigating to one URL. It is
// returned even when navigation fails so callers can still use whatever
// was recorded before the failure.
type Visit struct {
	URL             string
	HTTPStatus      int
	BodyText        string
	HTML            string
	ConsoleErrors   []string
	ConsoleWarnings []string
	LoadTime        time.Duration
}

// Session owns one browser tab. All operations are strictly sequential;
// one navigation is outstanding at a time.
type Session struct {
	ctx        context.Context
	cancel     context.CancelFunc
	logger     *zap.Logger
	recorder   *Recorder
	navTimeout time.Duration
	settleWait time.Duration
	// pacer throttles actions when slow-mo is requested. Nil when disabled.
	pacer *rate.Limiter
}

func newSession(allocCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:        tabCtx,
		cancel:     cancel,
		logger:     logger.Named("session"),
		navTimeout: cfg.Crawl.NavigationTimeout,
		settleWait: cfg.Crawl.SettleWait,
	}
	if cfg.Browser.SlowMoMs > 0 {
		s.pacer = rate.NewLimiter(rate.Every(time.Duration(cfg.Browser.SlowMoMs)*time.Millisecond), 1)
	}

	s.recorder = NewRecorder(tabCtx)

	// Enable the CDP domains the recorder listens on. The cache is
	// disabled so every visit observes a fresh document response.
	if err := chromedp.Run(tabCtx,
		runtime.Enable(),
		cdplog.Enable(),
		network.Enable(),
		network.SetCacheDisabled(true),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to enable CDP domains: %w", err)
	}

	return s, nil
}

// pace blocks until the slow-mo limiter permits the next action.
func (s *Session) pace(ctx context.Context) error {
	if s.pacer == nil {
		return nil
	}
	return s.pacer.Wait(ctx)
}

// Visit navigates to a URL inside a fresh recording scope and returns
// the collected evidence. The returned Visit is non-nil even on error.
func (s *Session) Visit(ctx context.Context, url string) (*Visit, error) {
	if err := s.pace(ctx); err != nil {
		return &Visit{URL: url}, err
	}

	s.logger.Debug("Navigating", zap.String("url", url))
	s.recorder.Begin()

	visit := &Visit{URL: url}
	start := time.Now()

	navCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Extra time for client-side rendering to settle.
		chromedp.Sleep(s.settleWait),
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &visit.BodyText),
		chromedp.OuterHTML("html", &visit.HTML, chromedp.ByQuery),
	)

	visit.LoadTime = time.Since(start)

	entries, status := s.recorder.Drain()
	visit.HTTPStatus = status
	for _, e := range entries {
		switch e.Level {
		case "error":
			visit.ConsoleErrors = append(visit.ConsoleErrors, e.Text)
		case "warning":
			visit.ConsoleWarnings = append(visit.ConsoleWarnings, e.Text)
		}
	}

	if err != nil {
		return visit, fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return visit, nil
}

// Screenshot captures a full-page screenshot to the given path.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	shotCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	if err := chromedp.Run(shotCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot %s: %w", path, err)
	}
	return nil
}

// CurrentURL returns the tab's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := chromedp.Run(s.ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return loc, nil
}

// IsVisible reports whether the first element matching the selector is
// present and rendered.
func (s *Session) IsVisible(ctx context.Context, selector string) (bool, error) {
	var visible bool
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		const r = el.getBoundingClientRect();
		return !!(el.offsetParent !== null || (r.width > 0 && r.height > 0));
	})()`, selector)
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(script, &visible)); err != nil {
		return false, fmt.Errorf("visibility check for %q failed: %w", selector, err)
	}
	return visible, nil
}

// Fill types a value into the input matching the selector.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	if err := s.pace(ctx); err != nil {
		return err
	}
	actCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	if err := chromedp.Run(actCtx, chromedp.SendKeys(selector, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("fill %q failed: %w", selector, err)
	}
	return nil
}

// ClickText clicks the first button whose text contains the given label.
func (s *Session) ClickText(ctx context.Context, label string) error {
	if err := s.pace(ctx); err != nil {
		return err
	}
	actCtx, cancel := context.WithTimeout(s.ctx, s.navTimeout)
	defer cancel()
	xpath := fmt.Sprintf(`//button[contains(normalize-space(.), %q)]`, label)
	if err := chromedp.Run(actCtx, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
		return fmt.Errorf("click on button %q failed: %w", label, err)
	}
	return nil
}

// WaitSettle sleeps for the given duration, respecting cancellation.
func (s *Session) WaitSettle(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Close terminates the tab.
func (s *Session) Close() {
	s.cancel()
}
