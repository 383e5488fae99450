// File: internal/verify/evaluator.go
package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/privsuite/verify-cli/internal/browser"
	"github.com/privsuite/verify-cli/internal/inspect"
)

// errorIndicators are the fixed phrases whose presence in rendered body
// text marks a page as failed.
var errorIndicators = []string{
	"404",
	"not found",
	"error occurred",
	"something went wrong",
	"unhandled runtime error",
	"application error",
}

// PageVisitor is the slice of the browser session the evaluator needs.
type PageVisitor interface {
	Visit(ctx context.Context, url string) (*browser.Visit, error)
	Screenshot(ctx context.Context, path string) error
}

// Evaluator classifies a single page into success/warning/error and
// extracts its structural facts.
type Evaluator struct {
	browser PageVisitor
	scope   *Scope
	shotDir string
	logger  *zap.Logger
	// now is swappable for deterministic screenshot names in tests.
	now func() time.Time
}

// NewEvaluator wires an evaluator against a page visitor.
func NewEvaluator(visitor PageVisitor, scope *Scope, shotDir string, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		browser: visitor,
		scope:   scope,
		shotDir: shotDir,
		logger:  logger.Named("evaluator"),
		now:     time.Now,
	}
}

// Evaluate tests one URL. Navigation failures are recovered into an
// error-status result; they never propagate.
func (e *Evaluator) Evaluate(ctx context.Context, url string) PageResult {
	result := PageResult{URL: url, Status: StatusPending}

	visit, err := e.browser.Visit(ctx, url)
	if visit == nil {
		visit = &browser.Visit{URL: url}
	}

	result.LoadTimeMS = visit.LoadTime.Milliseconds()
	result.HTTPStatus = visit.HTTPStatus
	result.ConsoleErrors = visit.ConsoleErrors
	result.ConsoleWarnings = visit.ConsoleWarnings

	if err != nil {
		result.Status = StatusError
		result.ErrorMessage = err.Error()
		result.ScreenshotPath = e.capture(ctx, url, "error")
		return result
	}
	if result.HTTPStatus == 0 {
		// No document response observed; the navigation succeeded, so
		// assume OK the way a missing status always has been treated.
		result.HTTPStatus = 200
	}

	facts, ferr := inspect.Extract(visit.HTML)
	if ferr != nil {
		// Inspection is best-effort; classification still proceeds on
		// body text and status alone.
		e.logger.Warn("Page snapshot inspection failed", zap.String("url", url), zap.Error(ferr))
		facts = &inspect.PageFacts{}
	}

	for _, href := range facts.Links {
		if normalized, ok := e.scope.Normalize(href); ok {
			result.LinksFound = append(result.LinksFound, normalized)
		}
	}
	result.ButtonsFound = facts.Buttons
	result.FormsFound = facts.Forms
	result.SuspectButtons = facts.SuspectButtons

	hasError := containsErrorIndicator(visit.BodyText)
	if facts.HasErrorOverlay {
		hasError = true
		result.ErrorMessage = "framework error overlay detected"
	}

	switch {
	case hasError || result.HTTPStatus >= 400:
		result.Status = StatusError
		result.ScreenshotPath = e.capture(ctx, url, "error")
	case len(result.ConsoleErrors) > 0:
		result.Status = StatusWarning
		result.ScreenshotPath = e.capture(ctx, url, "warning")
	default:
		result.Status = StatusSuccess
	}

	return result
}

// capture takes a best-effort full-page screenshot and returns its
// path, or "" when the capture itself failed.
func (e *Evaluator) capture(ctx context.Context, url, prefix string) string {
	if err := os.MkdirAll(e.shotDir, 0o755); err != nil {
		e.logger.Warn("Could not create screenshot directory", zap.Error(err))
		return ""
	}
	path := filepath.Join(e.shotDir, fmt.Sprintf("%s_%s_%d.png", prefix, sanitizePath(url), e.now().Unix()))
	if err := e.browser.Screenshot(ctx, path); err != nil {
		e.logger.Warn("Screenshot capture failed", zap.String("url", url), zap.Error(err))
		return ""
	}
	return path
}

// sanitizePath turns a URL path into a filename-safe fragment.
func sanitizePath(rawURL string) string {
	p := Path(rawURL)
	if p == "" || p == "/" {
		return "root"
	}
	return strings.ReplaceAll(strings.Trim(p, "/"), "/", "_")
}

// containsErrorIndicator scans rendered text for the fixed phrases.
func containsErrorIndicator(bodyText string) bool {
	text := strings.ToLower(bodyText)
	for _, indicator := range errorIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}
