// File: internal/verify/crawler.go
package verify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/privsuite/verify-cli/internal/browser"
	"github.com/privsuite/verify-cli/internal/config"
	"github.com/privsuite/verify-cli/internal/inspect"
)

// Browser is the full session surface the crawl consumes.
type Browser interface {
	PageVisitor
	AuthBrowser
}

// the real session satisfies the crawl surface
var _ Browser = (*browser.Session)(nil)

// Crawler owns the run state: the frontier, the accumulating report,
// and the single browser tab everything is tested through. Strictly
// sequential; no locking is needed because there is no concurrency.
type Crawler struct {
	cfg       *config.Config
	browser   Browser
	scope     *Scope
	frontier  *Frontier
	evaluator *Evaluator
	auth      *AuthGate
	report    *Report
	logger    *zap.Logger
	out       io.Writer
}

// NewCrawler assembles a crawler for one verification run. Progress
// lines are written to out.
func NewCrawler(cfg *config.Config, b Browser, out io.Writer, logger *zap.Logger) (*Crawler, error) {
	scope, err := NewScope(cfg.Target.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize crawl scope: %w", err)
	}

	runID := uuid.New().String()
	log := logger.Named("crawler").With(zap.String("run_id", runID[:8]))

	return &Crawler{
		cfg:       cfg,
		browser:   b,
		scope:     scope,
		frontier:  NewFrontier(),
		evaluator: NewEvaluator(b, scope, cfg.Output.Dir, logger),
		auth:      NewAuthGate(b, scope, cfg.Target.DevEmail, cfg.Crawl.AuthWait, cfg.Output.Dir, logger),
		report:    NewReport(runID),
		logger:    log,
		out:       out,
	}, nil
}

// Run executes the full verification: public routes, authentication,
// static seeds, dynamic-route harvest, then the breadth-first crawl up
// to the page cap. The report is always compiled, even on auth failure,
// so partial results are still reported.
func (c *Crawler) Run(ctx context.Context) (*Report, error) {
	if err := os.MkdirAll(c.cfg.Output.Dir, 0o755); err != nil {
		return c.finish(), fmt.Errorf("could not create output directory: %w", err)
	}

	c.logger.Info("Starting verification run",
		zap.String("base_url", c.scope.BaseURL()),
		zap.Int("max_pages", c.cfg.Crawl.MaxPages),
	)

	// Public routes come first: they need no session, and testing them
	// before the auth gate means an auth failure still yields results.
	fmt.Fprintln(c.out, "\nTesting public routes...")
	for _, route := range c.cfg.Routes.Public {
		if err := ctx.Err(); err != nil {
			return c.finish(), err
		}
		url := c.scope.PageURL(route)
		if c.frontier.Visited(url) {
			continue
		}
		c.testPage(ctx, url)
	}

	if err := c.auth.SignIn(ctx); err != nil {
		fmt.Fprintln(c.out, "\nAuthentication failed; protected routes were not tested.")
		return c.finish(), fmt.Errorf("authentication failed: %w", err)
	}

	for _, route := range c.cfg.Routes.Static {
		c.frontier.Enqueue(c.scope.PageURL(route))
	}

	c.harvestDynamicRoutes(ctx)

	fmt.Fprintf(c.out, "\nTesting %d pages...\n", c.frontier.PendingLen())
	tested := 0
	for tested < c.cfg.Crawl.MaxPages {
		if err := ctx.Err(); err != nil {
			return c.finish(), err
		}
		url, ok := c.frontier.Dequeue()
		if !ok {
			break
		}
		if c.frontier.Visited(url) {
			continue
		}
		if !c.scope.Contains(url) {
			continue
		}
		fmt.Fprintf(c.out, "  [%d] Testing: %s\n", tested+1, strings.TrimPrefix(url, c.scope.BaseURL()))
		c.testPage(ctx, url)
		tested++
	}

	return c.finish(), nil
}

// finish compiles the report exactly where the run stopped.
func (c *Crawler) finish() *Report {
	c.report.Compile()
	return c.report
}

// testPage evaluates one URL, records the result, and feeds newly
// discovered links into the frontier.
func (c *Crawler) testPage(ctx context.Context, url string) {
	result := c.evaluator.Evaluate(ctx, url)
	c.frontier.MarkVisited(url)

	for _, link := range result.LinksFound {
		// Unresolved route templates cannot be navigated; their concrete
		// counterparts are harvested from list pages instead.
		if IsDynamicRoute(link) {
			continue
		}
		c.frontier.Enqueue(link)
	}

	c.report.Append(result)
	c.printResult(result)
}

// harvestDynamicRoutes visits each configured list page and takes the
// first N detail links per category. Failures here are logged, never
// fatal: a broken list page will surface as an error result when the
// page itself is crawled.
func (c *Crawler) harvestDynamicRoutes(ctx context.Context) {
	fmt.Fprintln(c.out, "\nDiscovering dynamic content...")

	for _, cat := range c.cfg.Routes.Dynamic {
		if ctx.Err() != nil {
			return
		}
		listURL := c.scope.PageURL(cat.ListPath)
		visit, err := c.browser.Visit(ctx, listURL)
		if err != nil {
			c.logger.Warn("Could not load list page for harvest", zap.String("url", listURL), zap.Error(err))
			continue
		}

		facts, err := inspect.Extract(visit.HTML)
		if err != nil {
			c.logger.Warn("Could not inspect list page", zap.String("url", listURL), zap.Error(err))
			continue
		}

		taken := 0
		for _, href := range facts.Links {
			if taken >= cat.Limit {
				break
			}
			normalized, ok := c.scope.Normalize(href)
			if !ok {
				continue
			}
			path := Path(normalized)
			if !strings.HasPrefix(path, cat.LinkPrefix) {
				continue
			}
			if excluded(path, cat.Exclude) || IsDynamicRoute(path) {
				continue
			}
			if c.frontier.Enqueue(normalized) {
				fmt.Fprintf(c.out, "  Found: %s\n", normalized)
				taken++
			}
		}
	}
}

// excluded reports whether the path matches any exclusion substring.
func excluded(path string, exclusions []string) bool {
	for _, ex := range exclusions {
		if strings.Contains(path, ex) {
			return true
		}
	}
	return false
}

// printResult writes one per-page progress line.
func (c *Crawler) printResult(res PageResult) {
	line := fmt.Sprintf("    %s (%dms)", strings.ToUpper(string(res.Status)), res.LoadTimeMS)
	if n := len(res.ConsoleErrors); n > 0 {
		line += fmt.Sprintf(" - %d console errors", n)
	}
	if res.ErrorMessage != "" {
		line += " - " + truncate(res.ErrorMessage, 50)
	}
	fmt.Fprintln(c.out, line)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
