package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/privsuite/verify-cli/internal/browser"
)

// -- Mocks and Test Helpers --

// mockVisitor simulates a browser session for the evaluator tests. No
// real browser is involved, which keeps these tests fast.
type mockVisitor struct {
	// visits maps URL to the canned evidence for that page.
	visits map[string]*browser.Visit
	// failNav marks URLs whose navigation should fail outright.
	failNav map[string]error
	// screenshots records every capture request.
	screenshots []string
	failShots   bool
}

func (m *mockVisitor) Visit(_ context.Context, url string) (*browser.Visit, error) {
	if err, ok := m.failNav[url]; ok {
		return &browser.Visit{URL: url}, err
	}
	if v, ok := m.visits[url]; ok {
		return v, nil
	}
	return &browser.Visit{URL: url, HTTPStatus: 200, HTML: "<html><body></body></html>"}, nil
}

func (m *mockVisitor) Screenshot(_ context.Context, path string) error {
	if m.failShots {
		return fmt.Errorf("mockVisitor: capture failed")
	}
	m.screenshots = append(m.screenshots, path)
	return nil
}

func newTestEvaluator(t *testing.T, visitor *mockVisitor) *Evaluator {
	t.Helper()
	scope, err := NewScope("http://localhost:3001")
	require.NoError(t, err)
	return NewEvaluator(visitor, scope, t.TempDir(), zap.NewNop())
}

// -- Test Cases --

func TestEvaluateHealthyPage(t *testing.T) {
	visitor := &mockVisitor{
		visits: map[string]*browser.Visit{
			"http://localhost:3001/privacy": {
				URL:        "http://localhost:3001/privacy",
				HTTPStatus: 200,
				BodyText:   "Privacy Dashboard",
				HTML: `<html><body>
					<a href="/privacy/dsar">Requests</a>
					<a href="https://example.com/docs">Docs</a>
					<form><button type="submit">Save</button></form>
				</body></html>`,
			},
		},
	}
	e := newTestEvaluator(t, visitor)

	res := e.Evaluate(context.Background(), "http://localhost:3001/privacy")

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 200, res.HTTPStatus)
	assert.Empty(t, res.ScreenshotPath, "healthy pages are not screenshotted")
	// Only the in-origin link survives normalization.
	assert.Equal(t, []string{"http://localhost:3001/privacy/dsar"}, res.LinksFound)
	assert.Equal(t, 1, res.ButtonsFound)
	assert.Equal(t, 1, res.FormsFound)
	assert.Equal(t, 0, res.SuspectButtons)
	assert.Empty(t, visitor.screenshots)
}

func TestEvaluateClassification(t *testing.T) {
	testCases := []struct {
		name       string
		visit      *browser.Visit
		wantStatus PageStatus
		wantShot   bool
	}{
		{
			name:       "http 404 fails the page",
			visit:      &browser.Visit{HTTPStatus: 404, BodyText: "ok", HTML: "<html></html>"},
			wantStatus: StatusError,
			wantShot:   true,
		},
		{
			name:       "error indicator in body fails the page",
			visit:      &browser.Visit{HTTPStatus: 200, BodyText: "Something went wrong on our end", HTML: "<html></html>"},
			wantStatus: StatusError,
			wantShot:   true,
		},
		{
			name:       "indicator match is case-insensitive",
			visit:      &browser.Visit{HTTPStatus: 200, BodyText: "UNHANDLED RUNTIME ERROR", HTML: "<html></html>"},
			wantStatus: StatusError,
			wantShot:   true,
		},
		{
			name:       "framework error overlay fails the page",
			visit:      &browser.Visit{HTTPStatus: 200, BodyText: "fine", HTML: `<html><body><div data-nextjs-dialog></div></body></html>`},
			wantStatus: StatusError,
			wantShot:   true,
		},
		{
			name:       "console errors downgrade to warning",
			visit:      &browser.Visit{HTTPStatus: 200, BodyText: "fine", HTML: "<html></html>", ConsoleErrors: []string{"TypeError: x is undefined"}},
			wantStatus: StatusWarning,
			wantShot:   true,
		},
		{
			name:       "page error wins over console errors",
			visit:      &browser.Visit{HTTPStatus: 500, BodyText: "fine", HTML: "<html></html>", ConsoleErrors: []string{"boom"}},
			wantStatus: StatusError,
			wantShot:   true,
		},
		{
			name:       "console warnings alone stay success",
			visit:      &browser.Visit{HTTPStatus: 200, BodyText: "fine", HTML: "<html></html>", ConsoleWarnings: []string{"deprecated API"}},
			wantStatus: StatusSuccess,
			wantShot:   false,
		},
		{
			name:       "missing document status defaults to 200",
			visit:      &browser.Visit{HTTPStatus: 0, BodyText: "fine", HTML: "<html></html>"},
			wantStatus: StatusSuccess,
			wantShot:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			url := "http://localhost:3001/page"
			tc.visit.URL = url
			visitor := &mockVisitor{visits: map[string]*browser.Visit{url: tc.visit}}
			e := newTestEvaluator(t, visitor)

			res := e.Evaluate(context.Background(), url)

			assert.Equal(t, tc.wantStatus, res.Status)
			if tc.wantShot {
				assert.NotEmpty(t, res.ScreenshotPath)
				require.Len(t, visitor.screenshots, 1)
			} else {
				assert.Empty(t, res.ScreenshotPath)
				assert.Empty(t, visitor.screenshots)
			}
		})
	}
}

// TestEvaluateNavigationFailure verifies a dead server becomes an error
// result instead of aborting the crawl.
func TestEvaluateNavigationFailure(t *testing.T) {
	url := "http://localhost:3001/broken"
	visitor := &mockVisitor{
		failNav: map[string]error{url: fmt.Errorf("navigation to %s failed: connection refused", url)},
	}
	e := newTestEvaluator(t, visitor)

	res := e.Evaluate(context.Background(), url)

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.ErrorMessage, "connection refused")
	assert.NotEmpty(t, res.ScreenshotPath)
}

// TestEvaluateScreenshotFailure verifies a failed capture degrades to
// an empty path while the classification stands.
func TestEvaluateScreenshotFailure(t *testing.T) {
	url := "http://localhost:3001/missing"
	visitor := &mockVisitor{
		visits: map[string]*browser.Visit{
			url: {URL: url, HTTPStatus: 404, HTML: "<html></html>"},
		},
		failShots: true,
	}
	e := newTestEvaluator(t, visitor)

	res := e.Evaluate(context.Background(), url)

	assert.Equal(t, StatusError, res.Status)
	assert.Empty(t, res.ScreenshotPath)
}

func TestScreenshotNaming(t *testing.T) {
	url := "http://localhost:3001/privacy/dsar/req-1"
	visitor := &mockVisitor{
		visits: map[string]*browser.Visit{
			url: {URL: url, HTTPStatus: 404, HTML: "<html></html>"},
		},
	}
	e := newTestEvaluator(t, visitor)

	res := e.Evaluate(context.Background(), url)

	require.NotEmpty(t, res.ScreenshotPath)
	name := filepath.Base(res.ScreenshotPath)
	assert.Contains(t, name, "error_privacy_dsar_req-1_")
	assert.Equal(t, ".png", filepath.Ext(name))

	// The directory must exist even though the mock wrote nothing.
	_, err := os.Stat(filepath.Dir(res.ScreenshotPath))
	assert.NoError(t, err)
}

func TestContainsErrorIndicator(t *testing.T) {
	assert.True(t, containsErrorIndicator("Error 404: page missing"))
	assert.True(t, containsErrorIndicator("An unexpected error occurred"))
	assert.False(t, containsErrorIndicator("All 42 records loaded"))
	assert.False(t, containsErrorIndicator(""))
}

func TestSanitizePath(t *testing.T) {
	assert.Equal(t, "root", sanitizePath("http://localhost:3001/"))
	assert.Equal(t, "root", sanitizePath("http://localhost:3001"))
	assert.Equal(t, "privacy_vendors", sanitizePath("http://localhost:3001/privacy/vendors"))
}
