// File: internal/verify/auth.go
package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/privsuite/verify-cli/internal/browser"
)

const (
	signInPath       = "/sign-in"
	devEmailSelector = "#dev-email"
	devSignInLabel   = "Dev Sign In"
)

// AuthBrowser is the slice of the browser session the gate needs.
type AuthBrowser interface {
	Visit(ctx context.Context, url string) (*browser.Visit, error)
	Screenshot(ctx context.Context, path string) error
	CurrentURL(ctx context.Context) (string, error)
	IsVisible(ctx context.Context, selector string) (bool, error)
	Fill(ctx context.Context, selector, value string) error
	ClickText(ctx context.Context, label string) error
	WaitSettle(ctx context.Context, d time.Duration) error
}

// AuthGate establishes an authenticated session through the
// development-mode sign-in form. Failure is fatal to the run: protected
// routes must never be crawled unauthenticated.
type AuthGate struct {
	browser  AuthBrowser
	scope    *Scope
	devEmail string
	wait     time.Duration
	shotDir  string
	logger   *zap.Logger
}

// NewAuthGate wires the gate against a browser session.
func NewAuthGate(b AuthBrowser, scope *Scope, devEmail string, wait time.Duration, shotDir string, logger *zap.Logger) *AuthGate {
	return &AuthGate{
		browser:  b,
		scope:    scope,
		devEmail: devEmail,
		wait:     wait,
		shotDir:  shotDir,
		logger:   logger.Named("auth"),
	}
}

// SignIn performs the dev-mode login flow. Success means the browser
// left the sign-in page.
func (a *AuthGate) SignIn(ctx context.Context) error {
	signInURL := a.scope.PageURL(signInPath)
	a.logger.Info("Authenticating", zap.String("email", a.devEmail), zap.String("url", signInURL))

	if _, err := a.browser.Visit(ctx, signInURL); err != nil {
		return fmt.Errorf("sign-in page unreachable: %w", err)
	}

	visible, err := a.browser.IsVisible(ctx, devEmailSelector)
	if err != nil {
		return fmt.Errorf("could not probe dev login form: %w", err)
	}
	if !visible {
		a.captureFailure(ctx)
		return fmt.Errorf("dev login form not found on %s", signInURL)
	}

	if err := a.browser.Fill(ctx, devEmailSelector, a.devEmail); err != nil {
		return fmt.Errorf("could not fill dev email field: %w", err)
	}
	if err := a.browser.ClickText(ctx, devSignInLabel); err != nil {
		return fmt.Errorf("could not submit dev sign-in: %w", err)
	}
	if err := a.browser.WaitSettle(ctx, a.wait); err != nil {
		return err
	}

	current, err := a.browser.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("could not read post-login URL: %w", err)
	}
	if !strings.Contains(current, "/privacy") && strings.Contains(current, signInPath) {
		a.captureFailure(ctx)
		return fmt.Errorf("still on sign-in page after submit: %s", current)
	}

	a.logger.Info("Authentication successful", zap.String("landed_on", current))
	return nil
}

// captureFailure takes a best-effort screenshot of the failed login state.
func (a *AuthGate) captureFailure(ctx context.Context) {
	path := filepath.Join(a.shotDir, "auth-failed.png")
	if err := a.browser.Screenshot(ctx, path); err != nil {
		a.logger.Warn("Could not capture auth failure screenshot", zap.Error(err))
	}
}
