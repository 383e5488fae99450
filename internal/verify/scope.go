// File: internal/verify/scope.go
package verify

import (
	"fmt"
	"net/url"
	"strings"
)

// Scope pins the crawl to one exact origin: the scheme and host of the
// configured base URL. Unlike a domain-wide scope, subdomains and
// sibling ports are out; everything the verifier tests must belong to
// the single deployment under test.
type Scope struct {
	base *url.URL
}

// NewScope initializes a scope from the base URL of the deployment.
func NewScope(baseURL string) (*Scope, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must use http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL must have a host: %s", baseURL)
	}
	// Routes are joined onto the bare origin.
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return &Scope{base: u}, nil
}

// BaseURL returns the bare origin, e.g. "http://localhost:3001".
func (s *Scope) BaseURL() string {
	return s.base.String()
}

// PageURL joins an application route onto the base origin.
func (s *Scope) PageURL(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return s.base.String() + route
}

// Contains reports whether an absolute URL belongs to the base origin.
func (s *Scope) Contains(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == s.base.Scheme && u.Host == s.base.Host
}

// nonNavigableSchemes lists href prefixes that never lead to a page.
var nonNavigableSchemes = []string{"#", "javascript:", "mailto:", "tel:"}

// Normalize resolves a raw href against the base origin and reports
// whether it is a navigable, in-origin URL. Fragments are stripped so
// anchor variants of one page dedupe to a single frontier entry.
// Malformed hrefs are skipped, never fatal.
func (s *Scope) Normalize(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	for _, prefix := range nonNavigableSchemes {
		if strings.HasPrefix(href, prefix) {
			return "", false
		}
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := s.base.ResolveReference(u)
	resolved.Fragment = ""

	if resolved.Scheme != s.base.Scheme || resolved.Host != s.base.Host {
		return "", false
	}
	if resolved.Path == "" {
		resolved.Path = "/"
	}
	return resolved.String(), true
}

// Path extracts the path component of an absolute URL, or "" when the
// URL cannot be parsed.
func Path(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Path
}
