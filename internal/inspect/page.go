// File: internal/inspect/page.go

// Package inspect extracts structural facts from a rendered-DOM HTML
// snapshot. It never touches the browser, which keeps page inspection
// deterministic and testable against plain HTML fixtures.
package inspect

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// errorOverlaySelector matches the framework's unhandled-exception
// overlay element.
const errorOverlaySelector = `[data-nextjs-dialog]`

// PageFacts holds what a single snapshot revealed.
type PageFacts struct {
	// Links are the raw href values of every anchor on the page.
	Links []string
	// Buttons and Forms count the interactive elements present.
	Buttons int
	Forms   int
	// SuspectButtons counts enabled buttons with no detectable handler
	// wiring. Informational only.
	SuspectButtons int
	// HasErrorOverlay reports the framework error overlay being present.
	HasErrorOverlay bool
}

// Extract parses the snapshot and collects page facts. Failure to
// inspect an individual element is never fatal to the whole page.
func Extract(html string) (*PageFacts, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}

	facts := &PageFacts{
		Forms:           doc.Find("form").Length(),
		HasErrorOverlay: doc.Find(errorOverlaySelector).Length() > 0,
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		facts.Links = append(facts.Links, href)
	})

	doc.Find("button").Each(func(_ int, sel *goquery.Selection) {
		facts.Buttons++
		if isSuspectButton(sel) {
			facts.SuspectButtons++
		}
	})

	return facts, nil
}

// isSuspectButton applies the handler heuristic: an enabled button that
// is not a submit control, has no inline handler, sits outside any
// form, and carries none of the attributes component libraries use to
// wire behavior is likely dead in the UI.
func isSuspectButton(sel *goquery.Selection) bool {
	if _, disabled := sel.Attr("disabled"); disabled {
		return false
	}
	if v, ok := sel.Attr("aria-disabled"); ok && v == "true" {
		return false
	}
	if _, hidden := sel.Attr("hidden"); hidden {
		return false
	}
	if t, ok := sel.Attr("type"); ok && strings.EqualFold(t, "submit") {
		return false
	}
	if _, ok := sel.Attr("onclick"); ok {
		return false
	}
	if sel.ParentsFiltered("form").Length() > 0 {
		return false
	}
	if _, ok := sel.Attr("aria-label"); ok {
		return false
	}
	if _, ok := sel.Attr("data-state"); ok {
		return false
	}
	return true
}
