// File: internal/browser/recorder.go
package browser

import (
	"context"
	"strings"
	"sync"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ConsoleEntry is one console message emitted while a recording scope
// was open.
type ConsoleEntry struct {
	Level string
	Text  string
}

// Recorder collects console messages and the document response status
// for exactly one navigation at a time. The listener is attached once
// per tab; events are only buffered between Begin and Drain, which
// keeps every event attributed to the page that produced it.
type Recorder struct {
	mu        sync.Mutex
	armed     bool
	entries   []ConsoleEntry
	docStatus int
}

// NewRecorder attaches a recorder to the given tab context.
func NewRecorder(tabCtx context.Context) *Recorder {
	r := &Recorder{}
	chromedp.ListenTarget(tabCtx, r.handle)
	return r
}

func (r *Recorder) handle(ev interface{}) {
	switch ev := ev.(type) {
	case *runtime.EventConsoleAPICalled:
		level := string(ev.Type)
		if level != "error" && level != "warning" {
			return
		}
		r.append(ConsoleEntry{Level: level, Text: formatConsoleArgs(ev.Args)})
	case *runtime.EventExceptionThrown:
		r.append(ConsoleEntry{Level: "error", Text: ev.ExceptionDetails.Error()})
	case *cdplog.EventEntryAdded:
		// Browser-generated entries (failed requests, security issues).
		// Script errors arrive via the runtime events above; skip the
		// javascript source so exceptions are not counted twice.
		if ev.Entry.Source == cdplog.SourceJavascript {
			return
		}
		switch ev.Entry.Level {
		case cdplog.LevelError:
			r.append(ConsoleEntry{Level: "error", Text: ev.Entry.Text})
		case cdplog.LevelWarning:
			r.append(ConsoleEntry{Level: "warning", Text: ev.Entry.Text})
		}
	case *network.EventResponseReceived:
		if ev.Type == network.ResourceTypeDocument {
			r.mu.Lock()
			if r.armed {
				r.docStatus = int(ev.Response.Status)
			}
			r.mu.Unlock()
		}
	}
}

func (r *Recorder) append(e ConsoleEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return
	}
	r.entries = append(r.entries, e)
}

// Begin opens a recording scope, discarding anything buffered before.
func (r *Recorder) Begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
	r.entries = nil
	r.docStatus = 0
}

// Drain closes the scope and returns the collected console entries and
// the last document response status (0 if none was observed).
func (r *Recorder) Drain() ([]ConsoleEntry, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = false
	entries := r.entries
	r.entries = nil
	return entries, r.docStatus
}

// formatConsoleArgs renders console call arguments into a single line,
// preferring the remote object description over its raw JSON value.
func formatConsoleArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		switch {
		case arg.Description != "":
			parts = append(parts, arg.Description)
		case len(arg.Value) > 0:
			parts = append(parts, strings.Trim(string(arg.Value), `"`))
		default:
			parts = append(parts, string(arg.Type))
		}
	}
	return strings.Join(parts, " ")
}
