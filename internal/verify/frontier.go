// File: internal/verify/frontier.go
package verify

import "regexp"

// dynamicSegment matches an unresolved route-parameter segment such as
// "/privacy/dsar/[id]". Such paths cannot be navigated without a
// concrete identifier.
var dynamicSegment = regexp.MustCompile(`/\[[^\]]*\]`)

// IsDynamicRoute reports whether the URL or path contains a bracketed
// template segment.
func IsDynamicRoute(ref string) bool {
	return dynamicSegment.MatchString(ref)
}

// Frontier drives the breadth-first crawl: a membership-only visited
// set plus a FIFO queue of pending URLs. A URL in visited is never
// re-enqueued, and a URL already pending is never added twice.
type Frontier struct {
	visited map[string]struct{}
	queued  map[string]struct{}
	pending []string
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		visited: make(map[string]struct{}),
		queued:  make(map[string]struct{}),
	}
}

// Enqueue adds a URL to the pending queue unless it was already visited
// or is already queued. Returns true when the URL was accepted.
func (f *Frontier) Enqueue(url string) bool {
	if _, seen := f.visited[url]; seen {
		return false
	}
	if _, waiting := f.queued[url]; waiting {
		return false
	}
	f.queued[url] = struct{}{}
	f.pending = append(f.pending, url)
	return true
}

// Dequeue pops the oldest pending URL. ok is false when the queue is
// empty.
func (f *Frontier) Dequeue() (url string, ok bool) {
	if len(f.pending) == 0 {
		return "", false
	}
	url = f.pending[0]
	f.pending = f.pending[1:]
	delete(f.queued, url)
	return url, true
}

// MarkVisited records a URL as tested.
func (f *Frontier) MarkVisited(url string) {
	f.visited[url] = struct{}{}
}

// Visited reports whether the URL was already tested.
func (f *Frontier) Visited(url string) bool {
	_, seen := f.visited[url]
	return seen
}

// PendingLen returns the number of URLs waiting in the queue.
func (f *Frontier) PendingLen() int {
	return len(f.pending)
}

// VisitedLen returns the number of URLs tested so far.
func (f *Frontier) VisitedLen() int {
	return len(f.visited)
}
