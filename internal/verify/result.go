// File: internal/verify/result.go
package verify

import "time"

// PageStatus classifies the outcome of testing a single page.
type PageStatus string

const (
	StatusPending PageStatus = "pending"
	StatusSuccess PageStatus = "success"
	StatusWarning PageStatus = "warning"
	StatusError   PageStatus = "error"
)

// PageResult is the outcome of testing one URL. It is fully populated
// before being appended to the report and immutable afterwards.
type PageResult struct {
	URL             string
	Status          PageStatus
	HTTPStatus      int
	LoadTimeMS      int64
	ConsoleErrors   []string
	ConsoleWarnings []string
	LinksFound      []string
	ButtonsFound    int
	FormsFound      int
	SuspectButtons  int
	ErrorMessage    string
	ScreenshotPath  string
}

// Report aggregates one verification run. It is mutated incrementally
// as pages are tested and finalized by a single Compile pass.
type Report struct {
	RunID              string
	Timestamp          time.Time
	TotalPages         int
	PagesPassed        int
	PagesWithWarnings  int
	PagesFailed        int
	TotalConsoleErrors int
	Results            []PageResult
	BrokenLinks        []string
}

// NewReport creates an empty report stamped with the run identity.
func NewReport(runID string) *Report {
	return &Report{
		RunID:     runID,
		Timestamp: time.Now(),
	}
}

// Append records one finished page result.
func (r *Report) Append(res PageResult) {
	r.Results = append(r.Results, res)
}

// Compile tallies the aggregate counters from the results list. Safe to
// call more than once; counters are recomputed from scratch.
func (r *Report) Compile() {
	r.TotalPages = 0
	r.PagesPassed = 0
	r.PagesWithWarnings = 0
	r.PagesFailed = 0
	r.TotalConsoleErrors = 0
	r.BrokenLinks = nil

	for _, res := range r.Results {
		r.TotalPages++
		switch res.Status {
		case StatusSuccess:
			r.PagesPassed++
		case StatusWarning:
			r.PagesWithWarnings++
		default:
			r.PagesFailed++
			r.BrokenLinks = append(r.BrokenLinks, res.URL)
		}
		r.TotalConsoleErrors += len(res.ConsoleErrors)
	}
}

// Succeeded reports overall run success: zero failed pages. Warnings do
// not fail the run.
func (r *Report) Succeeded() bool {
	return r.PagesFailed == 0
}
