package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReportCompile verifies the counters partition the results: every
// result lands in exactly one bucket and the buckets sum to the total.
func TestReportCompile(t *testing.T) {
	r := NewReport("test-run")
	r.Append(PageResult{URL: "http://localhost:3001/", Status: StatusSuccess})
	r.Append(PageResult{URL: "http://localhost:3001/a", Status: StatusWarning, ConsoleErrors: []string{"x", "y"}})
	r.Append(PageResult{URL: "http://localhost:3001/b", Status: StatusError, ConsoleErrors: []string{"z"}})
	r.Append(PageResult{URL: "http://localhost:3001/c", Status: StatusSuccess})

	r.Compile()

	assert.Equal(t, 4, r.TotalPages)
	assert.Equal(t, 2, r.PagesPassed)
	assert.Equal(t, 1, r.PagesWithWarnings)
	assert.Equal(t, 1, r.PagesFailed)
	assert.Equal(t, r.TotalPages, r.PagesPassed+r.PagesWithWarnings+r.PagesFailed)
	assert.Equal(t, 3, r.TotalConsoleErrors)
	assert.Equal(t, []string{"http://localhost:3001/b"}, r.BrokenLinks)
	assert.False(t, r.Succeeded())
}

func TestReportCompileIsIdempotent(t *testing.T) {
	r := NewReport("test-run")
	r.Append(PageResult{URL: "http://localhost:3001/b", Status: StatusError})

	r.Compile()
	r.Compile()

	assert.Equal(t, 1, r.TotalPages)
	assert.Equal(t, 1, r.PagesFailed)
	require.Len(t, r.BrokenLinks, 1)
}

// TestReportSucceeded pins the exit contract: warnings do not fail a
// run, any error page does.
func TestReportSucceeded(t *testing.T) {
	r := NewReport("test-run")
	r.Append(PageResult{Status: StatusSuccess})
	r.Append(PageResult{Status: StatusWarning})
	r.Compile()
	assert.True(t, r.Succeeded())

	r.Append(PageResult{Status: StatusError})
	r.Compile()
	assert.False(t, r.Succeeded())
}
