package verify

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	r := NewReport("run-1234")
	r.Append(PageResult{
		URL:        "http://localhost:3001/privacy",
		Status:     StatusSuccess,
		HTTPStatus: 200,
		LoadTimeMS: 120,
		LinksFound: []string{"http://localhost:3001/privacy/dsar"},
	})
	r.Append(PageResult{
		URL:           "http://localhost:3001/privacy/noisy",
		Status:        StatusWarning,
		HTTPStatus:    200,
		ConsoleErrors: []string{"first", "second", "third", "fourth"},
	})
	r.Append(PageResult{
		URL:            "http://localhost:3001/privacy/broken",
		Status:         StatusError,
		HTTPStatus:     404,
		ErrorMessage:   "page contains an error indicator",
		ScreenshotPath: "/tmp/shots/error_privacy_broken_1.png",
	})
	r.Compile()
	return r
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	PrintSummary(&out, sampleReport())
	text := out.String()

	assert.Contains(t, text, "VERIFICATION REPORT")
	assert.Contains(t, text, "Run ID: run-1234")
	assert.Contains(t, text, "Total pages tested: 3")
	assert.Contains(t, text, "FAILED PAGES:")
	assert.Contains(t, text, "http://localhost:3001/privacy/broken")
	assert.Contains(t, text, "page contains an error indicator")
	assert.Contains(t, text, "/tmp/shots/error_privacy_broken_1.png")
	assert.Contains(t, text, "PAGES WITH WARNINGS:")
	assert.Contains(t, text, "1 PAGES FAILED")
	// Only the first three console errors are echoed.
	assert.Contains(t, text, "first")
	assert.Contains(t, text, "third")
	assert.NotContains(t, text, "fourth")
}

func TestPrintSummaryAllPassed(t *testing.T) {
	r := NewReport("run-ok")
	r.Append(PageResult{URL: "http://localhost:3001/", Status: StatusSuccess})
	r.Compile()

	var out bytes.Buffer
	PrintSummary(&out, r)

	assert.Contains(t, out.String(), "ALL PAGES PASSED")
	assert.NotContains(t, out.String(), "FAILED PAGES:")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteJSON(sampleReport(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		RunID   string `json:"run_id"`
		Summary struct {
			Total         int `json:"total"`
			Passed        int `json:"passed"`
			Warnings      int `json:"warnings"`
			Failed        int `json:"failed"`
			ConsoleErrors int `json:"console_errors"`
		} `json:"summary"`
		Results []struct {
			URL        string `json:"url"`
			Status     string `json:"status"`
			LinksFound int    `json:"links_found"`
		} `json:"results"`
		BrokenLinks []string `json:"broken_links"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "run-1234", decoded.RunID)
	assert.Equal(t, 3, decoded.Summary.Total)
	assert.Equal(t, 1, decoded.Summary.Passed)
	assert.Equal(t, 1, decoded.Summary.Warnings)
	assert.Equal(t, 1, decoded.Summary.Failed)
	assert.Equal(t, 4, decoded.Summary.ConsoleErrors)
	require.Len(t, decoded.Results, 3)
	assert.Equal(t, "success", decoded.Results[0].Status)
	assert.Equal(t, 1, decoded.Results[0].LinksFound)
	assert.Equal(t, []string{"http://localhost:3001/privacy/broken"}, decoded.BrokenLinks)
}

func TestWriteJSONBadPath(t *testing.T) {
	err := WriteJSON(sampleReport(), filepath.Join(t.TempDir(), "missing", "report.json"))
	assert.Error(t, err)
}
