// File: internal/verify/printer.go
package verify

import (
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/json-iterator/go"
)

const summaryDivider = "============================================================"

// reportFile is the serialized shape of the structured report artifact.
type reportFile struct {
	RunID       string        `json:"run_id"`
	Timestamp   time.Time     `json:"timestamp"`
	Summary     reportSummary `json:"summary"`
	Results     []resultEntry `json:"results"`
	BrokenLinks []string      `json:"broken_links"`
}

type reportSummary struct {
	Total         int `json:"total"`
	Passed        int `json:"passed"`
	Warnings      int `json:"warnings"`
	Failed        int `json:"failed"`
	ConsoleErrors int `json:"console_errors"`
}

type resultEntry struct {
	URL            string   `json:"url"`
	Status         string   `json:"status"`
	HTTPStatus     int      `json:"http_status"`
	LoadTimeMS     int64    `json:"load_time_ms"`
	ConsoleErrors  []string `json:"console_errors"`
	ErrorMessage   string   `json:"error_message,omitempty"`
	Screenshot     string   `json:"screenshot,omitempty"`
	LinksFound     int      `json:"links_found"`
	ButtonsFound   int      `json:"buttons_found"`
	FormsFound     int      `json:"forms_found"`
	SuspectButtons int      `json:"suspect_buttons"`
}

// WriteJSON serializes the compiled report to the given path.
func WriteJSON(r *Report, path string) error {
	file := reportFile{
		RunID:     r.RunID,
		Timestamp: r.Timestamp,
		Summary: reportSummary{
			Total:         r.TotalPages,
			Passed:        r.PagesPassed,
			Warnings:      r.PagesWithWarnings,
			Failed:        r.PagesFailed,
			ConsoleErrors: r.TotalConsoleErrors,
		},
		BrokenLinks: r.BrokenLinks,
	}
	for _, res := range r.Results {
		file.Results = append(file.Results, resultEntry{
			URL:            res.URL,
			Status:         string(res.Status),
			HTTPStatus:     res.HTTPStatus,
			LoadTimeMS:     res.LoadTimeMS,
			ConsoleErrors:  res.ConsoleErrors,
			ErrorMessage:   res.ErrorMessage,
			Screenshot:     res.ScreenshotPath,
			LinksFound:     len(res.LinksFound),
			ButtonsFound:   res.ButtonsFound,
			FormsFound:     res.FormsFound,
			SuspectButtons: res.SuspectButtons,
		})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// PrintSummary writes the human-readable run summary.
func PrintSummary(out io.Writer, r *Report) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, summaryDivider)
	fmt.Fprintln(out, "VERIFICATION REPORT")
	fmt.Fprintln(out, summaryDivider)
	fmt.Fprintf(out, "Run ID: %s\n", r.RunID)
	fmt.Fprintf(out, "Timestamp: %s\n", r.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Total pages tested: %d\n", r.TotalPages)
	fmt.Fprintf(out, "  Passed:   %d\n", r.PagesPassed)
	fmt.Fprintf(out, "  Warnings: %d\n", r.PagesWithWarnings)
	fmt.Fprintf(out, "  Failed:   %d\n", r.PagesFailed)
	fmt.Fprintf(out, "Total console errors: %d\n", r.TotalConsoleErrors)

	printFailed(out, r)
	printWarnings(out, r)

	fmt.Fprintln(out)
	fmt.Fprintln(out, summaryDivider)
	switch {
	case r.PagesFailed == 0 && r.PagesWithWarnings == 0:
		fmt.Fprintln(out, "ALL PAGES PASSED")
	case r.PagesFailed == 0:
		fmt.Fprintf(out, "PASSED WITH %d WARNINGS\n", r.PagesWithWarnings)
	default:
		fmt.Fprintf(out, "%d PAGES FAILED\n", r.PagesFailed)
	}
	fmt.Fprintln(out, summaryDivider)
}

func printFailed(out io.Writer, r *Report) {
	printed := false
	for _, res := range r.Results {
		if res.Status != StatusError {
			continue
		}
		if !printed {
			fmt.Fprintln(out, "\nFAILED PAGES:")
			printed = true
		}
		fmt.Fprintf(out, "  - %s\n", res.URL)
		if res.ErrorMessage != "" {
			fmt.Fprintf(out, "    Error: %s\n", res.ErrorMessage)
		}
		if res.ScreenshotPath != "" {
			fmt.Fprintf(out, "    Screenshot: %s\n", res.ScreenshotPath)
		}
	}
}

func printWarnings(out io.Writer, r *Report) {
	printed := false
	for _, res := range r.Results {
		if res.Status != StatusWarning {
			continue
		}
		if !printed {
			fmt.Fprintln(out, "\nPAGES WITH WARNINGS:")
			printed = true
		}
		fmt.Fprintf(out, "  - %s\n", res.URL)
		for i, msg := range res.ConsoleErrors {
			if i >= 3 {
				break
			}
			fmt.Fprintf(out, "    Console: %s\n", truncate(msg, 80))
		}
	}
}
