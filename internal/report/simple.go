package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/websummary/internal/model"
)

// NoTechnologiesMessage is printed when the fingerprint check matched nothing.
const NoTechnologiesMessage = "No common plugins detected. Likely pure HTML, JavaScript, and CSS."

// TechnologyLines renders a fingerprint result as terminal lines.
// The crawl progress output and the text report share this rendering.
func TechnologyLines(result model.TechnologyResult) []string {
	switch result.Status {
	case model.TechnologyDetected:
		lines := make([]string, 0, len(result.Names)+1)
		lines = append(lines, "Detected plugins or libraries:")
		for _, name := range result.Names {
			lines = append(lines, "- "+name)
		}
		return lines
	case model.TechnologyNoneDetected:
		return []string{NoTechnologiesMessage}
	case model.TechnologyCheckFailed:
		return []string{fmt.Sprintf("Error detecting plugins on %s: %s", result.URL, result.Error)}
	default:
		return []string{"Technologies were not checked."}
	}
}

// SimpleWriter outputs the plain-text summary printed after a crawl.
// The keyword, totals and social link lines keep a fixed "label: value"
// layout so the output can be piped to grep or awk.
//
// Empty keyword and failure sections are omitted unless showEmpty is set.
// The social link heading is always printed.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeTechnologies(&sb, report)
	w.writeKeywords(&sb, report)
	w.writeTotals(&sb, report)
	w.writeSocialLinks(&sb, report)
	w.writeFailures(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the site and run status.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Website Summary: %s\n", report.SeedURL))
	if report.Title != "" {
		sb.WriteString(fmt.Sprintf("Title: %s\n", report.Title))
	}
	if w.verbose {
		sb.WriteString(fmt.Sprintf("Run ID:     %s\n", report.RunID))
		sb.WriteString(fmt.Sprintf("Started at: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	}

	switch {
	case report.Interrupted:
		sb.WriteString("Status: INTERRUPTED (partial results)\n")
	case report.Truncated:
		sb.WriteString("Status: Stopped at page limit (partial results)\n")
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeTechnologies writes the fingerprint result.
func (w *SimpleWriter) writeTechnologies(sb *strings.Builder, report *model.Report) {
	for _, line := range TechnologyLines(report.Technologies) {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// writeKeywords writes the keyword ranking.
func (w *SimpleWriter) writeKeywords(sb *strings.Builder, report *model.Report) {
	if len(report.Keywords) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString("Most used keywords:\n")
	for _, kw := range report.Keywords {
		sb.WriteString(fmt.Sprintf("%s: %d\n", kw.Word, kw.Count))
	}
}

// writeTotals writes the run-wide counters.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Total URLs detected: %d\n", report.DiscoveredLinks))
	sb.WriteString(fmt.Sprintf("Total runtime: %.2f seconds\n", report.Elapsed.Seconds()))
	sb.WriteString(fmt.Sprintf("Total bandwidth used: %.2f MB\n", report.BandwidthMB()))
	sb.WriteString(fmt.Sprintf("Total images found: %d\n", report.Images))
	sb.WriteString(fmt.Sprintf("Total pages visited: %d (failed: %d)\n", report.PagesVisited, report.PagesFailed))
}

// writeSocialLinks writes the social-media links.
func (w *SimpleWriter) writeSocialLinks(sb *strings.Builder, report *model.Report) {
	sb.WriteString("Social media links found:\n")
	for _, link := range report.SocialLinks {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", link.Platform, link.URL))
	}
}

// writeFailures writes the URLs that could not be fetched.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.Report) {
	if len(report.Failures) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString("Failed pages:\n")
	for _, f := range report.Failures {
		if w.verbose {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", f.URL, f.Error))
			continue
		}
		if f.StatusCode != 0 {
			sb.WriteString(fmt.Sprintf("- %s (status %d)\n", f.URL, f.StatusCode))
		} else {
			sb.WriteString(fmt.Sprintf("- %s\n", f.URL))
		}
	}
}
