package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/websummary/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeTechnologies(md, report)
	w.writeKeywords(md, report)
	w.writeSocialLinks(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title, the totals table and the run status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Website Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.SeedURL + "`"},
			{"Title", titleOrDash(report.Title)},
			{"Run ID", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Pages Visited", strconv.Itoa(report.PagesVisited)},
			{"Pages Failed", strconv.Itoa(report.PagesFailed)},
			{"URLs Detected", strconv.Itoa(report.DiscoveredLinks)},
			{"Images", strconv.Itoa(report.Images)},
			{"Bandwidth", fmt.Sprintf("%.2f MB", report.BandwidthMB())},
			{"Runtime", fmt.Sprintf("%.2f seconds", report.Elapsed.Seconds())},
		},
	})
	md.PlainText("")

	switch {
	case report.Interrupted:
		md.Warningf("The crawl was interrupted after %d page(s). Totals are partial.", report.PagesVisited)
	case report.Truncated:
		md.Importantf("The crawl stopped at the page limit of %d page(s). Totals are partial.", report.PagesVisited)
	case report.PagesFailed > 0:
		md.Cautionf("%d page(s) could not be fetched.", report.PagesFailed)
	default:
		md.Tip("Every discovered page was crawled.")
	}
	md.PlainText("")
}

// writeTechnologies writes the fingerprint result.
func (w *MarkdownWriter) writeTechnologies(md *markdown.Markdown, report *model.Report) {
	md.H2("Technologies")
	md.PlainText("")

	result := report.Technologies
	switch result.Status {
	case model.TechnologyDetected:
		md.PlainTextf("Fingerprinted from `%s`:", result.URL)
		md.PlainText("")
		md.BulletList(result.Names...)
	case model.TechnologyNoneDetected:
		md.PlainText(NoTechnologiesMessage)
	case model.TechnologyCheckFailed:
		md.Note(fmt.Sprintf("Fingerprinting `%s` failed: %s", result.URL, result.Error))
	default:
		md.PlainText("Technologies were not checked.")
	}
	md.PlainText("")
}

// writeKeywords writes the keyword table and its distribution chart.
func (w *MarkdownWriter) writeKeywords(md *markdown.Markdown, report *model.Report) {
	md.H2("Most Used Keywords")
	md.PlainText("")

	if len(report.Keywords) == 0 {
		md.PlainText("No keywords found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Keywords))
	for i, kw := range report.Keywords {
		rows[i] = []string{kw.Word, strconv.Itoa(kw.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Keyword", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, report.Keywords)
}

// writePieChart writes a mermaid pie chart for keyword distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, keywords []model.KeywordCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Keyword Distribution"),
		piechart.WithShowData(true),
	)
	for _, kw := range keywords {
		chart.LabelAndIntValue(kw.Word, uint64(kw.Count)) //nolint:gosec // counts are positive
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSocialLinks writes the social-media links table.
func (w *MarkdownWriter) writeSocialLinks(md *markdown.Markdown, report *model.Report) {
	md.H2("Social Media Links")
	md.PlainText("")

	if len(report.SocialLinks) == 0 {
		md.PlainText("No social media links found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.SocialLinks))
	for i, link := range report.SocialLinks {
		rows[i] = []string{link.Platform, link.URL}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Platform", "Link"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes the failed pages, if any.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.Report) {
	if len(report.Failures) == 0 {
		return
	}

	md.H2("Failed Pages")
	md.PlainText("")

	rows := make([][]string, len(report.Failures))
	for i, f := range report.Failures {
		status := "-"
		if f.StatusCode != 0 {
			status = strconv.Itoa(f.StatusCode)
		}
		rows[i] = []string{f.URL, status, truncateString(f.Error, 80)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [websummary](https://github.com/nao1215/websummary)*")
}

// titleOrDash returns title, or "-" for pages without one.
func titleOrDash(title string) string {
	if title == "" {
		return "-"
	}
	return title
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
