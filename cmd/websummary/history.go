package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/websummary/internal/config"
	"github.com/nao1215/websummary/internal/database"
	"github.com/nao1215/websummary/internal/model"
	"github.com/spf13/cobra"
)

// noArchiveMessage is printed when nothing has been saved yet.
const noArchiveMessage = "No archived runs found."

// NewHistoryCmd creates the history command.
// This command reads reports archived by 'websummary scan --save'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [domain]",
		Short: "Show archived crawl reports",
		Long: `History lists crawl reports saved with 'websummary scan --save'.

Without arguments every archived run is listed, newest first. With a
domain only the runs of that domain are listed. A run can be printed in
full with --id, or its latest run with --latest.

Examples:
  # List every archived run
  websummary history

  # List runs for one domain
  websummary history example.com

  # Print the latest report for a domain as Markdown
  websummary history --latest -m example.com

  # Print a run by ID as JSON
  websummary history --id 2b0c... --json

  # List all domains in the archive
  websummary history --list-domains

  # Remove a run from the archive
  websummary history --delete 2b0c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Selection flags
	cmd.Flags().StringP("id", "i", "",
		"Print the archived report with this run ID")
	cmd.Flags().BoolP("latest", "l", false,
		"Print the latest archived report for the domain")
	cmd.Flags().BoolP("list-domains", "L", false,
		"List all domains in the archive")
	cmd.Flags().String("delete", "",
		"Delete the archived run with this run ID")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Print the report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Print the report in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the report database")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	domain      string
	runID       string
	latest      bool
	listDomains bool
	deleteID    string
	dbDir       string
	format      *config.Config
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryFlags(cmd, args)
	if err != nil {
		return err
	}

	// A missing database means nothing was saved yet. Reading must not
	// create an empty archive as a side effect.
	db, err := database.Open(opts.dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), noArchiveMessage)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return runHistory(cmd.Context(), db, opts, cmd.OutOrStdout())
}

// parseHistoryFlags reads and validates the history flags.
func parseHistoryFlags(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{format: config.NewConfig()}
	flags := cmd.Flags()

	var err error
	if opts.runID, err = flags.GetString("id"); err != nil {
		return nil, err
	}
	if opts.latest, err = flags.GetBool("latest"); err != nil {
		return nil, err
	}
	if opts.listDomains, err = flags.GetBool("list-domains"); err != nil {
		return nil, err
	}
	if opts.deleteID, err = flags.GetString("delete"); err != nil {
		return nil, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if opts.format.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.format.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	opts.format.Verbose = getVerboseFlag(cmd)

	if opts.format.JSONReport && opts.format.MarkdownReport {
		return nil, config.ErrConflictingReportFormats
	}

	if len(args) > 0 {
		opts.domain = normalizeDomain(args[0])
	}
	if opts.latest && opts.domain == "" {
		return nil, errors.New("--latest requires a domain")
	}

	return opts, nil
}

// runHistory dispatches to the selected history action.
func runHistory(ctx context.Context, db *database.CrawlDB, opts *historyOptions, out io.Writer) error {
	switch {
	case opts.listDomains:
		return listDomains(ctx, db, out)
	case opts.deleteID != "":
		return deleteRun(ctx, db, opts.deleteID, out)
	case opts.runID != "":
		summary, err := db.GetReport(ctx, opts.runID)
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("run %s not found", opts.runID)
		}
		return printArchivedReport(opts, summary, out)
	case opts.latest:
		summary, err := db.LatestReport(ctx, opts.domain)
		if err != nil {
			return err
		}
		if summary == nil {
			return fmt.Errorf("no archived runs for %s", opts.domain)
		}
		return printArchivedReport(opts, summary, out)
	default:
		return listRuns(ctx, db, opts.domain, out)
	}
}

// printArchivedReport writes a stored report with the requested writer.
func printArchivedReport(opts *historyOptions, summary *model.Report, out io.Writer) error {
	_, err := newReportWriter(opts.format, out).Write(summary)
	return err
}

// listDomains prints every domain in the archive.
func listDomains(ctx context.Context, db *database.CrawlDB, out io.Writer) error {
	domains, err := db.ListDomains(ctx)
	if err != nil {
		return err
	}

	if len(domains) == 0 {
		fmt.Fprintln(out, noArchiveMessage)
		return nil
	}

	fmt.Fprintf(out, "Archived domains (%d):\n\n", len(domains))
	for _, domain := range domains {
		fmt.Fprintf(out, "  - %s\n", domain)
	}
	fmt.Fprintln(out, "\nUse 'websummary history <domain>' to see the runs for a domain.")
	return nil
}

// listRuns prints the archived runs as a table, newest first.
func listRuns(ctx context.Context, db *database.CrawlDB, domain string, out io.Writer) error {
	runs, err := db.ListRuns(ctx, domain)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		if domain != "" {
			fmt.Fprintf(out, "No archived runs found for %s.\n", domain)
		} else {
			fmt.Fprintln(out, noArchiveMessage)
		}
		fmt.Fprintln(out, "\nUse 'websummary scan --save <url>' to archive a crawl.")
		return nil
	}

	if domain != "" {
		fmt.Fprintf(out, "Archived runs for %s (%d):\n\n", domain, len(runs))
	} else {
		fmt.Fprintf(out, "Archived runs (%d):\n\n", len(runs))
	}
	fmt.Fprintf(out, "  %-36s  %-19s  %-24s  %6s  %6s  %9s  %s\n",
		"Run ID", "Started", "Domain", "Pages", "Links", "MB", "Status")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 118))

	for _, run := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-24s  %6d  %6d  %9.2f  %s\n",
			run.RunID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Domain,
			run.PagesVisited,
			run.DiscoveredLinks,
			float64(run.BandwidthBytes)/(1024*1024),
			runStatus(run),
		)
	}

	fmt.Fprintln(out, "\nUse 'websummary history --id <run-id>' to print a report.")
	return nil
}

// runStatus summarizes how a run ended.
func runStatus(run database.RunMetadata) string {
	switch {
	case run.Interrupted:
		return "interrupted"
	case run.Truncated:
		return "page limit"
	case run.PagesFailed > 0:
		return fmt.Sprintf("complete (%d failed)", run.PagesFailed)
	default:
		return "complete"
	}
}

// deleteRun removes a run from the archive.
func deleteRun(ctx context.Context, db *database.CrawlDB, runID string, out io.Writer) error {
	deleted, err := db.DeleteRun(ctx, runID)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("run %s not found", runID)
	}
	fmt.Fprintf(out, "Deleted run %s\n", runID)
	return nil
}

// normalizeDomain accepts a bare host or a URL and returns the host.
func normalizeDomain(input string) string {
	domain := strings.TrimSpace(input)
	if i := strings.Index(domain, "://"); i >= 0 {
		domain = domain[i+3:]
	}
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	return strings.ToLower(domain)
}
