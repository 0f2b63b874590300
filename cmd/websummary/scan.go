package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/websummary/internal/config"
	"github.com/nao1215/websummary/internal/crawler"
	"github.com/nao1215/websummary/internal/database"
	"github.com/nao1215/websummary/internal/fetcher"
	"github.com/nao1215/websummary/internal/keyword"
	seclog "github.com/nao1215/websummary/internal/log"
	"github.com/nao1215/websummary/internal/model"
	"github.com/nao1215/websummary/internal/report"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Crawl a website and print its summary",
		Long: `Scan crawls every page reachable from the seed URL on the same host.

For each page it prints the URL being visited and the number of links found.
The first page is fingerprinted for common plugins and libraries. When the
crawl is finished the summary is printed:
- Most used keywords
- Total URLs detected, runtime, bandwidth and images
- Social media links found

Press Ctrl+C to stop early; the partial summary is still printed.

Examples:
  # Crawl a site (http:// is assumed when no scheme is given)
  websummary scan example.com

  # Crawl with 4 concurrent workers and stop after 200 pages
  websummary scan -w 4 -p 200 https://example.com/

  # Write a Markdown report to a file and archive the run
  websummary scan -m -o reports/example.md --save https://example.com/

  # Crawl through a SOCKS5 proxy, at most 2 requests per second
  websummary scan --proxy socks5://127.0.0.1:1080 --rate 2 https://example.com/

Configuration file (.websummary) example:
  defaults:
    headers:
      Accept-Language: "en-US"
  sites:
    example.com:
      cookie: "session_id=abc123"
      maxPages: 500
      ignorePatterns:
        - "/logout*"
        - "*.pdf"`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int("max-attempts", config.DefaultMaxAttempts,
		"Attempts per URL, including the first")
	cmd.Flags().Duration("backoff", config.DefaultBackoff,
		"Delay before the first retry; doubles on each further retry")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages fetched concurrently")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Stop after visiting this many pages (0 = no limit)")
	cmd.Flags().IntP("top", "k", config.DefaultTopKeywords,
		"Number of keywords to report")
	cmd.Flags().StringSlice("stopwords", nil,
		"Extra words to leave out of the keyword ranking (comma-separated)")

	// Transport flags
	cmd.Flags().Float64("rate", 0,
		"Maximum requests per second (0 = unlimited)")
	cmd.Flags().String("proxy", "",
		"Proxy URL (http://, https://, socks5:// or socks5h://)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .websummary in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Archive flags
	cmd.Flags().Bool("save", false,
		"Archive the report in the local database (see 'websummary history')")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the report database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	// Ctrl+C cancels the crawl; the engine returns the partial report.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger returns the masking logger selected by --log-json.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if jsonLogs, err := cmd.Flags().GetBool("log-json"); err == nil && jsonLogs {
		return seclog.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return seclog.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxAttempts, err = flags.GetInt("max-attempts"); err != nil {
		return nil, err
	}
	if cfg.Backoff, err = flags.GetDuration("backoff"); err != nil {
		return nil, err
	}
	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.TopKeywords, err = flags.GetInt("top"); err != nil {
		return nil, err
	}
	if cfg.Stopwords, err = flags.GetStringSlice("stopwords"); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = flags.GetFloat64("rate"); err != nil {
		return nil, err
	}
	if cfg.ProxyURL, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// Load site-specific configurations from config file.
	// An explicit path must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	if len(args) > 0 {
		cfg.SeedURL = args[0]
	}

	return cfg, nil
}

// runScan crawls the seed and outputs the report.
func runScan(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	seed, err := crawler.NormalizeSeed(cfg.SeedURL)
	if err != nil {
		return err
	}
	var site config.SiteConfig
	if cfg.SiteConfigs != nil {
		site = cfg.SiteConfigs.GetSiteConfig(seed.Host)
	}

	engine, err := newEngine(cfg, site, out, logger)
	if err != nil {
		return err
	}

	summary, runErr := engine.Run(ctx, seed.String())
	if summary == nil {
		return runErr
	}

	if err := outputReport(cfg, out, summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveReport(ctx, cfg.DBDir, summary, logger); err != nil {
			return err
		}
	}

	if summary.Interrupted {
		return fmt.Errorf("crawl interrupted after %d page(s): %w", summary.PagesVisited, runErr)
	}
	return nil
}

// newEngine wires the fetchers and analyzers for one crawl.
func newEngine(cfg *config.Config, site config.SiteConfig, out io.Writer, logger *slog.Logger) (*crawler.Engine, error) {
	fetchOpts := []fetcher.Option{
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithMaxAttempts(cfg.MaxAttempts),
		fetcher.WithBackoff(cfg.Backoff),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithRateLimit(cfg.RateLimit),
	}
	if cfg.ProxyURL != "" {
		fetchOpts = append(fetchOpts, fetcher.WithProxy(cfg.ProxyURL))
	}
	if site.Cookie != "" {
		fetchOpts = append(fetchOpts, fetcher.WithCookie(site.Cookie))
	}
	if len(site.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetcher.WithHeaders(site.Headers))
	}

	pageFetcher, err := fetcher.New(fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	// The fingerprint check tolerates broken certificates.
	fingerprintFetcher, err := fetcher.New(append(fetchOpts, fetcher.WithInsecureSkipVerify())...)
	if err != nil {
		return nil, fmt.Errorf("failed to create fingerprint fetcher: %w", err)
	}

	maxPages := cfg.MaxPages
	if maxPages == 0 && site.MaxPages > 0 {
		maxPages = site.MaxPages
	}

	return crawler.NewEngine(pageFetcher,
		crawler.WithWorkers(cfg.Workers),
		crawler.WithMaxPages(maxPages),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFingerprintFetcher(fingerprintFetcher),
		crawler.WithKeywordAnalyzer(keyword.NewAnalyzer(
			keyword.WithTop(cfg.TopKeywords),
			keyword.WithStopwords(cfg.Stopwords),
		)),
		crawler.WithObserver(newConsoleObserver(out)),
		crawler.WithLogger(logger),
	), nil
}

// newReportWriter returns the writer for the requested format.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w,
			report.WithVerbose(cfg.Verbose),
			report.WithShowEmpty(cfg.Verbose),
		)
	}
}

// outputReport writes the report in the requested format to stdout, or to
// the report file. With a report file, the text summary still goes to stdout.
func outputReport(cfg *config.Config, out io.Writer, summary *model.Report) error {
	if cfg.ReportFile == "" {
		_, err := newReportWriter(cfg, out).Write(summary)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports may carry cookies in failure messages; keep them owner-only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	writers := []report.Writer{newReportWriter(cfg, f)}
	if cfg.JSONReport || cfg.MarkdownReport {
		writers = append(writers, report.NewSimpleWriter(out,
			report.WithVerbose(cfg.Verbose),
			report.WithShowEmpty(cfg.Verbose),
		))
	}
	if _, err := report.NewMultiWriter(writers...).Write(summary); err != nil {
		return err
	}
	return f.Close()
}

// saveReport archives the report in the database under dbDir.
func saveReport(ctx context.Context, dbDir string, summary *model.Report, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// An interrupted crawl still gets archived.
	if errors.Is(ctx.Err(), context.Canceled) {
		ctx = context.WithoutCancel(ctx)
	}
	if err := db.SaveReport(ctx, summary); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	logger.Info("report saved to database", "run_id", summary.RunID, "path", db.Path())
	return nil
}
