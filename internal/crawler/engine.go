package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/websummary/internal/detect"
	"github.com/nao1215/websummary/internal/fetcher"
	"github.com/nao1215/websummary/internal/keyword"
	"github.com/nao1215/websummary/internal/model"
)

// Fetcher retrieves a URL. *fetcher.HTTPFetcher implements it.
// Implementations must be safe for concurrent use when the engine runs
// with more than one worker.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*fetcher.Response, error)
}

// Observer receives progress events during a run.
// Methods may be called from several workers at once.
type Observer interface {
	// OnVisit is called when a URL is dequeued, before it is fetched.
	OnVisit(url string)

	// OnLinks is called with the number of same-domain links found on a page.
	OnLinks(url string, count int)

	// OnTechnologies is called once, when the fingerprint result is sealed.
	OnTechnologies(result model.TechnologyResult)

	// OnFailure is called when a fetch fails.
	OnFailure(failure model.PageFailure)
}

// Engine crawls a single site and summarizes it.
//
// Design decision: The Engine owns no per-run state. Every call to Run
// builds a fresh frontier and accumulator, so one Engine can run several
// crawls one after another (or concurrently) without leaking state.
type Engine struct {
	fetcher            Fetcher
	fingerprintFetcher Fetcher

	parser        *Parser
	fingerprinter *detect.Fingerprinter
	social        *detect.SocialDetector
	keywords      *keyword.Analyzer

	workers        int
	maxPages       int
	ignorePatterns []string

	observer Observer
	logger   *slog.Logger
	newRunID func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers sets the number of pages fetched concurrently.
// The default of 1 keeps the crawl strictly sequential.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithMaxPages stops the crawl after n visits. 0 means no limit.
func WithMaxPages(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxPages = n
		}
	}
}

// WithIgnorePatterns keeps URLs whose path matches any glob pattern
// (e.g., "/logout*", "*.pdf") out of the frontier. Matching links still
// count as discovered.
func WithIgnorePatterns(patterns []string) EngineOption {
	return func(e *Engine) {
		e.ignorePatterns = patterns
	}
}

// WithFingerprintFetcher fetches the fingerprinted page again with f
// instead of reusing the crawl response. A failed fetch seals the result
// as TechnologyCheckFailed.
func WithFingerprintFetcher(f Fetcher) EngineOption {
	return func(e *Engine) {
		e.fingerprintFetcher = f
	}
}

// WithKeywordAnalyzer replaces the default keyword analyzer.
func WithKeywordAnalyzer(a *keyword.Analyzer) EngineOption {
	return func(e *Engine) {
		if a != nil {
			e.keywords = a
		}
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine that fetches pages with f.
func NewEngine(f Fetcher, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:       f,
		parser:        NewParser(),
		fingerprinter: detect.NewFingerprinter(),
		social:        detect.NewSocialDetector(),
		keywords:      keyword.NewAnalyzer(),
		workers:       1,
		observer:      nopObserver{},
		logger:        slog.Default(),
		newRunID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	return e
}

// NormalizeSeed parses a seed URL. A seed without a scheme gets "http://".
// It returns ErrInvalidSeed if the result has no host or is not http(s).
func NormalizeSeed(seed string) (*url.URL, error) {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSeed)
	}
	if !strings.Contains(seed, "://") {
		seed = "http://" + seed
	}

	u, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidSeed, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidSeed, seed)
	}
	return u, nil
}

// Run crawls every same-domain page reachable from seed and returns the
// summary. Per-page failures are recorded in the report and never stop the
// run. If ctx is cancelled, Run returns the partial report marked
// Interrupted together with ctx.Err().
func (e *Engine) Run(ctx context.Context, seed string) (*model.Report, error) {
	seedURL, err := NormalizeSeed(seed)
	if err != nil {
		return nil, err
	}

	r := &run{
		engine:   e,
		resolver: NewLinkResolver(seedURL.Host),
		ignore:   ignoreMatcher{patterns: e.ignorePatterns},
		frontier: newFrontier(e.maxPages),
		acc:      newAccumulator(),
	}
	start := normalizeURL(seedURL)
	r.seed = start
	report := model.NewReport(e.newRunID(), start, r.resolver.Domain())

	e.logger.Info("starting crawl",
		"seed", start,
		"domain", report.Domain,
		"workers", e.workers,
		"max_pages", e.maxPages,
	)

	r.frontier.push(start)
	stop := context.AfterFunc(ctx, r.frontier.close)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			r.work(gctx)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	r.acc.fill(report)
	report.PagesVisited = r.frontier.visitedCount()
	report.Truncated = r.frontier.wasTruncated()
	report.Keywords = e.keywords.Analyze(r.acc.allText())
	report.Elapsed = time.Since(report.StartedAt)

	e.logger.Info("crawl complete",
		"pages_visited", report.PagesVisited,
		"pages_failed", report.PagesFailed,
		"discovered_links", report.DiscoveredLinks,
		"elapsed", report.Elapsed,
	)

	if err := ctx.Err(); err != nil {
		report.Interrupted = true
		return report, err
	}
	return report, nil
}

// run is the state of one Run call.
type run struct {
	engine   *Engine
	seed     string
	resolver *LinkResolver
	ignore   ignoreMatcher
	frontier *frontier
	acc      *accumulator
}

// work processes URLs until the frontier is exhausted or closed.
func (r *run) work(ctx context.Context) {
	for {
		pageURL, ok := r.frontier.next()
		if !ok {
			return
		}
		r.process(ctx, pageURL)
		r.frontier.done()
	}
}

// process fetches one URL and folds the result into the run.
func (r *run) process(ctx context.Context, pageURL string) {
	e := r.engine
	e.observer.OnVisit(pageURL)
	e.logger.Debug("visiting", "url", pageURL)

	resp, err := e.fetcher.Get(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.fail(pageURL, err)
		return
	}

	page := r.parse(pageURL, resp)

	links := r.resolver.Resolve(r.linkBase(pageURL, resp.URL), page.Anchors)
	r.frontier.push(r.crawlable(links)...)
	e.observer.OnLinks(pageURL, len(links))
	e.logger.Debug("links found", "url", pageURL, "count", len(links))

	r.acc.addPage(page, links, resp.WireSize(), e.social.Detect(page.Anchors))
	if pageURL == r.seed {
		r.acc.setTitle(page.Title)
	}

	if r.acc.claimFingerprint() {
		result := r.fingerprint(ctx, pageURL, resp, page)
		r.acc.sealFingerprint(result)
		e.observer.OnTechnologies(result)
	}
}

// parse extracts the page structure. Other text/* bodies only contribute
// text; every other body yields an empty page.
func (r *run) parse(pageURL string, resp *fetcher.Response) *model.Page {
	contentType := resp.Header.Get("Content-Type")
	page := &model.Page{ContentType: contentType}
	switch {
	case page.IsHTML():
		page = r.engine.parser.Parse(resp.Body, contentType)
	case page.IsText():
		page = r.engine.parser.ParseText(resp.Body, contentType)
	}
	page.URL = pageURL
	page.StatusCode = resp.StatusCode
	page.Headers = resp.Header
	return page
}

// linkBase returns the URL relative hrefs resolve against. A redirect
// within the domain moves the base to the final URL; a redirect to another
// host keeps the requested URL so its links stay in the domain.
func (r *run) linkBase(pageURL, finalURL string) string {
	if finalURL == "" || finalURL == pageURL {
		return pageURL
	}
	u, err := url.Parse(finalURL)
	if err != nil || !r.resolver.inDomain(u) {
		return pageURL
	}
	return finalURL
}

// crawlable drops links matching an ignore pattern.
func (r *run) crawlable(links []string) []string {
	if len(r.ignore.patterns) == 0 {
		return links
	}
	kept := make([]string, 0, len(links))
	for _, link := range links {
		if !r.ignore.ignored(link) {
			kept = append(kept, link)
		}
	}
	return kept
}

// fingerprint runs the once-per-run technology check.
func (r *run) fingerprint(ctx context.Context, pageURL string, resp *fetcher.Response, page *model.Page) model.TechnologyResult {
	e := r.engine
	if e.fingerprintFetcher != nil {
		fpResp, err := e.fingerprintFetcher.Get(ctx, pageURL)
		if err != nil {
			e.logger.Warn("fingerprint fetch failed", "url", pageURL, "error", err)
			return model.TechnologyResult{
				Status: model.TechnologyCheckFailed,
				URL:    pageURL,
				Error:  err.Error(),
			}
		}
		resp = fpResp
		page = r.parse(pageURL, fpResp)
	}

	result := e.fingerprinter.Fingerprint(detect.PageSignals{
		URL:         pageURL,
		Scripts:     page.Scripts,
		Stylesheets: page.Stylesheets,
		Comments:    page.Comments,
		Generator:   page.Generator,
		Header:      resp.Header,
	})
	e.logger.Debug("fingerprint complete", "url", pageURL, "status", result.Status, "names", result.Names)
	return result
}

// fail records a failed fetch.
func (r *run) fail(pageURL string, err error) {
	failure := model.PageFailure{URL: pageURL, Error: err.Error()}
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		failure.StatusCode = fetchErr.StatusCode
	}

	r.engine.logger.Warn("fetch failed", "url", pageURL, "status", failure.StatusCode, "error", err)
	r.acc.addFailure(failure)
	r.engine.observer.OnFailure(failure)
}

// nopObserver discards all events.
type nopObserver struct{}

func (nopObserver) OnVisit(string) {}
func (nopObserver) OnLinks(string, int) {}
func (nopObserver) OnTechnologies(model.TechnologyResult) {}
func (nopObserver) OnFailure(model.PageFailure) {}
