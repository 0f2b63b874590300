// Package crawler walks a single website and builds its summary report.
//
// # Architecture
//
// The Engine drives the crawl. Each Run starts from a seed URL, keeps a
// frontier of same-domain URLs still to visit and a visited set, and folds
// every fetched page into run-wide totals:
//
//   - Link Resolver: resolves anchor hrefs and keeps same-domain http(s) URLs
//   - Parser: extracts anchors, scripts, stylesheets, comments, text and images
//   - Fingerprinter (package detect): runs once per run on the first page
//   - Social Detector (package detect): runs on every page
//   - Keyword Analyzer (package keyword): runs once over all collected text
//
// A URL is marked visited when it is dequeued, before it is fetched, so each
// URL is fetched at most once. The crawl ends when the frontier is empty and
// no worker has a page in flight.
//
// # Concurrency
//
// The default of one worker fetches pages strictly one after another.
// WithWorkers(n) runs n workers over the shared frontier; the totals are the
// same apart from traversal order.
//
// # Usage
//
//	f, _ := fetcher.New()
//	engine := crawler.NewEngine(f, crawler.WithWorkers(4))
//	report, err := engine.Run(ctx, "https://example.com/")
package crawler
