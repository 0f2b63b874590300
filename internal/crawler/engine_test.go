package crawler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/nao1215/websummary/internal/fetcher"
	"github.com/nao1215/websummary/internal/model"
)

// fakePage is a canned response served by fakeFetcher.
type fakePage struct {
	status        int
	body          string
	contentType   string
	contentLength string
	header        http.Header
	// finalURL is the URL after redirects; empty means the requested URL.
	finalURL      string
}

// fakeFetcher serves pages from memory and counts calls per URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]fakePage
	calls map[string]int
	err   error
}

func newFakeFetcher(pages map[string]fakePage) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Get(ctx context.Context, rawURL string) (*fetcher.Response, error) {
	f.mu.Lock()
	f.calls[rawURL]++
	page, ok := f.pages[rawURL]
	forced := f.err
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &fetcher.FetchError{URL: rawURL, Attempts: 1, Err: err}
	}
	if forced != nil {
		return nil, &fetcher.FetchError{URL: rawURL, Attempts: 1, Err: forced}
	}
	if !ok {
		page = fakePage{status: http.StatusNotFound}
	}
	if page.status == 0 {
		page.status = http.StatusOK
	}
	if page.status >= 300 {
		return nil, &fetcher.FetchError{
			URL:        rawURL,
			StatusCode: page.status,
			Attempts:   1,
			Err:        fmt.Errorf("%w: %d", fetcher.ErrStatus, page.status),
		}
	}

	header := http.Header{}
	for k, v := range page.header {
		header[k] = v
	}
	contentType := page.contentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	header.Set("Content-Type", contentType)
	if page.contentLength != "" {
		header.Set("Content-Length", page.contentLength)
	}
	finalURL := rawURL
	if page.finalURL != "" {
		finalURL = page.finalURL
	}
	return &fetcher.Response{URL: finalURL, StatusCode: page.status, Header: header, Body: []byte(page.body)}, nil
}

func (f *fakeFetcher) callCount(rawURL string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[rawURL]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// recordingObserver records observer events.
type recordingObserver struct {
	mu           sync.Mutex
	visits       []string
	links        map[string]int
	technologies []model.TechnologyResult
	failures     []model.PageFailure
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{links: make(map[string]int)}
}

func (o *recordingObserver) OnVisit(url string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visits = append(o.visits, url)
}

func (o *recordingObserver) OnLinks(url string, count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links[url] = count
}

func (o *recordingObserver) OnTechnologies(result model.TechnologyResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.technologies = append(o.technologies, result)
}

func (o *recordingObserver) OnFailure(failure model.PageFailure) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, failure)
}

// threePageSite links the seed to two pages; jQuery appears only on /b.
func threePageSite() map[string]fakePage {
	return map[string]fakePage{
		"http://site.test/": {body: `<html><body>
			<a href="/a">A</a> <a href="/b">B</a>
			<a href="https://www.facebook.com/acme">fb</a>
			<p>welcome gopher</p>
		</body></html>`},
		"http://site.test/a": {body: `<html><body>
			<a href="/">home</a> <a href="/b">B</a>
			<a href="https://www.facebook.com/acme">fb</a>
			<img src="1.png"><p>gopher page</p>
		</body></html>`},
		"http://site.test/b": {body: `<html><head><script src="/js/jquery.min.js"></script></head><body>
			<a href="/a">A</a>
			<img src="2.png"><img src="3.png"><p>gopher again</p>
		</body></html>`},
	}
}

// TestNormalizeSeed tests seed URL normalization.
func TestNormalizeSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    string
		want    string
		wantErr bool
	}{
		{name: "bare host gets http", seed: "example.com", want: "http://example.com"},
		{name: "https kept", seed: "https://example.com/path", want: "https://example.com/path"},
		{name: "whitespace trimmed", seed: "  http://example.com/  ", want: "http://example.com/"},
		{name: "empty", seed: "", wantErr: true},
		{name: "unsupported scheme", seed: "ftp://example.com/", wantErr: true},
		{name: "no host", seed: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			u, err := NormalizeSeed(tt.seed)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSeed) {
					t.Errorf("expected ErrInvalidSeed, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, u.String())
			}
		})
	}
}

// TestEngineRun tests the crawl engine end to end against an in-memory site.
func TestEngineRun(t *testing.T) {
	t.Parallel()

	t.Run("crawls every same-domain page once", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, u := range []string{"http://site.test/", "http://site.test/a", "http://site.test/b"} {
			if n := f.callCount(u); n != 1 {
				t.Errorf("expected %s fetched once, got %d", u, n)
			}
		}
		if f.totalCalls() != 3 {
			t.Errorf("expected 3 fetches, got %d", f.totalCalls())
		}
		if report.PagesVisited != 3 {
			t.Errorf("expected 3 pages visited, got %d", report.PagesVisited)
		}
		if report.DiscoveredLinks != 3 {
			t.Errorf("expected 3 discovered links, got %d", report.DiscoveredLinks)
		}
		if report.Images != 3 {
			t.Errorf("expected 3 images, got %d", report.Images)
		}
		if report.Domain != "site.test" || report.SeedURL != "http://site.test/" {
			t.Errorf("unexpected identity: %q %q", report.Domain, report.SeedURL)
		}
		if report.RunID == "" {
			t.Error("expected a run ID")
		}
		if report.Interrupted || report.Truncated {
			t.Error("expected a complete run")
		}
	})

	t.Run("off-domain links are never fetched", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		if _, err := NewEngine(f).Run(context.Background(), "http://site.test/"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := f.callCount("https://www.facebook.com/acme"); n != 0 {
			t.Errorf("expected no off-domain fetch, got %d", n)
		}
	})

	t.Run("fingerprint runs once on the seed", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		obs := newRecordingObserver()
		report, err := NewEngine(f, WithObserver(obs)).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.Technologies.Status != model.TechnologyNoneDetected {
			t.Errorf("expected none detected from the seed, got %v %v", report.Technologies.Status, report.Technologies.Names)
		}
		if report.Technologies.URL != "http://site.test/" {
			t.Errorf("expected fingerprint of the seed, got %q", report.Technologies.URL)
		}
		if len(obs.technologies) != 1 {
			t.Errorf("expected one technology event, got %d", len(obs.technologies))
		}
	})

	t.Run("fingerprint detects seed technologies", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/": {
				body:   `<html><head><script src="/js/jquery-3.7.min.js"></script></head></html>`,
				header: http.Header{"X-Powered-By": {"PHP/8.2"}},
			},
		})
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Technologies.Status != model.TechnologyDetected {
			t.Fatalf("expected detected, got %v", report.Technologies.Status)
		}
		names := map[string]bool{}
		for _, n := range report.Technologies.Names {
			names[n] = true
		}
		if !names["jQuery"] || !names["PHP"] {
			t.Errorf("expected jQuery and PHP, got %v", report.Technologies.Names)
		}
	})

	t.Run("bandwidth prefers content length", func(t *testing.T) {
		t.Parallel()

		body := string(make([]byte, 500))
		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/": {body: body, contentLength: "1024"},
		})
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.BandwidthBytes != 1024 {
			t.Errorf("expected 1024 bytes, got %d", report.BandwidthBytes)
		}
	})

	t.Run("bandwidth falls back to body length", func(t *testing.T) {
		t.Parallel()

		body := "<html><body>hello</body></html>"
		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/": {body: body},
		})
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.BandwidthBytes != int64(len(body)) {
			t.Errorf("expected %d bytes, got %d", len(body), report.BandwidthBytes)
		}
	})

	t.Run("failed page contributes nothing and does not halt", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":       {body: `<a href="/broken">x</a><a href="/ok">y</a>`, contentLength: "100"},
			"http://site.test/broken": {status: http.StatusInternalServerError, body: `<img src="x.png">`},
			"http://site.test/ok":     {body: `<img src="y.png">`, contentLength: "50"},
		})
		obs := newRecordingObserver()
		report, err := NewEngine(f, WithObserver(obs)).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if report.PagesVisited != 3 || report.PagesFailed != 1 {
			t.Errorf("expected 3 visited and 1 failed, got %d and %d", report.PagesVisited, report.PagesFailed)
		}
		if report.BandwidthBytes != 150 {
			t.Errorf("expected 150 bytes, got %d", report.BandwidthBytes)
		}
		if report.Images != 1 {
			t.Errorf("expected 1 image, got %d", report.Images)
		}
		if len(report.Failures) != 1 || report.Failures[0].StatusCode != http.StatusInternalServerError {
			t.Errorf("unexpected failures: %+v", report.Failures)
		}
		if len(obs.failures) != 1 || obs.failures[0].URL != "http://site.test/broken" {
			t.Errorf("unexpected failure events: %+v", obs.failures)
		}
	})

	t.Run("single page site makes exactly one fetch", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/": {body: `<html><body><a href="https://github.com/acme">gh</a>alone</body></html>`},
		})
		obs := newRecordingObserver()
		report, err := NewEngine(f, WithObserver(obs)).Run(context.Background(), "site.test")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.totalCalls() != 1 {
			t.Errorf("expected 1 fetch, got %d", f.totalCalls())
		}
		if report.DiscoveredLinks != 0 {
			t.Errorf("expected 0 discovered links, got %d", report.DiscoveredLinks)
		}
		if obs.links["http://site.test/"] != 0 {
			t.Errorf("expected 0 links reported, got %d", obs.links["http://site.test/"])
		}
	})

	t.Run("social link reported once across pages", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := model.SocialLink{Platform: "Facebook", URL: "https://www.facebook.com/acme"}
		if len(report.SocialLinks) != 1 || report.SocialLinks[0] != want {
			t.Errorf("expected one Facebook link, got %+v", report.SocialLinks)
		}
	})

	t.Run("keywords come from all pages", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Keywords) == 0 {
			t.Fatal("expected keywords")
		}
		top := report.Keywords[0]
		if top.Word != "gopher" || top.Count != 3 {
			t.Errorf("expected gopher x3 first, got %+v", top)
		}
	})

	t.Run("max pages truncates the crawl", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		report, err := NewEngine(f, WithMaxPages(2)).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.PagesVisited != 2 {
			t.Errorf("expected 2 pages visited, got %d", report.PagesVisited)
		}
		if !report.Truncated {
			t.Error("expected truncated report")
		}
		if f.totalCalls() != 2 {
			t.Errorf("expected 2 fetches, got %d", f.totalCalls())
		}
	})

	t.Run("ignored links are discovered but not fetched", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		report, err := NewEngine(f, WithIgnorePatterns([]string{"/b"})).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := f.callCount("http://site.test/b"); n != 0 {
			t.Errorf("expected /b not fetched, got %d", n)
		}
		if report.DiscoveredLinks != 3 {
			t.Errorf("expected 3 discovered links, got %d", report.DiscoveredLinks)
		}
	})

	t.Run("fingerprint fetcher failure seals check failed", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		fp := newFakeFetcher(nil)
		fp.err = errors.New("connection refused")

		report, err := NewEngine(f, WithFingerprintFetcher(fp)).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Technologies.Status != model.TechnologyCheckFailed {
			t.Errorf("expected check failed, got %v", report.Technologies.Status)
		}
		if report.Technologies.Error == "" {
			t.Error("expected failure message")
		}
		if fp.totalCalls() != 1 {
			t.Errorf("expected one fingerprint fetch, got %d", fp.totalCalls())
		}
		if report.PagesFailed != 0 {
			t.Errorf("fingerprint failure must not count as a page failure, got %d", report.PagesFailed)
		}
	})

	t.Run("fingerprint fetcher response is used", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(threePageSite())
		fp := newFakeFetcher(map[string]fakePage{
			"http://site.test/": {body: `<link rel="stylesheet" href="/wp-content/themes/x.css">`},
		})

		report, err := NewEngine(f, WithFingerprintFetcher(fp)).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Technologies.Status != model.TechnologyDetected {
			t.Fatalf("expected detected, got %v", report.Technologies.Status)
		}
		found := false
		for _, n := range report.Technologies.Names {
			if n == "WordPress" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected WordPress, got %v", report.Technologies.Names)
		}
	})

	t.Run("redirect within the domain resolves links against the final URL", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":         {body: `<a href="/old/">old</a>`},
			"http://site.test/old/":     {body: `<a href="page">p</a>`, finalURL: "http://site.test/new/"},
			"http://site.test/new/page": {body: `<p>moved</p>`},
		})
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := f.callCount("http://site.test/new/page"); n != 1 {
			t.Errorf("expected /new/page fetched once, got %d", n)
		}
		if n := f.callCount("http://site.test/old/page"); n != 0 {
			t.Errorf("expected /old/page never fetched, got %d", n)
		}
		if report.PagesVisited != 3 {
			t.Errorf("expected 3 pages visited, got %d", report.PagesVisited)
		}
	})

	t.Run("redirect to another host keeps links in the domain", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":  {body: `<a href="/a">A</a>`, finalURL: "http://mirror.test/"},
			"http://site.test/a": {body: `<p>gopher</p>`, finalURL: "http://mirror.test/a"},
		})
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := f.callCount("http://site.test/a"); n != 1 {
			t.Errorf("expected /a fetched once, got %d", n)
		}
		if n := f.callCount("http://mirror.test/a"); n != 0 {
			t.Errorf("expected the other host never requested, got %d", n)
		}
		if report.PagesVisited != 2 || report.DiscoveredLinks != 1 {
			t.Errorf("expected 2 pages and 1 link, got %d and %d", report.PagesVisited, report.DiscoveredLinks)
		}
	})

	t.Run("report carries the seed title only", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":  {body: `<html><head><title> Gopher Home </title></head><body><a href="/a">A</a></body></html>`},
			"http://site.test/a": {body: `<html><head><title>Other Page</title></head><body></body></html>`},
		})
		report, err := NewEngine(f, WithWorkers(2)).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Title != "Gopher Home" {
			t.Errorf("expected seed title, got %q", report.Title)
		}
	})

	t.Run("plain text response contributes keywords", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":          {body: `<a href="/notes.txt">notes</a>`},
			"http://site.test/notes.txt": {body: "gopher\n\ngopher  gopher <a href=\"/hidden\">", contentType: "text/plain; charset=utf-8"},
		})
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := f.callCount("http://site.test/hidden"); n != 0 {
			t.Errorf("expected no links parsed from plain text, got %d fetches", n)
		}
		if len(report.Keywords) == 0 || report.Keywords[0].Word != "gopher" || report.Keywords[0].Count != 3 {
			t.Errorf("expected gopher x3 from the text body, got %+v", report.Keywords)
		}
	})

	t.Run("non-html response counts bandwidth only", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(map[string]fakePage{
			"http://site.test/":         {body: `<a href="/file.json">data</a>`},
			"http://site.test/file.json": {body: `{"href": "<a href='/hidden'>"}`, contentType: "application/json", contentLength: "40"},
		})
		report, err := NewEngine(f).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := f.callCount("http://site.test/hidden"); n != 0 {
			t.Errorf("expected no links parsed from JSON, got %d fetches", n)
		}
		want := int64(len(`<a href="/file.json">data</a>`)) + 40
		if report.BandwidthBytes != want {
			t.Errorf("expected %d bytes, got %d", want, report.BandwidthBytes)
		}
	})

	t.Run("invalid seed fails before fetching", func(t *testing.T) {
		t.Parallel()

		f := newFakeFetcher(nil)
		_, err := NewEngine(f).Run(context.Background(), "ftp://site.test/")
		if !errors.Is(err, ErrInvalidSeed) {
			t.Errorf("expected ErrInvalidSeed, got %v", err)
		}
		if f.totalCalls() != 0 {
			t.Errorf("expected no fetch, got %d", f.totalCalls())
		}
	})

	t.Run("cancelled context marks report interrupted", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := newFakeFetcher(threePageSite())
		report, err := NewEngine(f).Run(ctx, "http://site.test/")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if report == nil || !report.Interrupted {
			t.Fatal("expected interrupted report")
		}
		if report.PagesFailed != 0 {
			t.Errorf("cancelled fetches must not count as failures, got %d", report.PagesFailed)
		}
	})

	t.Run("several workers produce the same totals", func(t *testing.T) {
		t.Parallel()

		pages := map[string]fakePage{}
		seed := `<html><body>`
		for i := 0; i < 20; i++ {
			u := "http://site.test/p" + strconv.Itoa(i)
			seed += `<a href="/p` + strconv.Itoa(i) + `">p</a>`
			pages[u] = fakePage{body: `<a href="/">home</a><img src="x.png">`, contentLength: "10"}
		}
		pages["http://site.test/"] = fakePage{body: seed + `</body></html>`, contentLength: "10"}

		f := newFakeFetcher(pages)
		report, err := NewEngine(f, WithWorkers(4)).Run(context.Background(), "http://site.test/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.PagesVisited != 21 {
			t.Errorf("expected 21 pages visited, got %d", report.PagesVisited)
		}
		if f.totalCalls() != 21 {
			t.Errorf("expected 21 fetches, got %d", f.totalCalls())
		}
		if report.Images != 20 {
			t.Errorf("expected 20 images, got %d", report.Images)
		}
		if report.BandwidthBytes != 210 {
			t.Errorf("expected 210 bytes, got %d", report.BandwidthBytes)
		}
		if report.DiscoveredLinks != 21 {
			t.Errorf("expected 21 discovered links, got %d", report.DiscoveredLinks)
		}
	})
}

// TestEngineRunHTTP tests the engine with the real fetcher against an
// httptest server.
func TestEngineRunHTTP(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><a href="/about">about</a><a href="/old">old</a></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><img src="a.png"><a href="https://twitter.com/acme">t</a></body></html>`)
	})
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/about", http.StatusMovedPermanently)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	f, err := fetcher.New(fetcher.WithMaxAttempts(1))
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	report, err := NewEngine(f).Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PagesVisited != 3 {
		t.Errorf("expected 3 pages visited, got %d", report.PagesVisited)
	}
	if report.PagesFailed != 0 {
		t.Errorf("expected no failures, got %+v", report.Failures)
	}
	if report.Images != 2 {
		t.Errorf("expected 2 images (about page fetched directly and via redirect), got %d", report.Images)
	}
	if len(report.SocialLinks) != 1 || report.SocialLinks[0].Platform != "Twitter" {
		t.Errorf("expected one Twitter link, got %+v", report.SocialLinks)
	}
}

// TestEngineRunHTTPHostRedirect tests a site whose every page redirects to
// the same port on another host name.
func TestEngineRunHTTPHostRedirect(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, port, err := net.SplitHostPort(r.Host)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if host == "127.0.0.1" {
			http.Redirect(w, r, "http://localhost:"+port+r.URL.Path, http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><body><p>page %s</p><a href="/a">a</a><a href="/b">b</a></body></html>`, r.URL.Path)
	}))
	defer server.Close()

	f, err := fetcher.New(fetcher.WithMaxAttempts(1))
	if err != nil {
		t.Fatalf("failed to create fetcher: %v", err)
	}

	report, err := NewEngine(f).Run(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PagesVisited != 3 {
		t.Errorf("expected 3 pages visited, got %d", report.PagesVisited)
	}
	if report.DiscoveredLinks < 2 {
		t.Errorf("expected at least 2 discovered links, got %d", report.DiscoveredLinks)
	}
	if report.PagesFailed != 0 {
		t.Errorf("expected no failures, got %+v", report.Failures)
	}
}
