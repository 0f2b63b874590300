package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/nao1215/websummary/internal/model"
	"github.com/nao1215/websummary/internal/report"
)

// consoleObserver prints crawl progress lines as pages are processed.
// Workers call it concurrently, so every write holds mu.
type consoleObserver struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsoleObserver(out io.Writer) *consoleObserver {
	return &consoleObserver{out: out}
}

// OnVisit prints the URL about to be fetched.
func (o *consoleObserver) OnVisit(url string) {
	o.printf("Visiting: %s\n", url)
}

// OnLinks prints the number of same-domain links found on a page.
// Pages without links print nothing.
func (o *consoleObserver) OnLinks(url string, count int) {
	if count == 0 {
		return
	}
	o.printf("Found %d links on %s\n", count, url)
}

// OnTechnologies prints the fingerprint result when it is sealed.
func (o *consoleObserver) OnTechnologies(result model.TechnologyResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, line := range report.TechnologyLines(result) {
		fmt.Fprintln(o.out, line)
	}
}

// OnFailure prints a failed fetch.
func (o *consoleObserver) OnFailure(failure model.PageFailure) {
	if failure.StatusCode != 0 {
		o.printf("HTTP error visiting %s: %s\n", failure.URL, failure.Error)
		return
	}
	o.printf("Error visiting %s: %s\n", failure.URL, failure.Error)
}

func (o *consoleObserver) printf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, format, args...)
}
