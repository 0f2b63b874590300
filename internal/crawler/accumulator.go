package crawler

import (
	"strings"
	"sync"

	"github.com/nao1215/websummary/internal/model"
)

// Fingerprint guard states.
const (
	fingerprintPending = iota
	fingerprintRunning
	fingerprintSealed
)

// accumulator holds the run totals. Every field only grows.
//
// Design decision: We guard all totals with one mutex rather than using
// atomics per field because:
//  1. A page contributes to several totals at once
//  2. Sets need a lock anyway
//  3. The critical sections are tiny compared to a fetch
type accumulator struct {
	mu sync.Mutex

	discovered map[string]struct{}
	bandwidth  int64
	images     int
	social     map[model.SocialLink]struct{}
	text       strings.Builder
	failures   []model.PageFailure

	title string

	fingerprintState int
	technologies     model.TechnologyResult
}

func newAccumulator() *accumulator {
	return &accumulator{
		discovered: make(map[string]struct{}),
		social:     make(map[model.SocialLink]struct{}),
	}
}

// addPage folds one successfully fetched page into the totals.
func (a *accumulator) addPage(page *model.Page, links []string, size int64, social []model.SocialLink) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.text.WriteByte(' ')
	a.text.WriteString(page.Text)

	for _, link := range links {
		a.discovered[link] = struct{}{}
	}
	a.images += page.ImageCount
	a.bandwidth += size
	for _, link := range social {
		a.social[link] = struct{}{}
	}
}

// setTitle records the seed page title.
func (a *accumulator) setTitle(title string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.title = title
}

// addFailure records a failed fetch.
func (a *accumulator) addFailure(failure model.PageFailure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, failure)
}

// claimFingerprint reports whether the caller won the right to run the
// once-per-run fingerprint check. At most one caller ever gets true.
func (a *accumulator) claimFingerprint() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fingerprintState != fingerprintPending {
		return false
	}
	a.fingerprintState = fingerprintRunning
	return true
}

// sealFingerprint stores the fingerprint result. Later calls are ignored.
func (a *accumulator) sealFingerprint(result model.TechnologyResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fingerprintState == fingerprintSealed {
		return
	}
	a.technologies = result
	a.fingerprintState = fingerprintSealed
}

// allText returns the accumulated page text.
func (a *accumulator) allText() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text.String()
}

// fill copies the totals into report.
func (a *accumulator) fill(report *model.Report) {
	a.mu.Lock()
	defer a.mu.Unlock()

	report.Title = a.title
	report.DiscoveredLinks = len(a.discovered)
	report.BandwidthBytes = a.bandwidth
	report.Images = a.images
	report.Technologies = a.technologies
	report.PagesFailed = len(a.failures)
	report.Failures = append([]model.PageFailure(nil), a.failures...)

	links := make([]model.SocialLink, 0, len(a.social))
	for link := range a.social {
		links = append(links, link)
	}
	model.SortSocialLinks(links)
	report.SocialLinks = links
}
