package model

import (
	"sort"
	"time"
)

// bytesPerMegabyte is used when presenting bandwidth in MB.
const bytesPerMegabyte = 1024 * 1024

// Report is the summary produced by one crawl run.
// It is created when the run starts and completed when the frontier drains.
//
// Design decision: We use a single flat struct rather than nesting per-concern
// sub-reports to keep serialization and database storage simple. The number
// of fields is small enough that nesting would add no clarity.
type Report struct {
	// RunID uniquely identifies the run. Used as the archive key.
	RunID string `json:"run_id"`

	// SeedURL is the normalized starting URL.
	SeedURL string `json:"seed_url"`

	// Domain is the host of SeedURL. Only links on this host are followed.
	Domain string `json:"domain"`

	// Title is the <title> of the seed page, if it had one.
	Title string `json:"title,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`

	// PagesVisited is the size of the visited set, failed fetches included.
	PagesVisited int `json:"pages_visited"`

	// PagesFailed is the number of visited URLs whose fetch failed.
	PagesFailed int `json:"pages_failed"`

	// DiscoveredLinks is the number of unique same-domain URLs found in
	// anchors over the whole run, whether or not they were fetched.
	DiscoveredLinks int `json:"discovered_links"`

	// BandwidthBytes is the total response size of successful fetches.
	BandwidthBytes int64 `json:"bandwidth_bytes"`

	// Images is the total image count over all successful fetches.
	Images int `json:"images"`

	// Technologies is the once-per-run fingerprint outcome.
	Technologies TechnologyResult `json:"technologies"`

	// SocialLinks are the unique social-media links found, sorted.
	SocialLinks []SocialLink `json:"social_links,omitempty"`

	// Keywords are the most frequent words over all crawled text.
	Keywords []KeywordCount `json:"keywords,omitempty"`

	// Failures lists every URL whose fetch failed.
	Failures []PageFailure `json:"failures,omitempty"`

	// Interrupted is true if the run was cancelled before the frontier drained.
	Interrupted bool `json:"interrupted,omitempty"`

	// Truncated is true if the run stopped at the configured page limit.
	Truncated bool `json:"truncated,omitempty"`
}

// SocialLink is a link to a social-media platform found in an anchor.
type SocialLink struct {
	// Platform is the display name of the platform (e.g., "Facebook").
	Platform string `json:"platform"`

	// URL is the raw href as it appeared in the page.
	URL string `json:"url"`
}

// KeywordCount is a word with its number of occurrences.
type KeywordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// PageFailure records a URL that could not be fetched.
type PageFailure struct {
	// URL is the URL that failed.
	URL string `json:"url"`

	// StatusCode is the final HTTP status, or 0 for transport errors.
	StatusCode int `json:"status_code,omitempty"`

	// Error is the error message.
	Error string `json:"error"`
}

// NewReport creates a Report for the given seed and domain.
func NewReport(runID, seedURL, domain string) *Report {
	return &Report{
		RunID:     runID,
		SeedURL:   seedURL,
		Domain:    domain,
		StartedAt: time.Now(),
	}
}

// BandwidthMB returns the bandwidth in megabytes (1 MB = 1024*1024 bytes).
func (r *Report) BandwidthMB() float64 {
	return float64(r.BandwidthBytes) / bytesPerMegabyte
}

// PagesSucceeded returns the number of visited pages that were fetched successfully.
func (r *Report) PagesSucceeded() int {
	return r.PagesVisited - r.PagesFailed
}

// SortSocialLinks orders links by platform, then URL.
func SortSocialLinks(links []SocialLink) {
	sort.Slice(links, func(i, j int) bool {
		if links[i].Platform != links[j].Platform {
			return links[i].Platform < links[j].Platform
		}
		return links[i].URL < links[j].URL
	})
}
