package crawler

import (
	"net/url"
	"path/filepath"
	"strings"
)

// skippedPrefixes are href schemes that never lead to a crawlable page.
var skippedPrefixes = []string{"javascript:", "mailto:", "tel:", "data:"}

// LinkResolver turns raw anchor hrefs into absolute same-domain URLs.
type LinkResolver struct {
	// domain is the lowercased host (with port, if any) of the seed URL.
	domain string
}

// NewLinkResolver creates a LinkResolver for the given domain.
// The comparison is case-insensitive and includes the port.
func NewLinkResolver(domain string) *LinkResolver {
	return &LinkResolver{domain: strings.ToLower(domain)}
}

// Domain returns the domain links are restricted to.
func (r *LinkResolver) Domain() string {
	return r.domain
}

// Resolve resolves hrefs against pageURL and returns the normalized
// http(s) URLs whose host equals the domain, deduplicated in first-seen
// order. Malformed hrefs are dropped. An unparseable pageURL yields nil.
func (r *LinkResolver) Resolve(pageURL string, hrefs []string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string
	for _, href := range hrefs {
		u, ok := resolveHref(base, href)
		if !ok || !r.inDomain(u) {
			continue
		}
		normalized := normalizeURL(u)
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		links = append(links, normalized)
	}
	return links
}

// inDomain reports whether u is an http(s) URL on the resolver's domain.
func (r *LinkResolver) inDomain(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.domain)
}

// resolveHref resolves a single href against base.
func resolveHref(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return nil, false
	}
	lower := strings.ToLower(href)
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return nil, false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return base.ResolveReference(ref), true
}

// normalizeURL normalizes a URL for deduplication.
//
// Design decision: We normalize URLs because:
//  1. Same page can have different URL representations
//  2. Fragment (#anchor) doesn't change content
//  3. Scheme and host are case-insensitive
func normalizeURL(u *url.URL) string {
	normalized := *u
	normalized.Fragment = ""
	normalized.RawFragment = ""
	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	// http://example.com and http://example.com/ are the same page.
	if normalized.Path == "" {
		normalized.Path = "/"
		normalized.RawPath = ""
	}

	return normalized.String()
}

// ignoreMatcher decides which same-domain URLs stay out of the frontier.
type ignoreMatcher struct {
	patterns []string
}

// ignored reports whether the path of rawURL matches any ignore pattern.
func (m ignoreMatcher) ignored(rawURL string) bool {
	if len(m.patterns) == 0 {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range m.patterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/logout*" matches "/logout", "/logout-all"
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	return matched
}
