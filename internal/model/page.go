package model

import (
	"mime"
	"net/textproto"
	"strings"
)

// Page represents a fetched web page with the structure extracted from it.
// A Page is transient: the crawl engine folds it into the run accumulators
// and then drops it.
//
// Design decision: We keep the parsed fields flat instead of retaining a DOM
// because:
// 1. Every consumer (fingerprinter, social detector, keyword analyzer) only
// needs a handful of attribute lists
// 2. Pages are discarded right after accumulation, so a DOM would be waste
// 3. Flat slices are trivial to build in tests
type Page struct {
	// URL is the URL the page was requested with.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	// Keys are canonicalized header names.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title extracted from the <title> tag.
	Title string `json:"title,omitempty"`

	// Anchors contains the raw href attribute of every <a> element,
	// in document order. Hrefs are not resolved.
	Anchors []string `json:"anchors,omitempty"`

	// Scripts contains the raw src attribute of every <script> element.
	Scripts []string `json:"scripts,omitempty"`

	// Stylesheets contains the raw href attribute of every <link> element.
	Stylesheets []string `json:"stylesheets,omitempty"`

	// Comments contains the text of every HTML comment.
	Comments []string `json:"comments,omitempty"`

	// Generator is the content of <meta name="generator">, if any.
	Generator string `json:"generator,omitempty"`

	// Text is the visible text of the page, whitespace-joined.
	Text string `json:"-"`

	// ImageCount is the number of <img> elements plus elements whose
	// inline style declares a background-image.
	ImageCount int `json:"image_count"`
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
// Lookups use the canonical header form, so "server" finds "Server".
func (p *Page) GetHeader(name string) string {
	if values := p.Headers[textproto.CanonicalMIMEHeaderKey(name)]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsText returns true for text/* content types other than HTML,
// such as text/plain or text/markdown.
func (p *Page) IsText() bool {
	if p.ContentType == "" || p.IsHTML() {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "text/")
}

// IsHTML returns true if the page content type indicates HTML.
// An empty content type is treated as HTML because many small sites
// omit the header entirely.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(p.ContentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(p.ContentType), "text/html")
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
