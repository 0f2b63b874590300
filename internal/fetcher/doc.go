// Package fetcher retrieves pages over HTTP for the crawler.
//
// HTTPFetcher wraps an http.Client with the retry policy of the summary
// crawler: a fixed number of attempts, exponential backoff between them, and
// retries on transport errors and on 500, 502 and 504 responses. Every other
// non-2xx status fails immediately with a *FetchError.
//
// Responses are decoded manually (gzip, deflate, br) so that the
// Content-Length header still describes the bytes on the wire. The crawler
// uses it for bandwidth accounting.
//
// A fetcher can route requests through an HTTP or SOCKS5 proxy, inject a
// site cookie and extra headers into every request, and cap the request
// rate shared by all crawl workers.
package fetcher
