// Package detect matches crawled pages against fixed catalogs of
// technology and social-media signatures.
//
// Both catalogs are package-level tables compiled once at init and never
// modified, so a Fingerprinter or SocialDetector can be shared by any
// number of crawl workers without locking.
//
// The Fingerprinter reports which client libraries, CMSs and server-side
// technologies a page reveals through its script and stylesheet URLs,
// HTML comments, meta generator tag, response headers and its own URL.
// The SocialDetector reports anchors that point at social-media platforms.
package detect
