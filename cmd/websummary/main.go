// Package main provides the entry point for the websummary CLI.
//
// websummary crawls a single website from a seed URL and prints a summary:
// discovered links, bandwidth, images, detected technologies, social-media
// links and the most used keywords.
//
// Usage:
//
//	websummary scan <url>
//	websummary history [domain]
//
// See --help for all available options.
package main

// main is the entry point for websummary.
func main() {
	Execute()
}
