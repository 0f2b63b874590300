// Package model defines the core data structures used throughout websummary.
//
// This package contains the following main types:
//   - Page: A fetched web page with its parsed structure
//   - Report: The summary produced by a single crawl run
//   - TechnologyResult: The once-per-run technology fingerprint outcome
//   - SocialLink, KeywordCount, PageFailure: report line items
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, detect, report and database packages all need
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
