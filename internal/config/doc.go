// Package config provides configuration structures and utilities for websummary.
// It defines the crawl, transport and report options for a single run and
// loads optional per-site settings from a YAML file.
package config
