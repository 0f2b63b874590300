// Package keyword ranks the most frequent words of crawled text.
//
// Text is lowercased, split at Unicode word boundaries (UAX #29), filtered
// to purely alphanumeric tokens that are not English stopwords, and counted.
// Ties keep the order in which words first appeared.
package keyword
