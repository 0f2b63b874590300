package keyword

import (
	"sort"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/websummary/internal/model"
)

// DefaultTop is the number of keywords returned by default.
const DefaultTop = 10

// Analyzer counts keywords in text.
type Analyzer struct {
	top       int
	stopwords map[string]struct{}
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTop sets the number of keywords returned. Values < 1 are ignored.
func WithTop(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.top = n
		}
	}
}

// WithStopwords adds words to the stopword list.
// Words are compared after lowercasing.
func WithStopwords(extra []string) Option {
	return func(a *Analyzer) {
		merged := make(map[string]struct{}, len(a.stopwords)+len(extra))
		for w := range a.stopwords {
			merged[w] = struct{}{}
		}
		lower := cases.Lower(language.English)
		for _, w := range extra {
			merged[lower.String(w)] = struct{}{}
		}
		a.stopwords = merged
	}
}

// NewAnalyzer creates an Analyzer with the English stopword list.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		top:       DefaultTop,
		stopwords: englishStopwords,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns up to the configured number of most frequent keywords,
// sorted by count descending. Words with equal counts keep their order of
// first occurrence. Empty text yields an empty result.
func (a *Analyzer) Analyze(text string) []model.KeywordCount {
	// cases.Caser keeps state and must not be shared between goroutines.
	lowered := cases.Lower(language.English).String(text)

	counts := make(map[string]int)
	var order []string

	tokens := words.FromString(lowered)
	for tokens.Next() {
		word := tokens.Value()
		if !isAlnum(word) {
			continue
		}
		if _, stop := a.stopwords[word]; stop {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	result := make([]model.KeywordCount, len(order))
	for i, word := range order {
		result[i] = model.KeywordCount{Word: word, Count: counts[word]}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	if len(result) > a.top {
		result = result[:a.top]
	}
	return result
}

// isAlnum reports whether s is non-empty and made only of letters and numbers.
func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
