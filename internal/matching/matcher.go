// Package matching resolves incoming title/author pairs to existing books
// using normalized string similarity, so that near-duplicate titles from
// repeated or sloppy exports collapse into a single book entity.
package matching

import (
	"strings"
	"unicode"

	"github.com/clipshelf/clipshelf/internal/entities"
)

// DefaultThreshold is the minimum similarity for two titles to be
// considered the same book.
const DefaultThreshold = 0.85

// Matcher finds the existing book a clipping belongs to, if any.
type Matcher struct {
	threshold float64
}

func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Match returns the best candidate whose title (and author, when both sides
// carry one) clears the similarity threshold, or nil when no candidate does.
// An absent author on either side does not veto a title match.
func (m *Matcher) Match(candidates []*entities.Book, title, author string) *entities.Book {
	normTitle := NormalizeTitle(title)
	normAuthor := normalizeString(author)

	var best *entities.Book
	var bestSim float64

	for _, candidate := range candidates {
		titleSim := Similarity(NormalizeTitle(candidate.Title), normTitle)
		if titleSim < m.threshold {
			continue
		}

		if normAuthor != "" && candidate.Author != "" {
			authorSim := Similarity(normalizeString(candidate.Author), normAuthor)
			if authorSim < m.threshold {
				continue
			}
		}

		if best == nil || titleSim > bestSim {
			best = candidate
			bestSim = titleSim
		}
	}

	return best
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// normalizeString normalizes a string for comparison.
func normalizeString(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	return s
}

// NormalizeTitle normalizes a book title for comparison.
// Removes leading articles and punctuation, collapses whitespace.
func NormalizeTitle(s string) string {
	s = normalizeString(s)

	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}

	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// Similarity calculates the similarity between two strings (0.0-1.0)
// as a Levenshtein distance ratio.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	distance := levenshteinDistance(a, b)
	maxLen := max(len(a), len(b))

	return 1.0 - float64(distance)/float64(maxLen)
}

// levenshteinDistance calculates the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(a)][len(b)]
}
