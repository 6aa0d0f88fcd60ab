// Package match scores how well a provider search hit corresponds to
// the track that was asked for. Adapters reject hits below threshold so
// a wrong song's data never reaches the resolver.
package match

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the score below which a hit is considered a miss.
const DefaultThreshold = 0.6

// Score returns a 0..1 similarity between the requested (title, artist)
// and a candidate pair. Title weighs 60%, artist 40%; with no artist in
// the query the title decides alone.
func Score(wantTitle, wantArtist, gotTitle, gotArtist string) float64 {
	titleScore := similarity(normalize(wantTitle), normalize(gotTitle))
	if wantArtist == "" {
		return titleScore
	}
	artistScore := similarity(normalize(wantArtist), normalize(gotArtist))
	return titleScore*0.6 + artistScore*0.4
}

// similarity converts levenshtein distance into a 0..1 ratio.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	return 1.0 - float64(dist)/float64(longest)
}

// normalize lowercases, strips featuring suffixes, bracketed qualifiers
// and punctuation, and collapses whitespace.
func normalize(s string) string {
	s = strings.ToLower(s)

	for _, marker := range []string{"feat.", "ft.", "featuring"} {
		if idx := strings.Index(s, marker); idx >= 0 {
			s = s[:idx]
		}
	}
	s = stripBracketed(s, '(', ')')
	s = stripBracketed(s, '[', ']')

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stripBracketed(s string, open, closing rune) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case open:
			depth++
		case closing:
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}
