// pkg/textnorm/textnorm.go
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds text for alias matching: compatibility decomposition,
// combining marks stripped, lower case, punctuation replaced by spaces and
// whitespace collapsed. '+' and '#' count as word characters so that
// "C++" and "C#" keep their identity. Reference keys and query values must
// both pass through Normalize.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := true
	for _, r := range stripped {
		r = foldRune(r)
		if isWordRune(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Fold lower-cases and collapses whitespace but keeps symbols, for
// vocabularies such as currency signs that punctuation removal would erase.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// CollapseSpace trims and collapses internal whitespace without changing case
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func foldRune(r rune) rune {
	switch r {
	case 'đ', 'Đ':
		return 'd'
	case 'ł', 'Ł':
		return 'l'
	case 'ø', 'Ø':
		return 'o'
	case '_':
		return ' '
	}
	return unicode.ToLower(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

// ContainsPhrase reports whether phrase occurs in text on token boundaries.
// Both arguments must already be normalized.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// ContainsAnyPhrase reports whether any phrase occurs in text on token boundaries
func ContainsAnyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			return true
		}
	}
	return false
}

// ContainsTerm searches raw (lower-cased, unnormalized) text for term. Where
// the term begins or ends with a letter or digit, the neighbouring rune must
// not be one, so "arr" does not match inside "carry" while "$" matches anywhere.
func ContainsTerm(text, term string) bool {
	return IndexTerm(text, term, 0) >= 0
}

// IndexTerm returns the byte offset of the first boundary-respecting
// occurrence of term at or after from, or -1.
func IndexTerm(text, term string, from int) int {
	if term == "" {
		return -1
	}
	first, _ := utf8.DecodeRuneInString(term)
	last, _ := utf8.DecodeLastRuneInString(term)
	checkStart := isAlnum(first)
	checkEnd := isAlnum(last)

	for from <= len(text) {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return -1
		}
		start := from + i
		end := start + len(term)
		ok := true
		if checkStart && start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			ok = !isAlnum(prev)
		}
		if ok && checkEnd && end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			ok = !isAlnum(next)
		}
		if ok {
			return start
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return -1
}

// ContainsAnyTerm reports whether any term occurs in text per ContainsTerm
func ContainsAnyTerm(text string, terms []string) bool {
	for _, term := range terms {
		if ContainsTerm(text, term) {
			return true
		}
	}
	return false
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// SplitList splits a pipe-delimited reference cell into normalized, non-empty entries
func SplitList(cell string, fold func(string) string) []string {
	if strings.TrimSpace(cell) == "" {
		return nil
	}
	parts := strings.Split(cell, "|")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = fold(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
