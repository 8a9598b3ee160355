// pkg/reference/keywords.go
package reference

import (
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

// KeywordEntry is one canonical value and the normalized keywords that signal it
type KeywordEntry struct {
	Value    string
	Keywords []string
}

// KeywordTable maps keywords to canonical values. Entry order is match priority.
type KeywordTable struct {
	Name    string
	entries []KeywordEntry
	exact   map[string]string
	values  *model.Vocabulary
}

func newKeywordTable(name string, entries []KeywordEntry) *KeywordTable {
	t := &KeywordTable{
		Name:    name,
		entries: entries,
		exact:   make(map[string]string),
	}
	values := make([]string, 0, len(entries))
	for _, e := range entries {
		values = append(values, e.Value)
		if key := textnorm.Normalize(e.Value); key != "" {
			if _, taken := t.exact[key]; !taken {
				t.exact[key] = e.Value
			}
		}
	}
	for _, e := range entries {
		for _, kw := range e.Keywords {
			if _, taken := t.exact[kw]; !taken {
				t.exact[kw] = e.Value
			}
		}
	}
	t.values = model.NewVocabulary(values...)
	return t
}

// Match returns the value of the first entry with a keyword present in the
// normalized text
func (t *KeywordTable) Match(normText string) (string, string, bool) {
	for _, e := range t.entries {
		for _, kw := range e.Keywords {
			if textnorm.ContainsPhrase(normText, kw) {
				return e.Value, kw, true
			}
		}
	}
	return "", "", false
}

// Resolve maps a field value that equals a canonical value or one of its
// keywords (after normalization) to the canonical value
func (t *KeywordTable) Resolve(raw string) (string, bool) {
	v, ok := t.exact[textnorm.Normalize(raw)]
	return v, ok
}

// Entries returns the table in priority order
func (t *KeywordTable) Entries() []KeywordEntry {
	return t.entries
}

// Vocabulary returns the canonical values as a closed set
func (t *KeywordTable) Vocabulary() *model.Vocabulary {
	return t.values
}
