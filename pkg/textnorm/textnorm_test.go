package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"diacritics", "Hồ Chí Minh", "ho chi minh"},
		{"vietnamese d", "Đà Nẵng", "da nang"},
		{"punctuation", "Ho Chi Minh City, Vietnam!", "ho chi minh city vietnam"},
		{"whitespace", "  Data \t Engineer \n", "data engineer"},
		{"plus and hash kept", "C++ / C#", "c++ c#"},
		{"dots split", "Node.js", "node js"},
		{"underscore", "full_time", "full time"},
		{"empty", "", ""},
		{"only punctuation", "-- ; --", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, s := range []string{"São Paulo", "Machine-Learning Engineer", "Power BI (Microsoft)"} {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), s)
	}
}

func TestFoldKeepsSymbols(t *testing.T) {
	assert.Equal(t, "$", Fold(" $ "))
	assert.Equal(t, "us dollar", Fold("US   Dollar"))
	assert.Equal(t, "€", Fold("€"))
}

func TestContainsPhrase(t *testing.T) {
	text := Normalize("We use Google Cloud and Go for data pipelines")
	assert.True(t, ContainsPhrase(text, "go"))
	assert.True(t, ContainsPhrase(text, "google cloud"))
	assert.False(t, ContainsPhrase(text, "goo"))
	assert.False(t, ContainsPhrase(text, "cloud and g"))
	assert.False(t, ContainsPhrase(text, ""))
}

func TestContainsTerm(t *testing.T) {
	assert.True(t, ContainsTerm("annual salary $5,000", "$"))
	assert.True(t, ContainsTerm("arr grew", "arr"))
	assert.False(t, ContainsTerm("we carry on", "arr"))
	assert.True(t, ContainsTerm("paid in eur.", "eur"))
	assert.False(t, ContainsTerm("offices in europe", "eur"))
	assert.True(t, ContainsTerm("lương 20 triệu", "triệu"))
	assert.False(t, ContainsTerm("", "x"))
}

func TestIndexTermSkipsEmbeddedMatches(t *testing.T) {
	text := "europe eur"
	assert.Equal(t, 7, IndexTerm(text, "eur", 0))
	assert.Equal(t, -1, IndexTerm(text, "eur", 8))
}

func TestSplitList(t *testing.T) {
	got := SplitList("Python| py |python||", Normalize)
	assert.Equal(t, []string{"python", "py"}, got)
	assert.Nil(t, SplitList("  ", Normalize))
}
