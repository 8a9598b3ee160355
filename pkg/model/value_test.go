package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw   string
		state State
		text  string
	}{
		{"__NA__", StateUnknown, ""},
		{" __NA__ ", StateUnknown, ""},
		{"__INVALID__", StateInvalid, ""},
		{"__UNMATCHED__", StateUnmatched, ""},
		{"", StateUnknown, ""},
		{"NaN", StateUnknown, ""},
		{"null", StateUnknown, ""},
		{"Hanoi", StatePresent, "Hanoi"},
		{" padded ", StatePresent, " padded "},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := ParseValue(tt.raw)
			assert.Equal(t, tt.state, v.State())
			assert.Equal(t, tt.text, v.Text())
		})
	}
}

func TestValueStringUsesMarkers(t *testing.T) {
	assert.Equal(t, NotAvailableMarker, Unknown().String())
	assert.Equal(t, InvalidMarker, Invalid().String())
	assert.Equal(t, UnmatchedMarker, Unmatched().String())
	assert.Equal(t, "USD", Present("USD").String())

	for _, v := range []Value{Unknown(), Invalid(), Unmatched(), Present("x")} {
		assert.Equal(t, v, ParseValue(v.String()))
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.NotEqual(t, Unknown(), Invalid())
	assert.NotEqual(t, Invalid(), Unmatched())
	assert.NotEqual(t, Unknown(), Unmatched())
	assert.True(t, Invalid().IsSentinel())
	assert.False(t, Present("a").IsSentinel())
	assert.True(t, Present("   ").IsUnknown())
}

func TestSplitAndJoinMulti(t *testing.T) {
	tokens := SplitMulti(Present(" SQL | Python||R "))
	require.Equal(t, []string{"SQL", "Python", "R"}, tokens)
	assert.Equal(t, Present("SQL|Python|R"), JoinMulti(tokens))
	assert.Nil(t, SplitMulti(Unmatched()))
	assert.True(t, JoinMulti(nil).IsUnknown())
}

func TestRecordEquality(t *testing.T) {
	a := NewRecord()
	a.Set(FieldCity, Present("Hanoi"))
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Set(FieldCity, Unmatched())
	assert.False(t, a.Equal(b))
	assert.Equal(t, Present("Hanoi"), a.Get(FieldCity))
}

func TestRecordHasMeaningfulValue(t *testing.T) {
	rec := NewRecord()
	rec.Set(FieldSourceName, Present("itviec"))
	rec.Set(FieldSourceID, Present("3"))
	assert.False(t, rec.HasMeaningfulValue())

	rec.Set(FieldMinSalary, Invalid())
	assert.False(t, rec.HasMeaningfulValue())

	rec.Set(FieldIndustry, Present("Finance"))
	assert.True(t, rec.HasMeaningfulValue())
}

func TestHeaderAndParseField(t *testing.T) {
	header := Header()
	require.Len(t, header, len(Fields()))
	assert.Equal(t, "source_id", header[0])

	for i, name := range header {
		f, ok := ParseField(name)
		require.True(t, ok, name)
		assert.Equal(t, Field(i), f)
		assert.Equal(t, name, f.String())
	}

	_, ok := ParseField("salary_text")
	assert.False(t, ok)
}

func TestVocabularyLookup(t *testing.T) {
	got, ok := RemoteOptions.Lookup(" hybrid ")
	require.True(t, ok)
	assert.Equal(t, "Hybrid", got)
	assert.True(t, RemoteOptions.Contains("Remote"))
	assert.False(t, RemoteOptions.Contains("remote"))
}

func TestOutputTablesMatchRowWidths(t *testing.T) {
	widths := map[string]int{
		TableCompanies:   len(Company{}.Row()),
		TableLocations:   len(Location{}.Row()),
		TableRoles:       len(Role{}.Row()),
		TableSkills:      len(Skill{}.Row()),
		TableJobPostings: len(JobPosting{}.Row()),
		TableJobRoles:    len(JobRole{}.Row()),
		TableJobSkills:   len(JobSkill{}.Row()),
		TableJobLevels:   len(JobLevel{}.Row()),
	}
	tables := OutputTables()
	require.Len(t, tables, len(widths))
	for _, tm := range tables {
		assert.Equal(t, widths[tm.Table], len(tm.Columns), tm.Table)
	}
}
