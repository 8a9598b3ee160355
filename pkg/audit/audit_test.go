package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/tabular"
)

func change(f model.Field, op model.Operation, reason string) model.FieldChange {
	rec := model.NewRecord()
	rec.Set(model.FieldSourceName, model.Present("jobs"))
	rec.Set(model.FieldSourceID, model.Present("7"))
	return model.NewFieldChange(rec, f, model.Unknown(), model.Present("x"), op, reason)
}

func TestRecordCountsPerFieldAndCategory(t *testing.T) {
	acc := NewAccumulator()
	acc.Record(change(model.FieldMinSalary, model.OpExtracted, "salary_currency_window"))
	acc.Record(change(model.FieldMinSalary, model.OpExtracted, "salary_currency_window"))
	acc.Record(change(model.FieldCurrency, model.OpInvalidated, "currency_lookup"))
	acc.Record(change(model.FieldCity, model.OpUnmatched, "city_alias"))

	assert.Equal(t, int64(2), acc.Field(model.FieldMinSalary).Extracted)
	assert.Equal(t, int64(1), acc.Field(model.FieldCurrency).Invalidated)
	assert.Equal(t, int64(2), acc.Rule("salary_currency_window"))
	assert.Equal(t, int64(1), acc.Category(CategoryUnresolvedEnumValue))
	assert.Equal(t, int64(1), acc.Category(CategoryUnmatchedCanonicalValue))
	assert.Equal(t, FieldCounters{}, acc.Field(model.FieldIndustry))
}

func TestUnmatchedSkillsOrdering(t *testing.T) {
	acc := NewAccumulator()
	acc.UnmatchedSkill("fakeskillxyz", "FakeSkillXYZ")
	acc.UnmatchedSkill("zeta", "Zeta")
	acc.UnmatchedSkill("zeta", "ZETA")
	acc.UnmatchedSkill("alpha", "Alpha")
	acc.UnmatchedSkill("", "ignored")

	got := acc.UnmatchedSkills()
	require.Len(t, got, 3)
	assert.Equal(t, SkillMiss{Norm: "zeta", Example: "Zeta", Count: 2}, got[0])
	assert.Equal(t, "alpha", got[1].Norm)
	assert.Equal(t, "fakeskillxyz", got[2].Norm)
}

func TestDropsAndMerge(t *testing.T) {
	a := NewAccumulator()
	a.Drop(DropNoCompany)
	a.UnmatchedCity("jobs", "1", "Atlantis")
	a.UnmatchedSkill("foo", "Foo")
	a.Temporal().Observe("jobs", 2023)

	b := NewAccumulator()
	b.Drop(DropNoCompany)
	b.Drop(DropAllNA)
	b.UnmatchedCity("other", "4", "Gotham")
	b.UnmatchedSkill("foo", "FOO")
	b.SkillCategoryOutcome(CategoryAudit{Right: 1, Enriched: 1})
	b.MalformedRows(3)
	b.Temporal().Observe("jobs", 2023)

	a.Merge(b)
	a.Merge(nil)

	assert.Equal(t, int64(2), a.Dropped(DropNoCompany))
	assert.Equal(t, int64(1), a.Dropped(DropAllNA))
	assert.Equal(t, int64(3), a.TotalDropped())
	assert.Equal(t, int64(3), a.Category(CategoryRecordDropped))
	assert.Equal(t, int64(3), a.Category(CategoryMalformedRow))
	assert.Len(t, a.UnmatchedCities(), 2)
	assert.Equal(t, "Atlantis", a.UnmatchedCities()[0].Raw)
	assert.Equal(t, []SkillMiss{{Norm: "foo", Example: "Foo", Count: 2}}, a.UnmatchedSkills())
	assert.Equal(t, CategoryAudit{Right: 1, Enriched: 1}, a.SkillCategory())
	assert.Equal(t, []YearCount{{Year: 2023, Rows: 2}}, a.Temporal().ByYear())

	s := a.Summary()
	assert.Equal(t, int64(3), s.TotalDropped)
	assert.Equal(t, 2, s.UnmatchedCities)
}

func TestTemporalCap(t *testing.T) {
	tm := NewTemporal()
	add := func(source string, year, n int) {
		for i := 0; i < n; i++ {
			tm.Observe(source, year)
		}
	}
	add("a", 2019, 10)
	add("a", 2020, 20)
	add("b", 2020, 10)
	add("a", 2021, 40)
	add("b", 2022, 500)

	// per-year totals 10, 30, 40, 500: median 35, threshold 105
	yc, ok := tm.Cap()
	require.True(t, ok)
	assert.Equal(t, 35.0, yc.MedianRows)
	assert.Equal(t, []int{2022}, yc.SkewedYears)
	assert.Equal(t, 35.0, yc.P75NonSkew)
	assert.Equal(t, 105.0, yc.SecondaryCap)
	assert.Equal(t, int64(35), yc.FinalCap)
	assert.Equal(t, 4, yc.YearsObserved)

	bySource := tm.BySourceYear()
	require.Len(t, bySource, 5)
	assert.Equal(t, YearCount{Source: "a", Year: 2019, Rows: 10}, bySource[0])
	assert.Equal(t, YearCount{Source: "b", Year: 2022, Rows: 500}, bySource[4])
}

func TestTemporalCapEmpty(t *testing.T) {
	_, ok := NewTemporal().Cap()
	assert.False(t, ok)
}

func TestObservePostingIgnoresSentinels(t *testing.T) {
	acc := NewAccumulator()
	acc.ObservePosting("jobs", model.Unknown())
	acc.ObservePosting("jobs", model.Present("not a date"))
	acc.ObservePosting("jobs", model.Present("2024-03-01"))
	assert.Equal(t, []YearCount{{Source: "jobs", Year: 2024, Rows: 1}}, acc.Temporal().BySourceYear())
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 2.5, percentile([]float64{4, 1, 3, 2}, 50))
	assert.Equal(t, 3.25, percentile([]float64{1, 2, 3, 4}, 75))
	assert.Equal(t, 7.0, percentile([]float64{7}, 75))
}

func TestWriteAndResetReports(t *testing.T) {
	dir := t.TempDir()
	acc := NewAccumulator()
	acc.UnmatchedCity("jobs", "3", "Atlantis")
	acc.UnmatchedSkill("fakeskillxyz", "fakeskillxyz")
	acc.UnmatchedSkillLevel(SkillLevelRow{SourceName: "jobs", SourceID: "3", SkillName: "SQL", RoleName: "Data Analyst"})
	acc.Temporal().Observe("jobs", 2024)

	require.NoError(t, acc.WriteReports(dir))

	skills, err := tabular.ReadAll(filepath.Join(dir, FileUnmatchedSkill))
	require.NoError(t, err)
	require.Len(t, skills.Rows, 1)
	assert.Equal(t, "fakeskillxyz", skills.Rows[0]["skill_norm"])
	assert.Equal(t, "1", skills.Rows[0]["count"])

	cities, err := tabular.ReadAll(filepath.Join(dir, FileUnmatchedCity))
	require.NoError(t, err)
	require.Len(t, cities.Rows, 1)
	assert.Equal(t, "Atlantis", cities.Rows[0]["city_raw"])

	capSummary, err := tabular.ReadAll(filepath.Join(dir, FileYearCapSummary))
	require.NoError(t, err)
	assert.NotEmpty(t, capSummary.Rows)

	require.NoError(t, ResetReports(dir))
	for _, name := range reportFiles {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.True(t, os.IsNotExist(err), name)
	}
}

func TestCategoryTextRoundTrip(t *testing.T) {
	text, err := CategoryReferenceAmbiguity.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ReferenceAmbiguity", string(text))

	var c Category
	require.NoError(t, c.UnmarshalText(text))
	assert.Equal(t, CategoryReferenceAmbiguity, c)
	assert.Error(t, c.UnmarshalText([]byte("Bogus")))
}

func TestStageSnapshotsMergeInOrder(t *testing.T) {
	dir := t.TempDir()

	extract := NewAccumulator()
	extract.Record(change(model.FieldCity, model.OpExtracted, "description"))
	require.NoError(t, extract.SaveStage(dir, "extract"))

	canonical := NewAccumulator()
	canonical.UnmatchedCity("jobs", "3", "Atlantis")
	canonical.UnmatchedSkill("fakeskillxyz", "FakeSkillXYZ")
	canonical.Ambiguity("city_vs_country")
	require.NoError(t, canonical.SaveStage(dir, "canonicalize"))

	project := NewAccumulator()
	project.Drop(DropNoCompany)
	project.UnmatchedSkill("fakeskillxyz", "fakeskillxyz")
	project.Temporal().Observe("jobs", 2024)
	require.NoError(t, project.SaveStage(dir, "project"))
	require.NoError(t, project.SaveStage(dir, "project"))

	acc, err := LoadStages(dir, "extract", "canonicalize", "project", "missing")
	require.NoError(t, err)

	assert.Equal(t, int64(1), acc.Field(model.FieldCity).Extracted)
	assert.Equal(t, []CityRow{{SourceName: "jobs", SourceID: "3", Raw: "Atlantis"}}, acc.UnmatchedCities())
	assert.Equal(t, []SkillMiss{{Norm: "fakeskillxyz", Example: "FakeSkillXYZ", Count: 2}}, acc.UnmatchedSkills())
	assert.Equal(t, int64(1), acc.Dropped(DropNoCompany))
	assert.Equal(t, int64(1), acc.Category(CategoryReferenceAmbiguity))
	assert.Equal(t, int64(1), acc.Rule("city_vs_country"))
	assert.Equal(t, []YearCount{{Year: 2024, Rows: 1}}, acc.Temporal().ByYear())

	require.NoError(t, ResetReports(dir))
	acc, err = LoadStages(dir, "extract", "canonicalize", "project")
	require.NoError(t, err)
	assert.Empty(t, acc.UnmatchedCities())
	assert.Zero(t, acc.TotalDropped())
}
