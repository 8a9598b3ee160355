package reference

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

func loadFixture(t *testing.T) *Registry {
	t.Helper()
	reg, err := LoadDir("testdata", nil)
	require.NoError(t, err)
	return reg
}

// copyFixture copies testdata into a temp dir so a test can break one table
func copyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	entries, err := os.ReadDir("testdata")
	require.NoError(t, err)
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join("testdata", e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, e.Name()), data, 0o644))
	}
	return dir
}

func TestLoadMissingRequiredTable(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "skill_mapping.csv")))

	_, err := LoadDir(dir, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingReferenceFile))

	var missing *MissingReferenceFileError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, TableSkills, missing.Table)
	assert.Empty(t, missing.Column)
}

func TestLoadMalformedRequiredColumn(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "currency_mapping.csv"),
		[]byte("code,aliases\nUSD,$\n"), 0o644))

	_, err := LoadDir(dir, nil)
	var missing *MissingReferenceFileError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, TableCurrencies, missing.Table)
	assert.Equal(t, "currency", missing.Column)
}

func TestLoadWithoutOptionalCountries(t *testing.T) {
	dir := copyFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "countries.csv")))

	reg, err := LoadDir(dir, nil)
	require.NoError(t, err)

	c, ok := reg.ResolveCountry("vietnam")
	require.True(t, ok, "countries from cities.csv are still known")
	assert.Equal(t, "VN", c.ISO)

	_, ok = reg.ResolveCountry("United States")
	assert.False(t, ok)
}

func TestCityResolution(t *testing.T) {
	reg := loadFixture(t)

	tests := []struct {
		raw  string
		want string
	}{
		{"Ho Chi Minh City", "Ho Chi Minh"},
		{"ho chi minh", "Ho Chi Minh"},
		{"HCMC", "Ho Chi Minh"},
		{"Hà Nội", "Hanoi"},
		{"ha noi", "Hanoi"},
		{"Hanoi", "Hanoi"},
		{"London", "London"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := reg.ResolveCityAlias(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := reg.ResolveCityAlias("Atlantis")
	assert.False(t, ok)
}

func TestCityPrefersCountry(t *testing.T) {
	reg := loadFixture(t)

	c, ok := reg.City("London", "")
	require.True(t, ok)
	assert.Equal(t, "GB", c.CountryISO)

	c, ok = reg.City("London", "canada")
	require.True(t, ok)
	assert.Equal(t, "CA", c.CountryISO)
	assert.Equal(t, "422324", c.Population)
}

func TestMatchCityFirstAliasWins(t *testing.T) {
	reg := loadFixture(t)

	city, ok := reg.MatchCity(textnorm.Normalize("Office in Hà Nội, travel to Saigon monthly"))
	require.True(t, ok)
	assert.Equal(t, "Ho Chi Minh", city, "alias table order decides, not text order")

	_, ok = reg.MatchCity(textnorm.Normalize("remote anywhere"))
	assert.False(t, ok)
}

func TestSkillLookups(t *testing.T) {
	reg := loadFixture(t)

	s, ok := reg.SkillByAlias("pyspark")
	require.True(t, ok)
	assert.Equal(t, "Apache Spark", s.Name)

	s, ok = reg.SkillByAlias("sql")
	require.True(t, ok)
	assert.Equal(t, "SQL", s.Name)

	s, ok = reg.SkillByAlias("c++")
	require.True(t, ok)
	assert.Equal(t, "C++", s.Name)

	_, ok = reg.SkillByAlias("c")
	assert.False(t, ok)

	s, ok = reg.SkillByStrongTerm(textnorm.Normalize("RStudio dashboards"))
	require.True(t, ok)
	assert.Equal(t, "R", s.Name)
	assert.True(t, s.Ambiguous())

	category, ok := reg.SkillCategory("Power BI")
	require.True(t, ok)
	assert.Equal(t, "BI Tool", category)
}

func TestCurrencyLookups(t *testing.T) {
	reg := loadFixture(t)

	for raw, want := range map[string]string{"usd": "USD", "$": "USD", "€": "EUR", " Euro ": "EUR", "VND": "VND", "s$": "SGD"} {
		got, ok := reg.ResolveCurrency(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	terms := reg.CurrencyTerms()
	require.NotEmpty(t, terms)
	for i := 1; i < len(terms); i++ {
		assert.GreaterOrEqual(t, len(terms[i-1].Key), len(terms[i].Key))
	}
}

func TestKeywordTables(t *testing.T) {
	reg := loadFixture(t)

	value, kw, ok := reg.EducationLevels().Match(textnorm.Normalize("PhD or Master's degree in Statistics"))
	require.True(t, ok)
	assert.Equal(t, "PhD", value, "table order is priority")
	assert.Equal(t, "phd", kw)

	value, ok = reg.EmploymentTypes().Resolve("full time")
	require.True(t, ok)
	assert.Equal(t, "Full-time", value)

	value, ok = reg.EmploymentTypes().Resolve("Full-time")
	require.True(t, ok)
	assert.Equal(t, "Full-time", value)

	_, ok = reg.EmploymentTypes().Resolve("gig")
	assert.False(t, ok)

	assert.True(t, reg.IndustryVocabulary().Contains("Finance"))
}

func TestSkillLevelMatching(t *testing.T) {
	reg := loadFixture(t)
	levels := reg.SkillLevels()
	require.Len(t, levels, 4)

	basic := levels[0]
	assert.True(t, basic.MatchesDescription(textnorm.Normalize("familiar with SQL")))
	assert.False(t, basic.MatchesDescription(textnorm.Normalize("familiar with SQL, expert in Python")))
	assert.True(t, levels[2].MatchesRole(textnorm.Normalize("Senior Data Engineer")))
}

func TestCheckCoverage(t *testing.T) {
	reg := loadFixture(t)
	cov := reg.Check()

	assert.Equal(t, 15, cov.Skills)
	assert.Equal(t, 6, cov.Currencies)
	assert.Equal(t, 8, cov.KeywordTables[TableIndustries])
	assert.Equal(t, 6, cov.Countries)
	assert.Equal(t, cov.Countries, cov.CountriesWithISO)
	assert.Empty(t, cov.Warnings)
}
