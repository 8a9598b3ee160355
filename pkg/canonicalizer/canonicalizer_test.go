package canonicalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
)

func newCanonicalizer(t *testing.T) *Canonicalizer {
	t.Helper()
	reg, err := reference.LoadDir("../reference/testdata", nil)
	require.NoError(t, err)
	c, err := New(reg, nil)
	require.NoError(t, err)
	return c
}

func record(values map[model.Field]string) *model.Record {
	rec := model.NewRecord()
	rec.Set(model.FieldSourceName, model.Present("jobs"))
	rec.Set(model.FieldSourceID, model.Present("4"))
	for f, v := range values {
		rec.Set(f, model.ParseValue(v))
	}
	return rec
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestCityAliasAndGeo(t *testing.T) {
	c := newCanonicalizer(t)
	acc := audit.NewAccumulator()

	out := c.Canonicalize(record(map[model.Field]string{model.FieldCity: "Ho Chi Minh City"}), acc)

	assert.Equal(t, "Ho Chi Minh", out.Text(model.FieldCity))
	assert.Equal(t, "Vietnam", out.Text(model.FieldCountry))
	assert.Equal(t, "VN", out.Text(model.FieldCountryISO))
	assert.Equal(t, "10.8231", out.Text(model.FieldLatitude))
	assert.Equal(t, "106.6297", out.Text(model.FieldLongitude))
	assert.Equal(t, "8993082", out.Text(model.FieldPopulation))
	assert.Empty(t, acc.UnmatchedCities())
	assert.Equal(t, int64(1), acc.Field(model.FieldCity).Canonicalized)
	assert.Equal(t, int64(1), acc.Field(model.FieldCountryISO).Enriched)
}

func TestCityPrefersRecordCountry(t *testing.T) {
	c := newCanonicalizer(t)

	out := c.Canonicalize(record(map[model.Field]string{
		model.FieldCity:    "london",
		model.FieldCountry: "canada",
	}), nil)

	assert.Equal(t, "London", out.Text(model.FieldCity))
	assert.Equal(t, "Canada", out.Text(model.FieldCountry))
	assert.Equal(t, "CA", out.Text(model.FieldCountryISO))
}

func TestUnmatchedCity(t *testing.T) {
	c := newCanonicalizer(t)
	acc := audit.NewAccumulator()

	out := c.Canonicalize(record(map[model.Field]string{model.FieldCity: "Atlantis"}), acc)
	assert.True(t, out.Get(model.FieldCity).IsUnmatched())
	require.Len(t, acc.UnmatchedCities(), 1)
	assert.Equal(t, audit.CityRow{SourceName: "jobs", SourceID: "4", Raw: "Atlantis"}, acc.UnmatchedCities()[0])
	assert.Equal(t, int64(1), acc.Category(audit.CategoryUnmatchedCanonicalValue))

	// the country written into the city column is noise
	out = c.Canonicalize(record(map[model.Field]string{
		model.FieldCity:    "Viet Nam",
		model.FieldCountry: "Viet Nam",
	}), acc)
	assert.True(t, out.Get(model.FieldCity).IsUnmatched())
	assert.Len(t, acc.UnmatchedCities(), 1)
	assert.Equal(t, "Viet Nam", out.Text(model.FieldCountry))
	assert.True(t, out.Get(model.FieldCountryISO).IsUnknown())
}

func TestCountryOnlyGetsISO(t *testing.T) {
	c := newCanonicalizer(t)
	out := c.Canonicalize(record(map[model.Field]string{model.FieldCountry: " united   states "}), nil)
	assert.Equal(t, "United States", out.Text(model.FieldCountry))
	assert.Equal(t, "US", out.Text(model.FieldCountryISO))
}

func TestExperienceYears(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Value
	}{
		{"SE", model.Present("5")},
		{"en", model.Present("0")},
		{"MI", model.Present("2")},
		{"EX", model.Present("8")},
		{"3", model.Present("3")},
		{"4.0", model.Present("4")},
		{"51", model.Invalid()},
		{"-1", model.Invalid()},
		{"several", model.Invalid()},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, standardizeExperience(tt.raw))
		})
	}
}

func TestRemoteOption(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Value
	}{
		{"0", model.Present("Onsite")},
		{"0.0", model.Present("Onsite")},
		{"50", model.Present("Hybrid")},
		{"100.0", model.Present("Remote")},
		{"TRUE", model.Present("Remote")},
		{"true", model.Present("Remote")},
		{"False", model.Present("Onsite")},
		{"yes", model.Present("Remote")},
		{"hybrid", model.Present("Hybrid")},
		{"Onsite", model.Present("Onsite")},
		{"25", model.Invalid()},
		{"sometimes", model.Invalid()},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, standardizeRemoteOption(tt.raw))
		})
	}
}

func TestSalaryValues(t *testing.T) {
	assert.Equal(t, model.Present("80000"), standardizeSalary("80,000"))
	assert.Equal(t, model.Present("80000"), standardizeSalary("80000.0"))
	assert.Equal(t, model.Present("1234.5"), standardizeSalary("1234.5"))
	assert.Equal(t, model.Invalid(), standardizeSalary("competitive"))
	assert.Equal(t, model.Invalid(), standardizeSalary("-5"))
}

func TestPostedDate(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Value
	}{
		{"2024-03-01", model.Present("2024-03-01")},
		{"2023", model.Present("2023-01-01")},
		{"45292", model.Present("2024-01-01")},
		{"45292.75", model.Present("2024-01-01")},
		{"03/15/2024 14:30", model.Present("2024-03-15")},
		{"2024-03-15T10:00:00Z", model.Present("2024-03-15")},
		{"March 5, 2024", model.Present("2024-03-05")},
		{"not a date", model.Unknown()},
		{"-3", model.Unknown()},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, standardizePostedDate(tt.raw))
		})
	}
}

func TestEnumLookups(t *testing.T) {
	c := newCanonicalizer(t)
	acc := audit.NewAccumulator()

	out := c.Canonicalize(record(map[model.Field]string{
		model.FieldCurrency:       "us dollar",
		model.FieldEmploymentType: "full time",
		model.FieldEducationLevel: "masters degree",
		model.FieldLevel:          "sr",
		model.FieldCompanySize:    "SME",
		model.FieldIndustry:       "fintech",
	}), acc)

	assert.Equal(t, "USD", out.Text(model.FieldCurrency))
	assert.Equal(t, "Full-time", out.Text(model.FieldEmploymentType))
	assert.Equal(t, "Master", out.Text(model.FieldEducationLevel))
	assert.Equal(t, "Senior", out.Text(model.FieldLevel))
	assert.Equal(t, "Medium", out.Text(model.FieldCompanySize))
	assert.Equal(t, "Finance", out.Text(model.FieldIndustry))

	out = c.Canonicalize(record(map[model.Field]string{
		model.FieldCurrency:       "bitcoin",
		model.FieldEmploymentType: "gig",
		model.FieldIndustry:       "Mining",
	}), acc)
	assert.True(t, out.Get(model.FieldCurrency).IsInvalid())
	assert.True(t, out.Get(model.FieldEmploymentType).IsInvalid())
	assert.True(t, out.Get(model.FieldIndustry).IsInvalid())
	assert.Equal(t, int64(3), acc.Category(audit.CategoryUnresolvedEnumValue))
}

func TestSentinelsAreTerminal(t *testing.T) {
	c := newCanonicalizer(t)
	rec := record(map[model.Field]string{
		model.FieldCurrency:  model.InvalidMarker,
		model.FieldCity:      model.UnmatchedMarker,
		model.FieldIndustry:  model.NotAvailableMarker,
		model.FieldSkillName: model.InvalidMarker,
	})

	out := c.Canonicalize(rec, nil)
	assert.True(t, rec.Equal(out))
}

func TestSkillNames(t *testing.T) {
	c := newCanonicalizer(t)
	acc := audit.NewAccumulator()

	out := c.Canonicalize(record(map[model.Field]string{model.FieldSkillName: "sql|fakeskillxyz"}), acc)

	assert.Equal(t, "SQL", out.Text(model.FieldSkillName))
	assert.Equal(t, "Database", out.Text(model.FieldSkillCategory))
	misses := acc.UnmatchedSkills()
	require.Len(t, misses, 1)
	assert.Equal(t, "fakeskillxyz", misses[0].Norm)
	assert.GreaterOrEqual(t, misses[0].Count, int64(1))
}

func TestSkillTokenization(t *testing.T) {
	c := newCanonicalizer(t)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"separators", "Python, SQL / Tableau; Excel", "Python|SQL|Tableau|Excel"},
		{"dash separator", "python - pyspark", "Python|Apache Spark"},
		{"hyphenated alias kept", "t-sql|airflow", "SQL|Airflow"},
		{"dedupe keeps order", "pyspark|SQL|spark|sql", "Apache Spark|SQL"},
		{"short exact alias", "R|go|c", "R|Go"},
		{"strong term", "golang microservices", "Go"},
		{"list literal", "['sql', 'docker']", "SQL|Docker"},
		{"dict literal", "{'cloud': ['aws'], 'ml': ['x']}", "Machine Learning"},
		{"nothing known", "juggling|knitting", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := c.Canonicalize(record(map[model.Field]string{model.FieldSkillName: tt.raw}), nil)
			assert.Equal(t, tt.want, out.Text(model.FieldSkillName))
		})
	}
}

func TestSkillCategoryAudit(t *testing.T) {
	c := newCanonicalizer(t)

	tests := []struct {
		name     string
		skills   string
		category string
		want     string
		outcome  audit.CategoryAudit
	}{
		{"subset is right and enriched", "SQL|Python", "Database", "Database|Programming Language",
			audit.CategoryAudit{Right: 1, Enriched: 1}},
		{"exact is right", "SQL", "Database", "Database", audit.CategoryAudit{Right: 1}},
		{"superset is wrong", "SQL", "Database|Cloud", "Database", audit.CategoryAudit{Wrong: 1, Enriched: 1}},
		{"no prior is enriched", "AWS", "", "Cloud", audit.CategoryAudit{Enriched: 1}},
		{"no skills is unmatched", "", "Cloud", "", audit.CategoryAudit{Wrong: 1, Unmatched: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := audit.NewAccumulator()
			out := c.Canonicalize(record(map[model.Field]string{
				model.FieldSkillName:     tt.skills,
				model.FieldSkillCategory: tt.category,
			}), acc)
			assert.Equal(t, tt.want, out.Text(model.FieldSkillCategory))
			assert.Equal(t, tt.outcome, acc.SkillCategory())
		})
	}
}

func TestSkillLevelEnrichment(t *testing.T) {
	c := newCanonicalizer(t)

	tests := []struct {
		name string
		role string
		desc string
		want string
	}{
		{"role decides", "Senior Data Engineer", "", "SQL (Advanced)|Python (Advanced)"},
		{"description decides", "Data Analyst", "Working knowledge of SQL required", "SQL (Intermediate)|Python (Intermediate)"},
		{"local context", "Data Analyst",
			"Strong Python is a must for this role on our growing team of builders. We also use SQL daily with working knowledge expected.",
			"SQL (Intermediate)|Python (Advanced)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := c.Canonicalize(record(map[model.Field]string{
				model.FieldSkillName:      "SQL|Python",
				model.FieldRoleName:       tt.role,
				model.FieldJobDescription: tt.desc,
			}), nil)
			assert.Equal(t, tt.want, out.Text(model.FieldSkillLevelRequired))
		})
	}
}

func TestSkillLevelAmbiguityAndMiss(t *testing.T) {
	c := newCanonicalizer(t)
	acc := audit.NewAccumulator()

	out := c.Canonicalize(record(map[model.Field]string{
		model.FieldSkillName:      "SQL",
		model.FieldRoleName:       "Senior Data Engineer",
		model.FieldJobDescription: "Familiar with SQL",
	}), acc)
	assert.Equal(t, "SQL (Advanced)", out.Text(model.FieldSkillLevelRequired))
	assert.Equal(t, int64(1), acc.Category(audit.CategoryReferenceAmbiguity))

	out = c.Canonicalize(record(map[model.Field]string{
		model.FieldSkillName: "SQL",
		model.FieldRoleName:  "Data Analyst",
	}), acc)
	assert.True(t, out.Get(model.FieldSkillLevelRequired).IsUnknown())
	require.Len(t, acc.UnmatchedSkillLevels(), 1)
	assert.Equal(t, audit.SkillLevelRow{SourceName: "jobs", SourceID: "4", SkillName: "SQL", RoleName: "Data Analyst"},
		acc.UnmatchedSkillLevels()[0])

	out = c.Canonicalize(record(map[model.Field]string{
		model.FieldSkillName:          "SQL",
		model.FieldRoleName:           "Senior Data Engineer",
		model.FieldSkillLevelRequired: "SQL (Basic)",
	}), nil)
	assert.Equal(t, "SQL (Basic)", out.Text(model.FieldSkillLevelRequired), "existing levels are kept")
}

func TestParseSkillLevels(t *testing.T) {
	got := ParseSkillLevels(model.Present("SQL (Advanced)|Power BI (Basic)|broken"))
	assert.Equal(t, map[string]string{"SQL": "Advanced", "Power BI": "Basic"}, got)
}

func TestRoleNames(t *testing.T) {
	c := newCanonicalizer(t)
	out := c.Canonicalize(record(map[model.Field]string{
		model.FieldRoleName: "Senior Data Engineer|data analyst|Chef|Lead Machine Learning Engineer",
	}), nil)
	assert.Equal(t, "Data Engineer|Data Analyst|Chef|Machine Learning Engineer", out.Text(model.FieldRoleName))
}

func TestCompanyNameWhitespace(t *testing.T) {
	c := newCanonicalizer(t)
	out := c.Canonicalize(record(map[model.Field]string{model.FieldCompanyName: "  Acme   Analytics "}), nil)
	assert.Equal(t, "Acme Analytics", out.Text(model.FieldCompanyName))
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	c := newCanonicalizer(t)
	rec := record(map[model.Field]string{
		model.FieldCompanyName:      "Acme  Analytics",
		model.FieldRoleName:         "Senior Data Engineer|BI developer",
		model.FieldCity:             "HCMC",
		model.FieldMinSalary:        "1,500",
		model.FieldMaxSalary:        "2500.0",
		model.FieldCurrency:         "$",
		model.FieldPostedDate:       "45292",
		model.FieldRequiredExpYears: "SE",
		model.FieldEducationLevel:   "bsc",
		model.FieldEmploymentType:   "permanent",
		model.FieldJobDescription:   "Strong SQL and hands-on Airflow",
		model.FieldRemoteOption:     "50",
		model.FieldSkillName:        "sql, airflow|fakeskillxyz",
		model.FieldSkillCategory:    "Database",
		model.FieldLevel:            "senior",
		model.FieldCompanySize:      "multinational",
		model.FieldIndustry:         "saas",
	})

	once := c.Canonicalize(rec, nil)
	twice := c.Canonicalize(once, nil)
	assert.True(t, once.Equal(twice), "once=%v twice=%v", once.Row(), twice.Row())
	assert.Equal(t, "Ho Chi Minh", once.Text(model.FieldCity))
	assert.Equal(t, "SQL|Airflow", once.Text(model.FieldSkillName))
	assert.Equal(t, "Data Engineering|Database", once.Text(model.FieldSkillCategory))
	assert.Equal(t, "SQL (Advanced)|Airflow (Advanced)", once.Text(model.FieldSkillLevelRequired))
}

func TestCanonicalizeRows(t *testing.T) {
	c := newCanonicalizer(t)
	recs := []*model.Record{
		record(map[model.Field]string{model.FieldCity: "Saigon"}),
		record(map[model.Field]string{model.FieldCity: "Đà Nẵng"}),
	}
	out := c.CanonicalizeRows(recs, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "Ho Chi Minh", out[0].Text(model.FieldCity))
	assert.Equal(t, "Da Nang", out[1].Text(model.FieldCity))
}
