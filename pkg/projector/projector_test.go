package projector

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/tabular"
)

func newProjector(t *testing.T) *Projector {
	t.Helper()
	reg, err := reference.LoadDir("../reference/testdata", nil)
	require.NoError(t, err)
	p, err := New(reg, nil)
	require.NoError(t, err)
	return p
}

func record(id string, values map[model.Field]string) *model.Record {
	rec := model.NewRecord()
	rec.Set(model.FieldSourceName, model.Present("jobs"))
	rec.Set(model.FieldSourceID, model.Present(id))
	for f, v := range values {
		rec.Set(f, model.ParseValue(v))
	}
	return rec
}

func sampleRecords() []*model.Record {
	return []*model.Record{
		record("0", map[model.Field]string{
			model.FieldCompanyName:        "Acme Analytics",
			model.FieldCompanySize:        "Enterprise",
			model.FieldIndustry:           "Finance",
			model.FieldRoleName:           "Data Engineer|Chef",
			model.FieldCity:               "Ho Chi Minh",
			model.FieldCountry:            "Vietnam",
			model.FieldCountryISO:         "VN",
			model.FieldLatitude:           "10.8231",
			model.FieldSkillName:          "SQL|Python",
			model.FieldSkillLevelRequired: "SQL (Advanced)",
			model.FieldLevel:              "Senior",
			model.FieldPostedDate:         "2024-03-01",
			model.FieldEducationLevel:     "Bachelor",
			model.FieldRemoteOption:       "Hybrid",
		}),
		record("1", map[model.Field]string{
			model.FieldCompanyName: "  acme   analytics ",
			model.FieldRoleName:    "Data Analyst",
			model.FieldCity:        "Ho Chi Minh",
			model.FieldCountry:     "Vietnam",
			model.FieldCountryISO:  "VN",
			model.FieldSkillName:   "Python|Tableau",
			model.FieldLevel:       "Wizard",
		}),
		record("2", map[model.Field]string{}),
		record("3", map[model.Field]string{model.FieldCompanyName: "Lonely Corp"}),
		record("4", map[model.Field]string{
			model.FieldCompanyName:    "Globex",
			model.FieldCompanySize:    "Gigantic",
			model.FieldEmploymentType: model.InvalidMarker,
			model.FieldCity:           model.UnmatchedMarker,
			model.FieldCountry:        "Singapore",
			model.FieldRoleName:       "Data Engineer",
			model.FieldSkillName:      "SQL|fakeskillxyz",
		}),
	}
}

func TestNewRequiresRegistry(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestDropNoCompany(t *testing.T) {
	p := newProjector(t)
	acc := audit.NewAccumulator()

	emitted := p.Project(record("0", map[model.Field]string{}), acc)

	assert.False(t, emitted)
	stats := p.Stats()
	assert.Equal(t, int64(1), stats.DroppedNoCompany)
	assert.Equal(t, int64(0), stats.DroppedAllNA)
	assert.Equal(t, int64(1), acc.Dropped(audit.DropNoCompany))
	assert.Equal(t, 0, p.Drain().Len())
}

func TestProjectBatch(t *testing.T) {
	p := newProjector(t)
	acc := audit.NewAccumulator()

	b := p.ProjectBatch(sampleRecords(), acc)

	require.Len(t, b.Postings, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{b.Postings[0].ID, b.Postings[1].ID, b.Postings[2].ID})

	require.Len(t, b.Companies, 2)
	assert.Equal(t, model.Company{ID: 1, Name: "Acme Analytics", Size: model.Present("Enterprise"), Industry: model.Present("Finance")}, b.Companies[0])
	assert.Equal(t, "Globex", b.Companies[1].Name)
	assert.True(t, b.Companies[1].Size.IsUnknown(), "out-of-set size becomes null")
	assert.Equal(t, int64(1), b.Postings[1].CompanyID, "company reused by normalized name")

	require.Len(t, b.Locations, 2)
	assert.Equal(t, int64(1), b.Postings[0].LocationID)
	assert.Equal(t, int64(1), b.Postings[1].LocationID)
	assert.Equal(t, int64(2), b.Postings[2].LocationID)
	assert.Equal(t, "10.8231", b.Locations[0].Latitude.Text())
	assert.True(t, b.Locations[1].City.IsUnmatched())

	assert.True(t, b.Postings[2].EmploymentType.IsInvalid(), "sentinels pass through")
	assert.Equal(t, "Hybrid", b.Postings[0].RemoteOption.Text())

	assert.Equal(t, []model.Role{{ID: 1, Name: "Data Engineer"}, {ID: 2, Name: "Data Analyst"}}, b.Roles)
	assert.Equal(t, []model.JobRole{{JobID: 1, RoleID: 1}, {JobID: 2, RoleID: 2}, {JobID: 3, RoleID: 1}}, b.JobRoles)

	assert.Equal(t, []model.Skill{
		{ID: 1, Name: "SQL", Category: "Database"},
		{ID: 2, Name: "Python", Category: "Programming Language"},
		{ID: 3, Name: "Tableau", Category: "BI Tool"},
	}, b.Skills)
	assert.Equal(t, []model.JobSkill{
		{JobID: 1, SkillID: 1, RequiredLevel: model.Present("Advanced")},
		{JobID: 1, SkillID: 2},
		{JobID: 2, SkillID: 2},
		{JobID: 2, SkillID: 3},
		{JobID: 3, SkillID: 1},
	}, b.JobSkills)

	assert.Equal(t, []model.JobLevel{{JobID: 1, Level: "Senior"}}, b.JobLevels)

	stats := p.Stats()
	assert.Equal(t, int64(5), stats.InputRows)
	assert.Equal(t, int64(1), stats.DroppedNoCompany)
	assert.Equal(t, int64(1), stats.DroppedAllNA)
	assert.Equal(t, stats.DroppedNoCompany+stats.DroppedAllNA, stats.TotalDropped())
	assert.Equal(t, acc.TotalDropped(), stats.TotalDropped())
	assert.Equal(t, int64(3), stats.Tables[model.TableJobPostings])
	assert.Equal(t, int64(5), stats.Tables[model.TableJobSkills])
	assert.Equal(t, int64(2), stats.Tables[model.TableCompanies])

	misses := acc.UnmatchedSkills()
	require.Len(t, misses, 1)
	assert.Equal(t, "fakeskillxyz", misses[0].Norm)

	years := acc.Temporal().ByYear()
	require.Len(t, years, 1)
	assert.Equal(t, 2024, years[0].Year)
}

func TestIDsAreStableAcrossRuns(t *testing.T) {
	first := newProjector(t).ProjectBatch(sampleRecords(), nil)
	second := newProjector(t).ProjectBatch(sampleRecords(), nil)
	assert.Equal(t, first, second)
}

func TestIndexesSurviveDrain(t *testing.T) {
	p := newProjector(t)
	records := sampleRecords()

	b1 := p.ProjectBatch(records[:1], nil)
	b2 := p.ProjectBatch(records[1:2], nil)

	assert.Len(t, b1.Companies, 1)
	assert.Empty(t, b2.Companies, "known company is not emitted twice")
	assert.Equal(t, int64(1), b2.Postings[0].CompanyID)
	assert.Equal(t, int64(2), b2.Postings[0].ID)

	assert.Equal(t, int64(1), p.Stats().Tables[model.TableCompanies])
}

func TestRowsRenderSentinels(t *testing.T) {
	p := newProjector(t)
	b := p.ProjectBatch(sampleRecords()[3:5], nil)

	rows := b.Rows(model.TableJobPostings)
	require.Len(t, rows, 1)
	tm, _ := model.LookupTable(model.TableJobPostings)
	require.Len(t, rows[0], len(tm.Columns))
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, model.NotAvailableMarker, rows[0][3])
	assert.Equal(t, model.InvalidMarker, rows[0][9])
	assert.Nil(t, b.Rows("unknown"))
}

func TestOutputWritesEveryTable(t *testing.T) {
	dir := t.TempDir()
	p := newProjector(t)

	out, err := CreateOutput(dir, 2)
	require.NoError(t, err)
	records := sampleRecords()
	require.NoError(t, out.Write(p.ProjectBatch(records[:2], nil)))
	require.NoError(t, out.Write(p.ProjectBatch(records[2:], nil)))
	counts := out.Counts()
	require.NoError(t, out.Close())

	stats := p.Stats()
	for _, tm := range model.OutputTables() {
		assert.Equal(t, stats.Tables[tm.Table], counts[tm.Table], tm.Table)
	}

	table, err := tabular.ReadAll(TablePath(dir, model.TableSkills))
	require.NoError(t, err)
	assert.Equal(t, []string{"skill_id", "skill_name", "skill_category"}, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Tableau", table.Rows[2]["skill_name"])

	r, err := tabular.Open(TablePath(dir, model.TableJobLevels))
	require.NoError(t, err)
	defer r.Close()
	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Senior"}, row)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}
