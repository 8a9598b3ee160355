// pkg/reference/loader.go
package reference

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/tabular"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

// Logical reference table names
const (
	TableCityAliases     = "city_alias_reference"
	TableCities          = "cities"
	TableCountries       = "countries"
	TableSkills          = "skill_mapping"
	TableCurrencies      = "currency_mapping"
	TableEmploymentTypes = "employment_type_mapping"
	TableEducationLevels = "education_level_mapping"
	TableIndustries      = "industry_mapping"
	TableCompanySizes    = "company_size_mapping"
	TableJobLevels       = "job_level_mapping"
	TableSkillLevels     = "skill_level_mapping"
)

// Files locates every reference table. Countries is optional.
type Files struct {
	CityAliases     string
	Cities          string
	Countries       string
	Skills          string
	Currencies      string
	EmploymentTypes string
	EducationLevels string
	Industries      string
	CompanySizes    string
	JobLevels       string
	SkillLevels     string
}

// DefaultFiles returns the conventional file names inside dir
func DefaultFiles(dir string) Files {
	path := func(table string) string { return filepath.Join(dir, table+".csv") }
	return Files{
		CityAliases:     path(TableCityAliases),
		Cities:          path(TableCities),
		Countries:       path(TableCountries),
		Skills:          path(TableSkills),
		Currencies:      path(TableCurrencies),
		EmploymentTypes: path(TableEmploymentTypes),
		EducationLevels: path(TableEducationLevels),
		Industries:      path(TableIndustries),
		CompanySizes:    path(TableCompanySizes),
		JobLevels:       path(TableJobLevels),
		SkillLevels:     path(TableSkillLevels),
	}
}

// keyword tables share one shape: a value column plus pipe-delimited keywords
var keywordValueColumns = map[string]string{
	TableEmploymentTypes: "employment_type",
	TableEducationLevels: "education_level",
	TableIndustries:      "industry",
	TableCompanySizes:    "company_size",
	TableJobLevels:       "level",
}

// LoadDir loads the reference tables found under dir
func LoadDir(dir string, logger *zap.Logger) (*Registry, error) {
	return Load(DefaultFiles(dir), logger)
}

// Load reads every reference table. Any missing required table or column
// fails with a *MissingReferenceFileError before anything else happens.
func Load(files Files, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &loader{
		reg: &Registry{
			cityAliases:  make(map[string]string),
			cities:       make(map[string][]City),
			countries:    make(map[string]Country),
			skillAliases: make(map[string]int),
			skillNames:   make(map[string]int),
			currencies:   make(map[string]string),
		},
		logger: logger,
	}

	steps := []struct {
		table string
		path  string
		load  func(*tabular.Table) error
	}{
		{TableCities, files.Cities, l.loadCities},
		{TableCityAliases, files.CityAliases, l.loadCityAliases},
		{TableSkills, files.Skills, l.loadSkills},
		{TableCurrencies, files.Currencies, l.loadCurrencies},
		{TableEmploymentTypes, files.EmploymentTypes, l.keywordLoader(TableEmploymentTypes, &l.reg.employment)},
		{TableEducationLevels, files.EducationLevels, l.keywordLoader(TableEducationLevels, &l.reg.education)},
		{TableIndustries, files.Industries, l.keywordLoader(TableIndustries, &l.reg.industry)},
		{TableCompanySizes, files.CompanySizes, l.keywordLoader(TableCompanySizes, &l.reg.companySize)},
		{TableJobLevels, files.JobLevels, l.keywordLoader(TableJobLevels, &l.reg.jobLevel)},
		{TableSkillLevels, files.SkillLevels, l.loadSkillLevels},
	}

	for _, step := range steps {
		t, err := readTable(step.table, step.path)
		if err != nil {
			return nil, err
		}
		if err := step.load(t); err != nil {
			return nil, err
		}
	}

	if files.Countries != "" {
		t, err := readTable(TableCountries, files.Countries)
		var missing *MissingReferenceFileError
		switch {
		case err == nil:
			if err := l.loadCountries(t); err != nil {
				return nil, err
			}
		case errors.As(err, &missing) && missing.Column == "" && errors.Is(missing.Err, os.ErrNotExist):
			logger.Debug("Optional reference table not present", zap.String("path", files.Countries))
		default:
			return nil, err
		}
	}
	l.finish()

	logger.Info("Loaded reference tables",
		zap.Int("cityAliases", len(l.reg.cityAliases)),
		zap.Int("cities", len(l.reg.cities)),
		zap.Int("countries", len(l.reg.countries)),
		zap.Int("skills", len(l.reg.skills)),
		zap.Int("currencyAliases", len(l.reg.currencies)),
		zap.Int("skillLevels", len(l.reg.skillLevels)),
		zap.Int("warnings", len(l.reg.warnings)))

	return l.reg, nil
}

type loader struct {
	reg       *Registry
	logger    *zap.Logger
	cityOrder []string
}

func readTable(table, path string) (*tabular.Table, error) {
	if path == "" {
		return nil, &MissingReferenceFileError{Table: table, Path: path}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &MissingReferenceFileError{Table: table, Path: path, Err: err}
	}
	t, err := tabular.ReadAll(path)
	if err != nil {
		return nil, &MissingReferenceFileError{Table: table, Path: path, Err: err}
	}
	return t, nil
}

func requireColumns(table string, t *tabular.Table, columns ...string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return &MissingReferenceFileError{Table: table, Path: t.Path, Column: c}
		}
	}
	return nil
}

func (l *loader) warnf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.reg.warnings = append(l.reg.warnings, msg)
	l.logger.Debug("Reference table warning", zap.String("warning", msg))
}

func (l *loader) loadCities(t *tabular.Table) error {
	if err := requireColumns(TableCities, t, "city_name"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		name := textnorm.CollapseSpace(row["city_name"])
		key := textnorm.Normalize(name)
		if key == "" {
			continue
		}
		c := City{
			Name:       name,
			Country:    textnorm.CollapseSpace(row["country"]),
			CountryISO: strings.ToUpper(strings.TrimSpace(row["country_iso"])),
			Latitude:   l.numeric(row["latitude"], name, "latitude"),
			Longitude:  l.numeric(row["longitude"], name, "longitude"),
			Population: l.numeric(row["population"], name, "population"),
		}
		if _, seen := l.reg.cities[key]; !seen {
			l.cityOrder = append(l.cityOrder, name)
		}
		l.reg.cities[key] = append(l.reg.cities[key], c)
		if c.Country != "" {
			l.addCountry(Country{Name: c.Country, ISO: c.CountryISO})
		}
	}
	return nil
}

func (l *loader) numeric(raw, city, column string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		l.warnf("city %q has non-numeric %s %q", city, column, raw)
		return ""
	}
	return raw
}

func (l *loader) loadCityAliases(t *tabular.Table) error {
	if err := requireColumns(TableCityAliases, t, "canonical_city", "alias"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		canonical := textnorm.CollapseSpace(row["canonical_city"])
		if canonical == "" {
			continue
		}
		l.addCityAlias(row["alias"], canonical)
		l.addCityAlias(canonical, canonical)
		if _, ok := l.reg.cities[textnorm.Normalize(canonical)]; !ok {
			l.warnf("city alias target %q has no row in %s", canonical, TableCities)
		}
	}
	return nil
}

func (l *loader) addCityAlias(alias, canonical string) {
	key := textnorm.Normalize(alias)
	if key == "" {
		return
	}
	if existing, taken := l.reg.cityAliases[key]; taken {
		if existing != canonical {
			l.warnf("city alias %q maps to both %q and %q; keeping %q", alias, existing, canonical, existing)
		}
		return
	}
	l.reg.cityAliases[key] = canonical
	l.reg.cityPhrases = append(l.reg.cityPhrases, Phrase{Key: key, Value: canonical})
}

func (l *loader) loadCountries(t *tabular.Table) error {
	if err := requireColumns(TableCountries, t, "country_name"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		name := textnorm.CollapseSpace(row["country_name"])
		if name == "" {
			continue
		}
		l.addCountry(Country{Name: name, ISO: strings.ToUpper(strings.TrimSpace(row["country_iso"]))})
	}
	return nil
}

func (l *loader) addCountry(c Country) {
	key := textnorm.Normalize(c.Name)
	if key == "" {
		return
	}
	if existing, ok := l.reg.countries[key]; ok {
		if existing.ISO == "" && c.ISO != "" {
			existing.ISO = c.ISO
			l.reg.countries[key] = existing
		}
		return
	}
	l.reg.countries[key] = c
	l.reg.countryPhrases = append(l.reg.countryPhrases, Phrase{Key: key, Value: c.Name})
}

func (l *loader) loadSkills(t *tabular.Table) error {
	if err := requireColumns(TableSkills, t, "canonical_skill", "skill_category", "aliases", "strong_terms", "exclude_terms"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		name := textnorm.CollapseSpace(row["canonical_skill"])
		if name == "" {
			continue
		}
		if _, dup := l.reg.skillNames[name]; dup {
			l.warnf("skill %q listed twice; keeping the first row", name)
			continue
		}
		s := Skill{
			Name:         name,
			Category:     textnorm.CollapseSpace(row["skill_category"]),
			Aliases:      textnorm.SplitList(name+"|"+row["aliases"], textnorm.Normalize),
			StrongTerms:  textnorm.SplitList(row["strong_terms"], textnorm.Normalize),
			ExcludeTerms: textnorm.SplitList(row["exclude_terms"], textnorm.Normalize),
		}
		if s.Category == "" {
			l.warnf("skill %q has no category", name)
		}

		idx := len(l.reg.skills)
		l.reg.skills = append(l.reg.skills, s)
		l.reg.skillNames[name] = idx
		for _, alias := range s.Aliases {
			if existing, taken := l.reg.skillAliases[alias]; taken {
				if existing != idx {
					l.warnf("skill alias %q maps to both %q and %q; keeping %q",
						alias, l.reg.skills[existing].Name, name, l.reg.skills[existing].Name)
				}
				continue
			}
			l.reg.skillAliases[alias] = idx
		}
	}
	return nil
}

func (l *loader) loadCurrencies(t *tabular.Table) error {
	if err := requireColumns(TableCurrencies, t, "currency", "aliases"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		code := strings.ToUpper(strings.TrimSpace(row["currency"]))
		if code == "" {
			continue
		}
		for _, alias := range textnorm.SplitList(code+"|"+row["aliases"], textnorm.Fold) {
			if existing, taken := l.reg.currencies[alias]; taken {
				if existing != code {
					l.warnf("currency alias %q maps to both %s and %s; keeping %s", alias, existing, code, existing)
				}
				continue
			}
			l.reg.currencies[alias] = code
			l.reg.currencyTerms = append(l.reg.currencyTerms, Phrase{Key: alias, Value: code})
		}
	}
	return nil
}

func (l *loader) keywordLoader(table string, dst **KeywordTable) func(*tabular.Table) error {
	valueColumn := keywordValueColumns[table]
	return func(t *tabular.Table) error {
		if err := requireColumns(table, t, valueColumn, "keywords"); err != nil {
			return err
		}
		entries := make([]KeywordEntry, 0, len(t.Rows))
		for _, row := range t.Rows {
			value := textnorm.CollapseSpace(row[valueColumn])
			if value == "" {
				continue
			}
			entries = append(entries, KeywordEntry{
				Value:    value,
				Keywords: textnorm.SplitList(row["keywords"], textnorm.Normalize),
			})
		}
		*dst = newKeywordTable(table, entries)
		return nil
	}
}

func (l *loader) loadSkillLevels(t *tabular.Table) error {
	if err := requireColumns(TableSkillLevels, t, "level", "role_keywords", "description_keywords", "negative_keywords"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		level := textnorm.CollapseSpace(row["level"])
		if level == "" {
			continue
		}
		l.reg.skillLevels = append(l.reg.skillLevels, SkillLevel{
			Level:               level,
			RoleKeywords:        textnorm.SplitList(row["role_keywords"], textnorm.Normalize),
			DescriptionKeywords: textnorm.SplitList(row["description_keywords"], textnorm.Normalize),
			NegativeKeywords:    textnorm.SplitList(row["negative_keywords"], textnorm.Normalize),
		})
	}
	if len(l.reg.skillLevels) == 0 {
		l.warnf("%s has no levels", TableSkillLevels)
	}
	return nil
}

// finish adds official city names as their own aliases and orders the
// currency search terms
func (l *loader) finish() {
	for _, name := range l.cityOrder {
		if _, ok := l.reg.cityAliases[textnorm.Normalize(name)]; !ok {
			l.addCityAlias(name, name)
		}
	}
	sortByKeyLength(l.reg.currencyTerms)
}
