// pkg/reference/check.go
package reference

import (
	"fmt"
	"sort"
)

// Coverage summarizes how complete the loaded vocabularies are
type Coverage struct {
	CityAliases      int
	Cities           int
	Countries        int
	CountriesWithISO int
	Skills           int
	SkillCategories  int
	Currencies       int
	KeywordTables    map[string]int
	SkillLevels      int
	Warnings         []string
}

// Check reports vocabulary sizes and every consistency problem found at load
// time plus entries that can never match
func (r *Registry) Check() Coverage {
	cov := Coverage{
		CityAliases:   len(r.cityAliases),
		Cities:        len(r.cities),
		Countries:     len(r.countries),
		Skills:        len(r.skills),
		KeywordTables: make(map[string]int),
		SkillLevels:   len(r.skillLevels),
		Warnings:      append([]string(nil), r.warnings...),
	}

	for _, c := range r.countries {
		if c.ISO != "" {
			cov.CountriesWithISO++
		}
	}

	categories := make(map[string]struct{})
	for _, s := range r.skills {
		if s.Category != "" {
			categories[s.Category] = struct{}{}
		}
	}
	cov.SkillCategories = len(categories)

	codes := make(map[string]struct{})
	for _, code := range r.currencies {
		codes[code] = struct{}{}
	}
	cov.Currencies = len(codes)

	for _, t := range []*KeywordTable{r.employment, r.education, r.industry, r.companySize, r.jobLevel} {
		cov.KeywordTables[t.Name] = len(t.entries)
		for _, e := range t.entries {
			if len(e.Keywords) == 0 {
				cov.Warnings = append(cov.Warnings,
					fmt.Sprintf("%s value %q has no keywords and can only be matched exactly", t.Name, e.Value))
			}
		}
	}

	for _, l := range r.skillLevels {
		if len(l.RoleKeywords) == 0 && len(l.DescriptionKeywords) == 0 {
			cov.Warnings = append(cov.Warnings,
				fmt.Sprintf("skill level %q has no role or description keywords", l.Level))
		}
	}

	sort.Strings(cov.Warnings)
	return cov
}
