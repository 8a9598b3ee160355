// pkg/reference/registry.go
package reference

import (
	"sort"
	"unicode/utf8"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

// Phrase pairs a folded search key with the canonical value it signals
type Phrase struct {
	Key   string
	Value string
}

// City is one row of the official cities table
type City struct {
	Name       string
	Country    string
	CountryISO string
	Latitude   string
	Longitude  string
	Population string
}

// Country is a canonical country name with its ISO code
type Country struct {
	Name string
	ISO  string
}

// Skill is one canonical skill with its normalized match terms
type Skill struct {
	Name         string
	Category     string
	Aliases      []string
	StrongTerms  []string
	ExcludeTerms []string
}

// Ambiguous reports whether the canonical name is too short to trust a bare
// alias hit in free text (the single-letter "R")
func (s Skill) Ambiguous() bool {
	return utf8.RuneCountInString(s.Name) <= 1
}

// SkillLevel is one proficiency level with its context keywords
type SkillLevel struct {
	Level               string
	RoleKeywords        []string
	DescriptionKeywords []string
	NegativeKeywords    []string
}

// MatchesRole reports whether a normalized role text signals this level
func (l SkillLevel) MatchesRole(normText string) bool {
	return l.matches(normText, l.RoleKeywords)
}

// MatchesDescription reports whether a normalized description signals this level
func (l SkillLevel) MatchesDescription(normText string) bool {
	return l.matches(normText, l.DescriptionKeywords)
}

func (l SkillLevel) matches(normText string, keywords []string) bool {
	if textnorm.ContainsAnyPhrase(normText, l.NegativeKeywords) {
		return false
	}
	return textnorm.ContainsAnyPhrase(normText, keywords)
}

// Registry holds every closed vocabulary for one run. It is read-only after
// Load and safe to share.
type Registry struct {
	cityAliases    map[string]string
	cityPhrases    []Phrase
	cities         map[string][]City
	countries      map[string]Country
	countryPhrases []Phrase

	skills       []Skill
	skillAliases map[string]int
	skillNames   map[string]int

	currencies    map[string]string
	currencyTerms []Phrase

	employment  *KeywordTable
	education   *KeywordTable
	industry    *KeywordTable
	companySize *KeywordTable
	jobLevel    *KeywordTable
	skillLevels []SkillLevel

	warnings []string
}

// ResolveCityAlias maps a raw city value to its canonical city
func (r *Registry) ResolveCityAlias(raw string) (string, bool) {
	canonical, ok := r.cityAliases[textnorm.Normalize(raw)]
	return canonical, ok
}

// City returns the official row for a canonical city, preferring the row in
// country when several cities share a name
func (r *Registry) City(name, country string) (City, bool) {
	rows := r.cities[textnorm.Normalize(name)]
	if len(rows) == 0 {
		return City{}, false
	}
	if country != "" {
		want := textnorm.Normalize(country)
		for _, c := range rows {
			if textnorm.Normalize(c.Country) == want {
				return c, true
			}
		}
	}
	return rows[0], true
}

// MatchCity returns the canonical city of the first alias found in normalized text
func (r *Registry) MatchCity(normText string) (string, bool) {
	for _, p := range r.cityPhrases {
		if textnorm.ContainsPhrase(normText, p.Key) {
			return p.Value, true
		}
	}
	return "", false
}

// ResolveCountry maps a raw country value to its canonical country
func (r *Registry) ResolveCountry(raw string) (Country, bool) {
	c, ok := r.countries[textnorm.Normalize(raw)]
	return c, ok
}

// MatchCountry returns the first country named in normalized text
func (r *Registry) MatchCountry(normText string) (Country, bool) {
	for _, p := range r.countryPhrases {
		if textnorm.ContainsPhrase(normText, p.Key) {
			return r.countries[p.Key], true
		}
	}
	return Country{}, false
}

// Skills returns every skill in file order
func (r *Registry) Skills() []Skill {
	return r.skills
}

// SkillByAlias returns the skill whose alias equals the normalized token
func (r *Registry) SkillByAlias(normToken string) (Skill, bool) {
	i, ok := r.skillAliases[normToken]
	if !ok {
		return Skill{}, false
	}
	return r.skills[i], true
}

// SkillByName returns a skill by canonical name
func (r *Registry) SkillByName(name string) (Skill, bool) {
	i, ok := r.skillNames[name]
	if !ok {
		return Skill{}, false
	}
	return r.skills[i], true
}

// SkillByStrongTerm returns the first skill with a strong term contained in the
// normalized token on word boundaries and no exclude term present
func (r *Registry) SkillByStrongTerm(normToken string) (Skill, bool) {
	for _, s := range r.skills {
		if !textnorm.ContainsAnyPhrase(normToken, s.StrongTerms) {
			continue
		}
		if textnorm.ContainsAnyPhrase(normToken, s.ExcludeTerms) {
			continue
		}
		return s, true
	}
	return Skill{}, false
}

// SkillCategory returns the category of a canonical skill
func (r *Registry) SkillCategory(name string) (string, bool) {
	s, ok := r.SkillByName(name)
	if !ok || s.Category == "" {
		return "", false
	}
	return s.Category, true
}

// ResolveCurrency maps a raw currency value (code, symbol or name) to its code
func (r *Registry) ResolveCurrency(raw string) (string, bool) {
	code, ok := r.currencies[textnorm.Fold(raw)]
	return code, ok
}

// CurrencyTerms returns folded currency aliases, longest first
func (r *Registry) CurrencyTerms() []Phrase {
	return r.currencyTerms
}

// EmploymentTypes returns the employment type keyword table
func (r *Registry) EmploymentTypes() *KeywordTable { return r.employment }

// EducationLevels returns the education level keyword table
func (r *Registry) EducationLevels() *KeywordTable { return r.education }

// Industries returns the industry keyword table
func (r *Registry) Industries() *KeywordTable { return r.industry }

// CompanySizes returns the company size keyword table
func (r *Registry) CompanySizes() *KeywordTable { return r.companySize }

// JobLevels returns the job level keyword table
func (r *Registry) JobLevels() *KeywordTable { return r.jobLevel }

// SkillLevels returns the proficiency levels in file order
func (r *Registry) SkillLevels() []SkillLevel {
	return r.skillLevels
}

// Warnings returns non-fatal problems found while loading
func (r *Registry) Warnings() []string {
	return r.warnings
}

// IndustryVocabulary returns the closed industry set
func (r *Registry) IndustryVocabulary() *model.Vocabulary {
	return r.industry.Vocabulary()
}

func sortByKeyLength(phrases []Phrase) {
	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i].Key) > len(phrases[j].Key)
	})
}
