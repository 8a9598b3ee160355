// pkg/extractor/experience.go
package extractor

import (
	"regexp"
	"strconv"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

const (
	levelCodeWindow    = 30
	experienceWindow   = 40
	maxExperienceYears = 20
)

// LevelCode maps a seniority code to the years of experience it implies
type LevelCode struct {
	Code  string
	Years int
}

// LevelCodes is the fixed seniority code table, in match priority order.
// The canonicalizer maps upstream codes with the same table.
var LevelCodes = []LevelCode{
	{Code: "en", Years: 0},
	{Code: "mi", Years: 2},
	{Code: "se", Years: 5},
	{Code: "ex", Years: 8},
}

var (
	experienceContext = []string{"experience", "exp", "year", "years", "yr", "yrs", "level", "seniority"}
	levelCodeAnchors  = []string{"experience", "level", "seniority"}

	levelCodeExclusions = []string{
		"venture", "ecosystem", "company", "group", "lab", "studio",
		"english", "language", "software engineer", "engineer",
		"asia", "europe", "executive", "example",
	}

	// company history reads like experience ("over 20 years in business")
	companyHistory = []string{
		"company", "organisation", "organization", "we are", "we have", "our company",
		"our business", "founded", "since", "established", "leading", "provider",
		"retailer", "manufacturer", "employees", "stores", "countries", "customers",
		"group", "global", "europe", "worldwide",
	}

	levelCodePatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(LevelCodes))
		for i, lc := range LevelCodes {
			out[i] = regexp.MustCompile(`\b` + lc.Code + `\b`)
		}
		return out
	}()
)

// experiencePattern captures a year count in group Group
type experiencePattern struct {
	re    *regexp.Regexp
	group int
}

var experiencePatterns = []experiencePattern{
	{regexp.MustCompile(`(\d+)\s*[-–]\s*(\d+)\s*(?:year|yr)`), 1},
	{regexp.MustCompile(`(\d+)\s*\+\s*(?:year|yr)`), 1},
	{regexp.MustCompile(`(?:at least|minimum|min\.?)\s*(\d+)\s*(?:year|yr)`), 1},
	{regexp.MustCompile(`(\d+)\s*(?:year|yr)s?\s*(?:of)?\s*(?:experience|exp)`), 1},
	{regexp.MustCompile(`(\d+)\s*to\s*(\d+)\s*(?:year|yr)`), 1},
}

func experienceRules() []Rule {
	return []Rule{
		single("experience_level_code", model.FieldRequiredExpYears, levelCodeYears),
		single("experience_numeric", model.FieldRequiredExpYears, numericYears),
	}
}

func hasExperienceContext(text string) bool {
	return textnorm.ContainsAnyTerm(text, experienceContext)
}

// levelCodeYears maps a standalone seniority code next to an experience anchor
func levelCodeYears(ctx *Context) (string, bool) {
	text := ctx.Lower
	if !hasExperienceContext(text) {
		return "", false
	}
	for i, re := range levelCodePatterns {
		for _, m := range re.FindAllStringIndex(text, -1) {
			window := around(text, m[0], m[1], levelCodeWindow)
			if containsAny(window, levelCodeExclusions) {
				continue
			}
			if textnorm.ContainsAnyTerm(window, levelCodeAnchors) {
				return strconv.Itoa(LevelCodes[i].Years), true
			}
		}
	}
	return "", false
}

// numericYears takes the smallest stated requirement outside company-history context
func numericYears(ctx *Context) (string, bool) {
	text := ctx.Lower
	if !hasExperienceContext(text) {
		return "", false
	}

	best := -1
	for _, p := range experiencePatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			window := around(text, m[0], m[1], experienceWindow)
			if containsAny(window, companyHistory) {
				continue
			}
			years, err := strconv.Atoi(text[m[2*p.group]:m[2*p.group+1]])
			if err != nil {
				continue
			}
			if best < 0 || years < best {
				best = years
			}
		}
	}
	if best < 0 || best > maxExperienceYears {
		return "", false
	}
	return strconv.Itoa(best), true
}
