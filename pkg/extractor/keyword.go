// pkg/extractor/keyword.go
package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
)

// keywordRule fills f with the first keyword-table entry named in the description
func keywordRule(name string, f model.Field, table func(*reference.Registry) *reference.KeywordTable) Rule {
	return single(name, f, func(ctx *Context) (string, bool) {
		value, _, ok := table(ctx.Registry).Match(ctx.Norm)
		return value, ok
	})
}

const headcountNumber = `(\d{1,3}(?:,\d{3})+|\d+)`

// headcountPatterns are tried in order; the first that matches decides
var headcountPatterns = []*regexp.Regexp{
	regexp.MustCompile(headcountNumber + `\s*\+\s*(?:employees|people|staff)`),
	regexp.MustCompile(`over\s*` + headcountNumber + `\s*(?:employees|people|staff)`),
	regexp.MustCompile(`more than\s*` + headcountNumber + `\s*(?:employees|people|staff)`),
	regexp.MustCompile(headcountNumber + `\s*-\s*` + headcountNumber + `\s*(?:employees|people|staff)`),
	regexp.MustCompile(`team of\s*` + headcountNumber),
}

// SizeBucket maps a headcount to a company size
func SizeBucket(headcount int) string {
	switch {
	case headcount < 10:
		return "Startup"
	case headcount < 50:
		return "Small"
	case headcount < 250:
		return "Medium"
	case headcount < 1000:
		return "Large"
	default:
		return "Enterprise"
	}
}

func companySizeRules() []Rule {
	return []Rule{
		single("company_size_headcount", model.FieldCompanySize, headcountSize),
		keywordRule("company_size_keyword", model.FieldCompanySize, (*reference.Registry).CompanySizes),
	}
}

func headcountSize(ctx *Context) (string, bool) {
	for _, re := range headcountPatterns {
		m := re.FindStringSubmatch(ctx.Lower)
		if m == nil {
			continue
		}
		largest := -1
		for _, g := range m[1:] {
			n, err := strconv.Atoi(strings.ReplaceAll(g, ",", ""))
			if err == nil && n > largest {
				largest = n
			}
		}
		if largest >= 0 {
			return SizeBucket(largest), true
		}
	}
	return "", false
}
