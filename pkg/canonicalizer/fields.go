// pkg/canonicalizer/fields.go
package canonicalizer

import (
	"math"
	"strconv"
	"strings"

	"github.com/David-Botos/jobnorm/pkg/extractor"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

const maxExperienceYears = 50

// standardizeCompanyName only collapses whitespace; the company's identity
// is its normalized name, decided at projection
func standardizeCompanyName(raw string) model.Value {
	return model.Present(textnorm.CollapseSpace(raw))
}

func (c *Canonicalizer) standardizeCurrency(raw string) model.Value {
	if code, ok := c.registry.ResolveCurrency(raw); ok {
		return model.Present(code)
	}
	return model.Invalid()
}

// keywordLookup resolves a value that names a canonical value or one of its keywords
func keywordLookup(table *reference.KeywordTable) func(string) model.Value {
	return func(raw string) model.Value {
		if v, ok := table.Resolve(raw); ok {
			return model.Present(v)
		}
		return model.Invalid()
	}
}

// standardizeRemoteOption accepts percentage and boolean encodings plus the
// canonical names in any case
func standardizeRemoteOption(raw string) model.Value {
	s := strings.TrimSpace(raw)
	switch s {
	case "0", "0.0":
		return model.Present("Onsite")
	case "50", "50.0":
		return model.Present("Hybrid")
	case "100", "100.0":
		return model.Present("Remote")
	}
	switch strings.ToLower(s) {
	case "true", "yes":
		return model.Present("Remote")
	case "false", "no":
		return model.Present("Onsite")
	}
	if v, ok := model.RemoteOptions.Lookup(s); ok {
		return model.Present(v)
	}
	return model.Invalid()
}

// standardizeExperience maps seniority codes with the extraction table and
// renders numbers as whole years
func standardizeExperience(raw string) model.Value {
	s := strings.TrimSpace(raw)
	for _, lc := range extractor.LevelCodes {
		if strings.EqualFold(s, lc.Code) {
			return model.Present(strconv.Itoa(lc.Years))
		}
	}
	years, err := parseNumber(s)
	if err != nil || years < 0 || years > maxExperienceYears {
		return model.Invalid()
	}
	return model.Present(strconv.Itoa(int(math.Floor(years))))
}

// maxSalary fits the sink's NUMERIC(14,2) and still admits monthly and
// annual figures in low-value currencies such as VND
const maxSalary = 100_000_000_000

func standardizeSalary(raw string) model.Value {
	v, err := parseNumber(raw)
	if err != nil || v < 0 || v > maxSalary {
		return model.Invalid()
	}
	return model.Present(formatNumber(v))
}

// parseNumber parses a number written with optional thousands separators
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// formatNumber renders whole numbers without a fraction
func formatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
