// pkg/extractor/salary.go
package extractor

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

const (
	salaryWindow     = 20
	salaryAnchorLead = 30
	salaryMinValue   = 100
	salaryMaxSpread  = 10_000_000
)

var (
	// indicator and context terms are stems matched as substrings, so
	// "annually", "investors" and "benefits" hit "annual", "investor" and "benefit"
	salaryIndicators = []string{
		"salar", "pay", "compensation", "wage", "package", "remuneration",
		"brutto", "netto", "gehalt", "gross",
		"per year", "per month", "per hour", "annual", "monthly", "/year", "/month", "/hr", "lương",
	}
	nonSalaryContext = []string{
		"revenue", "funding", "series", "valuation", "investor", "financing",
		"customer", "market", "growth", "raised", "billion",
		"allowance", "bonus", "incentive", "benefit",
	}
	// too short to match inside other words ("carry", "array")
	nonSalaryWords = []string{"arr"}

	// a number with optional thousands groups and an optional k suffix
	salaryNumber = regexp.MustCompile(`(\d{1,3}(?:[.,]\d{3})+|\d+)\s*(k)?`)
	// a million word after a figure scales every figure of the window ("15 - 20 triệu")
	salaryMillions = regexp.MustCompile(`\d\s*(?:million|triệu|tr)(?:[^\p{L}]|$)`)
)

type currencyHit struct {
	start, end int // byte offsets into the lower-cased description
	code       string
}

func salaryRule() Rule {
	return Rule{
		Name:     "salary_currency_window",
		Requires: []model.Field{model.FieldMinSalary, model.FieldMaxSalary},
		Targets:  []model.Field{model.FieldMinSalary, model.FieldMaxSalary, model.FieldCurrency},
		Apply: func(ctx *Context) Fill {
			lo, hi, code, ok := extractSalary(ctx)
			if !ok {
				return nil
			}
			return Fill{
				model.FieldMinSalary: strconv.FormatInt(lo, 10),
				model.FieldMaxSalary: strconv.FormatInt(hi, 10),
				model.FieldCurrency:  code,
			}
		},
	}
}

func extractSalary(ctx *Context) (lo, hi int64, code string, ok bool) {
	text := ctx.Lower
	hits := currencyHits(ctx, text)
	if len(hits) == 0 {
		return 0, 0, "", false
	}

	var values []int64
	for _, h := range hits {
		left, right := salarySpan(text, h.start, h.end)
		window := text[left:right]

		anchorStart := left
		for i := 0; i < salaryAnchorLead && anchorStart > 0; i++ {
			_, size := utf8.DecodeLastRuneInString(text[:anchorStart])
			anchorStart -= size
		}
		if !containsAny(text[anchorStart:right], salaryIndicators) {
			continue
		}
		if containsAny(window, nonSalaryContext) || textnorm.ContainsAnyTerm(window, nonSalaryWords) {
			continue
		}

		found := parseSalaryNumbers(window)
		if len(found) > 0 && code == "" {
			code = h.code
		}
		values = append(values, found...)
	}
	if len(values) == 0 {
		return 0, 0, "", false
	}

	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo > salaryMaxSpread {
		return 0, 0, "", false
	}
	return lo, hi, code, true
}

// currencyHits finds every currency alias in text, longest alias first so
// "s$" claims its span before "$" does; result is in text order
func currencyHits(ctx *Context, text string) []currencyHit {
	var hits []currencyHit
	claimed := func(start, end int) bool {
		for _, h := range hits {
			if start < h.end && end > h.start {
				return true
			}
		}
		return false
	}
	for _, term := range ctx.Registry.CurrencyTerms() {
		from := 0
		for {
			i := textnorm.IndexTerm(text, term.Key, from)
			if i < 0 {
				break
			}
			end := i + len(term.Key)
			if !claimed(i, end) {
				hits = append(hits, currencyHit{start: i, end: end, code: term.Value})
			}
			from = end
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	return hits
}

// salarySpan widens a currency hit by salaryWindow runes and then out to
// whole numbers so a figure is never cut in half
func salarySpan(text string, start, end int) (int, int) {
	left := start
	for i := 0; i < salaryWindow && left > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:left])
		left -= size
	}
	right := end
	for i := 0; i < salaryWindow && right < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[right:])
		right += size
	}

	for left > 0 {
		r, size := utf8.DecodeLastRuneInString(text[:left])
		if !unicode.IsDigit(r) && !(isGroupSeparator(r) && left-size > 0 && isDigitBefore(text, left-size)) {
			break
		}
		left -= size
	}
	for right < len(text) {
		r, size := utf8.DecodeRuneInString(text[right:])
		if !unicode.IsDigit(r) && !(isGroupSeparator(r) && isDigitAt(text, right+size)) {
			break
		}
		right += size
	}
	if right < len(text) && text[right] == 'k' {
		right++
	}
	return left, right
}

func isGroupSeparator(r rune) bool {
	return r == ',' || r == '.'
}

func isDigitBefore(text string, i int) bool {
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsDigit(r)
}

func isDigitAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsDigit(r)
}

func parseSalaryNumbers(window string) []int64 {
	var out []int64
	millions := salaryMillions.MatchString(window)
	for _, m := range salaryNumber.FindAllStringSubmatchIndex(window, -1) {
		digits := window[m[2]:m[3]]
		digits = strings.NewReplacer(",", "", ".", "").Replace(digits)
		v, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}

		switch {
		case m[4] >= 0 && !letterAt(window, m[5]):
			v *= 1_000
		case millions:
			v *= 1_000_000
		}
		if v >= salaryMinValue {
			out = append(out, v)
		}
	}
	return out
}

// letterAt reports whether a letter follows the k suffix, meaning it was the
// start of a word ("k" in "kpi")
func letterAt(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r)
}
