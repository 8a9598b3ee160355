// pkg/audit/temporal.go
package audit

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/David-Botos/jobnorm/pkg/model"
)

const (
	// skewFactor marks a year skewed when its rows exceed skewFactor x median
	skewFactor = 3
	// capMultiplier bounds the cap at capMultiplier x median
	capMultiplier = 3
)

// Temporal counts emitted postings per source and posting year
type Temporal struct {
	counts map[string]map[int]int64
}

// YearCount is one rows_per_source_year (or rows_per_year) row
type YearCount struct {
	Source string
	Year   int
	Rows   int64
}

// YearCap is the suggested per-year row cap derived from the distribution
type YearCap struct {
	MedianRows    float64 `json:"medianRows"`
	SkewThreshold float64 `json:"skewThreshold"`
	SkewedYears   []int   `json:"skewedYears"`
	P75NonSkew    float64 `json:"p75NonSkew"`
	SecondaryCap  float64 `json:"secondaryCap"`
	FinalCap      int64   `json:"finalCap"`
	YearsObserved int     `json:"yearsObserved"`
}

// NewTemporal creates an empty distribution
func NewTemporal() *Temporal {
	return &Temporal{counts: make(map[string]map[int]int64)}
}

// ObserveDate counts a posting whose date is an ISO calendar date
func (t *Temporal) ObserveDate(source string, posted model.Value) {
	if !posted.IsPresent() {
		return
	}
	d, err := time.Parse("2006-01-02", posted.Text())
	if err != nil {
		return
	}
	t.Observe(source, d.Year())
}

// Observe counts one posting
func (t *Temporal) Observe(source string, year int) {
	t.add(source, year, 1)
}

func (t *Temporal) add(source string, year int, n int64) {
	years, ok := t.counts[source]
	if !ok {
		years = make(map[int]int64)
		t.counts[source] = years
	}
	years[year] += n
}

// Merge folds other into t
func (t *Temporal) Merge(other *Temporal) {
	if other == nil {
		return
	}
	for source, years := range other.counts {
		mine, ok := t.counts[source]
		if !ok {
			mine = make(map[int]int64)
			t.counts[source] = mine
		}
		for year, n := range years {
			mine[year] += n
		}
	}
}

// BySourceYear returns counts sorted by source then year
func (t *Temporal) BySourceYear() []YearCount {
	var out []YearCount
	for source, years := range t.counts {
		for year, n := range years {
			out = append(out, YearCount{Source: source, Year: year, Rows: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// ByYear returns counts summed over sources, sorted by year
func (t *Temporal) ByYear() []YearCount {
	totals := make(map[int]int64)
	for _, years := range t.counts {
		for year, n := range years {
			totals[year] += n
		}
	}
	out := make([]YearCount, 0, len(totals))
	for year, n := range totals {
		out = append(out, YearCount{Year: year, Rows: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Cap computes the soft cap over per-year totals. It reports false when no
// year was observed or every year is skewed.
func (t *Temporal) Cap() (YearCap, bool) {
	perYear := t.ByYear()
	if len(perYear) == 0 {
		return YearCap{}, false
	}

	rows := make([]float64, len(perYear))
	for i, yc := range perYear {
		rows[i] = float64(yc.Rows)
	}
	median := percentile(rows, 50)
	threshold := skewFactor * median

	var nonSkew []float64
	yc := YearCap{MedianRows: median, SkewThreshold: threshold, YearsObserved: len(perYear)}
	for _, y := range perYear {
		if float64(y.Rows) > threshold {
			yc.SkewedYears = append(yc.SkewedYears, y.Year)
			continue
		}
		nonSkew = append(nonSkew, float64(y.Rows))
	}
	if len(nonSkew) == 0 {
		return YearCap{}, false
	}

	yc.P75NonSkew = percentile(nonSkew, 75)
	yc.SecondaryCap = capMultiplier * median
	yc.FinalCap = int64(math.Min(yc.P75NonSkew, yc.SecondaryCap))
	return yc, true
}

// percentile uses linear interpolation between closest ranks
func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func (yc YearCap) summaryRows() [][]string {
	skewed := ""
	for i, y := range yc.SkewedYears {
		if i > 0 {
			skewed += "|"
		}
		skewed += strconv.Itoa(y)
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return [][]string{
		{"years_observed", strconv.Itoa(yc.YearsObserved)},
		{"median_rows", f(yc.MedianRows)},
		{"skew_factor", strconv.Itoa(skewFactor)},
		{"skew_threshold", f(yc.SkewThreshold)},
		{"skewed_years", skewed},
		{"p75_non_skew", f(yc.P75NonSkew)},
		{"secondary_cap", f(yc.SecondaryCap)},
		{"final_cap", strconv.FormatInt(yc.FinalCap, 10)},
	}
}
