// pkg/canonicalizer/dates.go
package canonicalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/David-Botos/jobnorm/pkg/model"
)

// DateLayout is the single calendar-date representation written downstream
const DateLayout = "2006-01-02"

var (
	yearOnly = regexp.MustCompile(`^\d{4}$`)
	// spreadsheet serial day numbers count from this base
	serialBase = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
)

// serial numbers outside this range are not plausible posting dates
const (
	minSerial = 1
	maxSerial = 2958465 // 9999-12-31
)

// standardizePostedDate normalizes every accepted date spelling to DateLayout.
// Anything unparseable is unknown rather than invalid.
func standardizePostedDate(raw string) model.Value {
	t, ok := parsePostedDate(raw)
	if !ok {
		return model.Unknown()
	}
	return model.Present(t.Format(DateLayout))
}

func parsePostedDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if yearOnly.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}
	if days, err := strconv.ParseFloat(s, 64); err == nil {
		if days < minSerial || days > maxSerial {
			return time.Time{}, false
		}
		whole := math.Floor(days)
		t := serialBase.AddDate(0, 0, int(whole))
		return t.Add(time.Duration((days - whole) * float64(24*time.Hour))), true
	}
	if t, err := time.Parse("01/02/2006 15:04", s); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
