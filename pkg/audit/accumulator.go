// pkg/audit/accumulator.go
package audit

import (
	"sort"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/model"
)

// FieldCounters counts what happened to one field across a run
type FieldCounters struct {
	Extracted     int64 `json:"extracted"`
	Canonicalized int64 `json:"canonicalized"`
	Invalidated   int64 `json:"invalidated"`
	Unmatched     int64 `json:"unmatched"`
	Cleared       int64 `json:"cleared"`
	Enriched      int64 `json:"enriched"`
}

func (c *FieldCounters) add(o FieldCounters) {
	c.Extracted += o.Extracted
	c.Canonicalized += o.Canonicalized
	c.Invalidated += o.Invalidated
	c.Unmatched += o.Unmatched
	c.Cleared += o.Cleared
	c.Enriched += o.Enriched
}

// CityRow is one unmatched_city_name report row
type CityRow struct {
	SourceName string
	SourceID   string
	Raw        string
}

// SkillMiss is one unmatched_skill_name report row
type SkillMiss struct {
	Norm    string
	Example string
	Count   int64
}

// SkillLevelRow is one unmatched_skill_level report row
type SkillLevelRow struct {
	SourceName string
	SourceID   string
	SkillName  string
	RoleName   string
}

// CategoryAudit counts skill_category recomputation outcomes
type CategoryAudit struct {
	Right     int64 `json:"right"`
	Wrong     int64 `json:"wrong"`
	Enriched  int64 `json:"enriched"`
	Unmatched int64 `json:"unmatched"`
}

// Accumulator collects every audit signal of a run. One is created per run
// (or per file and merged); it is passed explicitly to each stage.
type Accumulator struct {
	fields        map[model.Field]*FieldCounters
	rules         map[string]int64
	categories    map[Category]int64
	cities        []CityRow
	skills        map[string]*SkillMiss
	skillLevels   []SkillLevelRow
	skillCategory CategoryAudit
	drops         map[DropReason]int64
	temporal      *Temporal
}

// NewAccumulator creates an empty accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		fields:     make(map[model.Field]*FieldCounters),
		rules:      make(map[string]int64),
		categories: make(map[Category]int64),
		skills:     make(map[string]*SkillMiss),
		drops:      make(map[DropReason]int64),
		temporal:   NewTemporal(),
	}
}

func (a *Accumulator) counters(f model.Field) *FieldCounters {
	c, ok := a.fields[f]
	if !ok {
		c = &FieldCounters{}
		a.fields[f] = c
	}
	return c
}

// Record counts one field change
func (a *Accumulator) Record(change model.FieldChange) {
	c := a.counters(change.Field)
	switch change.Operation {
	case model.OpExtracted:
		c.Extracted++
	case model.OpCanonicalized:
		c.Canonicalized++
	case model.OpInvalidated:
		c.Invalidated++
	case model.OpUnmatched:
		c.Unmatched++
	case model.OpCleared:
		c.Cleared++
	case model.OpEnriched:
		c.Enriched++
	}
	if change.Reason != "" {
		a.rules[change.Reason]++
	}
	if cat := CategoryFor(change.Operation); cat != CategoryNone {
		a.categories[cat]++
	}
}

// UnmatchedCity records a city value that did not resolve
func (a *Accumulator) UnmatchedCity(sourceName, sourceID, raw string) {
	a.cities = append(a.cities, CityRow{SourceName: sourceName, SourceID: sourceID, Raw: raw})
}

// UnmatchedSkill counts a skill token that is not in the vocabulary, keeping
// the first raw spelling as an example
func (a *Accumulator) UnmatchedSkill(norm, raw string) {
	if norm == "" {
		return
	}
	m, ok := a.skills[norm]
	if !ok {
		m = &SkillMiss{Norm: norm, Example: raw}
		a.skills[norm] = m
	}
	m.Count++
}

// UnmatchedSkillLevel records a record whose skills got no proficiency level
func (a *Accumulator) UnmatchedSkillLevel(row SkillLevelRow) {
	a.skillLevels = append(a.skillLevels, row)
}

// SkillCategoryOutcome counts one skill_category recomputation
func (a *Accumulator) SkillCategoryOutcome(outcome CategoryAudit) {
	a.skillCategory.Right += outcome.Right
	a.skillCategory.Wrong += outcome.Wrong
	a.skillCategory.Enriched += outcome.Enriched
	a.skillCategory.Unmatched += outcome.Unmatched
}

// Ambiguity counts a precedence decision between conflicting rules
func (a *Accumulator) Ambiguity(rule string) {
	a.categories[CategoryReferenceAmbiguity]++
	a.rules[rule]++
}

// Drop counts a record excluded from projection
func (a *Accumulator) Drop(reason DropReason) {
	a.drops[reason]++
	a.categories[CategoryRecordDropped]++
}

// MalformedRows counts input rows that could not be read
func (a *Accumulator) MalformedRows(n int) {
	if n > 0 {
		a.categories[CategoryMalformedRow] += int64(n)
	}
}

// ObservePosting feeds the temporal distribution with an emitted posting
func (a *Accumulator) ObservePosting(sourceName string, postedDate model.Value) {
	a.temporal.ObserveDate(sourceName, postedDate)
}

// Field returns the counters of one field
func (a *Accumulator) Field(f model.Field) FieldCounters {
	if c, ok := a.fields[f]; ok {
		return *c
	}
	return FieldCounters{}
}

// Rule returns how often a named rule or lookup fired
func (a *Accumulator) Rule(name string) int64 {
	return a.rules[name]
}

// Category returns the count of one outcome category
func (a *Accumulator) Category(c Category) int64 {
	return a.categories[c]
}

// Dropped returns the drop count for a reason
func (a *Accumulator) Dropped(reason DropReason) int64 {
	return a.drops[reason]
}

// TotalDropped returns the sum over every drop reason
func (a *Accumulator) TotalDropped() int64 {
	var total int64
	for _, n := range a.drops {
		total += n
	}
	return total
}

// UnmatchedCities returns unmatched city rows in the order they were seen
func (a *Accumulator) UnmatchedCities() []CityRow {
	return a.cities
}

// UnmatchedSkills returns unmatched skills by descending count, then name
func (a *Accumulator) UnmatchedSkills() []SkillMiss {
	out := make([]SkillMiss, 0, len(a.skills))
	for _, m := range a.skills {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Norm < out[j].Norm
	})
	return out
}

// UnmatchedSkillLevels returns unmatched skill level rows in the order they were seen
func (a *Accumulator) UnmatchedSkillLevels() []SkillLevelRow {
	return a.skillLevels
}

// SkillCategory returns the skill_category recomputation counts
func (a *Accumulator) SkillCategory() CategoryAudit {
	return a.skillCategory
}

// Temporal returns the posting-date distribution
func (a *Accumulator) Temporal() *Temporal {
	return a.temporal
}

// Merge folds other into a. Row reports are appended in order; skill misses
// keep the example seen first.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	for f, c := range other.fields {
		a.counters(f).add(*c)
	}
	for k, n := range other.rules {
		a.rules[k] += n
	}
	for k, n := range other.categories {
		a.categories[k] += n
	}
	a.cities = append(a.cities, other.cities...)
	for norm, m := range other.skills {
		existing, ok := a.skills[norm]
		if !ok {
			copied := *m
			a.skills[norm] = &copied
			continue
		}
		existing.Count += m.Count
	}
	a.skillLevels = append(a.skillLevels, other.skillLevels...)
	a.SkillCategoryOutcome(other.skillCategory)
	for k, n := range other.drops {
		a.drops[k] += n
	}
	a.temporal.Merge(other.temporal)
}

// LogSummary writes the per-field counters and audit totals to logger
func (a *Accumulator) LogSummary(logger *zap.Logger, stage string) {
	for _, f := range model.Fields() {
		c, ok := a.fields[f]
		if !ok {
			continue
		}
		logger.Info("Field audit",
			zap.String("stage", stage),
			zap.String("field", f.String()),
			zap.Int64("extracted", c.Extracted),
			zap.Int64("canonicalized", c.Canonicalized),
			zap.Int64("invalidated", c.Invalidated),
			zap.Int64("unmatched", c.Unmatched),
			zap.Int64("cleared", c.Cleared),
			zap.Int64("enriched", c.Enriched))
	}
	logger.Info("Audit totals",
		zap.String("stage", stage),
		zap.Int("unmatchedCities", len(a.cities)),
		zap.Int("unmatchedSkills", len(a.skills)),
		zap.Int("unmatchedSkillLevels", len(a.skillLevels)),
		zap.Int64("categoryRight", a.skillCategory.Right),
		zap.Int64("categoryWrong", a.skillCategory.Wrong),
		zap.Int64("categoryEnriched", a.skillCategory.Enriched),
		zap.Int64("droppedNoCompany", a.drops[DropNoCompany]),
		zap.Int64("droppedAllNA", a.drops[DropAllNA]),
		zap.Int64("ambiguities", a.categories[CategoryReferenceAmbiguity]),
		zap.Int64("malformedRows", a.categories[CategoryMalformedRow]))
}

// Summary is the serializable view of an accumulator
type Summary struct {
	Fields               map[string]FieldCounters `json:"fields"`
	Rules                map[string]int64         `json:"rules"`
	Categories           map[Category]int64       `json:"categories"`
	UnmatchedCities      int                      `json:"unmatchedCities"`
	UnmatchedSkills      int                      `json:"unmatchedSkills"`
	UnmatchedSkillLevels int                      `json:"unmatchedSkillLevels"`
	SkillCategory        CategoryAudit            `json:"skillCategory"`
	Drops                map[DropReason]int64     `json:"drops"`
	TotalDropped         int64                    `json:"totalDropped"`
	YearCap              *YearCap                 `json:"yearCap,omitempty"`
}

// Summary returns a snapshot suitable for the run summary file
func (a *Accumulator) Summary() Summary {
	s := Summary{
		Fields:               make(map[string]FieldCounters, len(a.fields)),
		Rules:                make(map[string]int64, len(a.rules)),
		Categories:           make(map[Category]int64, len(a.categories)),
		UnmatchedCities:      len(a.cities),
		UnmatchedSkills:      len(a.skills),
		UnmatchedSkillLevels: len(a.skillLevels),
		SkillCategory:        a.skillCategory,
		Drops:                make(map[DropReason]int64, len(a.drops)),
		TotalDropped:         a.TotalDropped(),
	}
	for f, c := range a.fields {
		s.Fields[f.String()] = *c
	}
	for k, n := range a.rules {
		s.Rules[k] = n
	}
	for k, n := range a.categories {
		s.Categories[k] = n
	}
	for k, n := range a.drops {
		s.Drops[k] = n
	}
	if yc, ok := a.temporal.Cap(); ok {
		s.YearCap = &yc
	}
	return s
}
