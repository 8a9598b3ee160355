// pkg/canonicalizer/canonicalizer.go
package canonicalizer

import (
	"errors"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
)

// Canonicalizer rewrites field values to the controlled vocabularies of the
// reference registry. It reads only field values, never free text, except for
// skill level enrichment which looks at the role and description.
type Canonicalizer struct {
	registry *reference.Registry
	logger   *zap.Logger
	simple   []fieldRule
}

// fieldRule standardizes one present value of one field
type fieldRule struct {
	field  model.Field
	reason string
	apply  func(raw string) model.Value
}

// New creates a canonicalizer over the loaded registry
func New(registry *reference.Registry, logger *zap.Logger) (*Canonicalizer, error) {
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Canonicalizer{
		registry: registry,
		logger:   logger,
	}
	c.simple = []fieldRule{
		{model.FieldCompanyName, "company_whitespace", standardizeCompanyName},
		{model.FieldCurrency, "currency_lookup", c.standardizeCurrency},
		{model.FieldEmploymentType, "employment_lookup", keywordLookup(registry.EmploymentTypes())},
		{model.FieldEducationLevel, "education_lookup", keywordLookup(registry.EducationLevels())},
		{model.FieldLevel, "level_lookup", keywordLookup(registry.JobLevels())},
		{model.FieldCompanySize, "company_size_lookup", keywordLookup(registry.CompanySizes())},
		{model.FieldIndustry, "industry_lookup", keywordLookup(registry.Industries())},
		{model.FieldRemoteOption, "remote_encoding", standardizeRemoteOption},
		{model.FieldRequiredExpYears, "experience_years", standardizeExperience},
		{model.FieldMinSalary, "salary_numeric", standardizeSalary},
		{model.FieldMaxSalary, "salary_numeric", standardizeSalary},
		{model.FieldPostedDate, "posted_date_format", standardizePostedDate},
	}
	return c, nil
}

// Canonicalize returns a canonical copy of rec. Sentinels are terminal and a
// canonical record canonicalizes to itself.
func (c *Canonicalizer) Canonicalize(rec *model.Record, acc *audit.Accumulator) *model.Record {
	out := rec.Clone()
	s := &session{rec: out, acc: acc}

	for _, rule := range c.simple {
		v := out.Get(rule.field)
		if !v.IsPresent() {
			continue
		}
		s.set(rule.field, rule.apply(v.Text()), rule.reason)
	}

	c.standardizeLocation(s)
	c.standardizeSkills(s)
	c.deriveSkillCategory(s)
	c.enrichSkillLevel(s)
	c.standardizeRoles(s)
	return out
}

// CanonicalizeRows canonicalizes a batch of records
func (c *Canonicalizer) CanonicalizeRows(records []*model.Record, acc *audit.Accumulator) []*model.Record {
	out := make([]*model.Record, len(records))
	for i, rec := range records {
		out[i] = c.Canonicalize(rec, acc)
	}
	c.logger.Debug("Canonicalized batch", zap.Int("records", len(records)))
	return out
}

// session carries one record through canonicalization and records every change
type session struct {
	rec *model.Record
	acc *audit.Accumulator
}

// set writes after into f when it differs and records the change
func (s *session) set(f model.Field, after model.Value, reason string) {
	before := s.rec.Get(f)
	if before == after {
		return
	}
	s.rec.Set(f, after)
	if s.acc != nil {
		s.acc.Record(model.NewFieldChange(s.rec, f, before, after, operationFor(before, after), reason))
	}
}

func operationFor(before, after model.Value) model.Operation {
	switch {
	case after.IsInvalid():
		return model.OpInvalidated
	case after.IsUnmatched():
		return model.OpUnmatched
	case after.IsUnknown():
		return model.OpCleared
	case before.IsUnknown():
		return model.OpEnriched
	default:
		return model.OpCanonicalized
	}
}
