// pkg/extractor/extractor.go
package extractor

import (
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

// roleContextChars is how much of the description counts as title context
const roleContextChars = 300

// Context is the read-only view of one record handed to every rule
type Context struct {
	Record   *model.Record
	Registry *reference.Registry

	// Lower is the lower-cased description
	Lower string
	// Norm is the normalized description
	Norm string
	// RoleContext is role_name plus the head of the description, original case
	RoleContext string
}

// Fill maps target fields to extracted values
type Fill map[model.Field]string

// Rule is one named extraction heuristic. It runs only when every Requires
// field is unknown and writes only the Targets that are still unknown.
type Rule struct {
	Name     string
	Requires []model.Field
	Targets  []model.Field
	Apply    func(ctx *Context) Fill
}

func (r Rule) ready(rec *model.Record) bool {
	for _, f := range r.Requires {
		if !rec.Get(f).IsUnknown() {
			return false
		}
	}
	return true
}

// single builds a rule that fills one field from one string
func single(name string, f model.Field, fn func(ctx *Context) (string, bool)) Rule {
	return Rule{
		Name:     name,
		Requires: []model.Field{f},
		Targets:  []model.Field{f},
		Apply: func(ctx *Context) Fill {
			v, ok := fn(ctx)
			if !ok {
				return nil
			}
			return Fill{f: v}
		},
	}
}

// Extractor fills unknown fields from the job description
type Extractor struct {
	registry *reference.Registry
	logger   *zap.Logger
	rules    []Rule
}

// New creates an extractor over the loaded registry
func New(registry *reference.Registry, logger *zap.Logger) (*Extractor, error) {
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		registry: registry,
		logger:   logger,
		rules:    DefaultRules(),
	}, nil
}

// DefaultRules returns the rule plan in execution order
func DefaultRules() []Rule {
	var rules []Rule
	rules = append(rules, locationRules()...)
	rules = append(rules, salaryRule())
	rules = append(rules, experienceRules()...)
	rules = append(rules,
		keywordRule("education_keyword", model.FieldEducationLevel, (*reference.Registry).EducationLevels),
		keywordRule("industry_keyword", model.FieldIndustry, (*reference.Registry).Industries),
	)
	rules = append(rules, skillRules()...)
	rules = append(rules, companySizeRules()...)
	rules = append(rules,
		keywordRule("employment_keyword", model.FieldEmploymentType, (*reference.Registry).EmploymentTypes),
		keywordRule("level_keyword", model.FieldLevel, (*reference.Registry).JobLevels),
	)
	return rules
}

// Rules returns the active rule plan
func (e *Extractor) Rules() []Rule {
	return e.rules
}

// Extract returns a copy of rec with unknown fields filled from its
// description. Fields that are not unknown are never touched.
func (e *Extractor) Extract(rec *model.Record, acc *audit.Accumulator) *model.Record {
	out := rec.Clone()
	desc := out.Get(model.FieldJobDescription)
	if !desc.IsPresent() {
		return out
	}

	ctx := e.newContext(out, desc.Text())
	for _, rule := range e.rules {
		if !rule.ready(out) {
			continue
		}
		fill := rule.Apply(ctx)
		if len(fill) == 0 {
			continue
		}
		for _, f := range rule.Targets {
			v, ok := fill[f]
			if !ok || !out.Get(f).IsUnknown() {
				continue
			}
			after := model.Present(v)
			if !after.IsPresent() {
				continue
			}
			out.Set(f, after)
			if acc != nil {
				acc.Record(model.NewFieldChange(out, f, model.Unknown(), after, model.OpExtracted, rule.Name))
			}
		}
	}
	return out
}

// ExtractBatch extracts every record of a batch
func (e *Extractor) ExtractBatch(records []*model.Record, acc *audit.Accumulator) []*model.Record {
	out := make([]*model.Record, len(records))
	for i, rec := range records {
		out[i] = e.Extract(rec, acc)
	}
	e.logger.Debug("Extracted batch", zap.Int("records", len(records)))
	return out
}

func (e *Extractor) newContext(rec *model.Record, desc string) *Context {
	head := desc
	if utf8.RuneCountInString(head) > roleContextChars {
		head = string([]rune(head)[:roleContextChars])
	}
	role := rec.Text(model.FieldRoleName)
	return &Context{
		Record:      rec,
		Registry:    e.registry,
		Lower:       strings.ToLower(desc),
		Norm:        textnorm.Normalize(desc),
		RoleContext: strings.TrimSpace(role + " " + head),
	}
}

// around returns text[start:end] widened by pad runes on each side
func around(text string, start, end, pad int) string {
	left := start
	for i := 0; i < pad && left > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:left])
		left -= size
	}
	right := end
	for i := 0; i < pad && right < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[right:])
		right += size
	}
	return text[left:right]
}

// containsAny is a plain substring test, used for veto lists where a
// partial word hit should still veto
func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
