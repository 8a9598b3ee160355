// pkg/canonicalizer/skills.go
package canonicalizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

var (
	skillSeparators = regexp.MustCompile(`[,/;\n]+|\s+-\s+`)
	// exported list and dict shapes: ['sql', 'git'] or {'cloud': ['azure']}
	quotedListItem = regexp.MustCompile(`'([^']+)'`)
	quotedDictKey  = regexp.MustCompile(`'([^']+)'\s*:`)
)

// minSkillTokenRunes is the shortest token tried against the vocabulary when
// it is not an exact alias
const minSkillTokenRunes = 3

// standardizeSkills maps every skill token to its canonical skill. Tokens
// outside the vocabulary are dropped from the field and counted for curation.
func (c *Canonicalizer) standardizeSkills(s *session) {
	v := s.rec.Get(model.FieldSkillName)
	if !v.IsPresent() {
		return
	}

	var out []string
	seen := make(map[string]struct{})
	for _, token := range skillTokens(c.registry, v.Text()) {
		skill, ok := c.resolveSkill(token)
		if !ok {
			norm := textnorm.Normalize(token)
			if s.acc != nil && utf8.RuneCountInString(norm) >= minSkillTokenRunes {
				s.acc.UnmatchedSkill(norm, token)
			}
			continue
		}
		if _, dup := seen[skill.Name]; dup {
			continue
		}
		seen[skill.Name] = struct{}{}
		out = append(out, skill.Name)
	}
	s.set(model.FieldSkillName, model.JoinMulti(out), "skill_lookup")
}

// skillTokens splits a skill cell into candidate tokens. A pipe-delimited
// piece that is itself an alias stays whole so names containing separators
// ("CI/CD") survive.
func skillTokens(reg *reference.Registry, cell string) []string {
	cell = unwrapShape(cell)
	var tokens []string
	for _, piece := range strings.Split(cell, model.MultiValueDelimiter) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		if _, ok := reg.SkillByAlias(textnorm.Normalize(piece)); ok {
			tokens = append(tokens, piece)
			continue
		}
		for _, t := range skillSeparators.Split(piece, -1) {
			if t = strings.TrimSpace(t); t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	return tokens
}

// unwrapShape flattens list and dict literals left behind by upstream exports
func unwrapShape(cell string) string {
	s := strings.TrimSpace(cell)
	switch {
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		return joinMatches(quotedDictKey.FindAllStringSubmatch(s, -1), s)
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		return joinMatches(quotedListItem.FindAllStringSubmatch(s, -1), s)
	}
	return cell
}

func joinMatches(matches [][]string, fallback string) string {
	if len(matches) == 0 {
		return fallback
	}
	items := make([]string, len(matches))
	for i, m := range matches {
		items[i] = m[1]
	}
	return strings.Join(items, model.MultiValueDelimiter)
}

// resolveSkill tries alias-exact, then strong terms; short tokens only
// resolve exactly
func (c *Canonicalizer) resolveSkill(token string) (reference.Skill, bool) {
	norm := textnorm.Normalize(token)
	if norm == "" {
		return reference.Skill{}, false
	}
	if skill, ok := c.registry.SkillByAlias(norm); ok {
		return skill, true
	}
	if utf8.RuneCountInString(norm) < minSkillTokenRunes {
		return reference.Skill{}, false
	}
	return c.registry.SkillByStrongTerm(norm)
}

// deriveSkillCategory recomputes skill_category from the canonical skills and
// audits the value it replaces. A prior set that is a strict superset of the
// derived set counts as wrong.
func (c *Canonicalizer) deriveSkillCategory(s *session) {
	prior := s.rec.Get(model.FieldSkillCategory)
	if prior.IsInvalid() || prior.IsUnmatched() {
		return
	}

	derived := make(map[string]struct{})
	for _, name := range model.SplitMulti(s.rec.Get(model.FieldSkillName)) {
		if category, ok := c.registry.SkillCategory(name); ok {
			derived[category] = struct{}{}
		}
	}
	before := make(map[string]struct{})
	for _, category := range model.SplitMulti(prior) {
		before[category] = struct{}{}
	}

	var outcome audit.CategoryAudit
	if len(before) > 0 {
		if isSubset(before, derived) {
			outcome.Right++
		} else {
			outcome.Wrong++
		}
	}
	if len(derived) > 0 {
		if !sameSet(before, derived) {
			outcome.Enriched++
		}
	} else if len(before) > 0 {
		outcome.Unmatched++
	}
	if s.acc != nil {
		s.acc.SkillCategoryOutcome(outcome)
	}

	s.set(model.FieldSkillCategory, model.JoinMulti(sortedKeys(derived)), "skill_category_derived")
}

func isSubset(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sameSet(a, b map[string]struct{}) bool {
	return len(a) == len(b) && isSubset(a, b)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
