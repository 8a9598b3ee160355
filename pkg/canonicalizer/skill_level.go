// pkg/canonicalizer/skill_level.go
package canonicalizer

import (
	"fmt"
	"strings"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

// skillContextTokens is how many tokens either side of a skill mention count
// as its local context
const skillContextTokens = 6

// enrichSkillLevel fills skill_level_required as "Skill (Level)|..." from, in
// order: a single level named by the role, a single level named by the
// description, then the words around each skill mention.
func (c *Canonicalizer) enrichSkillLevel(s *session) {
	if !s.rec.Get(model.FieldSkillLevelRequired).IsUnknown() {
		return
	}
	skills := model.SplitMulti(s.rec.Get(model.FieldSkillName))
	if len(skills) == 0 {
		return
	}

	levels := c.registry.SkillLevels()
	role := textnorm.Normalize(s.rec.Text(model.FieldRoleName))
	desc := textnorm.Normalize(s.rec.Text(model.FieldJobDescription))

	roleLevels := matchLevels(levels, role, reference.SkillLevel.MatchesRole)
	descLevels := matchLevels(levels, desc, reference.SkillLevel.MatchesDescription)

	if len(roleLevels) == 1 {
		if len(descLevels) == 1 && descLevels[0] != roleLevels[0] && s.acc != nil {
			s.acc.Ambiguity("skill_level_role_over_description")
		}
		s.set(model.FieldSkillLevelRequired, labelAll(skills, roleLevels[0]), "skill_level_role")
		return
	}
	if len(descLevels) == 1 {
		s.set(model.FieldSkillLevelRequired, labelAll(skills, descLevels[0]), "skill_level_description")
		return
	}

	var labelled []string
	for _, skill := range skills {
		context := localContext(desc, textnorm.Normalize(skill), skillContextTokens)
		if found := matchLevels(levels, context, reference.SkillLevel.MatchesDescription); len(found) > 0 {
			labelled = append(labelled, label(skill, found[0]))
		}
	}
	if len(labelled) > 0 {
		s.set(model.FieldSkillLevelRequired, model.JoinMulti(labelled), "skill_level_context")
		return
	}

	if s.acc != nil {
		name, id := s.rec.SourceLabel()
		s.acc.UnmatchedSkillLevel(audit.SkillLevelRow{
			SourceName: name,
			SourceID:   id,
			SkillName:  s.rec.Text(model.FieldSkillName),
			RoleName:   s.rec.Text(model.FieldRoleName),
		})
	}
}

func matchLevels(levels []reference.SkillLevel, text string, match func(reference.SkillLevel, string) bool) []string {
	if text == "" {
		return nil
	}
	var out []string
	for _, l := range levels {
		if match(l, text) {
			out = append(out, l.Level)
		}
	}
	return out
}

// localContext returns the tokens around the first mention of skill in text
func localContext(text, skill string, window int) string {
	if text == "" || skill == "" {
		return ""
	}
	tokens := strings.Fields(text)
	want := strings.Fields(skill)
	for i := 0; i+len(want) <= len(tokens); i++ {
		if !equalTokens(tokens[i:i+len(want)], want) {
			continue
		}
		start := max(0, i-window)
		end := min(len(tokens), i+len(want)+window)
		return strings.Join(tokens[start:end], " ")
	}
	return ""
}

func equalTokens(a, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func label(skill, level string) string {
	return fmt.Sprintf("%s (%s)", skill, level)
}

func labelAll(skills []string, level string) model.Value {
	out := make([]string, len(skills))
	for i, skill := range skills {
		out[i] = label(skill, level)
	}
	return model.JoinMulti(out)
}

// ParseSkillLevels reads a skill_level_required value back into skill -> level
func ParseSkillLevels(v model.Value) map[string]string {
	out := make(map[string]string)
	for _, token := range model.SplitMulti(v) {
		open := strings.LastIndex(token, "(")
		if open < 0 || !strings.HasSuffix(token, ")") {
			continue
		}
		skill := strings.TrimSpace(token[:open])
		level := strings.TrimSpace(token[open+1 : len(token)-1])
		if skill != "" && level != "" {
			out[skill] = level
		}
	}
	return out
}
