// pkg/extractor/skills.go
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

func skillRules() []Rule {
	return []Rule{
		single("skill_alias", model.FieldSkillName, matchSkills),
		single("skill_category_derived", model.FieldSkillCategory, deriveCategories),
	}
}

func matchSkills(ctx *Context) (string, bool) {
	var found []string
	for _, s := range ctx.Registry.Skills() {
		if skillMentioned(ctx, s) {
			found = append(found, s.Name)
		}
	}
	if len(found) == 0 {
		return "", false
	}
	sort.Strings(found)
	return strings.Join(found, model.MultiValueDelimiter), true
}

func skillMentioned(ctx *Context, s reference.Skill) bool {
	strong := textnorm.ContainsAnyPhrase(ctx.Norm, s.StrongTerms)
	if s.Ambiguous() {
		// a one-letter name only counts as a standalone title word or with a strong cue
		if !strong && !standaloneName(ctx.RoleContext, s.Name) {
			return false
		}
	} else {
		if !textnorm.ContainsAnyPhrase(ctx.Norm, s.Aliases) {
			return false
		}
		if len(s.StrongTerms) > 0 && !strong {
			return false
		}
	}
	return !textnorm.ContainsAnyPhrase(ctx.Norm, s.ExcludeTerms)
}

func standaloneName(text, name string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// deriveCategories fills skill_category from the skills already on the record
func deriveCategories(ctx *Context) (string, bool) {
	skills := model.SplitMulti(ctx.Record.Get(model.FieldSkillName))
	seen := make(map[string]struct{})
	var categories []string
	for _, name := range skills {
		c, ok := ctx.Registry.SkillCategory(name)
		if !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		categories = append(categories, c)
	}
	if len(categories) == 0 {
		return "", false
	}
	sort.Strings(categories)
	return strings.Join(categories, model.MultiValueDelimiter), true
}
