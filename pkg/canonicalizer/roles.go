// pkg/canonicalizer/roles.go
package canonicalizer

import (
	"sort"
	"strings"

	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

type rolePhrase struct {
	norm string
	name string
}

// rolePhrases is the role vocabulary, longest phrase first
var rolePhrases = func() []rolePhrase {
	var out []rolePhrase
	for _, name := range model.RoleNames.Values() {
		out = append(out, rolePhrase{norm: textnorm.Normalize(name), name: name})
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].norm) > len(out[j].norm) })
	return out
}()

// standardizeRoles maps role tokens onto the fixed role vocabulary. Tokens
// that name no role are kept as written; the projector ignores them.
func (c *Canonicalizer) standardizeRoles(s *session) {
	v := s.rec.Get(model.FieldRoleName)
	if !v.IsPresent() {
		return
	}
	var out []string
	seen := make(map[string]struct{})
	for _, token := range model.SplitMulti(v) {
		role := standardizeRole(token)
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	s.set(model.FieldRoleName, model.JoinMulti(out), "role_lookup")
}

func standardizeRole(token string) string {
	norm := textnorm.Normalize(token)
	for _, p := range rolePhrases {
		if norm == p.norm {
			return p.name
		}
	}
	for _, p := range rolePhrases {
		if textnorm.ContainsPhrase(norm, p.norm) {
			return p.name
		}
	}
	return strings.TrimSpace(token)
}
