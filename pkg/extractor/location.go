// pkg/extractor/location.go
package extractor

import (
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

// RemoteValue is written when a remote keyword is found; the canonicalizer
// turns it into a remote option
const RemoteValue = "true"

var remoteKeywords = normalizeAll("remote", "work from home", "wfh", "fully remote", "hybrid")

func locationRules() []Rule {
	return []Rule{
		single("city_alias", model.FieldCity, func(ctx *Context) (string, bool) {
			return ctx.Registry.MatchCity(ctx.Norm)
		}),
		single("country_name", model.FieldCountry, func(ctx *Context) (string, bool) {
			c, ok := ctx.Registry.MatchCountry(ctx.Norm)
			return c.Name, ok
		}),
		single("remote_keyword", model.FieldRemoteOption, func(ctx *Context) (string, bool) {
			if textnorm.ContainsAnyPhrase(ctx.Norm, remoteKeywords) {
				return RemoteValue, true
			}
			return "", false
		}),
	}
}

func normalizeAll(phrases ...string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = textnorm.Normalize(p)
	}
	return out
}
