// pkg/canonicalizer/geo.go
package canonicalizer

import (
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

// standardizeLocation resolves country, then city in two levels (alias to
// canonical city, canonical city to official row), then fills the geo fields
// the official row knows.
func (c *Canonicalizer) standardizeLocation(s *session) {
	country := s.rec.Get(model.FieldCountry)
	if country.IsPresent() {
		if known, ok := c.registry.ResolveCountry(country.Text()); ok {
			s.set(model.FieldCountry, model.Present(known.Name), "country_lookup")
		} else {
			s.set(model.FieldCountry, model.Present(textnorm.CollapseSpace(country.Text())), "country_whitespace")
		}
	}

	city := s.rec.Get(model.FieldCity)
	if city.IsPresent() {
		c.resolveCity(s, city.Text())
	}
	c.enrichGeo(s)
}

func (c *Canonicalizer) resolveCity(s *session, raw string) {
	country := s.rec.Text(model.FieldCountry)
	if canonical, ok := c.registry.ResolveCityAlias(raw); ok {
		if official, ok := c.registry.City(canonical, country); ok {
			s.set(model.FieldCity, model.Present(official.Name), "city_alias")
			return
		}
	}

	s.set(model.FieldCity, model.Unmatched(), "city_alias")
	// a city column holding the country name is noise, not a vocabulary gap
	if country != "" && textnorm.Normalize(raw) == textnorm.Normalize(country) {
		return
	}
	if s.acc != nil {
		name, id := s.rec.SourceLabel()
		s.acc.UnmatchedCity(name, id, raw)
	}
}

// enrichGeo fills unknown geo fields from the official city row, or the ISO
// code from the country table when only the country is known
func (c *Canonicalizer) enrichGeo(s *session) {
	country := s.rec.Text(model.FieldCountry)
	if city := s.rec.Get(model.FieldCity); city.IsPresent() {
		if row, ok := c.registry.City(city.Text(), country); ok {
			s.fill(model.FieldCountry, row.Country, "geo_city")
			s.fill(model.FieldCountryISO, row.CountryISO, "geo_city")
			s.fill(model.FieldLatitude, row.Latitude, "geo_city")
			s.fill(model.FieldLongitude, row.Longitude, "geo_city")
			s.fill(model.FieldPopulation, row.Population, "geo_city")
		}
	}

	country = s.rec.Text(model.FieldCountry)
	if country == "" {
		return
	}
	if known, ok := c.registry.ResolveCountry(country); ok {
		s.fill(model.FieldCountryISO, known.ISO, "geo_country")
	}
}

// fill writes value into f only when f is unknown
func (s *session) fill(f model.Field, value, reason string) {
	if !s.rec.Get(f).IsUnknown() {
		return
	}
	s.set(f, model.Present(value), reason)
}
