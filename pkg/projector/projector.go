// pkg/projector/projector.go
package projector

import (
	"errors"

	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/audit"
	"github.com/David-Botos/jobnorm/pkg/canonicalizer"
	"github.com/David-Botos/jobnorm/pkg/model"
	"github.com/David-Botos/jobnorm/pkg/reference"
	"github.com/David-Botos/jobnorm/pkg/textnorm"
)

type locationKey struct {
	city, country, iso model.Value
}

// Projector splits canonical records into entity, fact and junction rows.
// It keeps one natural-key index per entity for the whole run, so ids depend
// only on record order. Not safe for concurrent use.
type Projector struct {
	registry   *reference.Registry
	industries *model.Vocabulary
	logger     *zap.Logger

	companies *index[string, model.Company]
	locations *index[locationKey, model.Location]
	roles     *index[string, model.Role]
	skills    *index[string, model.Skill]

	batch Batch
	stats Stats
}

// New creates a projector with empty indexes
func New(registry *reference.Registry, logger *zap.Logger) (*Projector, error) {
	if registry == nil {
		return nil, errors.New("projector requires a reference registry")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{
		registry:   registry,
		industries: registry.IndustryVocabulary(),
		logger:     logger,
		companies:  newIndex[string, model.Company](),
		locations:  newIndex[locationKey, model.Location](),
		roles:      newIndex[string, model.Role](),
		skills:     newIndex[string, model.Skill](),
		stats:      newStats(),
	}, nil
}

// Project handles one record and reports whether a posting was emitted
func (p *Projector) Project(rec *model.Record, acc *audit.Accumulator) bool {
	p.stats.InputRows++

	companyKey := textnorm.Normalize(rec.Text(model.FieldCompanyName))
	if companyKey == "" {
		p.drop(rec, audit.DropNoCompany, acc)
		return false
	}
	if !hasValueBesidesCompany(rec) {
		p.drop(rec, audit.DropAllNA, acc)
		return false
	}

	companyID := p.companies.resolve(companyKey, func(id int64) model.Company {
		return model.Company{
			ID:       id,
			Name:     textnorm.CollapseSpace(rec.Text(model.FieldCompanyName)),
			Size:     restrict(rec.Get(model.FieldCompanySize), model.CompanySizes),
			Industry: restrict(rec.Get(model.FieldIndustry), p.industries),
		}
	})

	jobID := p.stats.Tables[model.TableJobPostings] + 1
	posting := model.JobPosting{
		ID:               jobID,
		CompanyID:        companyID,
		LocationID:       p.location(rec),
		PostedDate:       rec.Get(model.FieldPostedDate),
		MinSalary:        rec.Get(model.FieldMinSalary),
		MaxSalary:        rec.Get(model.FieldMaxSalary),
		Currency:         rec.Get(model.FieldCurrency),
		RequiredExpYears: rec.Get(model.FieldRequiredExpYears),
		EducationLevel:   restrict(rec.Get(model.FieldEducationLevel), model.EducationLevels),
		EmploymentType:   restrict(rec.Get(model.FieldEmploymentType), model.EmploymentTypes),
		RemoteOption:     restrict(rec.Get(model.FieldRemoteOption), model.RemoteOptions),
		Description:      rec.Get(model.FieldJobDescription),
	}
	p.batch.Postings = append(p.batch.Postings, posting)
	p.stats.Tables[model.TableJobPostings]++

	p.projectRoles(jobID, rec)
	p.projectSkills(jobID, rec, acc)
	if level := rec.Get(model.FieldLevel); level.IsPresent() && model.JobLevels.Contains(level.Text()) {
		p.batch.JobLevels = append(p.batch.JobLevels, model.JobLevel{JobID: jobID, Level: level.Text()})
		p.stats.Tables[model.TableJobLevels]++
	}

	if acc != nil {
		name, _ := rec.SourceLabel()
		acc.ObservePosting(name, posting.PostedDate)
	}
	return true
}

// ProjectBatch projects records in order and returns the rows they produced
func (p *Projector) ProjectBatch(records []*model.Record, acc *audit.Accumulator) Batch {
	for _, rec := range records {
		p.Project(rec, acc)
	}
	return p.Drain()
}

// Drain hands over every row produced since the previous drain
func (p *Projector) Drain() Batch {
	b := p.batch
	b.Companies = p.companies.drain()
	b.Locations = p.locations.drain()
	b.Roles = p.roles.drain()
	b.Skills = p.skills.drain()
	p.batch = Batch{}
	return b
}

// Stats returns the running totals
func (p *Projector) Stats() Stats {
	s := p.stats
	s.Tables = make(map[string]int64, len(p.stats.Tables)+4)
	for k, v := range p.stats.Tables {
		s.Tables[k] = v
	}
	s.Tables[model.TableCompanies] = p.companies.size()
	s.Tables[model.TableLocations] = p.locations.size()
	s.Tables[model.TableRoles] = p.roles.size()
	s.Tables[model.TableSkills] = p.skills.size()
	return s
}

func (p *Projector) drop(rec *model.Record, reason audit.DropReason, acc *audit.Accumulator) {
	switch reason {
	case audit.DropNoCompany:
		p.stats.DroppedNoCompany++
	case audit.DropAllNA:
		p.stats.DroppedAllNA++
	}
	if acc != nil {
		acc.Drop(reason)
	}
	name, id := rec.SourceLabel()
	p.logger.Debug("Dropped record",
		zap.String("source", name),
		zap.String("sourceID", id),
		zap.String("reason", string(reason)))
}

// location returns the location id, or 0 when city, country and ISO code are
// all sentinels
func (p *Projector) location(rec *model.Record) int64 {
	key := locationKey{
		city:    rec.Get(model.FieldCity),
		country: rec.Get(model.FieldCountry),
		iso:     rec.Get(model.FieldCountryISO),
	}
	if !key.city.IsPresent() && !key.country.IsPresent() && !key.iso.IsPresent() {
		return 0
	}
	return p.locations.resolve(key, func(id int64) model.Location {
		return model.Location{
			ID:         id,
			City:       key.city,
			Country:    key.country,
			CountryISO: key.iso,
			Latitude:   rec.Get(model.FieldLatitude),
			Longitude:  rec.Get(model.FieldLongitude),
			Population: rec.Get(model.FieldPopulation),
		}
	})
}

func (p *Projector) projectRoles(jobID int64, rec *model.Record) {
	seen := make(map[int64]struct{})
	for _, token := range model.SplitMulti(rec.Get(model.FieldRoleName)) {
		name, ok := model.RoleNames.Lookup(token)
		if !ok {
			continue
		}
		roleID := p.roles.resolve(name, func(id int64) model.Role {
			return model.Role{ID: id, Name: name}
		})
		if _, dup := seen[roleID]; dup {
			continue
		}
		seen[roleID] = struct{}{}
		p.batch.JobRoles = append(p.batch.JobRoles, model.JobRole{JobID: jobID, RoleID: roleID})
		p.stats.Tables[model.TableJobRoles]++
	}
}

// projectSkills emits a job_skills row per skill the registry knows. Unknown
// tokens go to the unmatched-skill audit instead.
func (p *Projector) projectSkills(jobID int64, rec *model.Record, acc *audit.Accumulator) {
	levels := canonicalizer.ParseSkillLevels(rec.Get(model.FieldSkillLevelRequired))
	seen := make(map[int64]struct{})
	for _, token := range model.SplitMulti(rec.Get(model.FieldSkillName)) {
		skill, ok := p.registry.SkillByName(token)
		if !ok {
			skill, ok = p.registry.SkillByAlias(textnorm.Normalize(token))
		}
		if !ok {
			if acc != nil {
				acc.UnmatchedSkill(textnorm.Normalize(token), token)
			}
			continue
		}
		skillID := p.skills.resolve(skill.Name, func(id int64) model.Skill {
			return model.Skill{ID: id, Name: skill.Name, Category: skill.Category}
		})
		if _, dup := seen[skillID]; dup {
			continue
		}
		seen[skillID] = struct{}{}
		p.batch.JobSkills = append(p.batch.JobSkills, model.JobSkill{
			JobID:         jobID,
			SkillID:       skillID,
			RequiredLevel: model.Present(levels[skill.Name]),
		})
		p.stats.Tables[model.TableJobSkills]++
	}
}

// restrict keeps a present value only when it belongs to vocab; sentinels pass
// through unchanged
func restrict(v model.Value, vocab *model.Vocabulary) model.Value {
	if v.IsPresent() && !vocab.Contains(v.Text()) {
		return model.Unknown()
	}
	return v
}

// hasValueBesidesCompany reports whether any field other than provenance and
// the company name carries a value
func hasValueBesidesCompany(rec *model.Record) bool {
	for _, f := range model.Fields() {
		if f.IsProvenance() || f == model.FieldCompanyName {
			continue
		}
		if rec.Get(f).IsPresent() {
			return true
		}
	}
	return false
}
