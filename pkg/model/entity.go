// pkg/model/entity.go
package model

import (
	"strconv"
	"strings"
)

// Output table names
const (
	TableCompanies   = "companies"
	TableLocations   = "locations"
	TableRoles       = "role_names"
	TableSkills      = "skills"
	TableJobPostings = "job_postings"
	TableJobRoles    = "job_roles"
	TableJobSkills   = "job_skills"
	TableJobLevels   = "job_levels"
)

// Vocabulary is a closed set of canonical values
type Vocabulary struct {
	values []string
	exact  map[string]struct{}
	folded map[string]string
}

// NewVocabulary builds a vocabulary preserving the given order
func NewVocabulary(values ...string) *Vocabulary {
	v := &Vocabulary{
		exact:  make(map[string]struct{}, len(values)),
		folded: make(map[string]string, len(values)),
	}
	for _, value := range values {
		if _, dup := v.exact[value]; dup {
			continue
		}
		v.values = append(v.values, value)
		v.exact[value] = struct{}{}
		v.folded[strings.ToLower(value)] = value
	}
	return v
}

// Contains reports whether value is a member, compared exactly
func (v *Vocabulary) Contains(value string) bool {
	_, ok := v.exact[value]
	return ok
}

// Lookup finds the member equal to value ignoring case and surrounding space
func (v *Vocabulary) Lookup(value string) (string, bool) {
	canonical, ok := v.folded[strings.ToLower(strings.TrimSpace(value))]
	return canonical, ok
}

// Values returns the members in declaration order
func (v *Vocabulary) Values() []string {
	out := make([]string, len(v.values))
	copy(out, v.values)
	return out
}

// Fixed enumerations enforced by the entity projector
var (
	CompanySizes    = NewVocabulary("Startup", "Small", "Medium", "Large", "Enterprise")
	EducationLevels = NewVocabulary("High School", "Bachelor", "Master", "PhD")
	EmploymentTypes = NewVocabulary("Full-time", "Part-time", "Internship", "Temporary", "Contract")
	JobLevels       = NewVocabulary("Intern", "Junior", "Mid", "Senior", "Lead", "Manager")
	RemoteOptions   = NewVocabulary("Onsite", "Hybrid", "Remote")
	RoleNames       = NewVocabulary(
		"Data Analyst",
		"Business Intelligence Analyst",
		"BI Developer",
		"Analytics Engineer",
		"Data Engineer",
		"Data Scientist",
		"Machine Learning Engineer",
		"AI Engineer",
		"AI Researcher",
		"Applied Scientist",
		"Research Engineer",
		"Data Architect",
		"Data Manager",
		"Data Lead",
	)
)

// Company is one row of the companies table
type Company struct {
	ID       int64
	Name     string
	Size     Value
	Industry Value
}

// Row renders the company in column order
func (c Company) Row() []string {
	return []string{formatID(c.ID), c.Name, c.Size.String(), c.Industry.String()}
}

// Location is one row of the locations table
type Location struct {
	ID         int64
	City       Value
	Country    Value
	CountryISO Value
	Latitude   Value
	Longitude  Value
	Population Value
}

// Row renders the location in column order
func (l Location) Row() []string {
	return []string{
		formatID(l.ID),
		l.City.String(),
		l.Country.String(),
		l.CountryISO.String(),
		l.Latitude.String(),
		l.Longitude.String(),
		l.Population.String(),
	}
}

// Role is one row of the role_names table
type Role struct {
	ID   int64
	Name string
}

// Row renders the role in column order
func (r Role) Row() []string {
	return []string{formatID(r.ID), r.Name}
}

// Skill is one row of the skills table
type Skill struct {
	ID       int64
	Name     string
	Category string
}

// Row renders the skill in column order
func (s Skill) Row() []string {
	return []string{formatID(s.ID), s.Name, s.Category}
}

// JobPosting is one row of the job_postings fact table
type JobPosting struct {
	ID               int64
	CompanyID        int64
	LocationID       int64 // 0 when the posting has no location
	PostedDate       Value
	MinSalary        Value
	MaxSalary        Value
	Currency         Value
	RequiredExpYears Value
	EducationLevel   Value
	EmploymentType   Value
	RemoteOption     Value
	Description      Value
}

// Row renders the posting in column order
func (j JobPosting) Row() []string {
	return []string{
		formatID(j.ID),
		formatID(j.CompanyID),
		formatID(j.LocationID),
		j.PostedDate.String(),
		j.MinSalary.String(),
		j.MaxSalary.String(),
		j.Currency.String(),
		j.RequiredExpYears.String(),
		j.EducationLevel.String(),
		j.EmploymentType.String(),
		j.RemoteOption.String(),
		j.Description.String(),
	}
}

// JobRole links a posting to a role
type JobRole struct {
	JobID  int64
	RoleID int64
}

// Row renders the link in column order
func (j JobRole) Row() []string {
	return []string{formatID(j.JobID), formatID(j.RoleID)}
}

// JobSkill links a posting to a skill
type JobSkill struct {
	JobID         int64
	SkillID       int64
	RequiredLevel Value
}

// Row renders the link in column order
func (j JobSkill) Row() []string {
	return []string{formatID(j.JobID), formatID(j.SkillID), j.RequiredLevel.String()}
}

// JobLevel links a posting to a seniority level
type JobLevel struct {
	JobID int64
	Level string
}

// Row renders the link in column order
func (j JobLevel) Row() []string {
	return []string{formatID(j.JobID), j.Level}
}

// formatID renders a surrogate key; zero means no reference
func formatID(id int64) string {
	if id <= 0 {
		return NotAvailableMarker
	}
	return strconv.FormatInt(id, 10)
}
