// pkg/model/record.go
package model

import "fmt"

// MultiValueDelimiter separates tokens in skill_name, skill_category, role_name and skill_level_required
const MultiValueDelimiter = "|"

// Field identifies one column of the canonical record layout
type Field int

const (
	FieldSourceID Field = iota
	FieldSourceName
	FieldRoleName
	FieldCompanyName
	FieldCity
	FieldCountry
	FieldMinSalary
	FieldMaxSalary
	FieldCurrency
	FieldPostedDate
	FieldRequiredExpYears
	FieldEducationLevel
	FieldEmploymentType
	FieldJobDescription
	FieldRemoteOption
	FieldSkillName
	FieldSkillCategory
	FieldLevel
	FieldCompanySize
	FieldIndustry

	// Derived during canonicalization
	FieldCountryISO
	FieldLatitude
	FieldLongitude
	FieldPopulation
	FieldSkillLevelRequired

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldSourceID:           "source_id",
	FieldSourceName:         "source_name",
	FieldRoleName:           "role_name",
	FieldCompanyName:        "company_name",
	FieldCity:               "city",
	FieldCountry:            "country",
	FieldMinSalary:          "min_salary",
	FieldMaxSalary:          "max_salary",
	FieldCurrency:           "currency",
	FieldPostedDate:         "posted_date",
	FieldRequiredExpYears:   "required_exp_years",
	FieldEducationLevel:     "education_level",
	FieldEmploymentType:     "employment_type",
	FieldJobDescription:     "job_description",
	FieldRemoteOption:       "remote_option",
	FieldSkillName:          "skill_name",
	FieldSkillCategory:      "skill_category",
	FieldLevel:              "level",
	FieldCompanySize:        "company_size",
	FieldIndustry:           "industry",
	FieldCountryISO:         "country_iso",
	FieldLatitude:           "latitude",
	FieldLongitude:          "longitude",
	FieldPopulation:         "population",
	FieldSkillLevelRequired: "skill_level_required",
}

var fieldsByName = func() map[string]Field {
	m := make(map[string]Field, fieldCount)
	for f, name := range fieldNames {
		m[name] = Field(f)
	}
	return m
}()

// String returns the column name of the field
func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// IsProvenance reports whether the field only records where a row came from
func (f Field) IsProvenance() bool {
	return f == FieldSourceID || f == FieldSourceName
}

// ParseField looks up a field by column name
func ParseField(name string) (Field, bool) {
	f, ok := fieldsByName[name]
	return f, ok
}

// Fields returns every field in column order
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Header returns the column names in column order
func Header() []string {
	out := make([]string, fieldCount)
	copy(out, fieldNames[:])
	return out
}

// Record is one canonical row. It is a plain value array, so two records
// compare equal with == when every field matches.
type Record struct {
	values [fieldCount]Value
}

// NewRecord creates a record with every field Unknown
func NewRecord() *Record {
	return &Record{}
}

// Get returns the value of a field
func (r *Record) Get(f Field) Value {
	return r.values[f]
}

// Set replaces the value of a field
func (r *Record) Set(f Field, v Value) {
	r.values[f] = v
}

// Text returns the present text of a field or ""
func (r *Record) Text(f Field) string {
	return r.values[f].Text()
}

// Clone returns an independent copy
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// Equal reports whether two records hold identical values
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.values == other.values
}

// Row renders the record in column order
func (r *Record) Row() []string {
	out := make([]string, fieldCount)
	for i, v := range r.values {
		out[i] = v.String()
	}
	return out
}

// HasMeaningfulValue reports whether any non-provenance field is present
func (r *Record) HasMeaningfulValue() bool {
	for i, v := range r.values {
		if Field(i).IsProvenance() {
			continue
		}
		if v.IsPresent() {
			return true
		}
	}
	return false
}

// SourceLabel identifies the record in logs and audit rows
func (r *Record) SourceLabel() (name, id string) {
	return r.values[FieldSourceName].Text(), r.values[FieldSourceID].Text()
}
