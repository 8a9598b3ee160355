// pkg/model/metadata.go
package model

import "strings"

// Logical column types understood by the sink converter
const (
	TypeBigInt  = "bigint"
	TypeInteger = "integer"
	TypeNumeric = "numeric"
	TypeDouble  = "double"
	TypeDate    = "date"
	TypeText    = "text"
)

// TableMetadata contains the structure information for an output table
type TableMetadata struct {
	Schema      string   // Schema name in the sink (empty for SQLite)
	Table       string   // Table name, also the output file stem
	Columns     []Column // Column definitions in file order
	PrimaryKeys []string // List of primary key column names
}

// Column represents metadata about an output column
type Column struct {
	Name         string // Column name
	DataType     string // Logical type, one of the Type* constants
	Nullable     bool   // Whether column allows NULL values
	IsPrimaryKey bool   // Whether column is part of primary key
	References   string // Referenced table for foreign keys
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := normalizeColumnName(name)
	for i, col := range tm.Columns {
		if normalizeColumnName(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in file order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}

// WithSchema returns a copy of the metadata placed in schema
func (tm TableMetadata) WithSchema(schema string) TableMetadata {
	tm.Schema = schema
	return tm
}

// IsIDColumn checks if a column holds a surrogate key
func (col *Column) IsIDColumn() bool {
	name := normalizeColumnName(col.Name)
	return name == "id" || hasSuffix(name, "_id")
}

func pk(name string) Column {
	return Column{Name: name, DataType: TypeBigInt, IsPrimaryKey: true}
}

func fk(name, table string, nullable bool) Column {
	return Column{Name: name, DataType: TypeBigInt, Nullable: nullable, References: table}
}

func col(name, dataType string) Column {
	return Column{Name: name, DataType: dataType, Nullable: true}
}

// OutputTables returns every output table in load order (referenced tables first)
func OutputTables() []TableMetadata {
	return []TableMetadata{
		{
			Table: TableCompanies,
			Columns: []Column{
				pk("company_id"),
				{Name: "company_name", DataType: TypeText},
				col("company_size", TypeText),
				col("industry", TypeText),
			},
			PrimaryKeys: []string{"company_id"},
		},
		{
			Table: TableLocations,
			Columns: []Column{
				pk("location_id"),
				col("city", TypeText),
				col("country", TypeText),
				col("country_iso", TypeText),
				col("latitude", TypeDouble),
				col("longitude", TypeDouble),
				col("population", TypeBigInt),
			},
			PrimaryKeys: []string{"location_id"},
		},
		{
			Table:       TableRoles,
			Columns:     []Column{pk("role_id"), {Name: "role_name", DataType: TypeText}},
			PrimaryKeys: []string{"role_id"},
		},
		{
			Table: TableSkills,
			Columns: []Column{
				pk("skill_id"),
				{Name: "skill_name", DataType: TypeText},
				col("skill_category", TypeText),
			},
			PrimaryKeys: []string{"skill_id"},
		},
		{
			Table: TableJobPostings,
			Columns: []Column{
				pk("job_id"),
				fk("company_id", TableCompanies, false),
				fk("location_id", TableLocations, true),
				col("posted_date", TypeDate),
				col("min_salary", TypeNumeric),
				col("max_salary", TypeNumeric),
				col("currency", TypeText),
				col("required_exp_years", TypeInteger),
				col("education_level", TypeText),
				col("employment_type", TypeText),
				col("remote_option", TypeText),
				col("job_description", TypeText),
			},
			PrimaryKeys: []string{"job_id"},
		},
		{
			Table: TableJobRoles,
			Columns: []Column{
				fk("job_id", TableJobPostings, false),
				fk("role_id", TableRoles, false),
			},
			PrimaryKeys: []string{"job_id", "role_id"},
		},
		{
			Table: TableJobSkills,
			Columns: []Column{
				fk("job_id", TableJobPostings, false),
				fk("skill_id", TableSkills, false),
				col("required_level", TypeText),
			},
			PrimaryKeys: []string{"job_id", "skill_id"},
		},
		{
			Table: TableJobLevels,
			Columns: []Column{
				fk("job_id", TableJobPostings, false),
				{Name: "level", DataType: TypeText},
			},
			PrimaryKeys: []string{"job_id", "level"},
		},
	}
}

// LookupTable returns the metadata of a named output table
func LookupTable(name string) (TableMetadata, bool) {
	for _, tm := range OutputTables() {
		if tm.Table == name {
			return tm, true
		}
	}
	return TableMetadata{}, false
}

// Helper functions for case-insensitive string operations
func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func hasSuffix(s, suffix string) bool {
	return strings.HasSuffix(
		strings.ToLower(s),
		strings.ToLower(suffix),
	)
}
