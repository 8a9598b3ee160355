// pkg/audit/report.go
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/David-Botos/jobnorm/pkg/tabular"
)

// Report file names inside the audit directory
const (
	FileUnmatchedCity       = "unmatched_city_name.csv"
	FileUnmatchedSkill      = "unmatched_skill_name.csv"
	FileUnmatchedSkillLevel = "unmatched_skill_level.csv"
	FileRowsPerSourceYear   = "rows_per_source_year.csv"
	FileRowsPerYear         = "rows_per_year.csv"
	FileYearCapSummary      = "year_cap_summary.csv"
	FileRunSummary          = "run_summary.json"
)

var reportFiles = []string{
	FileUnmatchedCity,
	FileUnmatchedSkill,
	FileUnmatchedSkillLevel,
	FileRowsPerSourceYear,
	FileRowsPerYear,
	FileYearCapSummary,
	FileRunSummary,
}

// ResetReports removes the reports and stage snapshots of a previous run from dir
func ResetReports(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	for _, name := range reportFiles {
		err := os.Remove(filepath.Join(dir, name))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to reset %s: %w", name, err)
		}
	}
	if err := os.RemoveAll(filepath.Join(dir, StagesDir)); err != nil {
		return fmt.Errorf("failed to reset stage snapshots: %w", err)
	}
	return nil
}

// WriteReports writes the unmatched-value and temporal reports to dir
func (a *Accumulator) WriteReports(dir string) error {
	cities := make([][]string, 0, len(a.cities))
	for _, c := range a.cities {
		cities = append(cities, []string{c.SourceName, c.SourceID, c.Raw})
	}
	if err := tabular.WriteAll(filepath.Join(dir, FileUnmatchedCity),
		[]string{"source_name", "source_id", "city_raw"}, cities); err != nil {
		return fmt.Errorf("failed to write unmatched cities: %w", err)
	}

	misses := a.UnmatchedSkills()
	skills := make([][]string, 0, len(misses))
	for _, m := range misses {
		skills = append(skills, []string{m.Norm, m.Example, strconv.FormatInt(m.Count, 10)})
	}
	if err := tabular.WriteAll(filepath.Join(dir, FileUnmatchedSkill),
		[]string{"skill_norm", "skill_raw_example", "count"}, skills); err != nil {
		return fmt.Errorf("failed to write unmatched skills: %w", err)
	}

	levels := make([][]string, 0, len(a.skillLevels))
	for _, l := range a.skillLevels {
		levels = append(levels, []string{l.SourceName, l.SourceID, l.SkillName, l.RoleName})
	}
	if err := tabular.WriteAll(filepath.Join(dir, FileUnmatchedSkillLevel),
		[]string{"source_name", "source_id", "skill_name", "role_name"}, levels); err != nil {
		return fmt.Errorf("failed to write unmatched skill levels: %w", err)
	}

	return a.temporal.WriteReports(dir)
}

// WriteReports writes the per-source, per-year and cap files to dir
func (t *Temporal) WriteReports(dir string) error {
	bySource := t.BySourceYear()
	rows := make([][]string, 0, len(bySource))
	for _, yc := range bySource {
		rows = append(rows, []string{yc.Source, strconv.Itoa(yc.Year), strconv.FormatInt(yc.Rows, 10)})
	}
	if err := tabular.WriteAll(filepath.Join(dir, FileRowsPerSourceYear),
		[]string{"source_name", "year", "rows"}, rows); err != nil {
		return fmt.Errorf("failed to write rows per source year: %w", err)
	}

	byYear := t.ByYear()
	rows = make([][]string, 0, len(byYear))
	for _, yc := range byYear {
		rows = append(rows, []string{strconv.Itoa(yc.Year), strconv.FormatInt(yc.Rows, 10)})
	}
	if err := tabular.WriteAll(filepath.Join(dir, FileRowsPerYear),
		[]string{"year", "rows"}, rows); err != nil {
		return fmt.Errorf("failed to write rows per year: %w", err)
	}

	var summary [][]string
	if yc, ok := t.Cap(); ok {
		summary = yc.summaryRows()
	}
	if err := tabular.WriteAll(filepath.Join(dir, FileYearCapSummary),
		[]string{"metric", "value"}, summary); err != nil {
		return fmt.Errorf("failed to write year cap summary: %w", err)
	}
	return nil
}
