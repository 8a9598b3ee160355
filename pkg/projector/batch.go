// pkg/projector/batch.go
package projector

import (
	"go.uber.org/zap"

	"github.com/David-Botos/jobnorm/pkg/model"
)

// Batch holds the rows produced between two drains
type Batch struct {
	Companies []model.Company
	Locations []model.Location
	Roles     []model.Role
	Skills    []model.Skill
	Postings  []model.JobPosting
	JobRoles  []model.JobRole
	JobSkills []model.JobSkill
	JobLevels []model.JobLevel
}

type rower interface {
	Row() []string
}

func rows[R rower](items []R) [][]string {
	out := make([][]string, len(items))
	for i, item := range items {
		out[i] = item.Row()
	}
	return out
}

// Rows renders the batch rows of one output table
func (b Batch) Rows(table string) [][]string {
	switch table {
	case model.TableCompanies:
		return rows(b.Companies)
	case model.TableLocations:
		return rows(b.Locations)
	case model.TableRoles:
		return rows(b.Roles)
	case model.TableSkills:
		return rows(b.Skills)
	case model.TableJobPostings:
		return rows(b.Postings)
	case model.TableJobRoles:
		return rows(b.JobRoles)
	case model.TableJobSkills:
		return rows(b.JobSkills)
	case model.TableJobLevels:
		return rows(b.JobLevels)
	default:
		return nil
	}
}

// Len returns the total number of rows in the batch
func (b Batch) Len() int {
	return len(b.Companies) + len(b.Locations) + len(b.Roles) + len(b.Skills) +
		len(b.Postings) + len(b.JobRoles) + len(b.JobSkills) + len(b.JobLevels)
}

// Stats is the projection summary
type Stats struct {
	InputRows        int64            `json:"totalRows"`
	DroppedNoCompany int64            `json:"droppedNoCompany"`
	DroppedAllNA     int64            `json:"droppedAllNA"`
	Tables           map[string]int64 `json:"tables"`
}

func newStats() Stats {
	return Stats{Tables: make(map[string]int64)}
}

// TotalDropped is the sum of both drop reasons
func (s Stats) TotalDropped() int64 {
	return s.DroppedNoCompany + s.DroppedAllNA
}

// Log writes the projection summary
func (s Stats) Log(logger *zap.Logger) {
	fields := []zap.Field{
		zap.Int64("totalRows", s.InputRows),
		zap.Int64("droppedNoCompany", s.DroppedNoCompany),
		zap.Int64("droppedAllNA", s.DroppedAllNA),
		zap.Int64("totalDropped", s.TotalDropped()),
	}
	for _, tm := range model.OutputTables() {
		fields = append(fields, zap.Int64(tm.Table, s.Tables[tm.Table]))
	}
	logger.Info("Projection summary", fields...)
}
