// pkg/audit/snapshot.go
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/David-Botos/jobnorm/pkg/model"
)

// StagesDir holds one accumulator snapshot per stage inside the audit directory
const StagesDir = "stages"

type snapshot struct {
	Fields        map[string]FieldCounters `json:"fields"`
	Rules         map[string]int64         `json:"rules"`
	Categories    map[Category]int64       `json:"categories"`
	Cities        []CityRow                `json:"cities"`
	Skills        []SkillMiss              `json:"skills"`
	SkillLevels   []SkillLevelRow          `json:"skillLevels"`
	SkillCategory CategoryAudit            `json:"skillCategory"`
	Drops         map[DropReason]int64     `json:"drops"`
	Postings      []YearCount              `json:"postings"`
}

func stagePath(dir, stage string) string {
	return filepath.Join(dir, StagesDir, stage+".json")
}

// SaveStage persists a under dir so a later stage run in another process can
// report it. Saving the same stage again replaces the earlier snapshot.
func (a *Accumulator) SaveStage(dir, stage string) error {
	s := snapshot{
		Fields:        make(map[string]FieldCounters, len(a.fields)),
		Rules:         a.rules,
		Categories:    a.categories,
		Cities:        a.cities,
		Skills:        a.UnmatchedSkills(),
		SkillLevels:   a.skillLevels,
		SkillCategory: a.skillCategory,
		Drops:         a.drops,
		Postings:      a.temporal.BySourceYear(),
	}
	for f, c := range a.fields {
		s.Fields[f.String()] = *c
	}

	if err := os.MkdirAll(filepath.Join(dir, StagesDir), 0o755); err != nil {
		return fmt.Errorf("failed to create stage snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s snapshot: %w", stage, err)
	}
	if err := os.WriteFile(stagePath(dir, stage), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s snapshot: %w", stage, err)
	}
	return nil
}

// LoadStages merges the snapshots of stages, in the order given, into one
// accumulator. Stages that were never saved are skipped.
func LoadStages(dir string, stages ...string) (*Accumulator, error) {
	acc := NewAccumulator()
	for _, stage := range stages {
		data, err := os.ReadFile(stagePath(dir, stage))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s snapshot: %w", stage, err)
		}
		var s snapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to parse %s snapshot: %w", stage, err)
		}
		part, err := s.accumulator()
		if err != nil {
			return nil, fmt.Errorf("invalid %s snapshot: %w", stage, err)
		}
		acc.Merge(part)
	}
	return acc, nil
}

func (s snapshot) accumulator() (*Accumulator, error) {
	a := NewAccumulator()
	for name, c := range s.Fields {
		f, ok := model.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		counters := c
		a.fields[f] = &counters
	}
	for k, n := range s.Rules {
		a.rules[k] = n
	}
	for k, n := range s.Categories {
		a.categories[k] = n
	}
	a.cities = s.Cities
	for _, m := range s.Skills {
		miss := m
		a.skills[m.Norm] = &miss
	}
	a.skillLevels = s.SkillLevels
	a.skillCategory = s.SkillCategory
	for k, n := range s.Drops {
		a.drops[k] = n
	}
	for _, yc := range s.Postings {
		a.temporal.add(yc.Source, yc.Year, yc.Rows)
	}
	return a, nil
}
