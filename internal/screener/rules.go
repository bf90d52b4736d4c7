// Package screener turns extracted firms into a review-priority ranking:
// passporting authorizations are first normalized into the domestic taxonomy,
// then matched against a weight table, summed and sorted.
package screener

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/equinoxe-ovh/regafind/internal/model"
)

// RuleTable holds the screening weights. Activities and services are scored
// independently; keys absent from a table contribute nothing, and so do firm
// authorizations no rule covers. Weights may be negative.
type RuleTable struct {
	Activities map[model.ActivityCode]int
	Services   map[model.ServiceKey]int
}

// DefaultRules returns the built-in weight table. Rules are written against
// the domestic taxonomy; passporting firms are normalized before matching.
func DefaultRules() RuleTable {
	return RuleTable{
		Activities: map[model.ActivityCode]int{
			2: 2, // clearing
			3: 4, // account keeping and custody
			4: 2, // central counterparty
		},
		Services: map[model.ServiceKey]int{
			{Instrument: 2, Service: 1}: 2,
			{Instrument: 2, Service: 2}: 5,
			{Instrument: 2, Service: 6}: 2,
			{Instrument: 2, Service: 7}: 2,
			{Instrument: 2, Service: 8}: 4,
			{Instrument: 2, Service: 9}: 9,
			// Equity services weigh less: once shares clear, little work is left.
			{Instrument: 1, Service: 1}: 1,
			{Instrument: 1, Service: 2}: 3,
			{Instrument: 1, Service: 6}: 1,
			{Instrument: 1, Service: 7}: 1,
			{Instrument: 1, Service: 8}: 2,
			{Instrument: 1, Service: 9}: 6,
		},
	}
}

// rulesFile is the YAML shape of a rule table.
type rulesFile struct {
	Activities map[int]int `yaml:"activities"`
	Services   []struct {
		Instrument int `yaml:"instrument"`
		Service    int `yaml:"service"`
		Weight     int `yaml:"weight"`
	} `yaml:"services"`
}

// LoadRules reads a weight table from a YAML file.
func LoadRules(path string) (RuleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RuleTable{}, eris.Wrapf(err, "screener: read rules %s", path)
	}

	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return RuleTable{}, eris.Wrapf(err, "screener: parse rules %s", path)
	}

	table := RuleTable{
		Activities: make(map[model.ActivityCode]int, len(file.Activities)),
		Services:   make(map[model.ServiceKey]int, len(file.Services)),
	}
	for code, weight := range file.Activities {
		table.Activities[model.ActivityCode(code)] = weight
	}
	for _, rule := range file.Services {
		table.Services[model.ServiceKey{Instrument: rule.Instrument, Service: rule.Service}] = rule.Weight
	}
	return table, nil
}
