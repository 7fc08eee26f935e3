// Package scenario defines playable challenges: disasters on a fixed
// schedule plus victory and defeat conditions checked every month.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one playable challenge. Months count from the start of the
// game, so month 0 is the first tick.
type Scenario struct {
	Name           string      `yaml:"name"`
	Description    string      `yaml:"description"`
	StartYear      int         `yaml:"start_year"`      // 0 keeps the default
	StartingFunds  int64       `yaml:"starting_funds"`  // 0 keeps the difficulty default
	DeadlineMonths uint64      `yaml:"deadline_months"` // 0 means no deadline
	Schedule       []Scheduled `yaml:"schedule"`
	Win            Conditions  `yaml:"win"`
}

// Scheduled fires one disaster at a fixed month.
type Scheduled struct {
	Month    uint64 `yaml:"month"`
	Disaster string `yaml:"disaster"`
}

// Conditions is a set of thresholds that must all hold at once. A zero
// threshold is not checked; fully empty conditions never pass.
type Conditions struct {
	Population int     `yaml:"population,omitempty"`
	Approval   float64 `yaml:"approval,omitempty"`
}

// Progress is the evaluated standing of a scenario at some tick.
type Progress struct {
	Won     bool   `json:"won"`
	Lost    bool   `json:"lost"`
	Message string `json:"message,omitempty"`
}

var knownDisasters = map[string]bool{
	"fire": true, "flood": true, "tornado": true, "earthquake": true,
	"monster": true, "meltdown": true, "plane": true, "ufo": true,
}

// Load reads a scenario file. Unknown YAML keys are rejected so typos in
// hand-written scenarios surface immediately.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks the scenario for internal consistency.
func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return errors.New("missing name")
	}
	for _, ev := range sc.Schedule {
		if !knownDisasters[ev.Disaster] {
			return fmt.Errorf("unknown disaster %q", ev.Disaster)
		}
	}
	return nil
}

// DueDisasters lists the disasters scheduled for exactly this month.
func (sc *Scenario) DueDisasters(tick uint64) []string {
	var due []string
	for _, ev := range sc.Schedule {
		if ev.Month == tick {
			due = append(due, ev.Disaster)
		}
	}
	return due
}

// Evaluate checks the standing at a tick. Winning takes priority on the
// month both the goals and the deadline land.
func (sc *Scenario) Evaluate(tick uint64, population int, approval float64) Progress {
	if sc.Win.Met(population, approval) {
		return Progress{Won: true, Message: "goals met"}
	}
	if sc.DeadlineMonths > 0 && tick >= sc.DeadlineMonths {
		return Progress{Lost: true, Message: "deadline passed"}
	}
	return Progress{}
}

// Met reports whether every set threshold holds.
func (c Conditions) Met(population int, approval float64) bool {
	if c.Population == 0 && c.Approval == 0 {
		return false
	}
	if c.Population > 0 && population < c.Population {
		return false
	}
	if c.Approval > 0 && approval < c.Approval {
		return false
	}
	return true
}
