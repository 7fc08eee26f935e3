// Read-model queries. Everything here copies out under the read lock so
// the API never hands a caller a pointer into live state.
package engine

import (
	"github.com/talgya/simville/internal/budget"
	"github.com/talgya/simville/internal/city"
)

// Status is the headline snapshot for dashboards and the status endpoint.
type Status struct {
	Tick       uint64           `json:"tick"`
	Date       string           `json:"date"`
	City       string           `json:"city"`
	Population int              `json:"population"`
	Jobs       int              `json:"jobs"`
	Funds      int64            `json:"funds"`
	TaxRate    int              `json:"tax_rate"`
	Approval   float64          `json:"approval"`
	Demand     DemandIndicators `json:"demand"`
	Disasters  DisasterSummary  `json:"disasters"`
	Scenario   *ScenarioStatus  `json:"scenario,omitempty"`
}

// ScenarioStatus reports scenario progress when one is loaded.
type ScenarioStatus struct {
	Name string `json:"name"`
	Won  bool   `json:"won"`
	Lost bool   `json:"lost"`
}

// DemandIndicators are the demand values rescaled to 0..100 gauges.
type DemandIndicators struct {
	Residential int `json:"residential"`
	Commercial  int `json:"commercial"`
	Industrial  int `json:"industrial"`
}

// DisasterSummary condenses the active disaster state.
type DisasterSummary struct {
	Fires       int  `json:"fires"`
	Monster     bool `json:"monster"`
	Tornado     bool `json:"tornado"`
	Plane       bool `json:"plane"`
	UFOs        int  `json:"ufos"`
	FloodActive bool `json:"flood_active"`
}

// TileInfo is the per-tile drill-down.
type TileInfo struct {
	X                  int    `json:"x"`
	Y                  int    `json:"y"`
	Type               string `json:"type"`
	Level              uint8  `json:"level"`
	Class              string `json:"class,omitempty"`
	Powered            bool   `json:"powered"`
	RoadAccess         bool   `json:"road_access"`
	LandValue          uint8  `json:"land_value"`
	EffectiveLandValue uint8  `json:"effective_land_value"`
	Pollution          uint8  `json:"pollution"`
	Crime              uint8  `json:"crime"`
	Traffic            uint8  `json:"traffic"`
	FireRisk           uint8  `json:"fire_risk"`
	Population         uint16 `json:"population"`
	Jobs               uint16 `json:"jobs"`
	BuildingID         uint32 `json:"building_id,omitempty"`
}

// MapTile is the compact cell in a full map dump.
type MapTile struct {
	T uint8 `json:"t"`
	L uint8 `json:"l,omitempty"`
	C uint8 `json:"c,omitempty"`
	P bool  `json:"p,omitempty"`
}

// MapDump is the whole map in render order, row-major from the top left.
type MapDump struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Tiles  []MapTile `json:"tiles"`
}

// Status assembles the headline snapshot.
func (s *Simulation) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Tick:       s.LastTick,
		Date:       DateString(s.StartYear, s.LastTick),
		City:       s.City.Name,
		Population: s.Stats.Population,
		Jobs:       s.Stats.Jobs,
		Funds:      s.Budget.Funds,
		TaxRate:    s.Budget.TaxRate,
		Approval:   s.Complaints.Approval,
		Demand:     s.demandIndicators(),
		Disasters:  s.disasterSummary(),
	}
	if s.Scenario != nil {
		st.Scenario = &ScenarioStatus{
			Name: s.Scenario.Name,
			Won:  s.Progress.Won,
			Lost: s.Progress.Lost,
		}
	}
	return st
}

// TileInfo reads one tile; false when out of bounds.
func (s *Simulation) TileInfo(x, y int) (TileInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := s.City.At(x, y)
	if t == nil {
		return TileInfo{}, false
	}
	return TileInfo{
		X:                  x,
		Y:                  y,
		Type:               city.TileName(t.Type),
		Level:              t.Level,
		Class:              city.ClassName(t.Class),
		Powered:            t.Powered,
		RoadAccess:         t.RoadAccess,
		LandValue:          t.LandValue,
		EffectiveLandValue: t.EffectiveLandValue(),
		Pollution:          t.Pollution,
		Crime:              t.Crime,
		Traffic:            t.Traffic,
		FireRisk:           t.FireRisk,
		Population:         t.Population,
		Jobs:               t.Jobs,
		BuildingID:         t.BuildingID,
	}, true
}

// MapDump copies the whole map out in compact form.
func (s *Simulation) MapDump() MapDump {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := MapDump{
		Width:  s.City.Width,
		Height: s.City.Height,
		Tiles:  make([]MapTile, len(s.City.Tiles)),
	}
	for i := range s.City.Tiles {
		t := &s.City.Tiles[i]
		d.Tiles[i] = MapTile{T: uint8(t.Type), L: t.Level, C: uint8(t.Class), P: t.Powered}
	}
	return d
}

// StatsSnapshot copies the aggregate statistics.
func (s *Simulation) StatsSnapshot() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats
}

// VoterComplaints copies the voter complaint scores.
func (s *Simulation) VoterComplaints() Complaints {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Complaints
}

// ScenarioProgress reports the loaded scenario's standing; false when
// free-playing.
func (s *Simulation) ScenarioProgress() (ScenarioStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Scenario == nil {
		return ScenarioStatus{}, false
	}
	return ScenarioStatus{
		Name: s.Scenario.Name,
		Won:  s.Progress.Won,
		Lost: s.Progress.Lost,
	}, true
}

// BudgetSnapshot copies the treasury state.
func (s *Simulation) BudgetSnapshot() budget.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.Budget
}

// DemandIndicators reads the demand gauges.
func (s *Simulation) DemandIndicators() DemandIndicators {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demandIndicators()
}

func (s *Simulation) demandIndicators() DemandIndicators {
	return DemandIndicators{
		Residential: Indicator(s.Demand.Residential),
		Commercial:  Indicator(s.Demand.Commercial),
		Industrial:  Indicator(s.Demand.Industrial),
	}
}

// DisasterSummary reads the active disaster roll-up.
func (s *Simulation) DisasterSummary() DisasterSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disasterSummary()
}

func (s *Simulation) disasterSummary() DisasterSummary {
	return DisasterSummary{
		Fires:       len(s.Disasters.Fires),
		Monster:     s.Disasters.Monster != nil,
		Tornado:     s.Disasters.Tornado != nil,
		Plane:       s.Disasters.Plane != nil,
		UFOs:        len(s.Disasters.UFOs),
		FloodActive: s.Disasters.FloodActive,
	}
}

// RecentEvents copies out the newest n events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 || n > len(s.Events) {
		n = len(s.Events)
	}
	out := make([]Event, n)
	copy(out, s.Events[len(s.Events)-n:])
	return out
}
