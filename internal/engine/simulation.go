// Simulation ties together the city grid and runs every monthly pass.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/simville/internal/budget"
	"github.com/talgya/simville/internal/city"
	"github.com/talgya/simville/internal/config"
	"github.com/talgya/simville/internal/entropy"
	"github.com/talgya/simville/internal/scenario"
)

// Simulation holds the complete city state and wires the passes together.
// A tick holds the write lock for its whole pass sequence; API readers
// and the snapshot writer take the read lock.
type Simulation struct {
	mu sync.RWMutex

	City       *city.Grid
	Budget     *budget.Budget
	Difficulty config.Difficulty

	Scenario *scenario.Scenario // nil in free play
	Progress scenario.Progress

	LastTick  uint64
	StartYear int

	Demand     Demand
	Complaints Complaints
	Stats      SimStats
	Events     []Event // Recent events (trimmed each tick)
	Disasters  DisasterState

	rng *rand.Rand

	// Scratch buffers for the pollution diffusion, sized on first use.
	pollCur, pollNext []float64
	pollWaste         []bool
}

// Event is a notable occurrence in the city.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "construction", "growth", "disaster", "budget", "scenario"
}

// NewSimulation creates a Simulation around a generated or restored grid.
// All stochastic decisions flow through the engine's own entropy stream,
// separate from the one terrain generation consumed.
func NewSimulation(g *city.Grid, b *budget.Budget, diff config.Difficulty, seed int64) *Simulation {
	sim := &Simulation{
		City:       g,
		Budget:     b,
		Difficulty: diff,
		StartYear:  1900,
		rng:        entropy.Rand(seed, "engine"),
	}
	sim.updateStats()
	return sim
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// DateString renders the current simulation date.
func (s *Simulation) DateString() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DateString(s.StartYear, s.LastTick)
}

// View runs fn while holding the read lock, for multi-field reads that
// must be consistent with the tick loop.
func (s *Simulation) View(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// TickMonth runs the complete monthly pass sequence: utilities first,
// then the fields they feed, then growth, civic mood, disasters, and
// finally the books.
func (s *Simulation) TickMonth(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick

	s.processPower()
	s.processRoadAccess()
	s.processTraffic()
	s.processPollution()
	s.processLandValue()
	s.processCoverage()
	s.processGrowth()
	s.updateStats()
	s.processDemand()
	s.processVoters()
	s.processDisasters(tick)
	s.closeBudgetMonth(tick)
	s.checkScenario(tick)
	s.trimEvents()
}

// TickYear logs the annual report.
func (s *Simulation) TickYear(tick uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slog.Info("annual report",
		"date", DateString(s.StartYear, tick),
		"population", s.Stats.Population,
		"jobs", s.Stats.Jobs,
		"funds", s.Budget.Funds,
		"approval", fmt.Sprintf("%.1f", s.Complaints.Approval),
		"demand_r", fmt.Sprintf("%.2f", s.Demand.Residential),
		"demand_c", fmt.Sprintf("%.2f", s.Demand.Commercial),
		"demand_i", fmt.Sprintf("%.2f", s.Demand.Industrial),
		"events_this_year", len(s.Events),
	)
}

// Place buys and places a tile or building of the given type. False
// means the placement was rejected or unaffordable; the grid and the
// treasury are untouched in that case.
func (s *Simulation) Place(t city.TileType, x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cost := budget.BuildCost(t)
	if cost == 0 || !s.Budget.CanAfford(cost) {
		return false
	}

	var ok bool
	switch t {
	case city.TileRoad:
		ok = s.City.PlaceRoad(x, y)
	case city.TileRail:
		ok = s.City.PlaceRail(x, y)
	case city.TilePowerLine:
		ok = s.City.PlacePowerLine(x, y)
	case city.TilePark:
		ok = s.City.PlacePark(x, y)
	default:
		ok = s.City.PlaceBuilding(x, y, t)
	}
	if ok {
		s.Budget.Spend(cost)
		s.recordEvent(s.LastTick, "construction",
			fmt.Sprintf("%s placed at (%d,%d)", city.TileName(t), x, y))
	}
	return ok
}

// PlaceZone buys and places an undeveloped zone lot.
func (s *Simulation) PlaceZone(z city.ZoneKind, x, y int) bool {
	switch z {
	case city.ZoneResidential:
		return s.Place(city.TileResidential, x, y)
	case city.ZoneCommercial:
		return s.Place(city.TileCommercial, x, y)
	case city.ZoneIndustrial:
		return s.Place(city.TileIndustrial, x, y)
	default:
		return false
	}
}

// Bulldoze clears a tile for the flat demolition fee.
func (s *Simulation) Bulldoze(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Budget.CanAfford(budget.BulldozeCost) {
		return false
	}
	if !s.City.Bulldoze(x, y) {
		return false
	}
	s.Budget.Spend(budget.BulldozeCost)
	s.recordEvent(s.LastTick, "construction", fmt.Sprintf("bulldozed (%d,%d)", x, y))
	return true
}

// SetTaxRate applies a new nominal tax rate.
func (s *Simulation) SetTaxRate(rate int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Budget.SetTaxRate(rate)
	slog.Info("tax rate changed", "rate", s.Budget.TaxRate)
}

// SetFunding applies new service funding percentages.
func (s *Simulation) SetFunding(police, fire, transport int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Budget.SetFunding(police, fire, transport)
	slog.Info("funding changed",
		"police", s.Budget.PoliceFunding,
		"fire", s.Budget.FireFunding,
		"transport", s.Budget.TransportFunding,
	)
}

// closeBudgetMonth settles the month's finances from the live census.
func (s *Simulation) closeBudgetMonth(tick uint64) {
	counts := budget.ServiceCounts{
		Population:     s.Stats.Population,
		RoadTiles:      s.Stats.RoadTiles,
		RailTiles:      s.Stats.RailTiles,
		PoliceStations: s.City.BuildingCount(city.TilePoliceStation),
		FireStations:   s.City.BuildingCount(city.TileFireStation),
	}

	before := s.Budget.Funds
	s.Budget.CloseMonth(counts, s.Difficulty.TaxMultiplier)
	if before >= 0 && s.Budget.Funds < 0 {
		s.recordEvent(tick, "budget", "the treasury has gone into debt")
	}
}

// checkScenario fires scheduled disasters and re-evaluates win and lose
// conditions. Outcomes latch: a won or lost scenario stays that way.
func (s *Simulation) checkScenario(tick uint64) {
	if s.Scenario == nil {
		return
	}

	for _, kind := range s.Scenario.DueDisasters(tick) {
		if s.trigger(DisasterKind(kind), tick) {
			s.recordEvent(tick, "scenario", fmt.Sprintf("scheduled disaster: %s", kind))
		}
	}

	if s.Progress.Won || s.Progress.Lost {
		return
	}
	s.Progress = s.Scenario.Evaluate(tick, s.Stats.Population, s.Complaints.Approval)
	if s.Progress.Won {
		s.recordEvent(tick, "scenario", fmt.Sprintf("scenario %q won", s.Scenario.Name))
		slog.Info("scenario won", "name", s.Scenario.Name, "tick", tick)
	} else if s.Progress.Lost {
		s.recordEvent(tick, "scenario", fmt.Sprintf("scenario %q lost", s.Scenario.Name))
		slog.Info("scenario lost", "name", s.Scenario.Name, "tick", tick)
	}
}

func (s *Simulation) recordEvent(tick uint64, category, description string) {
	s.Events = append(s.Events, Event{
		Tick:        tick,
		Description: description,
		Category:    category,
	})
}

// trimEvents caps the in-memory event log (the database keeps the full
// history).
func (s *Simulation) trimEvents() {
	if len(s.Events) > 1000 {
		s.Events = s.Events[len(s.Events)-1000:]
	}
}
