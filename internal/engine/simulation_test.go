package engine

import (
	"math"
	"reflect"
	"testing"

	"github.com/talgya/simville/internal/budget"
	"github.com/talgya/simville/internal/city"
	"github.com/talgya/simville/internal/config"
	"github.com/talgya/simville/internal/scenario"
)

// newTestSim builds a simulation on an empty grid with random disasters
// disabled, so unit tests stay deterministic and quiet.
func newTestSim(w, h int) *Simulation {
	g := city.NewGrid(w, h)
	g.Name = "testville"
	d := config.Normal()
	d.DisastersEnabled = false
	return NewSimulation(g, budget.New(1_000_000), d, 7)
}

func within(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestPlaceSpendsFunds(t *testing.T) {
	s := newTestSim(32, 32)
	before := s.Budget.Funds
	if !s.Place(city.TileCoalPlant, 4, 4) {
		t.Fatal("placement failed")
	}
	if s.Budget.Funds != before-3000 {
		t.Errorf("funds = %d, want %d", s.Budget.Funds, before-3000)
	}
	if len(s.Events) != 1 || s.Events[0].Category != "construction" {
		t.Errorf("expected one construction event, got %+v", s.Events)
	}
}

func TestPlaceRejectedWhenBroke(t *testing.T) {
	g := city.NewGrid(16, 16)
	s := NewSimulation(g, budget.New(5), config.Normal(), 1)
	if s.Place(city.TileRoad, 1, 1) {
		t.Fatal("placed a road the city cannot afford")
	}
	if s.Budget.Funds != 5 {
		t.Errorf("funds = %d, want untouched 5", s.Budget.Funds)
	}
	if g.At(1, 1).Type != city.TileEmpty {
		t.Error("grid mutated on a rejected placement")
	}
}

func TestPlaceUnbuyableTypeRejected(t *testing.T) {
	s := newTestSim(16, 16)
	if s.Place(city.TileWater, 1, 1) {
		t.Fatal("water must not be placeable")
	}
	if s.Place(city.TileRubble, 1, 1) {
		t.Fatal("rubble must not be placeable")
	}
}

func TestFailedPlacementCostsNothing(t *testing.T) {
	s := newTestSim(16, 16)
	s.City.SetGround(1, 1, city.TileWater)
	before := s.Budget.Funds
	if s.Place(city.TileRoad, 1, 1) {
		t.Fatal("road placed on water")
	}
	if s.Budget.Funds != before {
		t.Errorf("funds = %d, want %d", s.Budget.Funds, before)
	}
	if len(s.Events) != 0 {
		t.Error("event recorded for a failed placement")
	}
}

func TestBulldozeChargesFee(t *testing.T) {
	s := newTestSim(16, 16)
	s.Place(city.TileRoad, 2, 2)
	before := s.Budget.Funds
	if !s.Bulldoze(2, 2) {
		t.Fatal("bulldoze failed")
	}
	if s.Budget.Funds != before-budget.BulldozeCost {
		t.Errorf("funds = %d, want %d", s.Budget.Funds, before-budget.BulldozeCost)
	}
	if s.City.At(2, 2).Type != city.TileEmpty {
		t.Error("road not cleared")
	}
}

func TestPlaceZoneDelegates(t *testing.T) {
	s := newTestSim(32, 32)
	if !s.PlaceZone(city.ZoneIndustrial, 5, 5) {
		t.Fatal("zone placement failed")
	}
	if s.City.ZoneCount(city.ZoneIndustrial) != 1 {
		t.Error("zone not registered")
	}
	if s.PlaceZone(city.ZoneNone, 10, 10) {
		t.Error("ZoneNone should never place")
	}
}

func TestTaxAndFundingSetters(t *testing.T) {
	s := newTestSim(8, 8)
	s.SetTaxRate(25)
	if s.Budget.TaxRate != 20 {
		t.Errorf("tax rate = %d, want clamp to 20", s.Budget.TaxRate)
	}
	s.SetFunding(-5, 150, 50)
	if s.Budget.PoliceFunding != 0 || s.Budget.FireFunding != 100 || s.Budget.TransportFunding != 50 {
		t.Errorf("funding = %d/%d/%d, want 0/100/50",
			s.Budget.PoliceFunding, s.Budget.FireFunding, s.Budget.TransportFunding)
	}
}

// A small but complete city: plant, road spine, zones along it. Over ten
// years the zones must power up, connect, develop and start paying taxes.
func TestTickMonthGrowsACity(t *testing.T) {
	s := newTestSim(24, 24)
	g := s.City

	if !s.Place(city.TileCoalPlant, 0, 0) {
		t.Fatal("plant placement failed")
	}
	for x := 0; x < 24; x++ {
		if !s.Place(city.TileRoad, x, 4) {
			t.Fatalf("road placement failed at %d", x)
		}
	}
	zones := []struct {
		x int
		z city.ZoneKind
	}{
		{0, city.ZoneResidential}, {3, city.ZoneResidential}, {6, city.ZoneResidential},
		{9, city.ZoneCommercial}, {12, city.ZoneIndustrial}, {15, city.ZoneResidential},
	}
	for _, zc := range zones {
		if !s.PlaceZone(zc.z, zc.x, 5) {
			t.Fatalf("zone placement failed at %d", zc.x)
		}
	}

	for tick := uint64(1); tick <= 120; tick++ {
		s.TickMonth(tick)
	}

	if !g.At(0, 5).Powered {
		t.Error("zone should receive power through the road")
	}
	if !g.At(0, 5).RoadAccess {
		t.Error("zone touching the road lacks access")
	}
	if s.Stats.Population == 0 {
		t.Error("city never grew population")
	}
	if s.Stats.Jobs == 0 {
		t.Error("city never grew jobs")
	}
	if s.Stats.AvgLandValue <= 0 {
		t.Error("land value field never computed")
	}
	if s.LastTick != 120 {
		t.Errorf("LastTick = %d, want 120", s.LastTick)
	}
}

func TestDeterministicRuns(t *testing.T) {
	build := func() *Simulation {
		s := newTestSim(24, 24)
		s.Place(city.TileCoalPlant, 0, 0)
		for x := 0; x < 24; x++ {
			s.Place(city.TileRoad, x, 4)
		}
		s.PlaceZone(city.ZoneResidential, 0, 5)
		s.PlaceZone(city.ZoneCommercial, 3, 5)
		s.PlaceZone(city.ZoneIndustrial, 6, 5)
		return s
	}
	a, b := build(), build()
	for tick := uint64(1); tick <= 60; tick++ {
		a.TickMonth(tick)
		b.TickMonth(tick)
	}

	if !reflect.DeepEqual(a.City.Tiles, b.City.Tiles) {
		t.Fatal("identical seeds and commands diverged at the tile level")
	}
	if a.Stats != b.Stats {
		t.Fatalf("stats diverged:\n%+v\n%+v", a.Stats, b.Stats)
	}
	if a.Budget.Funds != b.Budget.Funds {
		t.Fatalf("funds diverged: %d vs %d", a.Budget.Funds, b.Budget.Funds)
	}
}

func TestEventTrimming(t *testing.T) {
	s := newTestSim(8, 8)
	for i := 0; i < 1500; i++ {
		s.recordEvent(uint64(i), "growth", "x")
	}
	s.trimEvents()
	if len(s.Events) != 1000 {
		t.Fatalf("events = %d, want 1000", len(s.Events))
	}
	if s.Events[0].Tick != 500 {
		t.Errorf("oldest kept tick = %d, want 500", s.Events[0].Tick)
	}
}

func TestRecentEventsCopies(t *testing.T) {
	s := newTestSim(8, 8)
	for i := 0; i < 5; i++ {
		s.recordEvent(uint64(i), "growth", "x")
	}
	got := s.RecentEvents(3)
	if len(got) != 3 || got[0].Tick != 2 || got[2].Tick != 4 {
		t.Fatalf("RecentEvents(3) = %+v", got)
	}
	got[0].Description = "mutated"
	if s.Events[2].Description != "x" {
		t.Error("RecentEvents returned live storage")
	}
}

func TestStatusSnapshot(t *testing.T) {
	s := newTestSim(16, 16)
	st := s.Status()
	if st.City != "testville" {
		t.Errorf("city name = %q", st.City)
	}
	if st.Date != "Jan 1900" {
		t.Errorf("date = %q, want Jan 1900", st.Date)
	}
	if st.Scenario != nil {
		t.Error("free play should have no scenario block")
	}
	if _, ok := s.ScenarioProgress(); ok {
		t.Error("ScenarioProgress should report absence in free play")
	}
}

func TestTileInfoBounds(t *testing.T) {
	s := newTestSim(8, 8)
	if _, ok := s.TileInfo(7, 7); !ok {
		t.Error("in-bounds tile reported missing")
	}
	if _, ok := s.TileInfo(8, 0); ok {
		t.Error("out-of-bounds tile reported present")
	}
}

func TestMapDumpShape(t *testing.T) {
	s := newTestSim(8, 6)
	s.City.SetGround(2, 1, city.TileWater)
	d := s.MapDump()
	if d.Width != 8 || d.Height != 6 || len(d.Tiles) != 48 {
		t.Fatalf("dump shape = %dx%d/%d", d.Width, d.Height, len(d.Tiles))
	}
	if d.Tiles[1*8+2].T != uint8(city.TileWater) {
		t.Error("dump not row-major or wrong tile encoding")
	}
}

func TestScenarioScheduleAndLatch(t *testing.T) {
	s := newTestSim(16, 16)
	s.Scenario = &scenario.Scenario{
		Name:           "siege",
		DeadlineMonths: 3,
		Schedule:       []scenario.Scheduled{{Month: 2, Disaster: "tornado"}},
		Win:            scenario.Conditions{Population: 1000},
	}

	s.TickMonth(1)
	if s.Disasters.Tornado != nil {
		t.Fatal("tornado arrived ahead of schedule")
	}
	s.TickMonth(2)
	if s.Disasters.Tornado == nil {
		t.Fatal("scheduled tornado never touched down")
	}
	scheduled := false
	for _, ev := range s.Events {
		if ev.Category == "scenario" && ev.Tick == 2 {
			scheduled = true
		}
	}
	if !scheduled {
		t.Error("no scenario event for the scheduled disaster")
	}
	if s.Progress.Won || s.Progress.Lost {
		t.Fatalf("outcome decided early: %+v", s.Progress)
	}

	s.TickMonth(3)
	if !s.Progress.Lost {
		t.Fatal("deadline passed without a loss")
	}
	prog, ok := s.ScenarioProgress()
	if !ok || !prog.Lost {
		t.Fatalf("ScenarioProgress = %+v, %v", prog, ok)
	}

	// The outcome latches: goals met after the loss cannot overturn it.
	s.Scenario.Win = scenario.Conditions{Approval: 1}
	s.TickMonth(4)
	if s.Progress.Won || !s.Progress.Lost {
		t.Errorf("latched loss overturned: %+v", s.Progress)
	}
}
