package engine

import (
	"testing"

	"github.com/talgya/simville/internal/city"
)

func TestPoliceCoverageGradient(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	if !g.PlaceBuilding(10, 10, city.TilePoliceStation) {
		t.Fatal("station placement failed")
	}

	s.processCoverage()

	// Radius 10 at full funding: full effect at the anchor, half at
	// distance 5, nothing at the rim.
	cases := []struct {
		x, y int
		want uint8
	}{
		{10, 10, 0},
		{15, 10, 25},
		{20, 10, 50},
		{10, 25, 50},
	}
	for _, c := range cases {
		if got := g.At(c.x, c.y).Crime; got != c.want {
			t.Errorf("crime at (%d,%d) = %d, want %d", c.x, c.y, got, c.want)
		}
	}
	// Police do nothing for fire risk.
	if got := g.At(10, 10).FireRisk; got != 20 {
		t.Errorf("fire risk at station = %d, want base 20", got)
	}
}

func TestDefundedStationCoversNothing(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	if !g.PlaceBuilding(10, 10, city.TileFireStation) {
		t.Fatal("station placement failed")
	}
	s.Budget.FireFunding = 0

	s.processCoverage()

	if got := g.At(10, 10).FireRisk; got != 20 {
		t.Errorf("fire risk at defunded station = %d, want base 20", got)
	}

	s.Budget.FireFunding = 100
	s.processCoverage()
	if got := g.At(10, 10).FireRisk; got != 0 {
		t.Errorf("fire risk at refunded station = %d, want 0", got)
	}
}

func TestOverlappingStationsStack(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	if !g.PlaceBuilding(10, 10, city.TilePoliceStation) {
		t.Fatal("first station placement failed")
	}
	if !g.PlaceBuilding(14, 10, city.TilePoliceStation) {
		t.Fatal("second station placement failed")
	}

	s.processCoverage()

	// (13,10) is 3 from the first anchor and 1 from the second: cuts of
	// 35 and 45 floor the field.
	if got := g.At(13, 10).Crime; got != 0 {
		t.Errorf("crime between stations = %d, want 0", got)
	}
	// (18,10) is 8 from the first anchor and 4 from the second: cuts of
	// 10 and 30.
	if got := g.At(18, 10).Crime; got != 10 {
		t.Errorf("crime at overlap fringe = %d, want 10", got)
	}
}

func TestCoverageFoldsAverages(t *testing.T) {
	s := newTestSim(64, 64)
	g := s.City
	if !g.PlaceZone(40, 40, city.ZoneResidential) {
		t.Fatal("zone placement failed")
	}
	g.PlaceRoad(30, 30)
	g.At(30, 30).Traffic = 90

	s.processCoverage()

	// The lone zone sits outside any coverage, so every footprint tile
	// carries base crime.
	if got := s.Stats.AvgCrime; got != 50 {
		t.Errorf("AvgCrime = %v, want 50", got)
	}
	if got := s.Stats.AvgTraffic; got != 90 {
		t.Errorf("AvgTraffic = %v, want 90", got)
	}

	g.Bulldoze(40, 40)
	g.Bulldoze(30, 30)
	s.processCoverage()
	if s.Stats.AvgCrime != 0 || s.Stats.AvgTraffic != 0 {
		t.Errorf("averages without buildings = %v/%v, want 0/0",
			s.Stats.AvgCrime, s.Stats.AvgTraffic)
	}
}
