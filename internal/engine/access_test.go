package engine

import (
	"testing"

	"github.com/talgya/simville/internal/city"
)

func TestRoadAccessEdgesNotCorners(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	g.PlaceZone(5, 5, city.ZoneResidential)

	s.processRoadAccess()
	if g.At(5, 5).RoadAccess {
		t.Fatal("isolated zone reported access")
	}

	// Diagonal corner contact does not count.
	g.PlaceRoad(4, 4)
	s.processRoadAccess()
	if g.At(5, 5).RoadAccess {
		t.Fatal("corner contact granted access")
	}

	// An edge-adjacent road does, and the whole footprint mirrors it.
	g.PlaceRoad(6, 4)
	s.processRoadAccess()
	for dy := 0; dy < 3; dy++ {
		for dx := 0; dx < 3; dx++ {
			if !g.At(5+dx, 5+dy).RoadAccess {
				t.Fatalf("footprint tile (%d,%d) missing access", 5+dx, 5+dy)
			}
		}
	}
}

func TestRailGrantsAccess(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	g.PlaceZone(5, 5, city.ZoneCommercial)
	g.PlaceRail(8, 6)

	s.processRoadAccess()

	if !g.At(5, 5).RoadAccess {
		t.Error("rail on the east edge should grant access")
	}
}

func TestAccessLostWhenRoadRemoved(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	g.PlaceZone(5, 5, city.ZoneIndustrial)
	g.PlaceRoad(5, 4)

	s.processRoadAccess()
	if !g.At(5, 5).RoadAccess {
		t.Fatal("road should grant access")
	}

	g.Bulldoze(5, 4)
	s.processRoadAccess()
	if g.At(5, 5).RoadAccess {
		t.Error("access survived road demolition")
	}
}

func TestWideBuildingSideAccess(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	if !g.PlaceBuilding(2, 2, city.TileAirport) {
		t.Fatal("airport placement failed")
	}
	// Road halfway down the east side, far from the anchor row.
	g.PlaceRoad(8, 5)

	s.processRoadAccess()

	if !g.At(2, 2).RoadAccess {
		t.Error("airport should find the road on its east side")
	}
	if !g.At(7, 7).RoadAccess {
		t.Error("access not mirrored to the far footprint corner")
	}
}
