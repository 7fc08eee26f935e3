package engine

import (
	"testing"

	"github.com/talgya/simville/internal/city"
)

func TestPowerSpreadsFromPlant(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	if !g.PlaceBuilding(2, 2, city.TileCoalPlant) {
		t.Fatal("plant placement failed")
	}
	for x := 6; x <= 7; x++ {
		if !g.PlacePowerLine(x, 3) {
			t.Fatalf("line placement failed at %d", x)
		}
	}
	if !g.PlaceZone(8, 2, city.ZoneResidential) {
		t.Fatal("zone placement failed")
	}

	s.processPower()

	if !g.At(2, 2).Powered || !g.At(5, 5).Powered {
		t.Error("plant tiles should power themselves")
	}
	if !g.At(6, 3).Powered || !g.At(7, 3).Powered {
		t.Error("power lines should conduct")
	}
	for dy := 0; dy < 3; dy++ {
		for dx := 0; dx < 3; dx++ {
			if !g.At(8+dx, 2+dy).Powered {
				t.Fatalf("zone tile (%d,%d) unpowered", 8+dx, 2+dy)
			}
		}
	}
	if s.Stats.PowerProduced != 200 {
		t.Errorf("produced = %d, want 200", s.Stats.PowerProduced)
	}
	if s.Stats.PowerConsumed != 9 {
		t.Errorf("consumed = %d, want 9", s.Stats.PowerConsumed)
	}
}

func TestRailDoesNotCarryPower(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	g.PlaceBuilding(2, 2, city.TileCoalPlant)
	g.PlacePowerLine(6, 2)
	g.PlaceRail(7, 2)
	g.PlacePowerLine(8, 2)
	g.PlaceZone(9, 2, city.ZoneResidential)

	s.processPower()

	if g.At(7, 2).Powered || g.At(8, 2).Powered {
		t.Error("power crossed a rail tile")
	}
	if g.At(9, 2).Powered {
		t.Error("zone beyond the rail gap should be dark")
	}
	if s.Stats.PowerConsumed != 0 {
		t.Errorf("consumed = %d, want 0", s.Stats.PowerConsumed)
	}
}

func TestNoPlantNoPower(t *testing.T) {
	s := newTestSim(16, 16)
	g := s.City
	g.PlacePowerLine(5, 5)
	g.PlaceZone(6, 4, city.ZoneCommercial)

	s.processPower()

	if g.At(5, 5).Powered || g.At(6, 4).Powered {
		t.Error("powered tiles without any plant")
	}
	if s.Stats.PowerProduced != 0 {
		t.Errorf("produced = %d, want 0", s.Stats.PowerProduced)
	}
}

// One coal plant feeds 200 tiles; 23 zones need 207. The walk must power
// exactly 200 building tiles and cut through a footprint mid-building.
func TestBrownoutStopsAtCapacity(t *testing.T) {
	s := newTestSim(80, 16)
	g := s.City
	if !g.PlaceBuilding(0, 0, city.TileCoalPlant) {
		t.Fatal("plant placement failed")
	}
	for x := 0; x <= 68; x++ {
		if !g.PlacePowerLine(x, 4) {
			t.Fatalf("line placement failed at %d", x)
		}
	}
	for i := 0; i < 23; i++ {
		if !g.PlaceZone(i*3, 5, city.ZoneResidential) {
			t.Fatalf("zone %d placement failed", i)
		}
	}

	s.processPower()

	powered, dark := 0, 0
	for i := range g.Tiles {
		tl := &g.Tiles[i]
		if !tl.Type.IsBuilding() || tl.Type.IsPlant() {
			continue
		}
		if tl.Powered {
			powered++
		} else {
			dark++
		}
	}
	if powered != 200 || dark != 7 {
		t.Fatalf("powered=%d dark=%d, want 200/7", powered, dark)
	}
	if s.Stats.PowerConsumed != 200 {
		t.Errorf("consumed = %d, want 200", s.Stats.PowerConsumed)
	}

	mixed := false
	for _, b := range g.Buildings {
		if b.Type.IsPlant() {
			continue
		}
		on, off := 0, 0
		for dy := 0; dy < b.H; dy++ {
			for dx := 0; dx < b.W; dx++ {
				if g.At(b.X+dx, b.Y+dy).Powered {
					on++
				} else {
					off++
				}
			}
		}
		if on > 0 && off > 0 {
			mixed = true
		}
	}
	if !mixed {
		t.Error("expected a partially powered building at the brownout boundary")
	}
}

func TestPowerRecomputedFromScratch(t *testing.T) {
	s := newTestSim(32, 32)
	g := s.City
	g.PlaceBuilding(2, 2, city.TileCoalPlant)
	g.PlacePowerLine(6, 2)
	s.processPower()
	if !g.At(6, 2).Powered {
		t.Fatal("line unpowered")
	}

	// Take the plant away; the next pass must darken everything.
	b := g.BuildingAt(2, 2)
	g.ClearBuilding(b, city.TileEmpty)
	s.processPower()
	if g.At(6, 2).Powered {
		t.Error("stale power survived plant demolition")
	}
}
