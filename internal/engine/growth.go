// Zone development — the growth and decay state machine.
package engine

import (
	"github.com/talgya/simville/internal/city"
)

// processGrowth advances every zone building by at most one level per
// tick. Growth consumes the demand computed on the previous tick; fresh
// values land later in the same pass sequence, so a boom shows up in
// construction one month behind the indicator.
func (s *Simulation) processGrowth() {
	s.City.EachMainTile(func(x, y int, t *city.Tile, b *city.Building) {
		kind := t.Type.Zone()
		if kind == city.ZoneNone {
			return
		}
		max := city.MaxLevel(kind)

		if !t.Powered {
			// Abandonment. Unpowered zones wind down one level at a
			// time; losing road access merely stalls them.
			if t.Level > 0 && s.rng.Float64() < 0.1 {
				s.setZoneLevel(b, t, t.Level-1)
			}
			return
		}
		if !t.RoadAccess || t.Level >= max {
			return
		}
		demand := s.Demand.For(kind)
		if demand <= 0 {
			return
		}

		next := t.Level + 1
		effLV := t.EffectiveLandValue()
		if kind == city.ZoneCommercial && effLV < city.CommercialValueFloor(next) {
			return
		}
		// The last level is a cluster achievement: the zone must be high
		// class with a matching high-class peer exactly one footprint
		// away. Industry is exempt.
		if next == max && kind != city.ZoneIndustrial {
			if t.Class != city.ClassHigh || !s.hasTopPeer(b, t) {
				return
			}
		}

		var chance float64
		if t.Level == 0 {
			chance = demand * 0.1
		} else {
			chance = demand * 0.05
			switch kind {
			case city.ZoneResidential:
				chance += float64(effLV) / 255 * 0.05
			case city.ZoneIndustrial:
				chance *= 1.2
			}
			if chance > 0.2 {
				chance = 0.2
			}
		}
		if s.rng.Float64() < chance {
			s.setZoneLevel(b, t, next)
		}
	})
}

// hasTopPeer scans the four anchors exactly 3 tiles away in the cardinal
// directions for a zone of the same kind, at the same level, high class.
func (s *Simulation) hasTopPeer(b *city.Building, t *city.Tile) bool {
	for _, d := range [4][2]int{{-3, 0}, {3, 0}, {0, -3}, {0, 3}} {
		n := s.City.At(b.X+d[0], b.Y+d[1])
		if n == nil || !n.Main {
			continue
		}
		if n.Type.Zone() == t.Type.Zone() && n.Level == t.Level && n.Class == city.ClassHigh {
			return true
		}
	}
	return false
}

// setZoneLevel applies a level change: occupancy from the tables onto the
// anchor, class recomputed, level and class mirrored across the footprint.
func (s *Simulation) setZoneLevel(b *city.Building, main *city.Tile, level uint8) {
	kind := main.Type.Zone()
	main.Level = level
	main.Population, main.Jobs = city.OccupancyFor(kind, level)
	if kind == city.ZoneIndustrial {
		// Industry ignores land value; heavy or light is a coin flip.
		if s.rng.Intn(2) == 0 {
			main.Class = city.ClassLow
		} else {
			main.Class = city.ClassHigh
		}
	} else {
		main.Class = city.ClassFor(main.EffectiveLandValue())
	}
	for dy := 0; dy < b.H; dy++ {
		for dx := 0; dx < b.W; dx++ {
			ft := s.City.At(b.X+dx, b.Y+dy)
			if ft == nil {
				continue
			}
			ft.Level = level
			ft.Class = main.Class
		}
	}
}
