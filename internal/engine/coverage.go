// Service coverage — police and fire protection fields.
package engine

import (
	"math"

	"github.com/talgya/simville/internal/city"
)

const (
	baseCrime    = 50.0
	baseFireRisk = 20.0
)

// processCoverage rebuilds the Crime and FireRisk fields from station
// coverage and folds the scalar-field averages into Stats. Ground outside
// every station sits at the base rates; overlapping stations stack.
// Funding scales a station's radius, so a defunded station covers nothing.
func (s *Simulation) processCoverage() {
	g := s.City

	crimeCut := make([]float64, len(g.Tiles))
	fireCut := make([]float64, len(g.Tiles))
	g.EachMainTile(func(sx, sy int, t *city.Tile, b *city.Building) {
		if !t.Type.IsService() {
			return
		}
		funding := s.Budget.PoliceFunding
		if t.Type == city.TileFireStation {
			funding = s.Budget.FireFunding
		}
		radius := city.ServiceRadius(t.Type) * float64(funding) / 100
		if radius <= 0 {
			return
		}
		r := int(radius)
		for y := sy - r; y <= sy+r; y++ {
			for x := sx - r; x <= sx+r; x++ {
				if !g.In(x, y) {
					continue
				}
				d := math.Hypot(float64(x-sx), float64(y-sy))
				if d >= radius {
					continue
				}
				effect := 1 - d/radius
				if t.Type == city.TilePoliceStation {
					crimeCut[g.Idx(x, y)] += effect * 50
				} else {
					fireCut[g.Idx(x, y)] += effect * 20
				}
			}
		}
	})

	var crimeSum, pollSum, valueSum float64
	var buildingTiles int
	var trafficSum float64
	var roadTiles int
	for i := range g.Tiles {
		t := &g.Tiles[i]
		t.Crime = quantize(baseCrime - crimeCut[i])
		t.FireRisk = quantize(baseFireRisk - fireCut[i])
		if t.Type.IsBuilding() {
			crimeSum += float64(t.Crime)
			pollSum += float64(t.Pollution)
			valueSum += float64(t.LandValue)
			buildingTiles++
		} else if t.Type == city.TileRoad {
			trafficSum += float64(t.Traffic)
			roadTiles++
		}
	}
	s.Stats.AvgCrime, s.Stats.AvgPollution, s.Stats.AvgLandValue = 0, 0, 0
	if buildingTiles > 0 {
		s.Stats.AvgCrime = crimeSum / float64(buildingTiles)
		s.Stats.AvgPollution = pollSum / float64(buildingTiles)
		s.Stats.AvgLandValue = valueSum / float64(buildingTiles)
	}
	s.Stats.AvgTraffic = 0
	if roadTiles > 0 {
		s.Stats.AvgTraffic = trafficSum / float64(roadTiles)
	}
}

// quantize clamps a field value into 0..255 and rounds it onto the tile.
func quantize(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
