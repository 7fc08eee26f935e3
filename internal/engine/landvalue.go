// Land value — terrain, centrality and service proximity.
package engine

import (
	"math"

	"github.com/talgya/simville/internal/city"
)

type servicePoint struct {
	x, y   int
	radius float64
}

// processLandValue rebuilds the LandValue field. The stored value is raw;
// pollution is charged against it only at read time through
// EffectiveLandValue, so a cleaned-up neighborhood recovers instantly.
func (s *Simulation) processLandValue() {
	g := s.City

	// The weighted centroid of building anchors doubles as the city
	// center, weight being the people and jobs on the anchor (at least 1,
	// so fresh zones and plants still pull). An empty map falls back to
	// the geometric center.
	var sumX, sumY, sumW float64
	var stations []servicePoint
	g.EachMainTile(func(x, y int, t *city.Tile, b *city.Building) {
		w := float64(t.Population) + float64(t.Jobs)
		if w < 1 {
			w = 1
		}
		sumX += float64(x) * w
		sumY += float64(y) * w
		sumW += w
		switch t.Type {
		case city.TilePoliceStation:
			stations = append(stations, servicePoint{x, y, city.ServiceRadius(t.Type) * float64(s.Budget.PoliceFunding) / 100})
		case city.TileFireStation:
			stations = append(stations, servicePoint{x, y, city.ServiceRadius(t.Type) * float64(s.Budget.FireFunding) / 100})
		}
	})
	centerX := float64(g.Width) / 2
	centerY := float64(g.Height) / 2
	if sumW > 0 {
		centerX, centerY = sumX/sumW, sumY/sumW
	}
	var dmax float64
	for _, c := range [4][2]float64{{0, 0}, {float64(g.Width - 1), 0}, {0, float64(g.Height - 1)}, {float64(g.Width - 1), float64(g.Height - 1)}} {
		if d := math.Hypot(c[0]-centerX, c[1]-centerY); d > dmax {
			dmax = d
		}
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := 30.0

			// Nearby water, forest and parks. Full bonus adjacent,
			// tapering out to Chebyshev distance 4.
			for dy := -4; dy <= 4; dy++ {
				for dx := -4; dx <= 4; dx++ {
					n := g.At(x+dx, y+dy)
					if n == nil {
						continue
					}
					var near, far float64
					switch n.Type {
					case city.TileWater:
						near, far = 15, 8
					case city.TileForest:
						near, far = 10, 5
					case city.TilePark:
						near, far = 20, 10
					default:
						continue
					}
					d := abs(dx)
					if a := abs(dy); a > d {
						d = a
					}
					if d <= 1 {
						v += near
					} else {
						v += far * (1 - float64(d)/5)
					}
				}
			}

			if dmax > 0 {
				d := math.Hypot(float64(x)-centerX, float64(y)-centerY)
				v += 30 * (1 - d/dmax)
			}

			for _, st := range stations {
				if st.radius <= 0 {
					continue
				}
				d := math.Hypot(float64(x-st.x), float64(y-st.y))
				if d <= st.radius {
					v += (st.radius - d) * 0.5
				}
			}

			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			g.Tiles[g.Idx(x, y)].LandValue = uint8(math.Round(v))
		}
	}
}
