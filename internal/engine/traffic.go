// Traffic — developed zones load nearby roads, decaying with distance.
package engine

import "github.com/talgya/simville/internal/city"

// trafficReach is the Manhattan radius a zone loads roads within.
const trafficReach = 5

// processTraffic rebuilds the traffic field from scratch each tick.
// Every developed zone generates level-scaled traffic and spreads it
// over road tiles within reach, attenuated linearly with distance.
// Rail carries none of it.
func (s *Simulation) processTraffic() {
	g := s.City

	for i := range g.Tiles {
		g.Tiles[i].Traffic = 0
	}

	g.EachMainTile(func(x, y int, t *city.Tile, b *city.Building) {
		z := t.Type.Zone()
		if z == city.ZoneNone || t.Level == 0 {
			return
		}
		generated := int(t.Level) * city.TrafficPerLevel(z)

		for dy := -trafficReach; dy <= trafficReach; dy++ {
			rem := trafficReach - abs(dy)
			for dx := -rem; dx <= rem; dx++ {
				road := g.At(x+dx, y+dy)
				if road == nil || road.Type != city.TileRoad {
					continue
				}
				dist := abs(dx) + abs(dy)
				add := int(float64(generated) * (1 - float64(dist)/6))
				v := int(road.Traffic) + add
				if v > 255 {
					v = 255
				}
				road.Traffic = uint8(v)
			}
		}
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
