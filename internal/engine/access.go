// Road access — footprint edge adjacency, mirrored across buildings.
package engine

import "github.com/talgya/simville/internal/city"

// processRoadAccess recomputes per-building road access. A building is
// connected when any cell strictly adjacent to a footprint edge holds
// road or rail; the four diagonal corners do not count. The result is
// written to the main tile first and then mirrored to the rest of the
// footprint.
func (s *Simulation) processRoadAccess() {
	g := s.City

	g.EachMainTile(func(x, y int, t *city.Tile, b *city.Building) {
		if b == nil {
			return
		}

		access := false
		for dx := 0; dx < b.W && !access; dx++ {
			access = carriesAccess(g, x+dx, y-1) || carriesAccess(g, x+dx, y+b.H)
		}
		for dy := 0; dy < b.H && !access; dy++ {
			access = carriesAccess(g, x-1, y+dy) || carriesAccess(g, x+b.W, y+dy)
		}

		for dy := 0; dy < b.H; dy++ {
			for dx := 0; dx < b.W; dx++ {
				g.Tiles[g.Idx(x+dx, y+dy)].RoadAccess = access
			}
		}
	})
}

func carriesAccess(g *city.Grid, x, y int) bool {
	t := g.At(x, y)
	return t != nil && (t.Type == city.TileRoad || t.Type == city.TileRail)
}
