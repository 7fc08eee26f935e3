// Power propagation — breadth-first spread from plants over conductors.
package engine

import "github.com/talgya/simville/internal/city"

// processPower recomputes the powered flag across the grid. Every plant
// footprint seeds the walk; the frontier stops growing the moment total
// plant capacity is consumed, which browns out whatever lies beyond.
// Consumption is counted per powered zone or building tile; roads and
// power lines conduct without consuming, and plants feed themselves.
func (s *Simulation) processPower() {
	g := s.City

	for i := range g.Tiles {
		g.Tiles[i].Powered = false
	}

	type cell struct{ x, y int }
	var queue []cell
	visited := make([]bool, len(g.Tiles))
	totalOutput := 0

	// Seed with every tile of every plant, in row-major order so the
	// brownout boundary is deterministic for a given map.
	g.EachMainTile(func(x, y int, t *city.Tile, b *city.Building) {
		if !t.Type.IsPlant() {
			return
		}
		totalOutput += city.PlantOutput(t.Type)
		for dy := 0; dy < b.H; dy++ {
			for dx := 0; dx < b.W; dx++ {
				idx := g.Idx(x+dx, y+dy)
				if visited[idx] {
					continue
				}
				visited[idx] = true
				g.Tiles[idx].Powered = true
				queue = append(queue, cell{x + dx, y + dy})
			}
		}
	})

	consumed := 0
	for head := 0; head < len(queue); head++ {
		c := queue[head]
		for _, d := range city.CardinalOffsets {
			nx, ny := c.x+d[0], c.y+d[1]
			if !g.In(nx, ny) {
				continue
			}
			idx := g.Idx(nx, ny)
			if visited[idx] {
				continue
			}
			t := &g.Tiles[idx]
			if !t.Type.ConductsPower() {
				continue
			}
			if consumed >= totalOutput {
				// Capacity exhausted: the frontier stops here.
				continue
			}
			visited[idx] = true
			t.Powered = true
			if t.Type.IsBuilding() && !t.Type.IsPlant() {
				consumed++
			}
			queue = append(queue, cell{nx, ny})
		}
	}

	s.Stats.PowerProduced = totalOutput
	s.Stats.PowerConsumed = consumed
}
