// Pollution — coarse half-resolution diffusion field.
package engine

import (
	"math"

	"github.com/talgya/simville/internal/city"
)

// processPollution evolves the pollution field on a grid of 2×2 tile
// cells: inject sources, run two diffusion passes, write the cells back
// to their tiles. Nuclear waste pins its cell outright rather than
// adding; every other source accumulates. Diffusion reads the previous
// buffer and writes a fresh one, so cells never see half-updated
// neighbors, and whatever leaks past the map edge is gone.
func (s *Simulation) processPollution() {
	g := s.City
	cw, ch := (g.Width+1)/2, (g.Height+1)/2

	if len(s.pollCur) != cw*ch {
		s.pollCur = make([]float64, cw*ch)
		s.pollNext = make([]float64, cw*ch)
		s.pollWaste = make([]bool, cw*ch)
	}
	cur, next := s.pollCur, s.pollNext
	for i := range cur {
		cur[i] = 0
		s.pollWaste[i] = false
	}

	// Source injection.
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			t := &g.Tiles[g.Idx(x, y)]
			c := (y/2)*cw + x/2
			switch t.Type {
			case city.TileNuclearWaste:
				s.pollWaste[c] = true
			case city.TileIndustrial:
				if t.Level > 0 {
					cur[c] += 50
				}
			case city.TileCoalPlant, city.TileSeaport, city.TileAirport, city.TileFire:
				cur[c] += 60
			}
		}
	}
	for i := range cur {
		if s.pollWaste[i] {
			cur[i] = 250
		} else if cur[i] > 255 {
			cur[i] = 255
		}
	}

	// Two diffusion passes: a cell keeps a quarter of itself and takes a
	// quarter of each orthogonal neighbor.
	for pass := 0; pass < 2; pass++ {
		for cy := 0; cy < ch; cy++ {
			for cx := 0; cx < cw; cx++ {
				i := cy*cw + cx
				v := 0.25 * cur[i]
				if cx > 0 {
					v += 0.25 * cur[i-1]
				}
				if cx < cw-1 {
					v += 0.25 * cur[i+1]
				}
				if cy > 0 {
					v += 0.25 * cur[i-cw]
				}
				if cy < ch-1 {
					v += 0.25 * cur[i+cw]
				}
				next[i] = v
			}
		}
		cur, next = next, cur
	}
	s.pollCur, s.pollNext = cur, next

	// Write each cell back onto its 2×2 tile block.
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := math.Round(cur[(y/2)*cw+x/2])
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			g.Tiles[g.Idx(x, y)].Pollution = uint8(v)
		}
	}
}
