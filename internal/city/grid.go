package city

import (
	"fmt"

	"github.com/google/uuid"
)

// CardinalOffsets lists the four orthogonal neighbor offsets in the order
// every flood and spread pass walks them: left, right, up, down.
var CardinalOffsets = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Grid holds the complete city tile state and the building registry.
// Tiles are stored row-major in a flat slice.
type Grid struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Seed   int64     `json:"seed"`

	Tiles     []Tile               `json:"-"`
	Buildings map[uint32]*Building `json:"-"`

	nextBuildingID uint32
}

// NewGrid creates an empty grid of the given dimensions.
func NewGrid(width, height int) *Grid {
	return &Grid{
		ID:        uuid.New(),
		Width:     width,
		Height:    height,
		Tiles:     make([]Tile, width*height),
		Buildings: make(map[uint32]*Building),
	}
}

// In reports whether the coordinate lies on the grid.
func (g *Grid) In(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Idx converts a coordinate to its flat slice index. Callers must bounds
// check first.
func (g *Grid) Idx(x, y int) int {
	return y*g.Width + x
}

// At returns the tile at (x, y), or nil when out of bounds.
func (g *Grid) At(x, y int) *Tile {
	if !g.In(x, y) {
		return nil
	}
	return &g.Tiles[y*g.Width+x]
}

// BuildingAt returns the registered building covering (x, y), or nil.
func (g *Grid) BuildingAt(x, y int) *Building {
	t := g.At(x, y)
	if t == nil || t.BuildingID == 0 {
		return nil
	}
	return g.Buildings[t.BuildingID]
}

// BuildingCount returns how many registered buildings of the given type
// exist. TileEmpty counts all buildings.
func (g *Grid) BuildingCount(t TileType) int {
	n := 0
	for _, b := range g.Buildings {
		if t == TileEmpty || b.Type == t {
			n++
		}
	}
	return n
}

// EachMainTile calls fn for every building anchor tile in row-major
// order, with the registry entry alongside. Iteration order is
// deterministic, unlike ranging the registry.
func (g *Grid) EachMainTile(fn func(x, y int, t *Tile, b *Building)) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			t := &g.Tiles[y*g.Width+x]
			if t.Main {
				fn(x, y, t, g.Buildings[t.BuildingID])
			}
		}
	}
}

// TileCount returns how many tiles of the given type exist.
func (g *Grid) TileCount(t TileType) int {
	n := 0
	for i := range g.Tiles {
		if g.Tiles[i].Type == t {
			n++
		}
	}
	return n
}

// Population sums residential population over main tiles.
func (g *Grid) Population() int {
	total := 0
	g.EachMainTile(func(x, y int, t *Tile, b *Building) {
		total += int(t.Population)
	})
	return total
}

// Jobs sums commercial and industrial jobs over main tiles, returning the
// split alongside the total.
func (g *Grid) Jobs() (total, commercial, industrial int) {
	g.EachMainTile(func(x, y int, t *Tile, b *Building) {
		j := int(t.Jobs)
		total += j
		switch t.Type.Zone() {
		case ZoneCommercial:
			commercial += j
		case ZoneIndustrial:
			industrial += j
		}
	})
	return total, commercial, industrial
}

// ZoneCount returns how many zone buildings of a family exist, developed
// or not.
func (g *Grid) ZoneCount(z ZoneKind) int {
	n := 0
	for _, b := range g.Buildings {
		if b.Type.Zone() == z {
			n++
		}
	}
	return n
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%q %dx%d, buildings=%d)", g.Name, g.Width, g.Height, len(g.Buildings))
}

// register assigns the next building ID and records the entry.
func (g *Grid) register(t TileType, x, y, w, h int) *Building {
	g.nextBuildingID++
	b := &Building{ID: g.nextBuildingID, Type: t, X: x, Y: y, W: w, H: h}
	g.Buildings[b.ID] = b
	return b
}

// SetNextBuildingID moves the ID counter so the next placement receives
// the given ID. Restore calls this with max existing ID + 1 so new
// placements never collide with loaded entries.
func (g *Grid) SetNextBuildingID(next uint32) {
	if next > g.nextBuildingID+1 {
		g.nextBuildingID = next - 1
	}
}
