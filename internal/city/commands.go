// Placement and demolition commands. Every command validates first and
// mutates only on success; a false return means the grid is untouched.
// Funds are the caller's concern, not the grid's.
package city

// CanPlace reports whether a building footprint of type t anchored at
// (x, y) fits entirely on empty land.
func (g *Grid) CanPlace(x, y int, t TileType) bool {
	w, h := Footprint(t)
	if w == 0 {
		return false
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			tile := g.At(x+dx, y+dy)
			if tile == nil || tile.Type != TileEmpty {
				return false
			}
		}
	}
	return true
}

// PlaceBuilding stamps a multi-tile building anchored at (x, y) and
// registers it. Works for zones too, at level 0.
func (g *Grid) PlaceBuilding(x, y int, t TileType) bool {
	if !g.CanPlace(x, y, t) {
		return false
	}
	w, h := Footprint(t)
	b := g.register(t, x, y, w, h)
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			tile := g.At(x+dx, y+dy)
			resetTile(tile, t)
			tile.BuildingID = b.ID
		}
	}
	g.At(x, y).Main = true
	return true
}

// PlaceZone places an undeveloped zone lot of the given family.
func (g *Grid) PlaceZone(x, y int, z ZoneKind) bool {
	switch z {
	case ZoneResidential:
		return g.PlaceBuilding(x, y, TileResidential)
	case ZoneCommercial:
		return g.PlaceBuilding(x, y, TileCommercial)
	case ZoneIndustrial:
		return g.PlaceBuilding(x, y, TileIndustrial)
	default:
		return false
	}
}

// PlaceRoad lays a single road tile.
func (g *Grid) PlaceRoad(x, y int) bool { return g.placeSingle(x, y, TileRoad) }

// PlaceRail lays a single rail tile.
func (g *Grid) PlaceRail(x, y int) bool { return g.placeSingle(x, y, TileRail) }

// PlacePowerLine lays a single power line tile.
func (g *Grid) PlacePowerLine(x, y int) bool { return g.placeSingle(x, y, TilePowerLine) }

// PlacePark lays a single park tile.
func (g *Grid) PlacePark(x, y int) bool { return g.placeSingle(x, y, TilePark) }

// placeSingle lays one infrastructure tile. Forest is cleared in the
// process; anything else must be empty.
func (g *Grid) placeSingle(x, y int, t TileType) bool {
	tile := g.At(x, y)
	if tile == nil {
		return false
	}
	if tile.Type != TileEmpty && tile.Type != TileForest {
		return false
	}
	resetTile(tile, t)
	return true
}

// Bulldoze clears the tile at (x, y). A tile belonging to a registered
// building clears the entire footprint. Water and already-empty ground
// cannot be bulldozed, and nuclear waste never can.
func (g *Grid) Bulldoze(x, y int) bool {
	tile := g.At(x, y)
	if tile == nil {
		return false
	}
	switch tile.Type {
	case TileEmpty, TileWater, TileNuclearWaste:
		return false
	}
	if b := g.BuildingAt(x, y); b != nil {
		g.ClearBuilding(b, TileEmpty)
		return true
	}
	resetTile(tile, TileEmpty)
	return true
}

// ClearBuilding resets every footprint tile of b to the given ground type
// and removes the registry entry. Disaster damage clears to rubble,
// bulldozing clears to empty.
func (g *Grid) ClearBuilding(b *Building, ground TileType) {
	for dy := 0; dy < b.H; dy++ {
		for dx := 0; dx < b.W; dx++ {
			if tile := g.At(b.X+dx, b.Y+dy); tile != nil && tile.BuildingID == b.ID {
				resetTile(tile, ground)
			}
		}
	}
	delete(g.Buildings, b.ID)
}

// SetGround force-rewrites a tile to a bare ground type, ignoring
// placement rules. Disaster and recovery passes use it; the tile must not
// belong to a registered building (clear the building first).
func (g *Grid) SetGround(x, y int, to TileType) {
	if tile := g.At(x, y); tile != nil {
		resetTile(tile, to)
	}
}

// resetTile rewrites a tile as freshly laid ground of the given type,
// keeping only the ambient scalar fields.
func resetTile(t *Tile, to TileType) {
	t.Type = to
	t.Level = 0
	t.Class = ClassNone
	t.Powered = false
	t.RoadAccess = false
	t.BuildingID = 0
	t.Main = false
	t.Population = 0
	t.Jobs = 0
}
