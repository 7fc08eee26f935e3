// Package city provides the tile grid, building registry, and placement rules.
package city

// TileType identifies what occupies a single grid cell.
type TileType uint8

const (
	TileEmpty        TileType = iota // Buildable bare land
	TileWater                       // Impassable, not buildable, not bulldozable
	TileForest                      // Cleared by infrastructure placement
	TileRoad                        // Carries traffic, conducts power
	TileRail                        // Grants road access but carries no traffic
	TilePowerLine                   // Conducts power only
	TilePark                        // Raises nearby land value
	TileResidential                 // Residential zone lot (level 0 = undeveloped)
	TileCommercial                  // Commercial zone lot
	TileIndustrial                  // Industrial zone lot
	TileCoalPlant                   // 4×4, powers 200 tiles, heavy polluter
	TileNuclearPlant                // 4×4, powers 500 tiles, meltdown risk
	TilePoliceStation               // 3×3, suppresses crime in radius
	TileFireStation                 // 3×3, suppresses fire risk in radius
	TileStadium                     // 4×4 civic building
	TileSeaport                     // 4×4, polluter
	TileAirport                     // 6×6, polluter
	TileRubble                      // Destroyed ground, bulldoze to clear
	TileFire                        // Actively burning
	TileFlood                       // Flooded ground, recedes on its own
	TileNuclearWaste                // Permanent contamination
)

// ZoneKind distinguishes the three developable zone families.
type ZoneKind uint8

const (
	ZoneNone ZoneKind = iota
	ZoneResidential
	ZoneCommercial
	ZoneIndustrial
)

// ZoneClass is the wealth bracket of a developed zone, derived from
// effective land value each time the zone changes level.
type ZoneClass uint8

const (
	ClassNone ZoneClass = iota
	ClassLow
	ClassMid
	ClassUpper
	ClassHigh
)

// Tile is one cell of the city grid. Scalar fields saturate at 0 and 255.
// Population, jobs, and class are authoritative only on a building's main
// tile; the rest of the footprint mirrors powered and road-access state.
type Tile struct {
	Type       TileType  `json:"type"`
	Level      uint8     `json:"level"` // Zone development stage, 0 = empty lot
	Class      ZoneClass `json:"class"`
	Powered    bool      `json:"powered"`
	RoadAccess bool      `json:"road_access"`
	BuildingID uint32    `json:"building_id,omitempty"` // 0 = no registered building
	Main       bool      `json:"main,omitempty"`        // Anchor tile of its building

	LandValue uint8 `json:"land_value"`
	Pollution uint8 `json:"pollution"`
	Crime     uint8 `json:"crime"`
	Traffic   uint8 `json:"traffic"`
	FireRisk  uint8 `json:"fire_risk"`

	Population uint16 `json:"population,omitempty"`
	Jobs       uint16 `json:"jobs,omitempty"`
}

// Zone returns the zone family of a tile type, or ZoneNone.
func (t TileType) Zone() ZoneKind {
	switch t {
	case TileResidential:
		return ZoneResidential
	case TileCommercial:
		return ZoneCommercial
	case TileIndustrial:
		return ZoneIndustrial
	default:
		return ZoneNone
	}
}

// IsPlant reports whether the tile type generates power.
func (t TileType) IsPlant() bool {
	return t == TileCoalPlant || t == TileNuclearPlant
}

// IsService reports whether the tile type projects a coverage radius.
func (t TileType) IsService() bool {
	return t == TilePoliceStation || t == TileFireStation
}

// IsBuilding reports whether the tile type occupies a multi-tile footprint
// and lives in the building registry.
func (t TileType) IsBuilding() bool {
	switch t {
	case TileResidential, TileCommercial, TileIndustrial,
		TileCoalPlant, TileNuclearPlant,
		TilePoliceStation, TileFireStation,
		TileStadium, TileSeaport, TileAirport:
		return true
	default:
		return false
	}
}

// ConductsPower reports whether power propagates through this tile type.
// Rail deliberately does not conduct.
func (t TileType) ConductsPower() bool {
	switch t {
	case TileRoad, TilePowerLine:
		return true
	default:
		return t.IsBuilding()
	}
}

// Flammable reports whether fire can spread onto this tile type.
func (t TileType) Flammable() bool {
	switch t {
	case TileForest, TilePark:
		return true
	default:
		return t.IsBuilding()
	}
}

// EffectiveLandValue is the tile's land value after pollution discount,
// floored at zero. Growth rolls and class brackets read this, never the
// raw field.
func (t *Tile) EffectiveLandValue() uint8 {
	penalty := t.Pollution / 2
	if penalty >= t.LandValue {
		return 0
	}
	return t.LandValue - penalty
}

// ClassFor buckets an effective land value into a wealth class.
func ClassFor(effValue uint8) ZoneClass {
	switch {
	case effValue < 30:
		return ClassLow
	case effValue < 80:
		return ClassMid
	case effValue < 150:
		return ClassUpper
	default:
		return ClassHigh
	}
}

// TileName returns a human-readable name for a tile type.
func TileName(t TileType) string {
	switch t {
	case TileEmpty:
		return "Empty"
	case TileWater:
		return "Water"
	case TileForest:
		return "Forest"
	case TileRoad:
		return "Road"
	case TileRail:
		return "Rail"
	case TilePowerLine:
		return "Power Line"
	case TilePark:
		return "Park"
	case TileResidential:
		return "Residential"
	case TileCommercial:
		return "Commercial"
	case TileIndustrial:
		return "Industrial"
	case TileCoalPlant:
		return "Coal Plant"
	case TileNuclearPlant:
		return "Nuclear Plant"
	case TilePoliceStation:
		return "Police Station"
	case TileFireStation:
		return "Fire Station"
	case TileStadium:
		return "Stadium"
	case TileSeaport:
		return "Seaport"
	case TileAirport:
		return "Airport"
	case TileRubble:
		return "Rubble"
	case TileFire:
		return "Fire"
	case TileFlood:
		return "Flood"
	case TileNuclearWaste:
		return "Nuclear Waste"
	default:
		return "Unknown"
	}
}

// TileByName resolves a placement token ("road", "coal_plant") to a tile
// type. Only player-placeable types resolve; ground states like rubble or
// water do not.
func TileByName(name string) (TileType, bool) {
	switch name {
	case "road":
		return TileRoad, true
	case "rail":
		return TileRail, true
	case "wire", "power_line":
		return TilePowerLine, true
	case "park":
		return TilePark, true
	case "coal_plant":
		return TileCoalPlant, true
	case "nuclear_plant":
		return TileNuclearPlant, true
	case "police_station":
		return TilePoliceStation, true
	case "fire_station":
		return TileFireStation, true
	case "stadium":
		return TileStadium, true
	case "seaport":
		return TileSeaport, true
	case "airport":
		return TileAirport, true
	default:
		return TileEmpty, false
	}
}

// ZoneByName resolves a zoning token to a zone kind.
func ZoneByName(name string) (ZoneKind, bool) {
	switch name {
	case "residential":
		return ZoneResidential, true
	case "commercial":
		return ZoneCommercial, true
	case "industrial":
		return ZoneIndustrial, true
	default:
		return ZoneNone, false
	}
}

// ClassName returns a human-readable name for a zone class.
func ClassName(c ZoneClass) string {
	switch c {
	case ClassLow:
		return "Low"
	case ClassMid:
		return "Mid"
	case ClassUpper:
		return "Upper"
	case ClassHigh:
		return "High"
	default:
		return "None"
	}
}
