package city

// Building is a registry entry for a multi-tile structure. The anchor is
// the top-left corner of the footprint and doubles as the main tile.
type Building struct {
	ID   uint32   `json:"id"`
	Type TileType `json:"type"`
	X    int      `json:"x"`
	Y    int      `json:"y"`
	W    int      `json:"w"`
	H    int      `json:"h"`
}

// Footprint returns the width and height of a building type, or (0, 0)
// for single-tile and non-building types.
func Footprint(t TileType) (w, h int) {
	switch t {
	case TileResidential, TileCommercial, TileIndustrial,
		TilePoliceStation, TileFireStation:
		return 3, 3
	case TileCoalPlant, TileNuclearPlant, TileStadium, TileSeaport:
		return 4, 4
	case TileAirport:
		return 6, 6
	default:
		return 0, 0
	}
}

// PlantOutput returns how many consuming tiles a power plant can supply.
func PlantOutput(t TileType) int {
	switch t {
	case TileCoalPlant:
		return 200
	case TileNuclearPlant:
		return 500
	default:
		return 0
	}
}

// ServiceRadius returns the nominal coverage radius of a service building
// at 100% funding.
func ServiceRadius(t TileType) float64 {
	if t.IsService() {
		return 10
	}
	return 0
}

// Development ceilings and occupancy tables per zone family. Residential
// levels hold people; commercial and industrial levels hold jobs.
var (
	residentialPopulation = [10]uint16{0, 8, 24, 64, 128, 256, 512, 768, 1280, 1920}
	commercialJobs        = [6]uint16{0, 392, 784, 1176, 1568, 1960}
	industrialJobs        = [5]uint16{0, 160, 320, 480, 640}

	// Commercial zones need this much effective land value to reach a level.
	commercialValueFloor = [6]uint8{0, 0, 40, 80, 120, 160}
)

// MaxLevel returns the highest development level for a zone family.
func MaxLevel(z ZoneKind) uint8 {
	switch z {
	case ZoneResidential:
		return 9
	case ZoneCommercial:
		return 5
	case ZoneIndustrial:
		return 4
	default:
		return 0
	}
}

// OccupancyFor returns the population and jobs a zone holds at a level.
func OccupancyFor(z ZoneKind, level uint8) (population, jobs uint16) {
	switch z {
	case ZoneResidential:
		if int(level) < len(residentialPopulation) {
			return residentialPopulation[level], 0
		}
	case ZoneCommercial:
		if int(level) < len(commercialJobs) {
			return 0, commercialJobs[level]
		}
	case ZoneIndustrial:
		if int(level) < len(industrialJobs) {
			return 0, industrialJobs[level]
		}
	}
	return 0, 0
}

// CommercialValueFloor returns the minimum effective land value a
// commercial zone needs before it may grow to the given level.
func CommercialValueFloor(level uint8) uint8 {
	if int(level) < len(commercialValueFloor) {
		return commercialValueFloor[level]
	}
	return 255
}

// TrafficPerLevel returns how much traffic one development level of a zone
// family generates each tick.
func TrafficPerLevel(z ZoneKind) int {
	switch z {
	case ZoneResidential:
		return 10
	case ZoneCommercial:
		return 20
	case ZoneIndustrial:
		return 30
	default:
		return 0
	}
}
