// Aggregate city statistics.
package engine

import (
	"github.com/talgya/simville/internal/city"
)

// SimStats is the aggregate picture of the city, refreshed every tick.
// The field averages (crime, pollution, land value, traffic) are owned by
// the coverage pass and the power figures by the power pass; everything
// else is recomputed by updateStats.
type SimStats struct {
	Population       int `json:"population"`
	Jobs             int `json:"jobs"`
	CommercialJobs   int `json:"commercial_jobs"`
	IndustrialJobs   int `json:"industrial_jobs"`
	ResidentialZones int `json:"residential_zones"`
	CommercialZones  int `json:"commercial_zones"`
	IndustrialZones  int `json:"industrial_zones"`
	PoliceStations   int `json:"police_stations"`
	FireStations     int `json:"fire_stations"`
	PowerPlants      int `json:"power_plants"`
	RoadTiles        int `json:"road_tiles"`
	RailTiles        int `json:"rail_tiles"`
	Buildings        int `json:"buildings"`
	PowerProduced    int `json:"power_produced"`
	PowerConsumed    int `json:"power_consumed"`
	ActiveFires      int `json:"active_fires"`

	AvgCrime     float64 `json:"avg_crime"`
	AvgPollution float64 `json:"avg_pollution"`
	AvgLandValue float64 `json:"avg_land_value"`
	AvgTraffic   float64 `json:"avg_traffic"`
	Unemployment float64 `json:"unemployment"`
}

// updateStats rescans the map. One pass covers both the per-tile counts
// and the per-anchor occupancy sums.
func (s *Simulation) updateStats() {
	g := s.City
	st := &s.Stats
	st.Population, st.Jobs, st.CommercialJobs, st.IndustrialJobs = 0, 0, 0, 0
	st.ResidentialZones, st.CommercialZones, st.IndustrialZones = 0, 0, 0
	st.PoliceStations, st.FireStations, st.PowerPlants = 0, 0, 0
	st.RoadTiles, st.RailTiles = 0, 0
	st.Buildings = len(g.Buildings)

	for i := range g.Tiles {
		t := &g.Tiles[i]
		switch t.Type {
		case city.TileRoad:
			st.RoadTiles++
		case city.TileRail:
			st.RailTiles++
		}
		if !t.Main {
			continue
		}
		st.Population += int(t.Population)
		switch t.Type {
		case city.TileResidential:
			st.ResidentialZones++
		case city.TileCommercial:
			st.CommercialZones++
			st.CommercialJobs += int(t.Jobs)
		case city.TileIndustrial:
			st.IndustrialZones++
			st.IndustrialJobs += int(t.Jobs)
		case city.TilePoliceStation:
			st.PoliceStations++
		case city.TileFireStation:
			st.FireStations++
		case city.TileCoalPlant, city.TileNuclearPlant:
			st.PowerPlants++
		}
	}
	st.Jobs = st.CommercialJobs + st.IndustrialJobs

	// A city wants roughly 0.55 jobs per resident; the shortfall, as a
	// fraction of that want, is the unemployment figure.
	st.Unemployment = 0
	if st.Population > 0 {
		needed := float64(st.Population) * 0.55
		if gap := 1 - float64(st.Jobs)/needed; gap > 0 {
			st.Unemployment = gap
		}
	}
}
