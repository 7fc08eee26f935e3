// RCI demand — how badly the city wants each zone kind.
package engine

import (
	"math"

	"github.com/talgya/simville/internal/city"
)

// Demand holds one value per zone kind in [-1, 2]. Positive demand pulls
// zones up a level, zero or negative stalls them.
type Demand struct {
	Residential float64 `json:"residential"`
	Commercial  float64 `json:"commercial"`
	Industrial  float64 `json:"industrial"`
}

// For returns the demand for a zone kind, 0 for anything unzoned.
func (d Demand) For(z city.ZoneKind) float64 {
	switch z {
	case city.ZoneResidential:
		return d.Residential
	case city.ZoneCommercial:
		return d.Commercial
	case city.ZoneIndustrial:
		return d.Industrial
	default:
		return 0
	}
}

// Indicator rescales a demand value onto the 0..100 gauge clients show.
func Indicator(d float64) int {
	v := int(math.Round((d + 1) / 3 * 100))
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v
}

// processDemand derives the next tick's demand from the city that exists
// after this tick's growth. An empty city defaults to generous values so
// the first zones ever placed can develop.
func (s *Simulation) processDemand() {
	pop := float64(s.Stats.Population)
	totalJobs := float64(s.Stats.Jobs)

	jobsPerCapita := 2.0
	if pop > 0 {
		jobsPerCapita = totalJobs / pop
	}
	housingPressure := 0.0
	if pop > 0 && s.Stats.ResidentialZones > 0 {
		housingPressure = pop / (float64(s.Stats.ResidentialZones) * 1920)
	}
	commercialRatio, industrialRatio := 1.0, 1.0
	if pop > 0 {
		commercialRatio = float64(s.Stats.CommercialJobs) / (pop * 0.5)
		industrialRatio = float64(s.Stats.IndustrialJobs) / (pop * 0.33)
	}
	pollutionPenalty := s.Stats.AvgPollution / 255 * 0.5

	r := clampDemand(0.5 + (jobsPerCapita-0.8)*0.6 - housingPressure*0.3)
	c := clampDemand(0.3 + pop/1000*0.3 - (commercialRatio-1)*0.5)
	i := clampDemand(0.6-(industrialRatio-1)*0.4-pollutionPenalty+pop/5000*0.2) * s.Difficulty.IndustrialMultiplier

	// High taxes bleed demand; industry cares half as much.
	taxPenalty := (s.Difficulty.EffectiveTaxRate(s.Budget.TaxRate) - s.Difficulty.NeutralTaxRate) * 0.03
	r -= taxPenalty
	c -= taxPenalty
	i -= taxPenalty * 0.5

	s.Demand = Demand{
		Residential: clampDemand(r),
		Commercial:  clampDemand(c),
		Industrial:  clampDemand(i),
	}
}

func clampDemand(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 2 {
		return 2
	}
	return v
}
