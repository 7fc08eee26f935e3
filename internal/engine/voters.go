// Voter complaints — seven grievance scores and an approval rating.
package engine

import "math"

// Complaints holds the seven grievance scores, each 0..100 where 0 means
// nobody cares. Approval averages them into a single rating; Satisfied
// means every score is under 20, which scenarios use as a win condition.
type Complaints struct {
	Crime     float64 `json:"crime"`
	Fire      float64 `json:"fire"`
	Housing   float64 `json:"housing"`
	Pollution float64 `json:"pollution"`
	Taxes     float64 `json:"taxes"`
	Traffic   float64 `json:"traffic"`
	Jobs      float64 `json:"jobs"`
	Approval  float64 `json:"approval"`
	Satisfied bool    `json:"satisfied"`
}

// processVoters recomputes the complaint scores from this tick's fields
// and aggregates. Field averages arrive rescaled to a 0..10 "rate" so the
// thresholds read like survey numbers.
func (s *Simulation) processVoters() {
	pop := float64(s.Stats.Population)
	jobsPerCapita := 2.0
	if pop > 0 {
		jobsPerCapita = float64(s.Stats.Jobs) / pop
	}
	housingPressure := 0.0
	if pop > 0 && s.Stats.ResidentialZones > 0 {
		housingPressure = pop / (float64(s.Stats.ResidentialZones) * 1920)
	}
	crimeRate := s.Stats.AvgCrime / 255 * 10
	pollutionRate := s.Stats.AvgPollution / 255 * 10
	trafficRate := s.Stats.AvgTraffic / 255 * 10

	var c Complaints
	c.Crime = clampScore((crimeRate - 3.0) * 20)
	c.Fire = clampScore(float64(len(s.Disasters.Fires)) * 20 / float64(1+s.Stats.FireStations))
	c.Housing = clampScore(housingPressure*50 + s.Stats.AvgLandValue/255*30 + math.Max(0, 1-jobsPerCapita/0.8)*20)
	c.Pollution = clampScore((pollutionRate - 3.0) * 20)
	c.Taxes = clampScore(taxComplaint(s.Difficulty.EffectiveTaxRate(s.Budget.TaxRate)))
	c.Traffic = clampScore((trafficRate - 4.0) * 20)
	c.Jobs = clampScore((0.55 - jobsPerCapita) * 200)

	sum := c.Crime + c.Fire + c.Housing + c.Pollution + c.Taxes + c.Traffic + c.Jobs
	c.Approval = 100 - sum/7
	c.Satisfied = c.Crime < 20 && c.Fire < 20 && c.Housing < 20 &&
		c.Pollution < 20 && c.Taxes < 20 && c.Traffic < 20 && c.Jobs < 20
	s.Complaints = c
}

// taxComplaint maps the effective rate onto a score that stays flat at 7%
// and climbs twice as steeply past 12%.
func taxComplaint(rate float64) float64 {
	switch {
	case rate <= 7:
		return 0
	case rate <= 12:
		return (rate - 7) * 8
	default:
		return 40 + (rate-12)*12
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
