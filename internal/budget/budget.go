// Package budget provides city finances: construction costs, the tax
// rate, service funding levels, and the monthly cash flow.
package budget

import "github.com/talgya/simville/internal/city"

// Placement prices in credits. The simulation core never touches these;
// whoever issues a command pays for it first.
var buildCosts = map[city.TileType]int64{
	city.TileRoad:          10,
	city.TileRail:          20,
	city.TilePowerLine:     5,
	city.TilePark:          10,
	city.TileResidential:   100,
	city.TileCommercial:    100,
	city.TileIndustrial:    100,
	city.TileCoalPlant:     3000,
	city.TileNuclearPlant:  5000,
	city.TilePoliceStation: 500,
	city.TileFireStation:   500,
	city.TileStadium:       5000,
	city.TileSeaport:       3000,
	city.TileAirport:       10000,
}

// BulldozeCost is the flat price of clearing one tile.
const BulldozeCost int64 = 1

// BuildCost returns the price of placing the given tile type, or 0 for
// types that cannot be bought.
func BuildCost(t city.TileType) int64 {
	return buildCosts[t]
}

// Budget is the city treasury and its standing policy knobs.
type Budget struct {
	Funds            int64 `json:"funds"`
	TaxRate          int   `json:"tax_rate"`          // Nominal percent, 0–20
	PoliceFunding    int   `json:"police_funding"`    // Percent of full staffing, 0–100
	FireFunding      int   `json:"fire_funding"`      // Percent of full staffing, 0–100
	TransportFunding int   `json:"transport_funding"` // Percent of full maintenance, 0–100

	LastCashFlow CashFlow `json:"last_cash_flow"`
}

// CashFlow is one month's income and expenses.
type CashFlow struct {
	TaxIncome     int64 `json:"tax_income"`
	PoliceCost    int64 `json:"police_cost"`
	FireCost      int64 `json:"fire_cost"`
	TransportCost int64 `json:"transport_cost"`
	Net           int64 `json:"net"`
}

// ServiceCounts is the city census the monthly close needs.
type ServiceCounts struct {
	Population     int
	RoadTiles      int
	RailTiles      int
	PoliceStations int
	FireStations   int
}

// New creates a budget with the given starting treasury and default
// policy: 7% taxes, all services fully funded.
func New(startingFunds int64) *Budget {
	return &Budget{
		Funds:            startingFunds,
		TaxRate:          7,
		PoliceFunding:    100,
		FireFunding:      100,
		TransportFunding: 100,
	}
}

// CanAfford reports whether the treasury covers a cost.
func (b *Budget) CanAfford(cost int64) bool {
	return b.Funds >= cost
}

// Spend withdraws a cost if the treasury covers it.
func (b *Budget) Spend(cost int64) bool {
	if !b.CanAfford(cost) {
		return false
	}
	b.Funds -= cost
	return true
}

// Deposit adds to the treasury.
func (b *Budget) Deposit(amount int64) {
	b.Funds += amount
}

// SetTaxRate clamps and applies a new nominal tax rate.
func (b *Budget) SetTaxRate(rate int) {
	b.TaxRate = clampPct(rate, 20)
}

// SetFunding clamps and applies the three service funding levels.
func (b *Budget) SetFunding(police, fire, transport int) {
	b.PoliceFunding = clampPct(police, 100)
	b.FireFunding = clampPct(fire, 100)
	b.TransportFunding = clampPct(transport, 100)
}

// CloseMonth settles one month of city finances: tax income in, service
// upkeep out. The treasury may go negative; debt is the player's problem.
// taxMultiplier is the difficulty scaling on the effective rate.
func (b *Budget) CloseMonth(c ServiceCounts, taxMultiplier float64) CashFlow {
	effRate := float64(b.TaxRate) * taxMultiplier

	flow := CashFlow{
		TaxIncome:     int64(float64(c.Population) * effRate / 100),
		PoliceCost:    int64(c.PoliceStations) * 100 * int64(b.PoliceFunding) / 100,
		FireCost:      int64(c.FireStations) * 100 * int64(b.FireFunding) / 100,
		TransportCost: (int64(c.RoadTiles) + 2*int64(c.RailTiles)) * int64(b.TransportFunding) / 1000,
	}
	flow.Net = flow.TaxIncome - flow.PoliceCost - flow.FireCost - flow.TransportCost

	b.Funds += flow.Net
	b.LastCashFlow = flow
	return flow
}

func clampPct(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
