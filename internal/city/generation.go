// Terrain generation using layered simplex noise.
// Produces the empty land, water bodies, and forest cover a new city
// starts from. Deterministic for a given seed.
package city

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/simville/internal/entropy"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width       int     // Grid width in tiles
	Height      int     // Grid height in tiles
	Seed        int64   // Random seed (0 = random)
	WaterLevel  float64 // Elevation threshold for water (0.0–1.0)
	ForestLevel float64 // Moisture threshold for forest (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:       128,
		Height:      128,
		Seed:        0,
		WaterLevel:  0.30,
		ForestLevel: 0.62,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:       24,
		Height:      24,
		Seed:        42,
		WaterLevel:  0.26,
		ForestLevel: 0.65,
	}
}

// Generate creates a terrain grid from the configuration.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.RandomSeed()
	}

	// Two noise layers: elevation decides water, moisture decides forest.
	elevNoise := opensimplex.NewNormalized(entropy.Stream(seed, "elevation"))
	moistNoise := opensimplex.NewNormalized(entropy.Stream(seed, "moisture"))

	g := NewGrid(cfg.Width, cfg.Height)
	g.Seed = seed

	halfW := float64(cfg.Width) / 2
	halfH := float64(cfg.Height) / 2

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)

			elev := octaveNoise(elevNoise, fx, fy, 4, 0.05, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.04, 0.5)

			// Edge shaping: pull elevation down toward the borders so the
			// map tends to end in shoreline rather than cut-off land.
			nx := (fx - halfW) / halfW
			ny := (fy - halfH) / halfH
			dist := math.Sqrt(nx*nx+ny*ny) / math.Sqrt2
			falloff := 1.0 - math.Pow(dist, 3.0)
			if falloff < 0 {
				falloff = 0
			}
			elev *= falloff

			tile := g.At(x, y)
			switch {
			case elev < cfg.WaterLevel:
				tile.Type = TileWater
			case moist > cfg.ForestLevel:
				tile.Type = TileForest
			default:
				tile.Type = TileEmpty
			}
		}
	}

	return g
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of tile type distribution.
func TerrainCounts(g *Grid) map[TileType]int {
	counts := make(map[TileType]int)
	for i := range g.Tiles {
		counts[g.Tiles[i].Type]++
	}
	return counts
}
