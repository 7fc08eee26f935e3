// Command cityrun advances a city a fixed number of months without a
// server and prints a report: batch experiments, scenario balancing, and
// seed hunting.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/talgya/simville/internal/budget"
	"github.com/talgya/simville/internal/city"
	"github.com/talgya/simville/internal/config"
	"github.com/talgya/simville/internal/engine"
	"github.com/talgya/simville/internal/persistence"
	"github.com/talgya/simville/internal/scenario"
)

func main() {
	var (
		configPath   = flag.String("config", "", "YAML config file (defaults apply when empty)")
		scenarioFlag = flag.String("scenario", "", "built-in scenario name or YAML scenario file")
		months       = flag.Int("months", 120, "how many months to simulate")
		seed         = flag.Int64("seed", 0, "override the map seed (0 = config value)")
		out          = flag.String("out", "", "write the final snapshot to this file")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	if *seed != 0 {
		cfg.City.Seed = *seed
	}

	var scn *scenario.Scenario
	if *scenarioFlag != "" {
		scn = scenario.Builtin(*scenarioFlag)
		if scn == nil {
			var err error
			scn, err = scenario.Load(*scenarioFlag)
			if err != nil {
				slog.Error("failed to load scenario", "arg", *scenarioFlag, "builtins", scenario.BuiltinNames(), "error", err)
				os.Exit(1)
			}
		}
	}

	g := city.Generate(city.GenConfig{
		Width:       cfg.City.Width,
		Height:      cfg.City.Height,
		Seed:        cfg.City.Seed,
		WaterLevel:  cfg.City.WaterLevel,
		ForestLevel: cfg.City.ForestLevel,
	})
	g.Name = cfg.City.Name

	funds := cfg.Difficulty.StartingFunds
	if scn != nil && scn.StartingFunds != 0 {
		funds = scn.StartingFunds
	}
	sim := engine.NewSimulation(g, budget.New(funds), cfg.Difficulty, g.Seed)
	if scn != nil {
		sim.Scenario = scn
		if scn.StartYear != 0 {
			sim.StartYear = scn.StartYear
		}
	}

	eng := engine.NewEngine()
	eng.OnTick = sim.TickMonth
	eng.OnYear = sim.TickYear

	slog.Info("batch run starting",
		"city", g.Name,
		"seed", g.Seed,
		"months", *months,
		"difficulty", cfg.Difficulty.Name,
	)

	ran := 0
	for i := 0; i < *months; i++ {
		eng.Step()
		ran++
		if prog, ok := sim.ScenarioProgress(); ok && (prog.Won || prog.Lost) {
			if prog.Won {
				slog.Info("scenario won", "name", prog.Name, "month", ran)
			} else {
				slog.Info("scenario lost", "name", prog.Name, "month", ran)
			}
			break
		}
	}

	printReport(sim, ran)

	if *out != "" {
		if err := persistence.WriteSnapshot(*out, persistence.Capture(sim)); err != nil {
			slog.Error("snapshot write failed", "path", *out, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Snapshot written to %s\n", *out)
	}
}

func printReport(sim *engine.Simulation, months int) {
	st := sim.StatsSnapshot()
	b := sim.BudgetSnapshot()
	d := sim.DemandIndicators()
	c := sim.VoterComplaints()

	fmt.Printf("\n== %s after %d months (%s) ==\n", sim.City.Name, months, sim.DateString())
	fmt.Printf("Population   %s\n", humanize.Comma(int64(st.Population)))
	fmt.Printf("Jobs         %s\n", humanize.Comma(int64(st.Jobs)))
	fmt.Printf("Treasury     $%s\n", humanize.Comma(b.Funds))
	fmt.Printf("Approval     %.1f%%\n", c.Approval)
	fmt.Printf("Demand       R %d / C %d / I %d\n", d.Residential, d.Commercial, d.Industrial)
	fmt.Printf("Power        %d produced / %d consumed\n", st.PowerProduced, st.PowerConsumed)

	if events := sim.RecentEvents(5); len(events) > 0 {
		fmt.Println("\nRecent events:")
		for _, e := range events {
			fmt.Printf("  [%s] %s\n", e.Category, e.Description)
		}
	}
}
