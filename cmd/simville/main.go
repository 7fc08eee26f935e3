// Command simville runs the city simulation server: it loads or generates
// a city, advances it one month per tick, and serves the HTTP/websocket
// API for viewers and the mayoral control plane.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/simville/internal/api"
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
		dbPath       = flag.String("db", "", "override the database path")
		port         = flag.Int("port", 0, "override the API port")
		seed         = flag.Int64("seed", 0, "override the map seed (0 = config value)")
		fresh        = flag.Bool("fresh", false, "ignore any saved city and generate a new one")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// ── Configuration ─────────────────────────────────────────────────
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		slog.Info("config loaded", "path", *configPath, "difficulty", cfg.Difficulty.Name)
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *seed != 0 {
		cfg.City.Seed = *seed
	}

	// ── Scenario ──────────────────────────────────────────────────────
	scn := resolveScenario(*scenarioFlag)
	if scn != nil {
		slog.Info("scenario loaded", "name", scn.Name, "description", scn.Description)
	}

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.Server.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.Server.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Server.DBPath)

	// ── Load or Generate City ─────────────────────────────────────────
	var sim *engine.Simulation
	if db.HasCity() && !*fresh {
		snap, err := db.LoadCity()
		if err != nil {
			slog.Error("failed to load saved city", "error", err)
			os.Exit(1)
		}
		// A scenario flag wins; otherwise re-attach what the save names.
		if scn == nil && snap.ScenarioName != "" {
			scn = scenario.Builtin(snap.ScenarioName)
		}
		sim, err = persistence.Restore(snap, scn)
		if err != nil {
			slog.Error("failed to restore city", "error", err)
			os.Exit(1)
		}
		slog.Info("city restored",
			"name", snap.Name,
			"tick", snap.LastTick,
			"date", sim.DateString(),
			"population", snap.Stats.Population,
		)
	} else {
		slog.Info("generating city map...")
		g := city.Generate(city.GenConfig{
			Width:       cfg.City.Width,
			Height:      cfg.City.Height,
			Seed:        cfg.City.Seed,
			WaterLevel:  cfg.City.WaterLevel,
			ForestLevel: cfg.City.ForestLevel,
		})
		g.Name = cfg.City.Name

		counts := city.TerrainCounts(g)
		slog.Info("map generated",
			"seed", g.Seed,
			"size", fmt.Sprintf("%dx%d", g.Width, g.Height),
			"land", counts[city.TileEmpty],
			"water", counts[city.TileWater],
			"forest", counts[city.TileForest],
		)

		funds := cfg.Difficulty.StartingFunds
		if scn != nil && scn.StartingFunds != 0 {
			funds = scn.StartingFunds
		}
		sim = engine.NewSimulation(g, budget.New(funds), cfg.Difficulty, g.Seed)
		if scn != nil {
			sim.Scenario = scn
			if scn.StartYear != 0 {
				sim.StartYear = scn.StartYear
			}
		}

		if err := db.SaveCity(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	startTick := sim.CurrentTick()
	eng.Tick = startTick
	eng.SetSpeed(1)

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("SIMVILLE_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("SIMVILLE_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Hub:      api.NewHub(),
		Port:     cfg.Server.Port,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// Wire tick callbacks — stats history every month, autosave on its
	// configured cadence.
	outcomeAnnounced := false
	eng.OnTick = func(tick uint64) {
		sim.TickMonth(tick)
		apiServer.PublishTick(tick)

		if err := db.RecordStats(tick, sim.StatsSnapshot(), sim.BudgetSnapshot().Funds, sim.VoterComplaints().Approval); err != nil {
			slog.Error("stats record failed", "error", err)
		}

		if n := cfg.Server.AutosaveMonths; n > 0 && tick%uint64(n) == 0 {
			if err := db.SaveCity(sim); err != nil {
				slog.Error("autosave failed", "error", err)
			}
		}

		if prog, ok := sim.ScenarioProgress(); ok && !outcomeAnnounced && (prog.Won || prog.Lost) {
			outcomeAnnounced = true
			if prog.Won {
				slog.Info("scenario won", "name", prog.Name, "tick", tick)
			} else {
				slog.Info("scenario lost", "name", prog.Name, "tick", tick)
			}
		}
	}
	eng.OnYear = sim.TickYear

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	st := sim.StatsSnapshot()
	fmt.Printf("\n%s is open for business: %s residents, %s jobs, $%s in the treasury.\n",
		sim.City.Name,
		humanize.Comma(int64(st.Population)),
		humanize.Comma(int64(st.Jobs)),
		humanize.Comma(sim.BudgetSnapshot().Funds),
	)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", startTick, sim.DateString())
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveCity(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. City saved.")
}

// resolveScenario treats the argument as a built-in name first, then as a
// YAML file path. Empty means free play.
func resolveScenario(arg string) *scenario.Scenario {
	if arg == "" {
		return nil
	}
	if scn := scenario.Builtin(arg); scn != nil {
		return scn
	}
	scn, err := scenario.Load(arg)
	if err != nil {
		slog.Error("failed to load scenario", "arg", arg, "builtins", scenario.BuiltinNames(), "error", err)
		os.Exit(1)
	}
	return scn
}
