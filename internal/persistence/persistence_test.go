package persistence

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/simville/internal/budget"
	"github.com/talgya/simville/internal/city"
	"github.com/talgya/simville/internal/config"
	"github.com/talgya/simville/internal/engine"
)

// buildTestSim returns a small city with a little history: powered,
// wired, and ticked long enough to develop state worth saving.
func buildTestSim(t *testing.T) *engine.Simulation {
	t.Helper()
	g := city.NewGrid(24, 24)
	g.Name = "saveville"
	diff := config.Normal()
	diff.DisastersEnabled = false
	sim := engine.NewSimulation(g, budget.New(500_000), diff, 11)

	if !sim.Place(city.TileCoalPlant, 0, 0) {
		t.Fatal("plant placement failed")
	}
	for x := 0; x < 20; x++ {
		if !sim.Place(city.TileRoad, x, 4) {
			t.Fatalf("road placement failed at %d", x)
		}
	}
	for _, x := range []int{0, 3, 6} {
		if !sim.PlaceZone(city.ZoneResidential, x, 5) {
			t.Fatalf("zone placement failed at %d", x)
		}
	}
	if !sim.PlaceZone(city.ZoneIndustrial, 9, 5) {
		t.Fatal("industrial placement failed")
	}
	for tick := uint64(1); tick <= 24; tick++ {
		sim.TickMonth(tick)
	}
	return sim
}

func TestSnapshotRoundTrip(t *testing.T) {
	sim := buildTestSim(t)
	path := filepath.Join(t.TempDir(), "city.snap")

	if err := WriteSnapshot(path, Capture(sim)); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	snap, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	restored, err := Restore(snap, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	if restored.City.ID != sim.City.ID || restored.City.Name != "saveville" {
		t.Errorf("identity = %v %q", restored.City.ID, restored.City.Name)
	}
	if restored.LastTick != 24 {
		t.Errorf("last tick = %d, want 24", restored.LastTick)
	}
	if !reflect.DeepEqual(restored.City.Tiles, sim.City.Tiles) {
		t.Error("tiles differ after round trip")
	}
	if !reflect.DeepEqual(restored.City.Buildings, sim.City.Buildings) {
		t.Error("building registry differs after round trip")
	}
	if *restored.Budget != *sim.Budget {
		t.Errorf("budget = %+v, want %+v", restored.Budget, sim.Budget)
	}
	if restored.Stats != sim.Stats {
		t.Errorf("stats = %+v, want %+v", restored.Stats, sim.Stats)
	}
	if restored.Demand != sim.Demand || restored.Complaints != sim.Complaints {
		t.Error("demand or complaints differ after round trip")
	}
	if !reflect.DeepEqual(restored.Events, sim.Events) {
		t.Error("event log differs after round trip")
	}

	// A new placement must take a fresh ID, not overwrite a loaded entry.
	before := len(restored.City.Buildings)
	if !restored.Place(city.TileFireStation, 15, 10) {
		t.Fatal("placement on restored city failed")
	}
	if got := len(restored.City.Buildings); got != before+1 {
		t.Errorf("registry size = %d after placement, want %d", got, before+1)
	}
}

func TestCaptureFreezesDisasterState(t *testing.T) {
	sim := buildTestSim(t)
	if !sim.TriggerDisaster(engine.DisasterMonster) {
		t.Fatal("monster trigger failed")
	}
	if !sim.TriggerDisaster(engine.DisasterUFO) {
		t.Fatal("ufo trigger failed")
	}
	if !sim.TriggerDisaster(engine.DisasterFire) {
		t.Fatal("fire trigger failed")
	}

	snap := Capture(sim)
	monster := *snap.Disasters.Monster
	fires := append([]engine.Fire(nil), snap.Disasters.Fires...)
	ufos := append([]engine.UFO(nil), snap.Disasters.UFOs...)

	// The live entities move on the next tick. The captured state must not.
	sim.TickMonth(25)

	if *snap.Disasters.Monster != monster {
		t.Errorf("captured monster moved with the live city: %+v, want %+v",
			*snap.Disasters.Monster, monster)
	}
	if !reflect.DeepEqual(snap.Disasters.Fires, fires) {
		t.Error("captured fires aged with the live city")
	}
	if !reflect.DeepEqual(snap.Disasters.UFOs, ufos) {
		t.Error("captured ufos moved with the live city")
	}

	// Restore hands the new simulation its own copy too.
	restored, err := Restore(snap, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	restored.TickMonth(25)
	if !reflect.DeepEqual(snap.Disasters.UFOs, ufos) {
		t.Error("snapshot shares entity storage with the restored city")
	}
}

func TestSnapshotHeaderPeek(t *testing.T) {
	sim := buildTestSim(t)
	path := filepath.Join(t.TempDir(), "city.snap")
	if err := WriteSnapshot(path, Capture(sim)); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}

	// The first decompressed line is a standalone JSON header.
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read header line: %v", err)
	}

	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		t.Fatalf("header is not JSON: %v", err)
	}
	if h.Version != 1 || h.Tick != 24 || h.Name != "saveville" {
		t.Errorf("header = %+v", h)
	}
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	sim := buildTestSim(t)
	good := Capture(sim)

	short := good
	short.Tiles = short.Tiles[:10]
	if _, err := Restore(short, nil); err == nil {
		t.Error("restore accepted a truncated tile slice")
	}

	badID := good
	badID.CityID = "not-a-uuid"
	if _, err := Restore(badID, nil); err == nil {
		t.Error("restore accepted a malformed city id")
	}

	flat := good
	flat.Width, flat.Height = 0, 0
	flat.Tiles = nil
	if _, err := Restore(flat, nil); err == nil {
		t.Error("restore accepted zero dimensions")
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := unmarshal([]byte("not a snapshot at all")); err == nil {
		t.Error("garbage decoded without error")
	}
}

func TestDBSaveAndLoadCity(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if db.HasCity() {
		t.Fatal("fresh database claims a saved city")
	}
	sim := buildTestSim(t)
	if err := db.SaveCity(sim); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !db.HasCity() {
		t.Fatal("saved city not found")
	}

	snap, err := db.LoadCity()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Name != "saveville" || snap.LastTick != 24 {
		t.Errorf("loaded snapshot = %q at tick %d", snap.Name, snap.LastTick)
	}
	restored, err := Restore(snap, nil)
	if err != nil {
		t.Fatalf("restore from db: %v", err)
	}
	if !reflect.DeepEqual(restored.City.Tiles, sim.City.Tiles) {
		t.Error("tiles differ after db round trip")
	}
}

func TestDBEventTailRewrite(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	g := city.NewGrid(16, 16)
	g.Name = "eventville"
	diff := config.Normal()
	diff.DisastersEnabled = false
	sim := engine.NewSimulation(g, budget.New(100_000), diff, 3)

	sim.Place(city.TileRoad, 1, 1)
	if err := db.SaveCity(sim); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// A second event lands on the save tick after the save. The rewrite
	// must pick it up without doubling the first.
	sim.Place(city.TileRoad, 2, 1)
	if err := db.SaveCity(sim); err != nil {
		t.Fatalf("second save: %v", err)
	}
	events, err := db.RecentEvents(10)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events after tail rewrite = %d, want 2", len(events))
	}

	sim.TickMonth(1)
	sim.TickMonth(2)
	sim.Place(city.TileRoad, 3, 1)
	if err := db.SaveCity(sim); err != nil {
		t.Fatalf("third save: %v", err)
	}
	events, err = db.RecentEvents(10)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events after third save = %d, want 3", len(events))
	}
	if events[0].Tick != 2 {
		t.Errorf("newest event tick = %d, want 2", events[0].Tick)
	}
}

func TestDBStatsHistory(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for tick := uint64(12); tick <= 36; tick += 12 {
		st := engine.SimStats{Population: int(tick) * 10, Jobs: int(tick) * 4}
		if err := db.RecordStats(tick, st, 5000, 80); err != nil {
			t.Fatalf("record stats: %v", err)
		}
	}
	// Same tick again overwrites.
	if err := db.RecordStats(36, engine.SimStats{Population: 999}, 4000, 75); err != nil {
		t.Fatalf("re-record stats: %v", err)
	}

	points, err := db.StatsHistory(10)
	if err != nil {
		t.Fatalf("stats history: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("points = %d, want 3", len(points))
	}
	if points[0].Tick != 12 || points[2].Tick != 36 {
		t.Errorf("tick order = %d..%d, want 12..36", points[0].Tick, points[2].Tick)
	}
	if points[2].Population != 999 || points[2].Funds != 4000 {
		t.Errorf("overwritten point = %+v", points[2])
	}

	limited, err := db.StatsHistory(2)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(limited) != 2 || limited[0].Tick != 24 {
		t.Errorf("limited points = %+v, want ticks 24 and 36", limited)
	}
}

func TestDBMeta(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "city.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.GetMeta("missing"); err == nil {
		t.Error("missing key returned no error")
	}
	if err := db.SaveMeta("schema", "1"); err != nil {
		t.Fatalf("save meta: %v", err)
	}
	if err := db.SaveMeta("schema", "2"); err != nil {
		t.Fatalf("overwrite meta: %v", err)
	}
	v, err := db.GetMeta("schema")
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if v != "2" {
		t.Errorf("meta value = %q, want 2", v)
	}
}
