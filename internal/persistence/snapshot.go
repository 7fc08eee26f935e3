// Snapshot capture and restore. A snapshot is a zstd-compressed stream:
// one JSON header line for tooling that wants to peek cheaply, then the
// full state as gob.
package persistence

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/talgya/simville/internal/budget"
	"github.com/talgya/simville/internal/city"
	"github.com/talgya/simville/internal/config"
	"github.com/talgya/simville/internal/engine"
	"github.com/talgya/simville/internal/scenario"
)

// Header identifies a snapshot without decoding the body.
type Header struct {
	Version int    `json:"version"`
	CityID  string `json:"city_id"`
	Name    string `json:"name"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is the complete saved state of one city. Tiles and buildings
// are stored as their live types; both are plain data structs that double
// as the wire format.
type SnapshotV1 struct {
	Header Header `json:"header"`

	CityID    string `json:"city_id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Seed      int64  `json:"seed"`
	StartYear int    `json:"start_year"`
	LastTick  uint64 `json:"last_tick"`

	Difficulty   config.Difficulty `json:"difficulty"`
	ScenarioName string            `json:"scenario_name,omitempty"`

	Tiles     []city.Tile     `json:"tiles"`
	Buildings []city.Building `json:"buildings"`

	Budget     budget.Budget        `json:"budget"`
	Demand     engine.Demand        `json:"demand"`
	Complaints engine.Complaints    `json:"complaints"`
	Stats      engine.SimStats      `json:"stats"`
	Disasters  engine.DisasterState `json:"disasters"`
	Events     []engine.Event       `json:"events"`
	Progress   scenario.Progress    `json:"progress"`
}

// Capture reads the full simulation state under the read lock.
func Capture(sim *engine.Simulation) SnapshotV1 {
	var snap SnapshotV1
	sim.View(func() {
		g := sim.City
		snap = SnapshotV1{
			CityID:     g.ID.String(),
			Name:       g.Name,
			Width:      g.Width,
			Height:     g.Height,
			Seed:       g.Seed,
			StartYear:  sim.StartYear,
			LastTick:   sim.LastTick,
			Difficulty: sim.Difficulty,
			Tiles:      append([]city.Tile(nil), g.Tiles...),
			Buildings:  make([]city.Building, 0, len(g.Buildings)),
			Budget:     *sim.Budget,
			Demand:     sim.Demand,
			Complaints: sim.Complaints,
			Stats:      sim.Stats,
			Disasters:  sim.Disasters.Clone(),
			Events:     append([]engine.Event(nil), sim.Events...),
			Progress:   sim.Progress,
		}
		if sim.Scenario != nil {
			snap.ScenarioName = sim.Scenario.Name
		}
		for _, b := range g.Buildings {
			snap.Buildings = append(snap.Buildings, *b)
		}
	})
	sort.Slice(snap.Buildings, func(i, j int) bool {
		return snap.Buildings[i].ID < snap.Buildings[j].ID
	})
	snap.Header = Header{
		Version: 1,
		CityID:  snap.CityID,
		Name:    snap.Name,
		Tick:    snap.LastTick,
	}
	return snap
}

// Restore rebuilds a simulation from a snapshot. scn re-attaches the
// scenario the snapshot names; pass nil for free play. The random stream
// is reseeded off the save point, so a resumed run does not replay the
// roll sequence the original run already consumed.
func Restore(snap SnapshotV1, scn *scenario.Scenario) (*engine.Simulation, error) {
	if snap.Width <= 0 || snap.Height <= 0 {
		return nil, fmt.Errorf("restore: bad dimensions %dx%d", snap.Width, snap.Height)
	}
	if len(snap.Tiles) != snap.Width*snap.Height {
		return nil, fmt.Errorf("restore: %d tiles for a %dx%d grid", len(snap.Tiles), snap.Width, snap.Height)
	}
	id, err := uuid.Parse(snap.CityID)
	if err != nil {
		return nil, fmt.Errorf("restore: city id: %w", err)
	}

	g := city.NewGrid(snap.Width, snap.Height)
	g.ID = id
	g.Name = snap.Name
	g.Seed = snap.Seed
	copy(g.Tiles, snap.Tiles)
	var maxID uint32
	for i := range snap.Buildings {
		b := snap.Buildings[i]
		g.Buildings[b.ID] = &b
		if b.ID > maxID {
			maxID = b.ID
		}
	}
	g.SetNextBuildingID(maxID + 1)

	bud := snap.Budget
	sim := engine.NewSimulation(g, &bud, snap.Difficulty, snap.Seed+int64(snap.LastTick))
	sim.StartYear = snap.StartYear
	sim.LastTick = snap.LastTick
	sim.Demand = snap.Demand
	sim.Complaints = snap.Complaints
	sim.Stats = snap.Stats
	sim.Disasters = snap.Disasters.Clone()
	sim.Events = snap.Events
	sim.Progress = snap.Progress
	sim.Scenario = scn
	return sim, nil
}

// marshal encodes a snapshot into the compressed stream format.
func marshal(snap SnapshotV1) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return nil, err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return nil, err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unmarshal decodes a snapshot stream.
func unmarshal(raw []byte) (SnapshotV1, error) {
	var snap SnapshotV1
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("snapshot header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// WriteSnapshot writes a snapshot file, creating parent directories.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := marshal(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// ReadSnapshot reads a snapshot file.
func ReadSnapshot(path string) (SnapshotV1, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SnapshotV1{}, err
	}
	return unmarshal(raw)
}
