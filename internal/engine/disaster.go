// Disasters — fires, floods, rampaging entities and worse.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/simville/internal/city"
)

// DisasterKind identifies a disaster type on the wire and in scenarios.
type DisasterKind string

const (
	DisasterFire       DisasterKind = "fire"
	DisasterFlood      DisasterKind = "flood"
	DisasterTornado    DisasterKind = "tornado"
	DisasterEarthquake DisasterKind = "earthquake"
	DisasterMonster    DisasterKind = "monster"
	DisasterMeltdown   DisasterKind = "meltdown"
	DisasterPlane      DisasterKind = "plane"
	DisasterUFO        DisasterKind = "ufo"
)

// Fire is one burning tile. Age drives burnout.
type Fire struct {
	X   int `json:"x"`
	Y   int `json:"y"`
	Age int `json:"age"`
}

// Monster stomps a 2×2 area as it wanders.
type Monster struct {
	X  int `json:"x"`
	Y  int `json:"y"`
	DX int `json:"dx"`
	DY int `json:"dy"`
	HP int `json:"hp"`
}

// Tornado wrecks single tiles along an erratic path.
type Tornado struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	DX       int `json:"dx"`
	DY       int `json:"dy"`
	Lifetime int `json:"lifetime"`
}

// Plane flies toward its target and crashes there.
type Plane struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	TargetX int `json:"target_x"`
	TargetY int `json:"target_y"`
}

// UFO hovers erratically and fires on the ground every few ticks.
type UFO struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	DX       int `json:"dx"`
	DY       int `json:"dy"`
	Lifetime int `json:"lifetime"`
	Cooldown int `json:"cooldown"`
}

// DisasterState holds every active disaster entity. The singleton
// entities refuse to double up; fires accumulate freely.
type DisasterState struct {
	Fires       []Fire   `json:"fires,omitempty"`
	Monster     *Monster `json:"monster,omitempty"`
	Tornado     *Tornado `json:"tornado,omitempty"`
	Plane       *Plane   `json:"plane,omitempty"`
	UFOs        []UFO    `json:"ufos,omitempty"`
	FloodActive bool     `json:"flood_active,omitempty"`
}

// Clone returns a disaster state sharing no memory with the receiver.
// Snapshots hold clones so a captured save stays frozen while the live
// entities keep moving under the write lock.
func (d DisasterState) Clone() DisasterState {
	out := d
	out.Fires = append([]Fire(nil), d.Fires...)
	out.UFOs = append([]UFO(nil), d.UFOs...)
	if d.Monster != nil {
		m := *d.Monster
		out.Monster = &m
	}
	if d.Tornado != nil {
		tn := *d.Tornado
		out.Tornado = &tn
	}
	if d.Plane != nil {
		p := *d.Plane
		out.Plane = &p
	}
	return out
}

var compass = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// processDisasters advances every active entity, then rolls for a fresh
// random disaster.
func (s *Simulation) processDisasters(tick uint64) {
	s.stepFires()
	s.stepMonster(tick)
	s.stepTornado(tick)
	s.stepPlane(tick)
	s.stepUFOs(tick)
	s.stepFlood(tick)
	s.maybeRandomDisaster(tick)
	s.Stats.ActiveFires = len(s.Disasters.Fires)
}

// TriggerDisaster manually starts a disaster, as the admin endpoint does.
// False means the preconditions failed: a singleton already active, no
// nuclear plant for a meltdown, nothing flammable for a fire.
func (s *Simulation) TriggerDisaster(kind DisasterKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trigger(kind, s.LastTick)
}

func (s *Simulation) trigger(kind DisasterKind, tick uint64) bool {
	var ok bool
	switch kind {
	case DisasterFire:
		ok = s.triggerFire()
	case DisasterFlood:
		ok = s.triggerFlood()
	case DisasterTornado:
		ok = s.triggerTornado()
	case DisasterEarthquake:
		ok = s.triggerEarthquake()
	case DisasterMonster:
		ok = s.triggerMonster()
	case DisasterMeltdown:
		ok = s.triggerMeltdown()
	case DisasterPlane:
		ok = s.triggerPlane()
	case DisasterUFO:
		ok = s.triggerUFOs()
	}
	if ok {
		s.recordEvent(tick, "disaster", disasterOnset(kind))
		slog.Warn("disaster", "kind", string(kind), "tick", tick)
	}
	return ok
}

func disasterOnset(kind DisasterKind) string {
	switch kind {
	case DisasterFire:
		return "a fire has broken out"
	case DisasterFlood:
		return "flood waters are rising"
	case DisasterTornado:
		return "a tornado has touched down"
	case DisasterEarthquake:
		return "an earthquake has struck the city"
	case DisasterMonster:
		return "a monster is attacking the city"
	case DisasterMeltdown:
		return "meltdown at the nuclear plant"
	case DisasterPlane:
		return "a plane is going down over the city"
	case DisasterUFO:
		return "strange craft sighted over the city"
	default:
		return string(kind)
	}
}

// maybeRandomDisaster rolls the per-tick disaster chance. Meltdown only
// enters the pool when there is a plant to melt and the difficulty
// allows it.
func (s *Simulation) maybeRandomDisaster(tick uint64) {
	if !s.Difficulty.DisastersEnabled {
		return
	}
	if s.rng.Float64() >= s.Difficulty.DisasterChance {
		return
	}
	pool := []DisasterKind{
		DisasterFire, DisasterFlood, DisasterTornado, DisasterEarthquake,
		DisasterMonster, DisasterPlane, DisasterUFO,
	}
	if s.Difficulty.MeltdownsEnabled && s.City.BuildingCount(city.TileNuclearPlant) > 0 {
		pool = append(pool, DisasterMeltdown)
	}
	s.trigger(pool[s.rng.Intn(len(pool))], tick)
}

// wreckTile destroys whatever stands at (x, y). A building loses its
// whole footprint to rubble; the struck tile then catches fire half the
// time if it was flammable. Water, waste and already-burning tiles are
// untouched.
func (s *Simulation) wreckTile(x, y int) {
	t := s.City.At(x, y)
	if t == nil {
		return
	}
	switch t.Type {
	case city.TileWater, city.TileFire, city.TileFlood, city.TileNuclearWaste:
		return
	}
	flammable := t.Type.Flammable()
	if b := s.City.BuildingAt(x, y); b != nil {
		s.City.ClearBuilding(b, city.TileRubble)
	}
	if flammable && s.rng.Float64() < 0.5 {
		s.City.SetGround(x, y, city.TileFire)
		s.Disasters.Fires = append(s.Disasters.Fires, Fire{X: x, Y: y})
	} else {
		s.City.SetGround(x, y, city.TileRubble)
	}
}

// igniteTile sets a flammable tile burning. A building tile takes its
// whole footprint down to rubble first; only the struck tile burns.
func (s *Simulation) igniteTile(x, y int) {
	t := s.City.At(x, y)
	if t == nil || !t.Type.Flammable() {
		return
	}
	if b := s.City.BuildingAt(x, y); b != nil {
		s.City.ClearBuilding(b, city.TileRubble)
	}
	s.City.SetGround(x, y, city.TileFire)
	s.Disasters.Fires = append(s.Disasters.Fires, Fire{X: x, Y: y})
}

// stepFires ages every burning tile, spreads to neighbors and burns out
// old fires. Spread feeds on the tile's fire risk, so station coverage
// both slows the spread and shortens the burn.
func (s *Simulation) stepFires() {
	g := s.City
	origLen := len(s.Disasters.Fires)
	if origLen == 0 {
		return
	}
	alive := make([]Fire, 0, origLen)
	for i := 0; i < origLen; i++ {
		f := s.Disasters.Fires[i]
		t := g.At(f.X, f.Y)
		if t == nil || t.Type != city.TileFire {
			continue // extinguished by other means
		}
		f.Age++

		if s.rng.Float64() < float64(t.FireRisk)/100 {
			var spread [4][2]int
			n := 0
			for _, d := range city.CardinalOffsets {
				nx, ny := f.X+d[0], f.Y+d[1]
				if nt := g.At(nx, ny); nt != nil && nt.Type.Flammable() {
					spread[n] = [2]int{nx, ny}
					n++
				}
			}
			if n > 0 {
				c := spread[s.rng.Intn(n)]
				s.igniteTile(c[0], c[1])
			}
		}

		limit := 30
		if t.FireRisk < 20 {
			limit = 10 // under station coverage
		}
		if f.Age >= limit {
			g.SetGround(f.X, f.Y, city.TileRubble)
			continue
		}
		alive = append(alive, f)
	}
	// Ignitions during the loop landed past origLen; keep them.
	s.Disasters.Fires = append(alive, s.Disasters.Fires[origLen:]...)
}

func (s *Simulation) triggerFire() bool {
	g := s.City
	for try := 0; try < 50; try++ {
		x, y := s.rng.Intn(g.Width), s.rng.Intn(g.Height)
		if g.Tiles[g.Idx(x, y)].Type.Flammable() {
			s.igniteTile(x, y)
			return true
		}
	}
	return false
}

func (s *Simulation) stepMonster(tick uint64) {
	m := s.Disasters.Monster
	if m == nil {
		return
	}
	for dy := 0; dy < 2; dy++ {
		for dx := 0; dx < 2; dx++ {
			s.wreckTile(m.X+dx, m.Y+dy)
		}
	}
	m.X += m.DX
	m.Y += m.DY
	if s.rng.Float64() < 0.3 {
		d := compass[s.rng.Intn(len(compass))]
		m.DX, m.DY = d[0], d[1]
	}
	m.HP--
	if m.HP <= 0 || !s.City.In(m.X, m.Y) {
		s.Disasters.Monster = nil
		s.recordEvent(tick, "disaster", "the monster has left the city")
	}
}

func (s *Simulation) triggerMonster() bool {
	if s.Disasters.Monster != nil {
		return false
	}
	x, y, dx, dy := s.edgeSpawn()
	s.Disasters.Monster = &Monster{X: x, Y: y, DX: dx, DY: dy, HP: 50}
	return true
}

func (s *Simulation) stepTornado(tick uint64) {
	t := s.Disasters.Tornado
	if t == nil {
		return
	}
	s.wreckTile(t.X, t.Y)
	t.X += t.DX
	t.Y += t.DY
	if s.rng.Float64() < 0.4 {
		d := compass[s.rng.Intn(len(compass))]
		t.DX, t.DY = d[0], d[1]
	}
	t.Lifetime--
	if t.Lifetime <= 0 || !s.City.In(t.X, t.Y) {
		s.Disasters.Tornado = nil
		s.recordEvent(tick, "disaster", "the tornado has dissipated")
	}
}

func (s *Simulation) triggerTornado() bool {
	if s.Disasters.Tornado != nil {
		return false
	}
	x, y, dx, dy := s.edgeSpawn()
	s.Disasters.Tornado = &Tornado{X: x, Y: y, DX: dx, DY: dy, Lifetime: 30 + s.rng.Intn(30)}
	return true
}

func (s *Simulation) stepPlane(tick uint64) {
	p := s.Disasters.Plane
	if p == nil {
		return
	}
	p.X += stepToward(p.X, p.TargetX, 2)
	p.Y += stepToward(p.Y, p.TargetY, 2)
	if (p.X == p.TargetX && p.Y == p.TargetY) || !s.City.In(p.X, p.Y) {
		for dy := 0; dy < 2; dy++ {
			for dx := 0; dx < 2; dx++ {
				s.wreckTile(p.X+dx, p.Y+dy)
			}
		}
		s.Disasters.Plane = nil
		s.recordEvent(tick, "disaster", fmt.Sprintf("a plane has crashed at (%d,%d)", p.X, p.Y))
	}
}

func (s *Simulation) triggerPlane() bool {
	if s.Disasters.Plane != nil {
		return false
	}
	x, y, _, _ := s.edgeSpawn()
	s.Disasters.Plane = &Plane{
		X: x, Y: y,
		TargetX: s.rng.Intn(s.City.Width),
		TargetY: s.rng.Intn(s.City.Height),
	}
	return true
}

func (s *Simulation) stepUFOs(tick uint64) {
	if len(s.Disasters.UFOs) == 0 {
		return
	}
	alive := s.Disasters.UFOs[:0]
	for i := range s.Disasters.UFOs {
		u := s.Disasters.UFOs[i]
		if s.rng.Float64() < 0.5 {
			d := compass[s.rng.Intn(len(compass))]
			u.DX, u.DY = d[0], d[1]
		}
		u.X += u.DX
		u.Y += u.DY
		u.Cooldown--
		if u.Cooldown <= 0 {
			s.wreckTile(u.X, u.Y)
			u.Cooldown = 5
		}
		u.Lifetime--
		if u.Lifetime <= 0 || !s.City.In(u.X, u.Y) {
			continue
		}
		alive = append(alive, u)
	}
	s.Disasters.UFOs = alive
	if len(alive) == 0 {
		s.recordEvent(tick, "disaster", "the skies are clear again")
	}
}

func (s *Simulation) triggerUFOs() bool {
	if len(s.Disasters.UFOs) > 0 {
		return false
	}
	for i := 0; i < 3; i++ {
		x, y, dx, dy := s.edgeSpawn()
		s.Disasters.UFOs = append(s.Disasters.UFOs, UFO{
			X: x, Y: y, DX: dx, DY: dy,
			Lifetime: 40 + s.rng.Intn(40),
			Cooldown: 5,
		})
	}
	return true
}

// stepFlood recedes standing flood water tile by tile.
func (s *Simulation) stepFlood(tick uint64) {
	if !s.Disasters.FloodActive {
		return
	}
	g := s.City
	remaining := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Tiles[g.Idx(x, y)].Type != city.TileFlood {
				continue
			}
			if s.rng.Float64() < 0.1 {
				g.SetGround(x, y, city.TileEmpty)
			} else {
				remaining++
			}
		}
	}
	if remaining == 0 {
		s.Disasters.FloodActive = false
		s.recordEvent(tick, "disaster", "the flood waters have receded")
	}
}

// triggerFlood inundates shoreline tiles. Only true water spreads the
// flood; fresh flood tiles do not cascade within the trigger.
func (s *Simulation) triggerFlood() bool {
	if s.Disasters.FloodActive {
		return false
	}
	g := s.City
	flooded := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			t := &g.Tiles[g.Idx(x, y)]
			switch t.Type {
			case city.TileWater, city.TileFlood, city.TileNuclearWaste:
				continue
			}
			shore := false
			for _, d := range city.CardinalOffsets {
				if n := g.At(x+d[0], y+d[1]); n != nil && n.Type == city.TileWater {
					shore = true
					break
				}
			}
			if !shore || s.rng.Float64() >= 0.3 {
				continue
			}
			if b := g.BuildingAt(x, y); b != nil {
				g.ClearBuilding(b, city.TileRubble)
			}
			g.SetGround(x, y, city.TileFlood)
			flooded++
		}
	}
	if flooded == 0 {
		return false
	}
	s.Disasters.FloodActive = true
	return true
}

// triggerEarthquake wrecks a spread of random tiles proportional to the
// map area.
func (s *Simulation) triggerEarthquake() bool {
	g := s.City
	hits := g.Width * g.Height / 40
	for i := 0; i < hits; i++ {
		s.wreckTile(s.rng.Intn(g.Width), s.rng.Intn(g.Height))
	}
	return true
}

// triggerMeltdown melts a random nuclear plant. The inner footprint
// becomes nuclear waste nothing can clear; the shell collapses to rubble
// and the surrounding ring may catch fire.
func (s *Simulation) triggerMeltdown() bool {
	var plants []*city.Building
	s.City.EachMainTile(func(x, y int, t *city.Tile, b *city.Building) {
		if t.Type == city.TileNuclearPlant {
			plants = append(plants, b)
		}
	})
	if len(plants) == 0 {
		return false
	}
	b := plants[s.rng.Intn(len(plants))]
	s.City.ClearBuilding(b, city.TileRubble)
	for dy := 1; dy < b.H-1; dy++ {
		for dx := 1; dx < b.W-1; dx++ {
			s.City.SetGround(b.X+dx, b.Y+dy, city.TileNuclearWaste)
		}
	}
	for y := b.Y - 1; y <= b.Y+b.H; y++ {
		for x := b.X - 1; x <= b.X+b.W; x++ {
			onRing := x == b.X-1 || x == b.X+b.W || y == b.Y-1 || y == b.Y+b.H
			if !onRing {
				continue
			}
			if t := s.City.At(x, y); t != nil && t.Type.Flammable() && s.rng.Float64() < 0.4 {
				s.igniteTile(x, y)
			}
		}
	}
	return true
}

// edgeSpawn picks a random border tile and the inward heading from it.
func (s *Simulation) edgeSpawn() (x, y, dx, dy int) {
	g := s.City
	switch s.rng.Intn(4) {
	case 0:
		return s.rng.Intn(g.Width), 0, 0, 1
	case 1:
		return s.rng.Intn(g.Width), g.Height - 1, 0, -1
	case 2:
		return 0, s.rng.Intn(g.Height), 1, 0
	default:
		return g.Width - 1, s.rng.Intn(g.Height), -1, 0
	}
}

func stepToward(from, to, limit int) int {
	d := to - from
	if d > limit {
		return limit
	}
	if d < -limit {
		return -limit
	}
	return d
}
