// Package engine provides the tick-based simulation loop.
package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// TicksPerYear is the calendar granularity: one tick advances the city
// by one month.
const TicksPerYear = 12

// Tick intervals per speed level. Level 0 is paused.
var speedIntervals = [...]time.Duration{
	0,
	time.Second,
	250 * time.Millisecond,
	50 * time.Millisecond,
}

// MaxSpeed is the highest selectable speed level.
const MaxSpeed = len(speedIntervals) - 1

// Engine drives the simulation forward. Speed and the running flag are
// atomics: the Run loop reads them every cycle while API handler
// goroutines flip them.
type Engine struct {
	Tick uint64 // Current tick counter (monotonic, never resets)

	speed   atomic.Int32 // 0 = paused, 1–3 increasingly fast intervals
	running atomic.Bool

	// Callbacks for each tick layer — populated during setup.
	OnTick func(tick uint64) // Every tick (one sim-month)
	OnYear func(tick uint64) // Every 12 ticks
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{}
	e.speed.Store(1)
	return e
}

// Speed returns the current speed level.
func (e *Engine) Speed() int { return int(e.speed.Load()) }

// Running reports whether the Run loop is active.
func (e *Engine) Running() bool { return e.running.Load() }

// Run starts the simulation loop. Blocks until Stop() is called.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.running.Load() {
		if e.Speed() <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval.
		elapsed := time.Since(start)
		if target := e.interval(); elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// Stop halts the simulation loop. An in-flight tick always completes.
// Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// SetSpeed clamps and applies a speed level. Takes effect next cycle.
// Safe to call from any goroutine.
func (e *Engine) SetSpeed(level int) {
	if level < 0 {
		level = 0
	}
	if level > MaxSpeed {
		level = MaxSpeed
	}
	e.speed.Store(int32(level))
}

// Step advances exactly one tick synchronously, regardless of speed.
// Batch runs and tests drive the simulation through this.
func (e *Engine) Step() {
	e.step()
}

func (e *Engine) interval() time.Duration {
	// SetSpeed clamps on the way in, so the load is always a valid index.
	return speedIntervals[e.Speed()]
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	// Every tick: the full monthly pass sequence.
	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}

	// Every sim-year: summaries, autosave hooks.
	if e.Tick%TicksPerYear == 0 && e.OnYear != nil {
		e.OnYear(e.Tick)
	}
}

var monthNames = [TicksPerYear]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// DateString renders a tick count as a calendar date. Tick zero is
// January of the start year; each tick advances one month.
func DateString(startYear int, tick uint64) string {
	return fmt.Sprintf("%s %d", monthNames[tick%TicksPerYear], uint64(startYear)+tick/TicksPerYear)
}
