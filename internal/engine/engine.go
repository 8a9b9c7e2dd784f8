// Package engine provides the tick-based simulation loop. The engine owns
// cadence — the cognitive core never throttles itself.
// See design doc Section 2.
package engine

import (
	"log/slog"
	"time"
)

// Tick layering relative to the tick counter.
const (
	TicksPerHour = 60   // Stats refresh cadence
	TicksPerDay  = 1440 // Save-point cadence
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval
	Running  bool

	// Callbacks for each tick layer — populated during setup.
	OnTick func(tick uint64) // Every tick: agent decision/update cycles
	OnHour func(tick uint64) // Every 60 ticks: stats
	OnDay  func(tick uint64) // Every 1440 ticks: persistence save point
}

// NewEngine creates an engine with default settings.
func NewEngine() *Engine {
	return &Engine{Speed: 1.0, Interval: 250 * time.Millisecond}
}

// Run starts the loop. Blocks until Stop is called. Shutdown simply stops
// invoking the tick entry point — an in-flight cycle always completes.
func (e *Engine) Run() {
	e.Running = true
	slog.Info("engine started", "tick", e.Tick, "speed", e.Speed)

	for e.Running {
		if e.Speed <= 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()
		e.Step()

		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / e.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("engine stopped", "tick", e.Tick)
}

// Stop halts the loop after the current tick.
func (e *Engine) Stop() { e.Running = false }

// Step advances the simulation by one tick. Exported so tests and batch
// runs can drive the engine without the wall-clock loop.
func (e *Engine) Step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.Tick%TicksPerHour == 0 && e.OnHour != nil {
		e.OnHour(e.Tick)
	}
	if e.Tick%TicksPerDay == 0 && e.OnDay != nil {
		e.OnDay(e.Tick)
	}
}
