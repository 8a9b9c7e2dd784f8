// Command mindsim runs the Micro Minds autonomous colony simulation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/micro-minds/internal/agents"
	"github.com/talgya/micro-minds/internal/api"
	"github.com/talgya/micro-minds/internal/brain"
	"github.com/talgya/micro-minds/internal/config"
	"github.com/talgya/micro-minds/internal/engine"
	"github.com/talgya/micro-minds/internal/entropy"
	"github.com/talgya/micro-minds/internal/genome"
	"github.com/talgya/micro-minds/internal/persistence"
	"github.com/talgya/micro-minds/internal/registry"
	"github.com/talgya/micro-minds/internal/world"
)

func main() {
	cfgPath := flag.String("config", "mindsim.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Micro Minds — Autonomous Colony Simulation")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		slog.Error("config load failed", "path", *cfgPath, "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DB.Path), 0755)
	db, err := persistence.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB.Path)

	// ── Load or Found the Colony ──────────────────────────────────────
	var (
		streams   *entropy.Streams
		colonists []*agents.Agent
		startTick uint64
		resumed   bool
	)

	if runID, savedSeed, ok, err := db.LatestRun(); err != nil {
		slog.Error("run lookup failed", "error", err)
		os.Exit(1)
	} else if ok {
		db.RunID = runID
		saved, err := db.LoadAgents()
		if err != nil {
			slog.Error("failed to load saved colony", "error", err)
			os.Exit(1)
		}
		if len(saved) > 0 {
			// The saved master seed regenerates the identical world.
			streams = entropy.NewStreams(savedSeed)
			colonists = saved
			resumed = true
			slog.Info("found saved colony, resuming", "run", runID, "agents", len(saved))
		}
	}
	if !resumed {
		streams = entropy.NewStreams(cfg.Seed)
		if err := db.BeginRun(streams.MasterSeed()); err != nil {
			slog.Error("failed to register run", "error", err)
			os.Exit(1)
		}
		slog.Info("no saved colony, founding a new one", "run", db.RunID)
	}
	slog.Info("entropy initialized", "master_seed", streams.MasterSeed())

	// ── World (deterministic from the master seed) ────────────────────
	genCfg := world.DefaultGenConfig()
	genCfg.Width = cfg.World.Width
	genCfg.Height = cfg.World.Height
	genCfg.Seed = streams.MasterSeed()
	w := world.Generate(genCfg)
	slog.Info("world generated", "width", w.Width, "height", w.Height)

	// ── Population ────────────────────────────────────────────────────
	spawner := agents.NewSpawner(streams.MasterSeed(), cfg.BrainConfig())

	if resumed {
		var maxID agents.AgentID
		for _, a := range colonists {
			if a.ID > maxID {
				maxID = a.ID
			}
			mind, found, err := db.LoadCheckpoint(a.ID)
			if err != nil {
				slog.Error("checkpoint restore failed", "agent", a.ID, "error", err)
				os.Exit(1)
			}
			if found {
				a.Mind = mind
			} else {
				// No checkpoint saved for this agent: a fresh mind, the
				// same as a newborn's.
				fresh, err := brain.New(a.Genome.BrainConfigFrom(spawner.BrainBase()), streams.ForAgent(uint64(a.ID)))
				if err != nil {
					slog.Error("mind rebuild failed", "agent", a.ID, "error", err)
					os.Exit(1)
				}
				a.Mind = fresh
			}
		}
		spawner.SetNextID(maxID + 1)

		if tickStr, err := db.GetMeta("last_tick"); err == nil {
			if t, err := strconv.ParseUint(tickStr, 10, 64); err == nil {
				startTick = t
			}
		}
		slog.Info("colony restored", "agents", len(colonists), "tick", startTick)
	} else {
		colonists, err = spawner.SpawnPopulation(cfg.Population.Initial, w)
		if err != nil {
			slog.Error("population spawn failed", "error", err)
			os.Exit(1)
		}
	}

	reg := registry.New()
	for _, a := range colonists {
		reg.Add(a)
	}
	life := registry.NewLifecycle(reg, spawner, genome.NewDefaultOperator())

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(w, reg, life, streams)
	sim.SweepEvery = cfg.Engine.SweepEveryTicks

	eng := engine.NewEngine()
	eng.Tick = startTick
	eng.Speed = cfg.Engine.Speed
	eng.Interval = time.Duration(cfg.Engine.TickIntervalMs) * time.Millisecond

	eng.OnTick = sim.TickMinute
	eng.OnHour = sim.UpdateStats
	eng.OnDay = func(tick uint64) {
		if err := db.SaveColonyState(sim, tick); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("MINDSIM_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("MINDSIM_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Sim:      sim,
		Eng:      eng,
		DB:       db,
		Port:     cfg.API.Port,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nThe colony is alive: %d minds on a %dx%d world.\n",
		len(colonists), w.Width, w.Height)
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveColonyState(sim, eng.Tick); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. Colony state saved.")
}
