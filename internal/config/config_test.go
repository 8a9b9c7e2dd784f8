package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/micro-minds/internal/brain"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.World.Width != 64 || cfg.Population.Initial != 100 {
		t.Fatalf("missing file did not yield defaults: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindsim.yaml")
	doc := `
seed: 1234
world:
  width: 32
  height: 24
population:
  initial: 10
brain:
  episodic_capacity: 64
api:
  port: 9090
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Seed != 1234 {
		t.Errorf("seed = %d, want 1234", cfg.Seed)
	}
	if cfg.World.Width != 32 || cfg.World.Height != 24 {
		t.Errorf("world = %dx%d, want 32x24", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Population.Initial != 10 {
		t.Errorf("population = %d, want 10", cfg.Population.Initial)
	}
	if cfg.Brain.EpisodicCapacity != 64 {
		t.Errorf("episodic capacity = %d, want 64", cfg.Brain.EpisodicCapacity)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.API.Port)
	}
	// Untouched sections keep their defaults.
	if cfg.Brain.MaxPeers != 50 {
		t.Errorf("max peers = %d, want default 50", cfg.Brain.MaxPeers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := `
brain:
  batch_size: 0
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, brain.ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestValidateWorldBounds(t *testing.T) {
	cfg := Default()
	cfg.World.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero-width world accepted")
	}

	cfg = Default()
	cfg.Population.Initial = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("negative population accepted")
	}

	cfg = Default()
	cfg.Engine.SweepEveryTicks = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("zero sweep period accepted")
	}
}

func TestBrainConfigCarriesCapacities(t *testing.T) {
	cfg := Default()
	cfg.Brain.EpisodicCapacity = 25
	cfg.Brain.ConfidenceThreshold = 7

	bc := cfg.BrainConfig()
	if bc.EpisodicCapacity != 25 || bc.ConfidenceThreshold != 7 {
		t.Fatalf("capacities not carried: %+v", bc)
	}
	if err := bc.Validate(); err != nil {
		t.Fatalf("derived brain config invalid: %v", err)
	}
}
