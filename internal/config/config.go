// Package config loads the simulation tuning from YAML with sane defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/micro-minds/internal/brain"
)

// Config is the top-level tuning file.
type Config struct {
	Seed int64 `yaml:"seed"` // 0 = random master seed

	World struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"world"`

	Population struct {
		Initial int `yaml:"initial"`
	} `yaml:"population"`

	Engine struct {
		TickIntervalMs  int     `yaml:"tick_interval_ms"`
		Speed           float64 `yaml:"speed"`
		SweepEveryTicks uint64  `yaml:"sweep_every_ticks"`
	} `yaml:"engine"`

	Brain struct {
		EpisodicCapacity    int     `yaml:"episodic_capacity"`
		MaxPeers            int     `yaml:"max_peers"`
		MaxEventsPerPeer    int     `yaml:"max_events_per_peer"`
		BatchSize           int     `yaml:"batch_size"`
		TargetSyncTicks     uint64  `yaml:"target_sync_ticks"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
		QTableSoftCap       int     `yaml:"q_table_soft_cap"`
	} `yaml:"brain"`

	DB struct {
		Path string `yaml:"path"`
	} `yaml:"db"`

	API struct {
		Port int `yaml:"port"`
	} `yaml:"api"`
}

// Default returns the standard tuning.
func Default() Config {
	var c Config
	c.World.Width = 64
	c.World.Height = 64
	c.Population.Initial = 100
	c.Engine.TickIntervalMs = 250
	c.Engine.Speed = 1.0
	c.Engine.SweepEveryTicks = 100
	bc := brain.DefaultConfig()
	c.Brain.EpisodicCapacity = bc.EpisodicCapacity
	c.Brain.MaxPeers = bc.MaxPeers
	c.Brain.MaxEventsPerPeer = bc.MaxEventsPerPeer
	c.Brain.BatchSize = bc.BatchSize
	c.Brain.TargetSyncTicks = bc.TargetSyncTicks
	c.Brain.ConfidenceThreshold = bc.ConfidenceThreshold
	c.Brain.QTableSoftCap = bc.QTableSoftCap
	c.DB.Path = "data/colony.db"
	c.API.Port = 8080
	return c
}

// Load reads a YAML config file over the defaults. A missing file is not
// an error — the defaults stand.
func Load(path string) (Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate rejects tunings the simulation cannot run on. Brain capacity
// errors surface as the cognitive engine's configuration error kind.
func (c Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("config: world size %dx%d invalid", c.World.Width, c.World.Height)
	}
	if c.Population.Initial <= 0 {
		return fmt.Errorf("config: initial population %d invalid", c.Population.Initial)
	}
	if c.Engine.SweepEveryTicks == 0 {
		return fmt.Errorf("config: sweep period must be positive")
	}
	if err := c.BrainConfig().Validate(); err != nil {
		return err
	}
	return nil
}

// BrainConfig converts the file's brain section to the engine's capacity
// config. Genome-derived fields (alpha, epsilon) carry placeholder values
// here; each agent overwrites them from its genome.
func (c Config) BrainConfig() brain.Config {
	bc := brain.DefaultConfig()
	bc.EpisodicCapacity = c.Brain.EpisodicCapacity
	bc.MaxPeers = c.Brain.MaxPeers
	bc.MaxEventsPerPeer = c.Brain.MaxEventsPerPeer
	bc.BatchSize = c.Brain.BatchSize
	bc.TargetSyncTicks = c.Brain.TargetSyncTicks
	bc.ConfidenceThreshold = c.Brain.ConfidenceThreshold
	bc.QTableSoftCap = c.Brain.QTableSoftCap
	return bc
}
