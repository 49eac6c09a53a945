package config

import (
	"sort"

	"github.com/san-kum/icpwalk/internal/walking"
	"gonum.org/v1/gonum/spatial/r2"
)

func preset(name string, edit func(c *Config)) *Config {
	c := DefaultConfig()
	c.Name = name
	edit(c)
	return c
}

var Presets = map[string]map[string]*Config{
	"walk": {
		"straight": preset("straight", func(c *Config) {}),
		"long": preset("long", func(c *Config) {
			c.Scenario.Steps = 10
			c.Sim.Duration = 12.0
		}),
		"fast": preset("fast", func(c *Config) {
			c.Scenario.Timing.SwingDuration = 0.4
			c.Scenario.Timing.TransferDuration = 0.1
			c.Scenario.StepLength = 0.25
		}),
		"two_cmp": preset("two_cmp", func(c *Config) {
			c.Controller.UseTwoCMPsPerSupport = true
		}),
	},
	"push": {
		"forward": preset("forward", func(c *Config) {
			c.Scenario.Pushes = []walking.Push{{Start: 1.6, Duration: 0.1, Force: r2.Vec{X: 300}}}
		}),
		"lateral": preset("lateral", func(c *Config) {
			c.Scenario.Pushes = []walking.Push{{Start: 1.6, Duration: 0.1, Force: r2.Vec{Y: 200}}}
		}),
		"no_adjustment": preset("no_adjustment", func(c *Config) {
			c.Scenario.Pushes = []walking.Push{{Start: 1.6, Duration: 0.1, Force: r2.Vec{X: 300}}}
			c.Controller.UseStepAdjustment = false
		}),
		"random": preset("random", func(c *Config) {
			c.Scenario.Steps = 8
			c.Sim.Duration = 10.0
			c.Scenario.RandomPushes = RandomPushesConfig{Count: 3, MaxForce: 250, Duration: 0.1, From: 1.0, To: 7.0}
		}),
		"standing": preset("standing", func(c *Config) {
			c.Scenario.Steps = 0
			c.Sim.Duration = 3.0
			c.Scenario.Pushes = []walking.Push{{Start: 1.0, Duration: 0.1, Force: r2.Vec{X: 50}}}
		}),
	},
}

// GetPreset returns a copy of a named preset, or nil when there is none.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
