package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/icpopt"
	"github.com/san-kum/icpwalk/internal/integrators"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/walking"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("config: invalid")

const (
	DefaultDt        = 0.004
	DefaultDuration  = 6.0
	DefaultCoMHeight = 0.9
)

// Config describes one walking run: the simulation, the scenario walked and
// the controller parameters.
type Config struct {
	Name       string            `yaml:"name"`
	Integrator string            `yaml:"integrator"`
	Sim        sim.Config        `yaml:"sim"`
	Scenario   ScenarioConfig    `yaml:"scenario"`
	Controller icpopt.Parameters `yaml:"controller"`
}

type ScenarioConfig struct {
	Steps      int             `yaml:"steps"`
	StepLength float64         `yaml:"step_length"`
	StepWidth  float64         `yaml:"step_width"`
	FirstSide  string          `yaml:"first_side"`
	Timing     footstep.Timing `yaml:"timing"`

	StandDuration         float64 `yaml:"stand_duration"`
	FinalTransferDuration float64 `yaml:"final_transfer_duration"`
	Lookahead             int     `yaml:"lookahead"`

	CoMHeight  float64 `yaml:"com_height"`
	FootLength float64 `yaml:"foot_length"`
	FootWidth  float64 `yaml:"foot_width"`

	// CaptureMargin is how far outside the support polygon the ICP still counts as captured.
	CaptureMargin float64            `yaml:"capture_margin"`
	Pushes        []walking.Push     `yaml:"pushes,omitempty"`
	RandomPushes  RandomPushesConfig `yaml:"random_pushes"`
}

// RandomPushesConfig draws Count pushes from the run seed.
type RandomPushesConfig struct {
	Count    int     `yaml:"count"`
	MaxForce float64 `yaml:"max_force"`
	Duration float64 `yaml:"duration"`
	From     float64 `yaml:"from"`
	To       float64 `yaml:"to"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "walk",
		Integrator: "rk4",
		Sim: sim.Config{
			Dt:            DefaultDt,
			Duration:      DefaultDuration,
			ValidateState: true,
		},
		Scenario: ScenarioConfig{
			Steps:                 4,
			StepLength:            0.3,
			StepWidth:             0.2,
			FirstSide:             footstep.Left.String(),
			Timing:                footstep.NewTiming(0.6, 0.25),
			StandDuration:         0.5,
			FinalTransferDuration: 0.5,
			Lookahead:             3,
			CoMHeight:             DefaultCoMHeight,
			FootLength:            0.2,
			FootWidth:             0.1,
			CaptureMargin:         0.02,
		},
		Controller: icpopt.DefaultParameters(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ControllerParameters returns the controller parameters ticking at the simulation rate.
func (c *Config) ControllerParameters() icpopt.Parameters {
	p := c.Controller
	p.ControlDT = c.Sim.Dt
	return p
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Scenario.Pushes = append([]walking.Push(nil), c.Scenario.Pushes...)
	return &out
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, errors.Wrapf(ErrInvalidConfig, format, args...))
	}

	if _, err := integrators.New(c.Integrator); err != nil {
		fail("%v", err)
	}
	if !(c.Sim.Dt > 0) || !(c.Sim.Duration > 0) {
		fail("dt %v and duration %v must be positive", c.Sim.Dt, c.Sim.Duration)
	}

	s := c.Scenario
	if s.Steps < 0 {
		fail("negative step count %d", s.Steps)
	}
	if _, err := footstep.ParseSide(s.FirstSide); err != nil {
		fail("%v", err)
	}
	if err := s.Timing.Validate(); err != nil {
		fail("%v", err)
	}
	if s.StandDuration < 0 || !(s.FinalTransferDuration >= 0) {
		fail("stand %v and final transfer %v durations must not be negative", s.StandDuration, s.FinalTransferDuration)
	}
	if !(s.CoMHeight > 0) || !(s.FootLength > 0) || !(s.FootWidth > 0) {
		fail("com height %v and foot size %vx%v must be positive", s.CoMHeight, s.FootLength, s.FootWidth)
	}
	for i, p := range s.Pushes {
		if err := p.Validate(); err != nil {
			fail("push %d: %v", i, err)
		}
	}
	if r := s.RandomPushes; r.Count > 0 && (!(r.Duration > 0) || r.To < r.From || r.From < 0) {
		fail("random pushes need a positive duration and a window, got %+v", r)
	}

	return multierr.Append(errs, c.ControllerParameters().Validate())
}
