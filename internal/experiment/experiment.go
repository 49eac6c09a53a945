package experiment

import (
	"context"
	"errors"

	"github.com/san-kum/icpwalk/internal/config"
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/icpopt"
	"github.com/san-kum/icpwalk/internal/integrators"
	"github.com/san-kum/icpwalk/internal/metrics"
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/storage"
	"github.com/san-kum/icpwalk/internal/support"
	"github.com/san-kum/icpwalk/internal/walking"
	"go.uber.org/zap"
)

var ErrNotSetup = errors.New("experiment: not set up")

type Option func(*Experiment)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Experiment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Experiment is one walking run built from a config.
type Experiment struct {
	cfg    *config.Config
	logger *zap.Logger

	simulator *sim.Simulator
	walker    *walking.Walker
	feet      *support.BipedSupportPolygons
	x0        sim.State
}

// Outcome is everything a finished run produced.
type Outcome struct {
	Result    *sim.Result
	Trace     []walking.Sample
	Footsteps []footstep.Footstep
	Done      bool
}

func New(cfg *config.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:    cfg.Clone(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup builds the feet, the plan, the controller and the simulator.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	sc := e.cfg.Scenario

	feet, err := support.NewBipedSupportPolygons(sc.FootLength, sc.FootWidth)
	if err != nil {
		return err
	}
	planner := walking.Planner{StepLength: sc.StepLength, StepWidth: sc.StepWidth, Timing: sc.Timing}
	start := geometry.Pose2{}
	stance := planner.StanceFeet(start)
	for _, side := range footstep.Sides {
		if err := feet.SetSolePose(side, stance.Get(side)); err != nil {
			return err
		}
	}

	first, err := footstep.ParseSide(sc.FirstSide)
	if err != nil {
		return err
	}
	steps, err := planner.StraightLine(start, sc.Steps, first)
	if err != nil {
		return err
	}

	pushes := append([]walking.Push(nil), sc.Pushes...)
	if r := sc.RandomPushes; r.Count > 0 {
		pushes = append(pushes, walking.RandomPushes(e.cfg.Sim.Seed, r.Count, r.MaxForce, r.Duration, r.From, r.To)...)
	}
	schedule, err := walking.NewPushSchedule(pushes...)
	if err != nil {
		return err
	}

	params := e.cfg.ControllerParameters()
	ctrl, err := icpopt.NewController(params, feet, icpopt.WithLogger(e.logger.Named("icpopt")))
	if err != nil {
		return err
	}

	model := &models.LinearInvertedPendulum{Mass: params.Mass, Height: sc.CoMHeight, Gravity: params.Gravity}
	walker := walking.NewWalker(ctrl, feet, model.Omega(), steps,
		walking.WithLogger(e.logger.Named("walking")),
		walking.WithPushes(schedule),
		walking.WithStandDuration(sc.StandDuration),
		walking.WithFinalTransferDuration(sc.FinalTransferDuration),
		walking.WithLookahead(sc.Lookahead),
	)

	integrator, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return err
	}

	e.simulator = sim.New(model, integrator, walker)
	for _, m := range metrics.ForWalk(ctrl, feet, sc.CaptureMargin) {
		e.simulator.AddMetric(m)
	}

	centre := feet.SupportPolygon().Centroid()
	e.x0 = sim.State{centre.X, centre.Y, centre.X, centre.Y}
	e.walker = walker
	e.feet = feet
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	if e.simulator == nil {
		return nil, ErrNotSetup
	}

	result, err := e.simulator.Run(ctx, e.x0, e.cfg.Sim)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Result:    result,
		Trace:     e.walker.Trace(),
		Footsteps: e.walker.Landed(),
		Done:      e.walker.Done(),
	}
	fields := []zap.Field{
		zap.String("scenario", e.cfg.Name),
		zap.Int("steps", result.StepsTaken),
		zap.Int("footsteps", len(out.Footsteps)),
		zap.Bool("done", out.Done),
	}
	for name, v := range result.Metrics {
		fields = append(fields, zap.Float64(name, v))
	}
	e.logger.Info("run finished", fields...)
	return out, nil
}

// RunStreaming runs the experiment and hands every tick to callback until it returns false.
func (e *Experiment) RunStreaming(ctx context.Context, callback func(x sim.State, u sim.Control, t float64) bool) error {
	if e.simulator == nil {
		return ErrNotSetup
	}
	return e.simulator.RunWithCallback(ctx, e.x0, e.cfg.Sim, callback)
}

// Metadata describes a finished run for storage.
func (e *Experiment) Metadata(out *Outcome) storage.RunMetadata {
	return storage.RunMetadata{
		Scenario:   e.cfg.Name,
		Seed:       e.cfg.Sim.Seed,
		Dt:         e.cfg.Sim.Dt,
		Duration:   e.cfg.Sim.Duration,
		Integrator: e.cfg.Integrator,
		Parameters: e.cfg.ControllerParameters(),
		Footsteps:  storage.Footprints(out.Footsteps),
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }

func (e *Experiment) Walker() *walking.Walker { return e.walker }

func (e *Experiment) Feet() *support.BipedSupportPolygons { return e.feet }

// Factory builds a fresh experiment per seed for sim.Ensemble.
func Factory(cfg *config.Config, logger *zap.Logger) sim.Factory {
	return func(seed int64) (*sim.Simulator, sim.State, error) {
		c := cfg.Clone()
		c.Sim.Seed = seed
		e := New(c, WithLogger(logger))
		if err := e.Setup(); err != nil {
			return nil, nil, err
		}
		return e.simulator, e.x0, nil
	}
}

// RunEnsemble runs the config once per seed in [seedStart, seedStart+runs).
func RunEnsemble(ctx context.Context, cfg *config.Config, runs int, seedStart int64, logger *zap.Logger) ([]*sim.Result, error) {
	return sim.NewEnsemble(Factory(cfg, logger), runs, seedStart).Run(ctx, cfg.Sim)
}
