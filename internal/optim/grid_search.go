package optim

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/config"
	"github.com/san-kum/icpwalk/internal/experiment"
	"go.uber.org/zap"
)

var (
	ErrUnknownParameter = errors.New("optim: unknown parameter")
	ErrNoFeasibleRun    = errors.New("optim: no run finished")
)

// Tunable maps a parameter name to the controller field it sets.
var Tunable = map[string]func(c *config.Config, v float64){
	"forward_footstep_weight":   func(c *config.Config, v float64) { c.Controller.ForwardFootstepWeight = v },
	"lateral_footstep_weight":   func(c *config.Config, v float64) { c.Controller.LateralFootstepWeight = v },
	"feedback_forward_weight":   func(c *config.Config, v float64) { c.Controller.FeedbackForwardWeight = v },
	"feedback_lateral_weight":   func(c *config.Config, v float64) { c.Controller.FeedbackLateralWeight = v },
	"feedback_parallel_gain":    func(c *config.Config, v float64) { c.Controller.FeedbackParallelGain = v },
	"feedback_orthogonal_gain":  func(c *config.Config, v float64) { c.Controller.FeedbackOrthogonalGain = v },
	"dynamic_relaxation_weight": func(c *config.Config, v float64) { c.Controller.DynamicRelaxationWeight = v },
}

func TunableNames() []string {
	names := make([]string, 0, len(Tunable))
	for name := range Tunable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply returns a copy of base with the named parameters set.
func Apply(base *config.Config, params map[string]float64) (*config.Config, error) {
	cfg := base.Clone()
	for name, v := range params {
		set, ok := Tunable[name]
		if !ok {
			return nil, errors.Wrap(ErrUnknownParameter, name)
		}
		set(cfg, v)
	}
	return cfg, nil
}

// GridSearch evaluates every combination of parameter values and keeps the
// one with the lowest metric.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *zap.Logger
}

func NewGridSearch(params []string, ranges [][]float64, logger *zap.Logger) *GridSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logger}
}

// Search runs base once per grid point. Runs that fail to set up, or that
// do not finish their plan, are skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, errors.Errorf("optim: %d parameters for %d ranges", len(g.paramNames), len(g.ranges))
	}
	for _, name := range g.paramNames {
		if _, ok := Tunable[name]; !ok {
			return nil, 0, errors.Wrap(ErrUnknownParameter, name)
		}
	}

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, ErrNoFeasibleRun
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, ok := g.evaluate(ctx, current, base, metricName)
		if ok && val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) evaluate(ctx context.Context, params map[string]float64, base *config.Config, metricName string) (float64, bool) {
	cfg, err := Apply(base, params)
	if err != nil {
		return 0, false
	}
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		g.logger.Debug("skipping grid point", zap.Any("params", params), zap.Error(err))
		return 0, false
	}
	out, err := exp.Run(ctx)
	if err != nil || !out.Done {
		g.logger.Debug("grid point did not finish", zap.Any("params", params), zap.Error(err))
		return 0, false
	}

	val, ok := out.Result.Metrics[metricName]
	if !ok || math.IsNaN(val) {
		return 0, false
	}
	g.logger.Debug("grid point", zap.Any("params", params), zap.Float64(metricName, val))
	return val, true
}
