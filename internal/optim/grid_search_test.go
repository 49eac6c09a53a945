package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/icpwalk/internal/config"
	"github.com/san-kum/icpwalk/internal/metrics"
)

func standingConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Scenario.Steps = 0
	cfg.Sim.Duration = 0.4
	return cfg
}

func TestApply(t *testing.T) {
	base := config.DefaultConfig()
	cfg, err := Apply(base, map[string]float64{"feedback_parallel_gain": 2.5, "forward_footstep_weight": 3})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Controller.FeedbackParallelGain != 2.5 || cfg.Controller.ForwardFootstepWeight != 3 {
		t.Errorf("parameters not applied: %+v", cfg.Controller)
	}
	if base.Controller.FeedbackParallelGain == 2.5 {
		t.Error("Apply should not modify the base config")
	}

	if _, err := Apply(base, map[string]float64{"kp": 1}); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestTunableNames(t *testing.T) {
	names := TunableNames()
	if len(names) != len(Tunable) {
		t.Fatalf("got %d names for %d tunables", len(names), len(Tunable))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestGridSearchPicksFeasiblePoint(t *testing.T) {
	// a negative weight fails validation, so only the other value can win
	g := NewGridSearch([]string{"forward_footstep_weight"}, [][]float64{{-1, 5}}, nil)
	params, best, err := g.Search(context.Background(), standingConfig(), metrics.NameFeedbackEffort)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if params["forward_footstep_weight"] != 5 {
		t.Errorf("best params = %v", params)
	}
	if best < 0 {
		t.Errorf("effort should not be negative, got %f", best)
	}
}

func TestGridSearchErrors(t *testing.T) {
	ctx := context.Background()

	if _, _, err := NewGridSearch([]string{"kp"}, [][]float64{{1}}, nil).Search(ctx, standingConfig(), metrics.NameICPRMS); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}

	infeasible := NewGridSearch([]string{"dynamic_relaxation_weight"}, [][]float64{{-1}}, nil)
	if _, _, err := infeasible.Search(ctx, standingConfig(), metrics.NameICPRMS); !errors.Is(err, ErrNoFeasibleRun) {
		t.Errorf("expected ErrNoFeasibleRun, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, _, err := NewGridSearch([]string{"forward_footstep_weight"}, [][]float64{{1}}, nil).Search(cancelled, standingConfig(), metrics.NameICPRMS); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
