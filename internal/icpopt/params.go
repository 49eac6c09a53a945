package icpopt

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/spatial/r2"
)

// MaxFootstepsToConsider bounds MaximumNumberOfFootstepsToConsider.
const MaxFootstepsToConsider = 8

// MaxPolygonVertices bounds the vertices of a constraint polygon handed to the QP.
const MaxPolygonVertices = 16

// Parameters configures a Controller. It is copied at construction and
// never changed afterwards; runtime weight updates go through the
// controller setters.
type Parameters struct {
	NumberOfFootstepsToConsider        int  `yaml:"number_of_footsteps_to_consider"`
	MaximumNumberOfFootstepsToConsider int  `yaml:"maximum_number_of_footsteps_to_consider"`
	UseStepAdjustment                  bool `yaml:"use_step_adjustment"`
	UseAngularMomentum                 bool `yaml:"use_angular_momentum"`
	UseTwoCMPsPerSupport               bool `yaml:"use_two_cmps_per_support"`
	UseFootstepRegularization          bool `yaml:"use_footstep_regularization"`
	UseFeedbackRegularization          bool `yaml:"use_feedback_regularization"`
	ScaleStepRegularizationWithTime    bool `yaml:"scale_step_regularization_with_time"`
	ScaleFeedbackWeightWithGain        bool `yaml:"scale_feedback_weight_with_gain"`
	ScaleUpcomingStepWeights           bool `yaml:"scale_upcoming_step_weights"`
	AllowAdjustmentInTransfer          bool `yaml:"allow_adjustment_in_transfer"`
	AdjustSwingTiming                  bool `yaml:"adjust_swing_timing"`

	// Weights of the footstep adjustment, forward and lateral in the support sole frame.
	ForwardFootstepWeight        float64 `yaml:"forward_footstep_weight"`
	LateralFootstepWeight        float64 `yaml:"lateral_footstep_weight"`
	FootstepRegularizationWeight float64 `yaml:"footstep_regularization_weight"`

	// Weights of the CMP feedback, forward and lateral in the support sole frame.
	FeedbackForwardWeight        float64 `yaml:"feedback_forward_weight"`
	FeedbackLateralWeight        float64 `yaml:"feedback_lateral_weight"`
	FeedbackRegularizationWeight float64 `yaml:"feedback_regularization_weight"`

	// Feedback gains parallel and orthogonal to the desired ICP velocity.
	FeedbackParallelGain   float64 `yaml:"feedback_parallel_gain"`
	FeedbackOrthogonalGain float64 `yaml:"feedback_orthogonal_gain"`

	DynamicRelaxationWeight                      float64 `yaml:"dynamic_relaxation_weight"`
	DynamicRelaxationDoubleSupportWeightModifier float64 `yaml:"dynamic_relaxation_double_support_weight_modifier"`
	AngularMomentumMinimizationWeight            float64 `yaml:"angular_momentum_minimization_weight"`

	MinimumTimeRemaining float64 `yaml:"minimum_time_remaining"`
	SwingSpeedUpEnabled  bool    `yaml:"swing_speed_up_enabled"`

	DefaultSwingSplitFraction    float64 `yaml:"default_swing_split_fraction"`
	DefaultTransferSplitFraction float64 `yaml:"default_transfer_split_fraction"`

	UseDifferentSplitRatioForBigAdjustment  bool    `yaml:"use_different_split_ratio_for_big_adjustment"`
	MagnitudeForBigAdjustment               float64 `yaml:"magnitude_for_big_adjustment"`
	TransferSplitFractionUnderDisturbance   float64 `yaml:"transfer_split_fraction_under_disturbance"`
	MinimumTimeOnInitialCMPForBigAdjustment float64 `yaml:"minimum_time_on_initial_cmp_for_big_adjustment"`

	ControlDT float64 `yaml:"control_dt"`
	Mass      float64 `yaml:"mass"`
	Gravity   float64 `yaml:"gravity"`

	// Adjustments shorter than the deadband are not applied; solution
	// changes shorter than the resolution are ignored.
	FootstepDeadband           float64 `yaml:"footstep_deadband"`
	FootstepSolutionResolution float64 `yaml:"footstep_solution_resolution"`

	CoPSafeDistance float64 `yaml:"cop_safe_distance"`

	// Reachable region of the swing foot in the support sole frame.
	MaximumStepForward       float64 `yaml:"maximum_step_forward"`
	MaximumStepBackward      float64 `yaml:"maximum_step_backward"`
	MinimumStepWidth         float64 `yaml:"minimum_step_width"`
	MaximumStepWidth         float64 `yaml:"maximum_step_width"`
	ReachabilitySafeDistance float64 `yaml:"reachability_safe_distance"`

	// CMP offsets from the sole origin in sole frame, used with two CMPs per support.
	EntryCMPOffset r2.Vec `yaml:"entry_cmp_offset"`
	ExitCMPOffset  r2.Vec `yaml:"exit_cmp_offset"`

	MaxQPIterations int `yaml:"max_qp_iterations"`

	// Swing timing search.
	SwingDurationVariation   float64 `yaml:"swing_duration_variation"`
	TimingAdjustmentCost     float64 `yaml:"timing_adjustment_cost"`
	QuadraticCostScaleFactor float64 `yaml:"quadratic_cost_scale_factor"`
	GradientThreshold        float64 `yaml:"gradient_threshold"`
	GradientGain             float64 `yaml:"gradient_gain"`
	NumberOfIterations       int     `yaml:"number_of_iterations"`

	ReconstructCMPFromUnclipped bool `yaml:"reconstruct_cmp_from_unclipped"`
	ComputeCostToGo             bool `yaml:"compute_cost_to_go"`
	Debug                       bool `yaml:"debug"`
}

func DefaultParameters() Parameters {
	return Parameters{
		NumberOfFootstepsToConsider:        1,
		MaximumNumberOfFootstepsToConsider: 5,
		UseStepAdjustment:                  true,
		UseFootstepRegularization:          true,
		UseFeedbackRegularization:          true,
		ScaleStepRegularizationWithTime:    true,
		ScaleFeedbackWeightWithGain:        true,
		ScaleUpcomingStepWeights:           true,
		AdjustSwingTiming:                  true,

		ForwardFootstepWeight:        5.0,
		LateralFootstepWeight:        10.0,
		FootstepRegularizationWeight: 0.001,

		FeedbackForwardWeight:        0.5,
		FeedbackLateralWeight:        0.5,
		FeedbackRegularizationWeight: 0.0001,

		FeedbackParallelGain:   2.0,
		FeedbackOrthogonalGain: 3.0,

		DynamicRelaxationWeight:                      1000.0,
		DynamicRelaxationDoubleSupportWeightModifier: 4.0,
		AngularMomentumMinimizationWeight:            50.0,

		MinimumTimeRemaining: 0.001,

		DefaultSwingSplitFraction:    0.5,
		DefaultTransferSplitFraction: 0.5,

		MagnitudeForBigAdjustment:               0.2,
		TransferSplitFractionUnderDisturbance:   0.25,
		MinimumTimeOnInitialCMPForBigAdjustment: 0.1,

		ControlDT: 0.004,
		Mass:      100.0,
		Gravity:   9.81,

		FootstepDeadband:           0.02,
		FootstepSolutionResolution: 0.015,

		CoPSafeDistance: 0.01,

		MaximumStepForward:       0.6,
		MaximumStepBackward:      0.3,
		MinimumStepWidth:         0.1,
		MaximumStepWidth:         0.5,
		ReachabilitySafeDistance: 0.0,

		EntryCMPOffset: r2.Vec{X: -0.03},
		ExitCMPOffset:  r2.Vec{X: 0.04},

		MaxQPIterations: 100,

		SwingDurationVariation:   0.01,
		TimingAdjustmentCost:     100.0,
		QuadraticCostScaleFactor: 100.0,
		GradientThreshold:        1.0,
		GradientGain:             0.5,
		NumberOfIterations:       30,

		ReconstructCMPFromUnclipped: true,
		ComputeCostToGo:             true,
	}
}

type namedValue struct {
	name  string
	value float64
}

// Validate reports every inconsistent setting at once.
func (p Parameters) Validate() error {
	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, errors.Wrapf(ErrInvalidParameters, format, args...))
	}

	if p.MaximumNumberOfFootstepsToConsider < 1 || p.MaximumNumberOfFootstepsToConsider > MaxFootstepsToConsider {
		fail("maximum number of footsteps %d outside [1, %d]", p.MaximumNumberOfFootstepsToConsider, MaxFootstepsToConsider)
	}
	if p.NumberOfFootstepsToConsider < 0 {
		fail("negative number of footsteps to consider %d", p.NumberOfFootstepsToConsider)
	}

	nonNegative := []namedValue{
		{"forward footstep weight", p.ForwardFootstepWeight},
		{"lateral footstep weight", p.LateralFootstepWeight},
		{"footstep regularization weight", p.FootstepRegularizationWeight},
		{"feedback forward weight", p.FeedbackForwardWeight},
		{"feedback lateral weight", p.FeedbackLateralWeight},
		{"feedback regularization weight", p.FeedbackRegularizationWeight},
		{"angular momentum weight", p.AngularMomentumMinimizationWeight},
		{"footstep deadband", p.FootstepDeadband},
		{"footstep solution resolution", p.FootstepSolutionResolution},
		{"cop safe distance", p.CoPSafeDistance},
		{"reachability safe distance", p.ReachabilitySafeDistance},
		{"minimum step width", p.MinimumStepWidth},
		{"maximum step backward", p.MaximumStepBackward},
		{"timing adjustment cost", p.TimingAdjustmentCost},
		{"minimum time on initial cmp", p.MinimumTimeOnInitialCMPForBigAdjustment},
		{"magnitude for big adjustment", p.MagnitudeForBigAdjustment},
		{"gradient threshold", p.GradientThreshold},
	}
	for _, v := range nonNegative {
		if math.IsNaN(v.value) || v.value < 0 {
			fail("%s must be non-negative, got %v", v.name, v.value)
		}
	}

	positive := []namedValue{
		{"feedback parallel gain", p.FeedbackParallelGain},
		{"feedback orthogonal gain", p.FeedbackOrthogonalGain},
		{"dynamic relaxation weight", p.DynamicRelaxationWeight},
		{"dynamic relaxation modifier", p.DynamicRelaxationDoubleSupportWeightModifier},
		{"minimum time remaining", p.MinimumTimeRemaining},
		{"control dt", p.ControlDT},
		{"mass", p.Mass},
		{"gravity", p.Gravity},
		{"maximum step forward", p.MaximumStepForward},
		{"swing duration variation", p.SwingDurationVariation},
		{"quadratic cost scale factor", p.QuadraticCostScaleFactor},
		{"gradient gain", p.GradientGain},
	}
	for _, v := range positive {
		if math.IsNaN(v.value) || v.value <= 0 {
			fail("%s must be positive, got %v", v.name, v.value)
		}
	}

	if p.MaximumStepWidth <= p.MinimumStepWidth {
		fail("maximum step width %v not above minimum %v", p.MaximumStepWidth, p.MinimumStepWidth)
	}
	for _, v := range []namedValue{
		{"swing split fraction", p.DefaultSwingSplitFraction},
		{"transfer split fraction", p.DefaultTransferSplitFraction},
		{"split fraction under disturbance", p.TransferSplitFractionUnderDisturbance},
	} {
		if math.IsNaN(v.value) || v.value < 0 || v.value > 1 {
			fail("%s %v outside [0, 1]", v.name, v.value)
		}
	}
	if p.MaxQPIterations < 1 {
		fail("max qp iterations %d below 1", p.MaxQPIterations)
	}
	if p.NumberOfIterations < 1 {
		fail("number of timing iterations %d below 1", p.NumberOfIterations)
	}
	return errs
}
