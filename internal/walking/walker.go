package walking

import (
	"math"

	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/icpopt"
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/sim"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

const phaseEndTolerance = 1e-9

// Sample is one control tick as seen by the walker.
type Sample struct {
	Time         float64
	Phase        icpopt.Phase
	ICP          r2.Vec
	ReferenceICP r2.Vec
	CMP          r2.Vec
	CMPDelta     r2.Vec
	Force        r2.Vec
	// Footstep is the first footstep solution while a step is planned, NaN otherwise.
	Footstep     r2.Vec
	Adjusted     bool
	SwingTime    float64
	QPIterations int
}

type WalkerOption func(*Walker)

func WithLogger(logger *zap.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithPushes(pushes *PushSchedule) WalkerOption {
	return func(w *Walker) { w.pushes = pushes }
}

// WithStandDuration sets how long the walker stands before the first step.
func WithStandDuration(d float64) WalkerOption {
	return func(w *Walker) { w.standDuration = d }
}

func WithFinalTransferDuration(d float64) WalkerOption {
	return func(w *Walker) { w.finalTransfer = d }
}

// WithLookahead bounds how many upcoming steps are handed to the controller.
func WithLookahead(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.lookahead = n
		}
	}
}

// Walker sequences a footstep plan through an icpopt.Controller and
// implements sim.Controller for a models.LinearInvertedPendulum. The
// control it returns is the desired CMP followed by the push force.
//
// A Walker holds the state of one run and is not safe for concurrent use.
type Walker struct {
	ctrl   *icpopt.Controller
	feet   feetTracker
	omega  float64
	logger *zap.Logger
	pushes *PushSchedule

	standDuration float64
	finalTransfer float64
	lookahead     int

	remaining []Step
	landed    []footstep.Footstep
	trace     []Sample

	started    bool
	phaseStart float64
	phaseDone  bool
}

// feetTracker is the part of the foot tracker the walker moves.
type feetTracker interface {
	icpopt.SupportGeometry
	PlaceFoot(step footstep.Footstep) error
	SetContact(side footstep.Side, inContact bool)
	SupportPolygon() *geometry.ConvexPolygon
}

func NewWalker(ctrl *icpopt.Controller, feet feetTracker, omega float64, steps []Step, opts ...WalkerOption) *Walker {
	w := &Walker{
		ctrl:          ctrl,
		feet:          feet,
		omega:         omega,
		logger:        zap.NewNop(),
		standDuration: 0.5,
		finalTransfer: 0.5,
		lookahead:     3,
		remaining:     append([]Step(nil), steps...),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Walker) Compute(x sim.State, t float64) sim.Control {
	icp := r2.Vec{X: x[models.ICPX], Y: x[models.ICPY]}

	w.advance(t)
	desired, velocity := w.desiredICP()
	w.ctrl.Compute(t, desired, velocity, icp, w.omega)
	w.phaseDone = w.ctrl.Phase() != icpopt.Standing && w.ctrl.TimeRemainingInState() <= phaseEndTolerance

	cmp := w.ctrl.DesiredCMP()
	force := w.pushes.ForceAt(t)
	w.record(t, icp, cmp, force)

	return sim.Control{cmp.X, cmp.Y, force.X, force.Y}
}

func (w *Walker) advance(t float64) {
	if !w.started {
		w.started = true
		w.ctrl.SetFinalTransferDuration(w.finalTransfer)
		w.ctrl.InitializeForStanding(t)
		w.phaseStart = t
		return
	}

	switch w.ctrl.Phase() {
	case icpopt.Standing:
		if len(w.remaining) > 0 && t-w.phaseStart >= w.standDuration-phaseEndTolerance {
			w.startTransfer(t, w.remaining[0].Side.Opposite())
		}
	case icpopt.Transfer:
		if !w.phaseDone {
			return
		}
		if len(w.remaining) == 0 {
			w.stand(t)
			return
		}
		w.startSwing(t)
	case icpopt.SingleSupport:
		if w.phaseDone {
			w.touchDown(t)
		}
	}
}

func (w *Walker) submitPlan() {
	w.ctrl.ClearPlan()
	for i := 0; i < len(w.remaining) && i < w.lookahead; i++ {
		w.ctrl.AddFootstepToPlan(w.remaining[i].Footstep, w.remaining[i].Timing)
	}
	w.ctrl.SetFinalTransferDuration(w.finalTransfer)
}

func (w *Walker) startTransfer(t float64, to footstep.Side) {
	w.submitPlan()
	w.ctrl.InitializeForTransfer(t, to, w.omega)
	w.enter(t)
}

func (w *Walker) startSwing(t float64) {
	swing := w.remaining[0].Side
	w.feet.SetContact(swing, false)
	w.ctrl.InitializeForSingleSupport(t, swing.Opposite(), w.omega)
	w.enter(t)
}

func (w *Walker) stand(t float64) {
	w.ctrl.ClearPlan()
	w.ctrl.InitializeForStanding(t)
	w.enter(t)
}

func (w *Walker) enter(t float64) {
	w.phaseStart = t
	w.phaseDone = false
	w.logger.Debug("phase change",
		zap.Float64("time", t),
		zap.Stringer("phase", w.ctrl.Phase()),
		zap.Int("remainingSteps", len(w.remaining)))
}

// touchDown lands the swing foot on the first footstep solution.
func (w *Walker) touchDown(t float64) {
	step := w.remaining[0].Footstep
	nominal := step.Position()
	if solution := w.ctrl.FootstepSolution(0); geometry.IsFiniteVec(solution) {
		step.Pose.X, step.Pose.Y = solution.X, solution.Y
	}
	if err := w.feet.PlaceFoot(step); err != nil {
		w.logger.Error("could not land footstep, using the nominal one", zap.Stringer("footstep", step), zap.Error(err))
		step = w.remaining[0].Footstep
		if err := w.feet.PlaceFoot(step); err != nil {
			w.logger.Error("could not land nominal footstep", zap.Error(err))
		}
	}
	w.logger.Info("touchdown",
		zap.Float64("time", t),
		zap.Stringer("footstep", step),
		zap.Float64("adjustment", r2.Norm(r2.Sub(step.Position(), nominal))))

	w.landed = append(w.landed, step)
	w.remaining = w.remaining[1:]
	w.startTransfer(t, step.Side)
}

// desiredICP is the support centroid while standing and the last reference otherwise.
func (w *Walker) desiredICP() (r2.Vec, r2.Vec) {
	if w.ctrl.Phase() == icpopt.Standing {
		return w.feet.SupportPolygon().Centroid(), r2.Vec{}
	}
	return w.ctrl.ReferenceICP(), w.ctrl.ReferenceICPVelocity()
}

func (w *Walker) record(t float64, icp, cmp, force r2.Vec) {
	s := Sample{
		Time:         t,
		Phase:        w.ctrl.Phase(),
		ICP:          icp,
		ReferenceICP: w.ctrl.ReferenceICP(),
		CMP:          cmp,
		CMPDelta:     w.ctrl.DesiredCMPDelta(),
		Force:        force,
		Footstep:     geometry.NaNVec(),
		SwingTime:    math.NaN(),
		QPIterations: w.ctrl.QPIterations(),
	}
	if w.ctrl.NumberOfRegisteredFootsteps() > 0 {
		s.Footstep = w.ctrl.FootstepSolution(0)
		s.Adjusted = w.ctrl.WasFootstepAdjusted()
	}
	if s.Phase == icpopt.SingleSupport {
		s.SwingTime = w.ctrl.SwingDuration(0)
	}
	w.trace = append(w.trace, s)
}

func (w *Walker) Controller() *icpopt.Controller { return w.ctrl }

// Trace returns every recorded tick in order.
func (w *Walker) Trace() []Sample { return w.trace }

// Landed returns the footsteps as they were actually placed.
func (w *Walker) Landed() []footstep.Footstep { return w.landed }

func (w *Walker) RemainingSteps() int { return len(w.remaining) }

// Done reports whether every step has landed and the walker stands again.
func (w *Walker) Done() bool {
	return w.started && len(w.remaining) == 0 && w.ctrl.Phase() == icpopt.Standing
}
