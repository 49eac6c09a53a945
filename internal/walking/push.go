package walking

import (
	"math"
	"math/rand"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
)

// Push is a constant horizontal force on the centre of mass over
// [Start, Start+Duration).
type Push struct {
	Start    float64 `yaml:"start" json:"start"`
	Duration float64 `yaml:"duration" json:"duration"`
	Force    r2.Vec  `yaml:"force" json:"force"`
}

func (p Push) Active(t float64) bool {
	return t >= p.Start && t < p.Start+p.Duration
}

func (p Push) Validate() error {
	if math.IsNaN(p.Start) || p.Start < 0 || !(p.Duration > 0) || math.IsInf(p.Duration, 0) {
		return errors.Wrapf(ErrInvalidPush, "window [%v, +%v)", p.Start, p.Duration)
	}
	if math.IsNaN(p.Force.X) || math.IsNaN(p.Force.Y) || math.IsInf(p.Force.X, 0) || math.IsInf(p.Force.Y, 0) {
		return errors.Wrapf(ErrInvalidPush, "force %v", p.Force)
	}
	return nil
}

// PushSchedule sums every push active at a given time.
type PushSchedule struct {
	pushes []Push
}

func NewPushSchedule(pushes ...Push) (*PushSchedule, error) {
	s := &PushSchedule{pushes: make([]Push, 0, len(pushes))}
	for _, p := range pushes {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		s.pushes = append(s.pushes, p)
	}
	sort.Slice(s.pushes, func(i, j int) bool { return s.pushes[i].Start < s.pushes[j].Start })
	return s, nil
}

func (s *PushSchedule) ForceAt(t float64) r2.Vec {
	var f r2.Vec
	if s == nil {
		return f
	}
	for _, p := range s.pushes {
		if p.Start > t {
			break
		}
		if p.Active(t) {
			f = r2.Add(f, p.Force)
		}
	}
	return f
}

func (s *PushSchedule) Pushes() []Push {
	if s == nil {
		return nil
	}
	return s.pushes
}

// RandomPushes draws n pushes with start times uniform in [from, to),
// directions uniform on the circle and magnitudes uniform in
// [maxForce/2, maxForce]. The same seed always gives the same pushes.
func RandomPushes(seed int64, n int, maxForce, duration, from, to float64) []Push {
	rng := rand.New(rand.NewSource(seed))
	pushes := make([]Push, 0, n)
	for i := 0; i < n; i++ {
		start := from + rng.Float64()*(to-from)
		angle := rng.Float64() * 2 * math.Pi
		magnitude := maxForce * (0.5 + 0.5*rng.Float64())
		pushes = append(pushes, Push{
			Start:    start,
			Duration: duration,
			Force:    r2.Vec{X: magnitude * math.Cos(angle), Y: magnitude * math.Sin(angle)},
		})
	}
	return pushes
}
