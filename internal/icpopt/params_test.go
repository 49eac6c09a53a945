package icpopt

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
)

func TestValidateReportsViolationsInOrder(t *testing.T) {
	p := DefaultParameters()
	p.ForwardFootstepWeight = -1
	p.GradientThreshold = math.NaN()
	p.FeedbackParallelGain = 0
	p.Gravity = -9.81
	p.DefaultSwingSplitFraction = 2

	want := []string{"forward footstep weight", "gradient threshold", "feedback parallel gain", "gravity", "swing split fraction"}
	var first []string
	for run := 0; run < 20; run++ {
		errs := multierr.Errors(p.Validate())
		if len(errs) != len(want) {
			t.Fatalf("run %d: %d violations, want %d: %v", run, len(errs), len(want), errs)
		}
		got := make([]string, len(errs))
		for i, err := range errs {
			got[i] = err.Error()
		}
		if first == nil {
			for i, name := range want {
				if !strings.Contains(got[i], name) {
					t.Errorf("violation %d = %q, want %s", i, got[i], name)
				}
			}
			first = got
			continue
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Fatalf("run %d: order changed (-first +got):\n%s", run, diff)
		}
	}

	if err := DefaultParameters().Validate(); err != nil {
		t.Errorf("default parameters: %v", err)
	}
}
