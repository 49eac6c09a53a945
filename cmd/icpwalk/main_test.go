package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseGrid(t *testing.T) {
	name, values, err := parseGrid("feedback_parallel_gain=1.5, 2,3")
	if err != nil {
		t.Fatal(err)
	}
	if name != "feedback_parallel_gain" {
		t.Errorf("name = %q", name)
	}
	if diff := cmp.Diff([]float64{1.5, 2, 3}, values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"gain", "=1,2", "gain=", "gain=1,x"} {
		if _, _, err := parseGrid(bad); err == nil {
			t.Errorf("parseGrid(%q) should fail", bad)
		}
	}
}
