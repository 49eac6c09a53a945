package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/icpopt"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/walking"
	"gonum.org/v1/gonum/spatial/r2"
)

func testResult() *sim.Result {
	return &sim.Result{
		States: []sim.State{
			{0, 0, 0, 0},
			{0.001, 0, 0.01, 0},
		},
		Controls: []sim.Control{
			{-0.02, 0, 30, 0},
		},
		Times: []float64{0.0, 0.004},
		Metrics: map[string]float64{
			"icp_rms": 0.015,
		},
	}
}

func testMeta() RunMetadata {
	return RunMetadata{
		Scenario:   "push",
		Seed:       42,
		Dt:         0.004,
		Duration:   0.004,
		Integrator: "rk4",
		Parameters: icpopt.DefaultParameters(),
		Footsteps: Footprints([]footstep.Footstep{
			{Side: footstep.Left, Pose: geometry.Pose2{X: 0.3, Y: 0.1}},
		}),
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st, tmpDir
}

func TestStoreSaveLoad(t *testing.T) {
	st, _ := newTestStore(t)

	runID, err := st.Save(testMeta(), testResult(), nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Scenario != "push" {
		t.Errorf("expected scenario 'push', got '%s'", meta.Scenario)
	}

	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}

	if meta.Metrics["icp_rms"] != 0.015 {
		t.Errorf("expected icp_rms 0.015, got %f", meta.Metrics["icp_rms"])
	}

	if meta.Parameters != icpopt.DefaultParameters() {
		t.Error("parameters did not round trip")
	}

	if len(meta.Footsteps) != 1 || meta.Footsteps[0].Side != "left" {
		t.Errorf("footsteps = %+v", meta.Footsteps)
	}

	states, controls, times, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}

	if len(states) != 2 || len(controls) != 2 || len(times) != 2 {
		t.Fatalf("expected 2 rows, got %d states %d controls %d times", len(states), len(controls), len(times))
	}

	if states[1][2] != 0.01 || controls[0][2] != 30 || times[1] != 0.004 {
		t.Errorf("unexpected row values %v %v %v", states[1], controls[0], times)
	}

	if controls[1][0] != 0 {
		t.Errorf("the last row has no control, got %v", controls[1])
	}
}

func TestStoreList(t *testing.T) {
	st, _ := newTestStore(t)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for i := 0; i < 2; i++ {
		if _, err := st.Save(testMeta(), testResult(), nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID == runs[1].ID {
		t.Error("run ids should be unique")
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = %v, %v", runs, err)
	}
}

func TestStoreLoadUnknownRun(t *testing.T) {
	st, _ := newTestStore(t)
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, _, _, err := st.LoadStates("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	st, tmpDir := newTestStore(t)

	trace := []walking.Sample{
		{Time: 0, Phase: icpopt.Standing, Footstep: geometry.NaNVec(), SwingTime: math.NaN()},
		{Time: 0.004, Phase: icpopt.SingleSupport, ICP: r2.Vec{X: 0.01}, Footstep: r2.Vec{X: 0.3, Y: 0.1}, Adjusted: true, SwingTime: 0.6, QPIterations: 2},
	}
	runID, err := st.Save(testMeta(), testResult(), trace)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "states.csv", "trace.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	columns, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if got := columns["phase"]; len(got) != 2 || got[1] != icpopt.SingleSupport.String() {
		t.Errorf("phase column = %v", got)
	}
	if got := columns["step_x"]; got[0] != "NaN" || got[1] != "0.300000" {
		t.Errorf("step_x column = %v", got)
	}
	if got := columns["adjusted"]; got[1] != "true" {
		t.Errorf("adjusted column = %v", got)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testMeta(), testResult()); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatal(err)
	}
	if data.Steps != 2 || data.Scenario != "push" || len(data.Controls) != 1 || len(data.Footsteps) != 1 {
		t.Errorf("unexpected export %+v", data)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, testMeta(), testResult()); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("export file missing: %v", err)
	}
}
