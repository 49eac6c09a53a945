package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/footstep"
	"github.com/san-kum/icpwalk/internal/geometry"
	"github.com/san-kum/icpwalk/internal/icpopt"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/walking"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	traceFile    = "trace.csv"
)

var (
	stateColumns   = []string{"com_x", "com_y", "icp_x", "icp_y"}
	controlColumns = []string{"cmp_x", "cmp_y", "force_x", "force_y"}
	traceColumns   = []string{
		"time", "phase", "icp_x", "icp_y", "ref_icp_x", "ref_icp_y",
		"cmp_x", "cmp_y", "cmp_delta_x", "cmp_delta_y",
		"step_x", "step_y", "adjusted", "swing_time", "qp_iterations",
	}
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Footprint is a footstep as it was placed during a run.
type Footprint struct {
	Side string         `json:"side"`
	Pose geometry.Pose2 `json:"pose"`
}

func Footprints(steps []footstep.Footstep) []Footprint {
	out := make([]Footprint, 0, len(steps))
	for _, s := range steps {
		out = append(out, Footprint{Side: s.Side.String(), Pose: s.Pose})
	}
	return out
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Parameters icpopt.Parameters  `json:"parameters"`
	Metrics    map[string]float64 `json:"metrics"`
	Footsteps  []Footprint        `json:"footsteps"`
}

// Save writes a run under a new ID: its metadata, the simulated states and
// controls, and the per-tick controller trace when there is one.
func (s *Store) Save(meta RunMetadata, result *sim.Result, trace []walking.Sample) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Scenario, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Metrics = result.Metrics
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", errors.Wrap(err, "storage: write metadata")
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", errors.Wrap(err, "storage: write states")
	}
	if len(trace) > 0 {
		if err := writeTrace(filepath.Join(runDir, traceFile), trace); err != nil {
			return "", errors.Wrap(err, "storage: write trace")
		}
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"time"}, stateColumns...)
	header = append(header, controlColumns...)
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{formatFloat(result.Times[i])}
		for j := range stateColumns {
			v := 0.0
			if j < len(result.States[i]) {
				v = result.States[i][j]
			}
			row = append(row, formatFloat(v))
		}
		for j := range controlColumns {
			v := 0.0
			if i < len(result.Controls) && j < len(result.Controls[i]) {
				v = result.Controls[i][j]
			}
			row = append(row, formatFloat(v))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeTrace(path string, trace []walking.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(traceColumns); err != nil {
		return err
	}
	for _, s := range trace {
		row := []string{
			formatFloat(s.Time), s.Phase.String(),
			formatFloat(s.ICP.X), formatFloat(s.ICP.Y),
			formatFloat(s.ReferenceICP.X), formatFloat(s.ReferenceICP.Y),
			formatFloat(s.CMP.X), formatFloat(s.CMP.Y),
			formatFloat(s.CMPDelta.X), formatFloat(s.CMPDelta.Y),
			formatFloat(s.Footstep.X), formatFloat(s.Footstep.Y),
			strconv.FormatBool(s.Adjusted),
			formatFloat(s.SwingTime),
			strconv.Itoa(s.QPIterations),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "storage: decode %s", runID)
	}

	return &meta, nil
}

// LoadStates reads back the states, controls and times of a run.
func (s *Store) LoadStates(runID string) ([]sim.State, []sim.Control, []float64, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, nil, nil, err
	}
	if len(records) < 2 {
		return []sim.State{}, []sim.Control{}, []float64{}, nil
	}

	nx, nu := len(stateColumns), len(controlColumns)
	times := make([]float64, 0, len(records)-1)
	states := make([]sim.State, 0, len(records)-1)
	controls := make([]sim.Control, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		row, err := parseRow(records[i])
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "storage: %s line %d", statesFile, i+1)
		}
		if len(row) != 1+nx+nu {
			return nil, nil, nil, errors.Errorf("storage: %s line %d has %d columns", statesFile, i+1, len(row))
		}
		times = append(times, row[0])
		states = append(states, sim.State(row[1:1+nx]))
		controls = append(controls, sim.Control(row[1+nx:]))
	}

	return states, controls, times, nil
}

// LoadTrace reads back the controller trace of a run as named columns.
func (s *Store) LoadTrace(runID string) (map[string][]string, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[string][]string{}, nil
	}

	header := records[0]
	columns := make(map[string][]string, len(header))
	for _, rec := range records[1:] {
		for j, name := range header {
			if j < len(rec) {
				columns[name] = append(columns[name], rec[j])
			}
		}
	}
	return columns, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrRunNotFound, path)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func parseRow(record []string) ([]float64, error) {
	row := make([]float64, 0, len(record))
	for _, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		row = append(row, v)
	}
	return row, nil
}
