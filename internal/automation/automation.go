package automation

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/config"
	"github.com/san-kum/icpwalk/internal/experiment"
	"github.com/san-kum/icpwalk/internal/storage"
	"github.com/san-kum/icpwalk/internal/walking"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrEmptyBatch = errors.New("automation: batch has no runs")

// Batch is a scripted sequence of walking runs.
type Batch struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Runs        []BatchRun `yaml:"runs"`
}

// BatchRun names a preset or a config file and the changes made to it.
type BatchRun struct {
	Name     string         `yaml:"name"`
	Preset   string         `yaml:"preset"`
	Config   string         `yaml:"config"`
	Seed     int64          `yaml:"seed"`
	Steps    *int           `yaml:"steps"`
	Duration float64        `yaml:"duration"`
	Pushes   []walking.Push `yaml:"pushes"`
	Save     bool           `yaml:"save"`
}

// Record is the outcome of one batch run.
type Record struct {
	Name      string
	RunID     string
	Done      bool
	Footsteps int
	Metrics   map[string]float64
	Err       error
}

// LoadBatch loads a batch from a YAML file
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return nil, errors.Wrapf(err, "automation: parse %s", path)
	}
	if len(batch.Runs) == 0 {
		return nil, errors.Wrap(ErrEmptyBatch, path)
	}

	return &batch, nil
}

// Resolve builds the config of one run. A config file wins over a preset;
// with neither the defaults are used.
func (r BatchRun) Resolve() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case r.Config != "":
		loaded, err := config.Load(r.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case r.Preset != "":
		group, name, _ := strings.Cut(r.Preset, "/")
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, errors.Errorf("automation: unknown preset %q", r.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}

	if r.Name != "" {
		cfg.Name = r.Name
	}
	if r.Seed != 0 {
		cfg.Sim.Seed = r.Seed
	}
	if r.Steps != nil {
		cfg.Scenario.Steps = *r.Steps
	}
	if r.Duration > 0 {
		cfg.Sim.Duration = r.Duration
	}
	cfg.Scenario.Pushes = append(cfg.Scenario.Pushes, r.Pushes...)
	return cfg, nil
}

// RunBatch runs every entry in order. A run that fails is recorded and the
// batch moves on; only a cancelled context stops it early. Runs marked
// save are written to st when st is not nil.
func RunBatch(ctx context.Context, batch *Batch, st *storage.Store, logger *zap.Logger) ([]Record, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	records := make([]Record, 0, len(batch.Runs))

	for i, run := range batch.Runs {
		if err := ctx.Err(); err != nil {
			return records, err
		}

		rec := runOne(ctx, run, st, logger)
		if rec.Err != nil {
			logger.Warn("batch run failed", zap.Int("index", i), zap.String("name", rec.Name), zap.Error(rec.Err))
		} else {
			logger.Info("batch run finished",
				zap.Int("index", i),
				zap.String("name", rec.Name),
				zap.Bool("done", rec.Done),
				zap.String("runID", rec.RunID))
		}
		records = append(records, rec)
	}

	return records, nil
}

func runOne(ctx context.Context, run BatchRun, st *storage.Store, logger *zap.Logger) Record {
	rec := Record{Name: run.Name}

	cfg, err := run.Resolve()
	if err != nil {
		rec.Err = err
		return rec
	}
	rec.Name = cfg.Name

	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		rec.Err = err
		return rec
	}
	out, err := exp.Run(ctx)
	if err != nil {
		rec.Err = err
		return rec
	}

	rec.Done = out.Done
	rec.Footsteps = len(out.Footsteps)
	rec.Metrics = out.Result.Metrics

	if run.Save && st != nil {
		id, err := st.Save(exp.Metadata(out), out.Result, out.Trace)
		if err != nil {
			rec.Err = errors.Wrap(err, "automation: save")
			return rec
		}
		rec.RunID = id
	}
	return rec
}

// Summarize counts the runs that finished their plan, did not, or failed.
func Summarize(records []Record) (finished, unfinished, failed int) {
	for _, r := range records {
		switch {
		case r.Err != nil:
			failed++
		case r.Done:
			finished++
		default:
			unfinished++
		}
	}
	return finished, unfinished, failed
}
