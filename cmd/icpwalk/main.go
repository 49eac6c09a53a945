package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/pkg/errors"
	"github.com/san-kum/icpwalk/internal/automation"
	"github.com/san-kum/icpwalk/internal/config"
	"github.com/san-kum/icpwalk/internal/experiment"
	"github.com/san-kum/icpwalk/internal/export"
	"github.com/san-kum/icpwalk/internal/integrators"
	"github.com/san-kum/icpwalk/internal/metrics"
	"github.com/san-kum/icpwalk/internal/models"
	"github.com/san-kum/icpwalk/internal/optim"
	"github.com/san-kum/icpwalk/internal/sim"
	"github.com/san-kum/icpwalk/internal/storage"
	"github.com/san-kum/icpwalk/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/stat"
)

var (
	dataDir    string
	verbose    bool
	dt         float64
	duration   float64
	seed       int64
	integrator string
	configFile string
	preset     string
	steps      int
	// ensemble
	runs      int
	seedStart int64
	// tune
	tuneParams []string
	tuneMetric string
	// live view
	frameRate int
	// export-png
	outDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "icpwalk",
		Short:        "capture point walking lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".icpwalk", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a walking scenario and store it",
		Args:  cobra.NoArgs,
		RunE:  runWalk,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the ICP and CMP of a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render the plots of a run to PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the walk of a run to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outDir, "out", "o", ".", "output directory")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset scenarios",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump-config [file]",
		Short: "write the resolved scenario config as yaml",
		Args:  cobra.ExactArgs(1),
		RunE:  dumpConfig,
	}
	addScenarioFlags(dumpCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run a scenario once per seed and summarise the metrics",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addScenarioFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 8, "number of runs")
	ensembleCmd.Flags().Int64Var(&seedStart, "seed-start", 1, "seed of the first run")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search controller weights",
		Long:  "grid search controller weights\n\ntunable: " + strings.Join(optim.TunableNames(), ", "),
		Args:  cobra.NoArgs,
		RunE:  tune,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVarP(&tuneParams, "param", "p", nil, "name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", metrics.NameICPRMS, "metric to minimise")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run a yaml batch of scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a scenario walk in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportPNGCmd, exportSVGCmd, exportJSONCmd, presetsCmd, dumpCmd, ensembleCmd, tuneCmd, batchCmd, liveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "walk/straight", "preset as group/name")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), overrides --preset")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().IntVar(&steps, "steps", 0, "number of footsteps")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

// loadConfig resolves the preset or config file, then applies the flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
		cfg = loaded
	} else {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, errors.Errorf("preset %q is not group/name", preset)
		}
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(group))
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Sim.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("steps") {
		cfg.Scenario.Steps = steps
	}
	if cfg.Sim.Seed == 0 {
		cfg.Sim.Seed = time.Now().UnixNano()
	}
	return cfg, cfg.Validate()
}

func runWalk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("running %s...\n", cfg.Name)
	start := time.Now()

	out, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(exp.Metadata(out), out.Result, out.Trace)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", len(out.Result.States))
	fmt.Printf("footsteps: %d landed, plan finished: %v\n", len(out.Footsteps), out.Done)
	for _, e := range out.Result.Errors {
		fmt.Printf("error: %v\n", e)
	}
	printMetrics(out.Result.Metrics)
	return nil
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, values[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tICP RMS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%.4f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			len(run.Footsteps),
			run.Metrics[metrics.NameICPRMS],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, controls, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return storage.ErrNoData
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(states))

	for _, axis := range []struct {
		name   string
		offset int
	}{{"x", 0}, {"y", 1}} {
		icp := make([]float64, len(states))
		cmp := make([]float64, len(controls))
		for i := range states {
			icp[i] = states[i][models.ICPX+axis.offset]
		}
		for i := range controls {
			cmp[i] = controls[i][models.CMPX+axis.offset]
		}

		graph := asciigraph.PlotMany([][]float64{icp, cmp},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red),
			asciigraph.Caption(fmt.Sprintf("ICP (blue) and CMP (red) %s (m)", axis.name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, controls, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	files := []string{
		filepath.Join(outDir, runID+"_x.png"),
		filepath.Join(outDir, runID+"_y.png"),
		filepath.Join(outDir, runID+"_footprints.png"),
	}
	for axis := 0; axis < 2; axis++ {
		if err := storage.SaveTimePlot(files[axis], axis, times, states, controls); err != nil {
			return err
		}
	}
	if err := storage.SaveFootprintPlot(files[2], states, meta.Footsteps); err != nil {
		return err
	}

	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 2 {
		return storage.ErrNoData
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	view := viz.ViewportAround(states, meta.Footsteps, 0.1)
	canvas := viz.RenderRun(80, 20, view, states, meta.Footsteps)
	files := map[string]string{
		filepath.Join(outDir, runID+"_walk.svg"):    export.WalkToSVG(states, meta.Footsteps, 800, 400),
		filepath.Join(outDir, runID+"_braille.svg"): export.CanvasToSVG(canvas, 4),
	}
	for path, svg := range files {
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Println(path)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, controls, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	result := &sim.Result{
		States:   states,
		Controls: controls,
		Times:    times,
		Metrics:  meta.Metrics,
	}
	return storage.WriteJSON(os.Stdout, *meta, result)
}

func listPresets(cmd *cobra.Command, args []string) error {
	groups := config.ListGroups()
	if len(args) == 1 {
		groups = args
	}
	for _, group := range groups {
		presets := config.ListPresets(group)
		if len(presets) == 0 {
			fmt.Printf("no presets in group: %s\n", group)
			continue
		}
		fmt.Printf("%s:\n", group)
		for _, p := range presets {
			fmt.Printf("  %s/%s\n", group, p)
		}
	}
	return nil
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return config.Save(args[0], cfg)
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Printf("running %s %d times...\n", cfg.Name, runs)
	start := time.Now()
	results, err := experiment.RunEnsemble(cmd.Context(), cfg, runs, seedStart, logger)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	samples := make(map[string][]float64)
	for _, r := range results {
		for name, v := range r.Metrics {
			samples[name] = append(samples[name], v)
		}
	}
	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range names {
		vals := samples[name]
		mean, std := stat.MeanStdDev(vals, nil)
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", name, mean, std, sorted[0], sorted[len(sorted)-1])
	}
	return w.Flush()
}

// parseGrid reads name=v1,v2,... into a parameter name and its values.
func parseGrid(spec string) (string, []float64, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok || name == "" || list == "" {
		return "", nil, errors.Errorf("parameter %q is not name=v1,v2,...", spec)
	}
	var values []float64
	for _, field := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return "", nil, errors.Wrapf(err, "parameter %s", name)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func tune(cmd *cobra.Command, args []string) error {
	if len(tuneParams) == 0 {
		return errors.Errorf("nothing to tune, pass --param (tunable: %s)", strings.Join(optim.TunableNames(), ", "))
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	points := 1
	for _, spec := range tuneParams {
		name, values, err := parseGrid(spec)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
		points *= len(values)
	}

	fmt.Printf("searching %d points of %s for the lowest %s...\n", points, cfg.Name, tuneMetric)
	start := time.Now()
	best, value, err := optim.NewGridSearch(names, ranges, logger).Search(cmd.Context(), cfg, tuneMetric)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))

	for _, name := range names {
		fmt.Printf("  %s: %g\n", name, best[name])
	}
	fmt.Printf("\n%s: %.6f\n", tuneMetric, value)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running batch %s (%d runs)...\n", batch.Name, len(batch.Runs))
	records, err := automation.RunBatch(cmd.Context(), batch, st, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDONE\tSTEPS\tICP RMS\tRUN ID\tERROR")
	for _, r := range records {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%v\t%d\t%.4f\t%s\t%s\n", r.Name, r.Done, r.Footsteps, r.Metrics[metrics.NameICPRMS], r.RunID, errText)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	finished, unfinished, failed := automation.Summarize(records)
	fmt.Printf("\n%d finished, %d unfinished, %d failed\n", finished, unfinished, failed)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// the view owns the terminal, so the run stays quiet
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}
	return viz.Run(cmd.Context(), exp, frameRate)
}
