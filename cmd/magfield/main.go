package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/magfield/internal/config"
	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/experiment"
	"github.com/san-kum/magfield/internal/export"
	"github.com/san-kum/magfield/internal/logging"
	"github.com/san-kum/magfield/internal/source"
	"github.com/san-kum/magfield/internal/storage"
	"github.com/san-kum/magfield/internal/sweep"
	"github.com/san-kum/magfield/internal/viz"
)

var (
	dataDir    string
	storeKind  string
	verbose    bool
	configFile string
	logger     *zap.Logger

	preset   string
	kind     string
	sum      bool
	parallel bool
	workers  int
	policy   string
	backend  string
	points   int
	params   map[string]string
	noSave   bool
	jsonOut  string
	svgOut   string

	vary   []string
	metric string

	plane  string
	extent float64
	gridN  int
	offset float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "magfield",
		Short: "analytical magnetic field evaluation",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".magfield", "data directory")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "dir", "run store (dir, bolt)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	evalCmd := &cobra.Command{
		Use:   "eval [scene]",
		Short: "evaluate a scene and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evalScene,
	}
	addRunFlags(evalCmd)
	evalCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	evalCmd.Flags().StringVar(&jsonOut, "json", "", "also write the run as JSON to this file (- for stdout)")

	lineCmd := &cobra.Command{
		Use:   "line [scene]",
		Short: "plot the field along the configured line",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotLine,
	}
	addRunFlags(lineCmd)
	lineCmd.Flags().StringVar(&svgOut, "svg", "", "also write the profile as SVG to this file")

	mapCmd := &cobra.Command{
		Use:   "map [scene]",
		Short: "draw magnitude and direction on a plane",
		Args:  cobra.MaximumNArgs(1),
		RunE:  mapPlane,
	}
	addRunFlags(mapCmd)
	mapCmd.Flags().StringVar(&plane, "plane", "xz", "plane through the origin (xy, xz, yz)")
	mapCmd.Flags().Float64Var(&extent, "extent", 0.04, "edge length of the square grid")
	mapCmd.Flags().IntVar(&gridN, "n", 24, "samples per edge")
	mapCmd.Flags().Float64Var(&offset, "offset", 0, "shift of the plane along its normal")
	mapCmd.Flags().StringVar(&svgOut, "svg", "", "also write the direction map as SVG to this file")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scene]",
		Short: "tabulate a metric over a grid of scene parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScene,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&vary, "vary", nil, "parameter range, name=lo:hi:n or name=a,b,c (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "homogeneity", "metric to tabulate")
	_ = sweepCmd.MarkFlagRequired("vary")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run summary",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list available presets for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scene: %s\n", args[0])
				return nil
			}
			sort.Strings(presets)
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list built-in scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENE\tDESCRIPTION\tPRESETS")
			for _, name := range reg.ListScenes() {
				presets := config.ListPresets(name)
				sort.Strings(presets)
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, reg.About(name), strings.Join(presets, ", "))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(evalCmd, lineCmd, mapCmd, sweepCmd, listCmd, showCmd, plotCmd, exportCmd, presetsCmd, scenesCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&kind, "kind", config.DefaultKind, "field kind (B, H, M, J)")
	cmd.Flags().BoolVar(&sum, "sum", false, "sum over sources")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate groups concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker limit (0 = one per CPU)")
	cmd.Flags().StringVar(&policy, "policy", "merge", "observer shape policy (merge, pad, strict)")
	cmd.Flags().StringVar(&backend, "backend", "cpu", "row backend (cpu, serial)")
	cmd.Flags().IntVar(&points, "points", config.DefaultLinePoints, "samples along the line")
	cmd.Flags().StringToStringVar(&params, "param", nil, "scene parameter, e.g. --param current=2")
}

// loadConfig layers the config file, the preset, the scene argument and the
// flags the user set, in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	scene := cfg.Scene
	if len(args) > 0 {
		scene = args[0]
	}
	if preset != "" {
		p := config.GetPreset(scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scene))
		}
		cfg = p
	}
	cfg.Scene = scene

	flags := cmd.Flags()
	if flags.Changed("kind") {
		cfg.Kind = kind
	}
	if flags.Changed("sum") {
		cfg.Sum = sum
	}
	if flags.Changed("parallel") {
		cfg.Parallel = parallel
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("policy") {
		cfg.ShapePolicy = policy
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("points") {
		cfg.Line.Points = points
	}
	for k, v := range params {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", k, err)
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		cfg.Params[k] = f
	}
	return cfg, cfg.Validate()
}

func runScene(cmd *cobra.Command, args []string, observers ...*source.Observer) (*experiment.Run, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err := exp.Setup(); err != nil {
		return nil, err
	}
	if len(observers) > 0 {
		exp.UseObservers(observers...)
	}
	return exp.Run(context.Background())
}

func evalScene(cmd *cobra.Command, args []string) error {
	run, err := runScene(cmd, args)
	if err != nil {
		return err
	}

	printSummary(run)

	if jsonOut == "-" {
		if err := storage.ExportJSONStdout(run); err != nil {
			return err
		}
	} else if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, run); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", jsonOut)
	}

	if noSave {
		return nil
	}
	st, closeStore, err := storage.Open(storeKind, dataDir)
	if err != nil {
		return err
	}
	defer closeStore()

	runID, err := st.Save(run)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Printf("\nsaved: %s\n", runID)
	return nil
}

func printSummary(run *experiment.Run) {
	res := run.Result
	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%s  %s", run.Scene, run.Kind)))
	fmt.Printf("sources: %d (%d leaves)  steps: %d  pixels: %d  shape: %v  elapsed: %v\n\n",
		res.Sources, res.Leaves, res.Steps, res.Pixels, res.Field.Shape, run.Elapsed)

	names := make([]string, 0, len(run.Metrics))
	for name := range run.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(viz.Metric(name, run.Metrics[name], metricUnit(name, run.Kind.String())))
	}
	for _, w := range res.Warnings {
		fmt.Println(viz.Warning.Render("warning: " + w.Error()))
	}

	samples := run.Samples()
	if len(samples) == 0 {
		return
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tSTEP\tPIXEL\tPOSITION\tFIELD")
	for _, s := range samples[:min(len(samples), 8)] {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\n", s.Slot, s.Step, s.Pixel, formatVec(s.Position), formatVec(s.Value))
	}
	if len(samples) > 8 {
		fmt.Fprintf(w, "...\t\t\t\t(%d more)\n", len(samples)-8)
	}
	w.Flush()
}

func plotLine(cmd *cobra.Command, args []string) error {
	run, err := runScene(cmd, args)
	if err != nil {
		return err
	}
	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%s  %s along line", run.Scene, run.Kind)))
	samples := run.Samples()
	plotSamples(samples, run.Kind.String())
	if svgOut == "" {
		return nil
	}
	if err := export.WriteFile(svgOut, profileSVG(samples, run.Kind.String())); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

var svgColors = []string{"#ff5555", "#50fa7b", "#6272ff", "#f8f8f2", "#f1fa8c", "#8be9fd"}

// profileSVG plots the first slot's components and magnitude against the
// distance from the first pixel.
func profileSVG(samples []experiment.Sample, kind string) string {
	var xs []float64
	series := []export.Series{
		{Label: kind + "x", Color: svgColors[0]},
		{Label: kind + "y", Color: svgColors[1]},
		{Label: kind + "z", Color: svgColors[2]},
		{Label: "|" + kind + "| [" + fieldUnit(kind) + "]", Color: svgColors[3]},
	}
	for _, s := range samples {
		if s.Slot != 0 || s.Step != 0 {
			continue
		}
		xs = append(xs, s.Position.Sub(samples[0].Position).Norm())
		for c := 0; c < 3; c++ {
			series[c].Values = append(series[c].Values, s.Value[c])
		}
		series[3].Values = append(series[3].Values, s.Value.Norm())
	}
	return export.ProfileToSVG(xs, series, 800, 400)
}

func sweepScene(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(vary))
	ranges := make([][]float64, 0, len(vary))
	for _, arg := range vary {
		name, values, err := sweep.ParseRange(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	grid := sweep.NewGrid(names, ranges)
	if base.Parallel {
		grid.WithWorkers(max(base.Workers, 1))
	}

	reg := experiment.NewRegistry()
	build := func(p map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		for k, v := range p {
			cfg.Params[k] = v
		}
		exp := experiment.New(cfg, reg, logger)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp, nil
	}

	logger.Info("sweep", zap.Strings("params", names), zap.Int("points", grid.Size()), zap.String("metric", metric))
	table, err := grid.Run(context.Background(), build, metric)
	if err != nil {
		return err
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%s  %s over %d points", base.Scene, metric, grid.Size())))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
	for _, t := range table.Trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(t.Params[n], 'g', 6, 64)
		}
		val := strconv.FormatFloat(t.Value, 'g', 6, 64)
		if t.Err != nil {
			val = "error: " + t.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), val)
	}
	w.Flush()

	low, ok := table.Lowest()
	if !ok {
		return fmt.Errorf("all %d trials failed", len(table.Trials))
	}
	high, _ := table.Highest()
	fmt.Println()
	unit := metricUnit(metric, base.Kind)
	fmt.Println(viz.Metric("lowest", low.Value, unit) + "  " + viz.Subtle.Render(formatParams(names, low.Params)))
	fmt.Println(viz.Metric("highest", high.Value, unit) + "  " + viz.Subtle.Render(formatParams(names, high.Params)))
	if n := table.Failed(); n > 0 {
		fmt.Println(viz.Warning.Render(fmt.Sprintf("%d trials failed", n)))
	}
	return nil
}

func formatParams(names []string, p map[string]float64) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%g", n, p[n])
	}
	return strings.Join(parts, " ")
}

func mapPlane(cmd *cobra.Command, args []string) error {
	axes := map[string][2]coords.Vec3{
		"xy": {{1, 0, 0}, {0, 1, 0}},
		"xz": {{1, 0, 0}, {0, 0, 1}},
		"yz": {{0, 1, 0}, {0, 0, 1}},
	}
	ax, ok := axes[plane]
	if !ok {
		return fmt.Errorf("unknown plane: %s", plane)
	}
	if gridN < 2 {
		return fmt.Errorf("need at least 2 samples per edge, got %d", gridN)
	}
	normal := ax[0].Cross(ax[1])
	grid := source.Grid(normal.Scale(offset), ax[0].Scale(extent), ax[1].Scale(extent), gridN, gridN).Named(plane)

	if !cmd.Flags().Changed("sum") {
		_ = cmd.Flags().Set("sum", "true")
	}
	run, err := runScene(cmd, args, grid)
	if err != nil {
		return err
	}

	mag := make([][]float64, gridN)
	u := make([][]float64, gridN)
	v := make([][]float64, gridN)
	for i := range mag {
		mag[i] = make([]float64, gridN)
		u[i] = make([]float64, gridN)
		v[i] = make([]float64, gridN)
	}
	for _, s := range run.Samples() {
		if s.Slot != 0 || s.Step != 0 {
			continue
		}
		i, j := s.Pixel/gridN, s.Pixel%gridN
		mag[i][j] = s.Value.Norm()
		u[i][j] = s.Value.Dot(ax[0])
		v[i][j] = s.Value.Dot(ax[1])
	}

	fmt.Println(viz.HeaderStyle.Render(fmt.Sprintf("%s  |%s| on %s plane", run.Scene, run.Kind, plane)))
	fmt.Print(viz.Heatmap(mag))
	fmt.Println()
	fmt.Println(viz.Title.Render("direction"))
	quiver := viz.Quiver(u, v, 8)
	fmt.Print(viz.Panel.Render(quiver.String()))
	fmt.Println()
	if svgOut == "" {
		return nil
	}
	if err := export.WriteFile(svgOut, export.CanvasToSVG(quiver, 4, svgColors[1])); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, closeStore, err := storage.Open(storeKind, dataDir)
	if err != nil {
		return err
	}
	defer closeStore()

	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tKIND\tTIME\tSOURCES\tSTEPS\tPIXELS\tPEAK")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.4g\n",
			run.ID,
			run.Scene,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Sources,
			run.Steps,
			run.Pixels,
			run.Metrics["peak"],
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st, closeStore, err := storage.Open(storeKind, dataDir)
	if err != nil {
		return err
	}
	defer closeStore()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", viz.Title.Render(meta.ID))
	fmt.Fprintf(&b, "scene %s, kind %s, sum %v\n", meta.Scene, meta.Kind, meta.Sum)
	fmt.Fprintf(&b, "%s\n", viz.Subtle.Render(meta.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Fprintf(&b, "sources %d (%d leaves), steps %d, pixels %d, shape %v\n", meta.Sources, meta.Leaves, meta.Steps, meta.Pixels, meta.Shape)
	fmt.Fprintf(&b, "%s\n", viz.Separator(40))

	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s\n", viz.Metric(name, meta.Metrics[name], metricUnit(name, meta.Kind)))
	}
	for _, w := range meta.Warnings {
		fmt.Fprintf(&b, "%s\n", viz.Warning.Render(w))
	}
	fmt.Println(viz.Panel.Render(strings.TrimRight(b.String(), "\n")))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st, closeStore, err := storage.Open(storeKind, dataDir)
	if err != nil {
		return err
	}
	defer closeStore()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(samples))
	plotSamples(samples, meta.Kind)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, closeStore, err := storage.Open(storeKind, dataDir)
	if err != nil {
		return err
	}
	defer closeStore()

	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

var seriesColors = []asciigraph.AnsiColor{asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Default, asciigraph.Yellow, asciigraph.Cyan}

// plotSamples draws the components and magnitude of a single slot, or the
// magnitude of every slot when there are several.
func plotSamples(samples []experiment.Sample, kind string) {
	slots := make(map[int][]experiment.Sample)
	var order []int
	for _, s := range samples {
		if _, ok := slots[s.Slot]; !ok {
			order = append(order, s.Slot)
		}
		slots[s.Slot] = append(slots[s.Slot], s)
	}

	unit := fieldUnit(kind)
	if len(order) == 1 {
		ss := slots[order[0]]
		series := make([][]float64, 4)
		for _, s := range ss {
			for c := 0; c < 3; c++ {
				series[c] = append(series[c], s.Value[c])
			}
			series[3] = append(series[3], s.Value.Norm())
		}
		fmt.Println(asciigraph.PlotMany(series,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.SeriesColors(seriesColors[:4]...),
			asciigraph.Caption(fmt.Sprintf("%sx red, %sy green, %sz blue, |%s| white [%s]", kind, kind, kind, kind, unit)),
		))
		fmt.Println()
		fmt.Println(viz.SparklineChart(series[3], 80))
		return
	}

	if len(order) > len(seriesColors) {
		order = order[:len(seriesColors)]
	}
	series := make([][]float64, len(order))
	for k, slot := range order {
		for _, s := range slots[slot] {
			series[k] = append(series[k], s.Value.Norm())
		}
	}
	fmt.Println(asciigraph.PlotMany(series,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(seriesColors[:len(order)]...),
		asciigraph.Caption(fmt.Sprintf("|%s| per source [%s]", kind, unit)),
	))
}

func fieldUnit(kind string) string {
	switch kind {
	case "B", "J":
		return "T"
	case "H", "M":
		return "A/m"
	}
	return ""
}

func metricUnit(name, kind string) string {
	switch name {
	case "energy_density":
		return "J/m³"
	case "homogeneity":
		return ""
	}
	return fieldUnit(kind)
}

func formatVec(v coords.Vec3) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v[0], v[1], v[2])
}
