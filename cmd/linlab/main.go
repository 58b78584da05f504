package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/linlab/internal/config"
	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/equation"
	"github.com/san-kum/linlab/internal/fitting"
	"github.com/san-kum/linlab/internal/linearize"
	"github.com/san-kum/linlab/internal/storage"
	"github.com/san-kum/linlab/internal/synth"
	"github.com/san-kum/linlab/internal/transform"
	"github.com/san-kum/linlab/internal/viz"
)

var (
	cfg *config.Config

	configFile string
	dataDir    string
	logLevel   string
	logFormat  string

	// data columns
	xCol, yCol       string
	xErrCol, yErrCol string
	xRes, yRes       float64

	xTransform string
	yTransform string
	target     string
	topic      string
	models     []string
	outFile    string
	format     string
	plot       bool
	svgFile    string
	save       bool

	points int
	noise  float64
	xError float64
	seed   int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "linlab",
		Short:             "linearize physical laws and fit experimental data",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run archive directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", config.DefaultLogFormat, "log format (text|json)")

	equationsCmd := &cobra.Command{
		Use:   "equations [query]",
		Short: "list or search catalogue equations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listEquations,
	}
	equationsCmd.Flags().StringVar(&topic, "topic", "", "only list presets of a topic")

	linearizeCmd := &cobra.Command{
		Use:   "linearize [equation] [var] [var]",
		Short: "find the straight-line form of a law",
		Long:  "The equation is a catalogue name or a custom law such as \"y = k*x^n\".",
		Args:  cobra.ExactArgs(3),
		RunE:  linearizeEquation,
	}
	linearizeCmd.Flags().StringVar(&target, "target", "", "variable to solve for")

	transformCmd := &cobra.Command{
		Use:   "transform [csv]",
		Short: "transform data columns and propagate uncertainty",
		Args:  cobra.ExactArgs(1),
		RunE:  transformData,
	}
	addDataFlags(transformCmd)
	transformCmd.Flags().StringVar(&xTransform, "x-transform", "identity", "x transform (identity|ln|exp|reciprocal|sqrt|power(n))")
	transformCmd.Flags().StringVar(&yTransform, "y-transform", "identity", "y transform")
	transformCmd.Flags().StringVarP(&outFile, "out", "o", "", "write transformed csv")

	fitCmd := &cobra.Command{
		Use:   "fit [csv]",
		Short: "fit the model catalogue and pick the best",
		Args:  cobra.ExactArgs(1),
		RunE:  fitData,
	}
	addDataFlags(fitCmd)
	fitCmd.Flags().StringSliceVar(&models, "model", nil, "fit only these models")
	fitCmd.Flags().BoolVar(&plot, "plot", false, "plot the best fit")
	fitCmd.Flags().StringVar(&svgFile, "svg", "", "write the best fit as svg")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [equation] [csv]",
		Short: "linearize, transform, fit and archive a dataset",
		Long:  "The x and y column headers must name variables of the equation.",
		Args:  cobra.ExactArgs(2),
		RunE:  analyzeData,
	}
	addDataFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&target, "target", "", "variable to solve for")
	analyzeCmd.Flags().BoolVar(&save, "save", true, "archive the run")

	simulateCmd := &cobra.Command{
		Use:   "simulate [law]",
		Short: "generate noisy measurements of a law",
		Args:  cobra.ExactArgs(1),
		RunE:  simulate,
	}
	simulateCmd.Flags().IntVar(&points, "points", config.DefaultPoints, "number of points")
	simulateCmd.Flags().Float64Var(&noise, "noise", config.DefaultNoise, "relative noise on y")
	simulateCmd.Flags().Float64Var(&xError, "x-error", 0, "absolute uncertainty of x")
	simulateCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	simulateCmd.Flags().StringVarP(&outFile, "out", "o", "", "write csv")
	simulateCmd.Flags().BoolVar(&save, "save", false, "analyze and archive the data")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list archived runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show an archived run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json, yaml or csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "json|yaml|csv")
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storage.New(cfg.DataDir).Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}

	browseCmd := &cobra.Command{
		Use:   "browse [run_id]",
		Short: "browse the fits of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE:  browseRun,
	}

	rootCmd.AddCommand(equationsCmd, linearizeCmd, transformCmd, fitCmd, analyzeCmd, simulateCmd, runsCmd, showCmd, exportCmd, deleteCmd, browseCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addDataFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&xCol, "x-col", "x", "", "x column")
	cmd.Flags().StringVarP(&yCol, "y-col", "y", "", "y column")
	cmd.Flags().StringVar(&xErrCol, "x-err", "", "x uncertainty column")
	cmd.Flags().StringVar(&yErrCol, "y-err", "", "y uncertainty column")
	cmd.Flags().Float64Var(&xRes, "x-resolution", 0, "x instrument resolution, used when no uncertainty column is given")
	cmd.Flags().Float64Var(&yRes, "y-resolution", 0, "y instrument resolution")
}

// setup loads the config file, lets changed flags override it and
// configures logging.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("x-resolution") {
		cfg.Resolution.X = xRes
	}
	if flags.Changed("y-resolution") {
		cfg.Resolution.Y = yRes
	}
	if flags.Changed("points") {
		cfg.Simulate.Points = points
	}
	if flags.Changed("noise") {
		cfg.Simulate.Noise = noise
	}
	if flags.Changed("seed") {
		cfg.Simulate.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.Log.Apply(logrus.StandardLogger())
}

func listEquations(cmd *cobra.Command, args []string) error {
	if topic != "" {
		presets := config.ListPresets(topic)
		if len(presets) == 0 {
			return errors.Errorf("unknown topic: %s (available: %v)", topic, config.Topics())
		}
		fmt.Printf("presets for %s:\n", topic)
		for _, p := range presets {
			eq := config.GetPreset(topic, p)
			fmt.Printf("  %-20s %s\n", p, eq.Expression)
		}
		return nil
	}

	cat, err := cfg.LoadCatalogue()
	if err != nil {
		return err
	}
	eqs := cat.List()
	if len(args) == 1 {
		eqs = cat.Search(args[0])
	}
	if len(eqs) == 0 {
		fmt.Println("no equations found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXPRESSION\tCLASS\tVARIABLES")
	for _, eq := range eqs {
		var vars []string
		for _, s := range eq.Symbols() {
			if m := eq.Meaning(s); m != "" && m != s {
				vars = append(vars, s+": "+m)
			} else {
				vars = append(vars, s)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", eq.Name, eq.Expression, eq.Class, strings.Join(vars, ", "))
	}
	return w.Flush()
}

// resolveEquation looks name up in the catalogue, then in the presets, and
// finally parses it as a custom law when it contains "=".
func resolveEquation(name string) (equation.Equation, error) {
	if strings.Contains(name, "=") {
		return equation.ParseCustom(name)
	}
	cat, err := cfg.LoadCatalogue()
	if err != nil {
		return equation.Equation{}, err
	}
	if eq, ok := cat.Get(name); ok {
		return eq, nil
	}
	for _, t := range config.Topics() {
		if eq := config.GetPreset(t, name); eq != nil {
			return *eq, nil
		}
	}
	return equation.Equation{}, errors.Errorf("unknown equation: %s", name)
}

func newLinearizer() *linearize.Linearizer {
	return linearize.New(linearize.WithConvention(cfg.AxisConvention()))
}

func linearizeEquation(cmd *cobra.Command, args []string) error {
	eq, err := resolveEquation(args[0])
	if err != nil {
		return err
	}
	res, err := newLinearizer().Linearize(eq, args[1], args[2], target)
	if err != nil {
		return err
	}
	fmt.Println(viz.LinearizationPanel(res))
	return nil
}

// loadData reads the csv at path. Without --x/--y the first two header
// columns are used.
func loadData(path string) (dataset.Dataset, error) {
	cols := dataset.Columns{X: xCol, Y: yCol, XErr: xErrCol, YErr: yErrCol}
	if cols.X == "" || cols.Y == "" {
		header, err := readHeader(path)
		if err != nil {
			return dataset.Dataset{}, err
		}
		if len(header) < 2 {
			return dataset.Dataset{}, errors.Errorf("%s: need at least two columns", path)
		}
		if cols.X == "" {
			cols.X = header[0]
		}
		if cols.Y == "" {
			cols.Y = header[1]
		}
	}
	d, err := dataset.LoadCSV(path, cols)
	if err != nil {
		return dataset.Dataset{}, errors.Wrapf(err, "load %s", path)
	}
	return cfg.ApplyResolution(d), nil
}

func readHeader(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	line, _, _ := strings.Cut(string(data), "\n")
	fields := strings.Split(strings.TrimSpace(line), ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields, nil
}

func transformData(cmd *cobra.Command, args []string) error {
	d, err := loadData(args[0])
	if err != nil {
		return err
	}
	out, err := transform.ApplyNamed(d, xTransform, yTransform)
	if err != nil {
		return err
	}

	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := dataset.WriteCSV(f, out); err != nil {
			return err
		}
		fmt.Printf("wrote %d points to %s\n", out.Len(), outFile)
		return nil
	}
	fmt.Println(viz.DataTable(out))
	return nil
}

func newFitter() (*fitting.Fitter, error) {
	var selected []fitting.Model
	for _, name := range models {
		m, ok := fitting.ModelByName(name)
		if !ok {
			return nil, errors.Errorf("unknown model: %s (available: %v)", name, fitting.ModelNames())
		}
		selected = append(selected, m)
	}
	return fitting.NewFitter(cfg.Fit, selected...), nil
}

func fitData(cmd *cobra.Command, args []string) error {
	d, err := loadData(args[0])
	if err != nil {
		return err
	}
	fitter, err := newFitter()
	if err != nil {
		return err
	}
	results, err := fitter.FitAll(context.Background(), d)
	if err != nil {
		return err
	}
	best, _ := fitter.Best(results)

	bestName := ""
	if best != nil {
		bestName = best.Model
	}
	fmt.Println(viz.FitTable(results, bestName, d))

	if best != nil {
		fmt.Printf("best model: %s (r² = %.6f)\n", best.Model, best.RSquared)
		m, _ := fitting.ModelByName(best.Model)
		if plot {
			fmt.Println()
			fmt.Println(viz.PlotFit(d, m, best.Params))
		}
		if svgFile != "" {
			if err := os.WriteFile(svgFile, []byte(viz.FitSVG(d, &m, best.Params, 800, 500)), 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", svgFile)
		}
	}
	return nil
}

// analysis is the outcome of the full pipeline on one dataset.
type analysis struct {
	equation    equation.Equation
	data        dataset.Dataset
	lin         *linearize.Result
	transformed dataset.Dataset
	line        *fitting.Result
	results     map[string]*fitting.Result
	best        *fitting.Result
}

// analyze linearizes eq for the dataset's column titles, transforms the data
// to the straight-line form, fits a line to it and the model catalogue to the
// raw data.
func analyze(eq equation.Equation, d dataset.Dataset) (*analysis, error) {
	a := &analysis{equation: eq, data: d}

	res, err := newLinearizer().Linearize(eq, d.X.Title, d.Y.Title, target)
	if err != nil {
		return nil, err
	}
	a.lin = res

	// the linearizer may swap the axes
	oriented := d
	if res.X != d.X.Title {
		oriented = dataset.Dataset{X: d.Y, Y: d.X}
	}
	sess := transform.NewSession(oriented)
	if err := sess.Apply(res.XTransform, res.YTransform); err != nil {
		return nil, err
	}
	a.transformed = sess.Current()

	linear, _ := fitting.ModelByName("Linear")
	ctx := context.Background()
	lineFit, err := fitting.NewFitter(cfg.Fit, linear).FitAll(ctx, a.transformed)
	if lineFit == nil {
		return nil, err
	}
	a.line = lineFit[linear.Name]

	fitter := fitting.NewFitter(cfg.Fit)
	a.results, err = fitter.FitAll(ctx, d)
	if err != nil {
		logrus.WithError(err).Warn("catalogue fit failed")
	}
	a.best, _ = fitter.Best(a.results)
	return a, nil
}

func (a *analysis) print() {
	fmt.Println(viz.LinearizationPanel(a.lin))
	fmt.Println()
	fmt.Println(viz.PlotData(a.transformed, ""))
	fmt.Println()

	if a.line.OK() {
		m, c := a.line.Params[0], a.line.Params[1]
		fmt.Printf("straight line: gradient %.6g, intercept %.6g (r² = %.6f)\n", m, c, a.line.RSquared)
		if v, ok := a.lin.TargetValue(m, c); ok {
			fmt.Printf("%s = %.6g\n", a.lin.Target, v)
		}
	} else {
		fmt.Printf("straight line fit failed: %v\n", a.line.Err)
	}
	fmt.Println()

	bestName := ""
	if a.best != nil {
		bestName = a.best.Model
	}
	fmt.Println(viz.FitTable(a.results, bestName, a.data))
}

func (a *analysis) archive(source string) (string, error) {
	run := &storage.Run{
		Equation:      a.equation.Name,
		Source:        source,
		XTransform:    a.lin.XTransform,
		YTransform:    a.lin.YTransform,
		Linearization: a.lin,
		Fits:          storage.Summarize(a.results, a.data),
	}
	if a.best != nil {
		run.Best = a.best.Model
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	return st.Save(run, a.data, &a.transformed)
}

func analyzeData(cmd *cobra.Command, args []string) error {
	eq, err := resolveEquation(args[0])
	if err != nil {
		return err
	}
	d, err := loadData(args[1])
	if err != nil {
		return err
	}
	a, err := analyze(eq, d)
	if err != nil {
		return err
	}
	a.print()

	if save {
		runID, err := a.archive(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("run saved: %s\n", runID)
	}
	return nil
}

func simulate(cmd *cobra.Command, args []string) error {
	law, err := synth.NewRegistry().Get(args[0])
	if err != nil {
		return errors.Wrapf(err, "available: %v", synth.NewRegistry().List())
	}
	d, err := synth.New(synth.Options{
		Points: cfg.Simulate.Points,
		Noise:  cfg.Simulate.Noise,
		XError: xError,
		Seed:   cfg.Simulate.Seed,
	}).Generate(law)
	if err != nil {
		return err
	}

	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := dataset.WriteCSV(f, d); err != nil {
			return err
		}
		fmt.Printf("wrote %d points to %s\n", d.Len(), outFile)
	} else {
		fmt.Println(viz.DataTable(d))
		fmt.Println(viz.PlotData(d, law.Equation.Name))
	}

	if !save {
		return nil
	}
	a, err := analyze(law.Equation, d)
	if err != nil {
		return err
	}
	a.print()
	runID, err := a.archive("simulate:" + args[0])
	if err != nil {
		return err
	}
	fmt.Printf("run saved: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEQUATION\tTIME\tX\tY\tBEST")

	for _, run := range runs {
		cols := run.Columns
		if run.Transformed != nil {
			cols = *run.Transformed
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID,
			run.Equation,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			cols.X,
			cols.Y,
			run.Best,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	run, err := st.Load(args[0])
	if err != nil {
		return err
	}
	data, err := st.LoadData(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run:       %s\n", run.ID)
	fmt.Printf("equation:  %s\n", run.Equation)
	fmt.Printf("source:    %s\n", run.Source)
	fmt.Printf("timestamp: %s\n", run.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Println()

	if run.Linearization != nil {
		fmt.Println(viz.LinearizationPanel(run.Linearization))
		fmt.Println()
	}

	plotted := data
	if transformed, ok, err := st.LoadTransformed(args[0]); err != nil {
		return err
	} else if ok {
		plotted = transformed
	}
	fmt.Println(viz.PlotData(plotted, ""))
	fmt.Println()

	if len(run.Fits) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tR²\tRMSE\tPARAMS")
	for _, f := range run.Fits {
		if f.Error != "" {
			fmt.Fprintf(w, "%s\t-\t-\t%s\n", f.Model, f.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.4g\t%v\n", f.Model, f.RSquared, f.RMSE, f.Params)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if run.Best != "" {
		fmt.Printf("\nbest model: %s\n", run.Best)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	exp, err := storage.New(cfg.DataDir).Export(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return exp.Write(os.Stdout, format)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := exp.Write(f, format); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported %s to %s\n", args[0], outFile)
	return nil
}

func browseRun(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.DataDir)
	run, err := st.Load(args[0])
	if err != nil {
		return err
	}
	data, err := st.LoadData(args[0])
	if err != nil {
		return err
	}

	fitter := fitting.NewFitter(cfg.Fit)
	results, err := fitter.FitAll(context.Background(), data)
	if err != nil {
		logrus.WithError(err).Warn("no usable model")
	}
	best, _ := fitter.Best(results)
	bestName := ""
	if best != nil {
		bestName = best.Model
	}

	title := run.Equation
	if title == "" {
		title = run.ID
	}
	return viz.RunBrowser(title, data, results, bestName)
}
