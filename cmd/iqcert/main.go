package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/iqcert/internal/compute"
	"github.com/san-kum/iqcert/internal/config"
	"github.com/san-kum/iqcert/internal/export"
	"github.com/san-kum/iqcert/internal/iqc"
	"github.com/san-kum/iqcert/internal/optim"
	"github.com/san-kum/iqcert/internal/ss"
	"github.com/san-kum/iqcert/internal/storage"
	"github.com/san-kum/iqcert/internal/synth"
	"github.com/san-kum/iqcert/internal/ulft"
	"github.com/san-kum/iqcert/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	live       bool
	verbose    bool
	gammaTol   float64
	gammaMax   float64
	maxSolves  int
	samples    int
	seed       int64
	certify    bool
	outFile    string

	sweepDelta  string
	sweepFrom   float64
	sweepTo     float64
	sweepPoints int
	sweepTarget float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "iqcert",
		Short: "worst-case gain certification for uncertain periodic systems",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".iqcert", "data directory")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [preset]",
		Short: "certify a gain bound for a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeScenario,
	}
	analyzeCmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	analyzeCmd.Flags().BoolVar(&live, "live", false, "show the search as it runs")
	analyzeCmd.Flags().BoolVar(&verbose, "verbose", false, "print every solve")
	analyzeCmd.Flags().Float64Var(&gammaTol, "tol", 0, "relative bisection tolerance")
	analyzeCmd.Flags().Float64Var(&gammaMax, "gamma-max", 0, "bracket search cap")
	analyzeCmd.Flags().IntVar(&maxSolves, "max-solves", 0, "feasibility solve budget")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list ready-made scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the bisection trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the bisection trace as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the bisection trace as an svg chart",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVar(&outFile, "out", "", "output path (default stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "certify bounds along a grid of uncertainty sizes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepScenario,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	sweepCmd.Flags().StringVar(&sweepDelta, "delta", "", "block to sweep (default: first declared)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.05, "first bound value")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 0.5, "last bound value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 6, "grid size")
	sweepCmd.Flags().Float64Var(&sweepTarget, "target", 0, "report the largest bound value certified under this gain")

	normCmd := &cobra.Command{
		Use:   "norm [preset]",
		Short: "sample closed-loop gains against the certified bound",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sampleNorms,
	}
	normCmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	normCmd.Flags().IntVar(&samples, "samples", 20, "number of sampled realizations")
	normCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	normCmd.Flags().BoolVar(&certify, "certify", false, "also certify a bound and report the gap")

	rootCmd.AddCommand(analyzeCmd, presetsCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportSVGCmd, sweepCmd, normCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadScenario(args []string) (*config.Config, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func analyzeScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(args)
	if err != nil {
		return err
	}
	u, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	opts := cfg.Options()
	if cmd.Flags().Changed("verbose") {
		opts.Verbose = verbose
	}
	if cmd.Flags().Changed("tol") {
		opts.GammaTol = gammaTol
	}
	if cmd.Flags().Changed("gamma-max") {
		opts.GammaMax = gammaMax
	}
	if cmd.Flags().Changed("max-solves") {
		opts.MaxSolves = maxSolves
	}

	start := time.Now()
	var res *iqc.Result
	if live {
		opts.Verbose = false
		m := viz.NewModel(cfg.Name, func(progress func(float64, bool)) (*iqc.Result, error) {
			opts.Progress = progress
			return iqc.Analyze(u, opts)
		})
		final, err := tea.NewProgram(m).Run()
		if err != nil {
			return err
		}
		res, err = final.(viz.Model).Result()
		if err != nil {
			return err
		}
		if res == nil {
			return fmt.Errorf("analysis aborted")
		}
	} else {
		res, err = iqc.Analyze(u, opts)
		if err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	tol := opts.GammaTol
	if tol == 0 {
		tol = iqc.DefaultOptions().GammaTol
	}
	runID, err := st.Save(cfg.Name, tol, elapsed, res)
	if err != nil {
		return err
	}

	fmt.Println(viz.RenderSummary(cfg.Name, res, elapsed))
	fmt.Printf("run id: %s\n", runID)
	return nil
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
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBOUND\tVALID\tSOLVES")

	for _, run := range runs {
		bound := "-"
		if run.Valid {
			bound = strconv.FormatFloat(run.Performance, 'g', 6, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%d\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			bound,
			run.Valid,
			run.Solves,
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

	gammas, feasible, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(gammas) == 0 {
		return fmt.Errorf("no trace to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	if meta.Valid {
		fmt.Printf("certified bound: %.6g\n\n", meta.Performance)
	} else {
		fmt.Printf("no certified bound\n\n")
	}

	graph := asciigraph.Plot(gammas,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Caption("candidate gain level per solve"),
	)
	fmt.Println(graph)
	fmt.Println()
	fmt.Println("feasible: " + viz.FeasibleMarks(feasible, 72))

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	gammas, feasible, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(gammas) == 0 {
		return fmt.Errorf("no trace to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"solve", "gamma", "feasible"}); err != nil {
		return err
	}
	for i, gamma := range gammas {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(gamma, 'f', 6, 64),
			strconv.FormatBool(feasible[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	gammas, feasible, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	svg := export.TraceSVG(gammas, feasible, 640, 320)
	if svg == "" {
		return fmt.Errorf("no trace to export")
	}
	if outFile == "" {
		fmt.Print(svg)
		return nil
	}
	return os.WriteFile(outFile, []byte(svg), 0644)
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(args)
	if err != nil {
		return err
	}
	if len(cfg.Deltas) == 0 {
		return fmt.Errorf("scenario %s declares no blocks to sweep", cfg.Name)
	}
	idx := 0
	if sweepDelta != "" {
		idx = -1
		for i, dc := range cfg.Deltas {
			if dc.Name == sweepDelta {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("scenario %s has no block %q", cfg.Name, sweepDelta)
		}
	}

	s, err := optim.NewSweep(sweepFrom, sweepTo, sweepPoints)
	if err != nil {
		return err
	}
	points, err := s.Run(func(v float64) (*ulft.Ulft, error) {
		swept := *cfg
		swept.Deltas = append([]config.DeltaConfig(nil), cfg.Deltas...)
		swept.Deltas[idx].Bound = v
		swept.Deltas[idx].Bounds = nil
		swept.Deltas[idx].Low = nil
		swept.Deltas[idx].High = nil
		return swept.Build()
	}, cfg.Options())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BOUND\tGAIN\tVALID")
	for _, p := range points {
		gain := "-"
		if p.Valid {
			gain = strconv.FormatFloat(p.Bound, 'g', 6, 64)
		}
		fmt.Fprintf(w, "%.4g\t%s\t%v\n", p.Value, gain, p.Valid)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if sweepTarget > 0 {
		if v, ok := optim.Margin(points, sweepTarget); ok {
			fmt.Printf("largest bound certified under gain %.4g: %.4g\n", sweepTarget, v)
		} else {
			fmt.Printf("no swept bound certified under gain %.4g\n", sweepTarget)
		}
	}
	return nil
}

func sampleNorms(cmd *cobra.Command, args []string) error {
	cfg, err := loadScenario(args)
	if err != nil {
		return err
	}
	u, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build scenario: %w", err)
	}

	// One generator per draw so parallel workers never share a source and
	// the whole batch reproduces from the base seed.
	gains := make([]float64, samples)
	errs := make([]error, samples)
	compute.Parallel(samples, func(i int) {
		gen := synth.New(seed + int64(i))
		draw, err := gen.Samples(u.Deltas())
		if err != nil {
			errs[i] = err
			return
		}
		closed, err := ss.CloseUlft(u, draw)
		if err != nil {
			errs[i] = err
			return
		}
		gains[i], errs[i] = closed.InfinityNorm()
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	worst := 0.0
	for _, g := range gains {
		if g > worst {
			worst = g
		}
	}

	fmt.Printf("scenario: %s\n", cfg.Name)
	fmt.Printf("seed: %d\n", seed)
	fmt.Printf("worst sampled gain over %d draws: %.6g\n", samples, worst)

	if len(gains) > 1 {
		fmt.Println()
		graph := asciigraph.Plot(gains,
			asciigraph.Height(8),
			asciigraph.Width(64),
			asciigraph.Caption("sampled closed-loop gain per draw"),
		)
		fmt.Println(graph)
	}

	if certify {
		res, err := iqc.Analyze(u, cfg.Options())
		if err != nil {
			return err
		}
		if !res.Valid {
			fmt.Println("certified bound: none (search gave up)")
			return nil
		}
		fmt.Printf("certified bound: %.6g\n", res.Performance)
		if worst > 0 {
			fmt.Printf("bound / sampled worst: %.3f\n", res.Performance/worst)
		}
	}
	return nil
}
