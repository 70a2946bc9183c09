package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/delaysim/internal/analysis"
	"github.com/san-kum/delaysim/internal/config"
	"github.com/san-kum/delaysim/internal/dynamo"
	"github.com/san-kum/delaysim/internal/experiment"
	"github.com/san-kum/delaysim/internal/history"
	"github.com/san-kum/delaysim/internal/sim"
	"github.com/san-kum/delaysim/internal/storage"
)

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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tRANGE\tDT\tINTEG\tRUNS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t[%g, %g]\t%g\t%s\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.T0, run.Tn,
			run.Dt,
			run.Integrator,
			run.Runs,
		)
	}

	return w.Flush()
}

func column(states [][]float64, c int) []float64 {
	out := make([]float64, len(states))
	for i, s := range states {
		out[i] = s[c]
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	comp, _ := cmd.Flags().GetInt("component")

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 || len(states[0]) == 0 {
		return fmt.Errorf("no data")
	}
	dim := len(states[0])
	if comp >= dim {
		return fmt.Errorf("component %d out of range [0, %d)", comp, dim)
	}

	caption := fmt.Sprintf("%s  t in [%g, %g]  (%s)", meta.Model, meta.T0, meta.Tn, meta.Integrator)
	var graph string
	if comp >= 0 {
		graph = asciigraph.Plot(column(states, comp),
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("x%d  %s", comp, caption)),
		)
	} else {
		series := make([][]float64, dim)
		colors := make([]asciigraph.AnsiColor, dim)
		palette := []asciigraph.AnsiColor{asciigraph.Default, asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow}
		for c := range series {
			series[c] = column(states, c)
			colors[c] = palette[c%len(palette)]
		}
		graph = asciigraph.PlotMany(series,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.SeriesColors(colors...),
			asciigraph.Caption(caption),
		)
	}
	fmt.Println(graph)
	return nil
}

func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	w, done, err := output(cmd)
	if err != nil {
		return err
	}
	if err := storage.WriteRowsCSV(w, meta.Columns, times, states); err != nil {
		done()
		return err
	}
	return done()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	w, done, err := output(cmd)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, meta, times, states); err != nil {
		done()
		return err
	}
	return done()
}

// rebuild turns a stored run back into a history that can be queried between
// samples, with the model's initial history and critical points.
func rebuild(meta *storage.RunMetadata, times []float64, states [][]float64) (*history.History, dynamo.Differential, error) {
	dyn, err := experiment.NewRegistry().GetModel(meta.Model)
	if err != nil {
		return nil, nil, err
	}
	if c, ok := dyn.(dynamo.Configurable); ok {
		for k, v := range meta.Params {
			if err := c.SetParam(k, v); err != nil {
				return nil, nil, err
			}
		}
	}

	h := history.New(dyn.Dim(), 1)
	if err := h.SetRangeStep(meta.T0, meta.Tn, meta.Dt); err != nil {
		return nil, nil, err
	}
	if err := h.SetInitialState(dyn.Prehistory); err != nil {
		return nil, nil, err
	}
	sim.AddCriticalPoints(h, dyn)
	for i := 1; i < len(times); i++ {
		if err := h.Append(times[i], states[i]); err != nil {
			return nil, nil, err
		}
	}
	return h, dyn, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	comp, _ := cmd.Flags().GetInt("component")
	lag, _ := cmd.Flags().GetFloat64("lag")

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) < 2 || comp < 0 || comp >= len(states[0]) {
		return fmt.Errorf("no data for component %d", comp)
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	freqs, power, err := analysis.PowerSpectrum(column(states, comp), meta.Dt)
	if err != nil {
		return err
	}
	plotData := power[:max(2, len(power)/4)]
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (x%d)", comp)),
	))
	fmt.Printf("\npeak frequency: %.4f (period %.4f)\n\n", analysis.PeakFrequency(freqs, power), 1/analysis.PeakFrequency(freqs, power))

	h, dyn, err := rebuild(meta, times, states)
	if err != nil {
		return err
	}
	if lag == 0 {
		if d, ok := dyn.(dynamo.Delayed); ok && d.Delay() > 0 {
			lag = d.Delay()
		} else {
			fmt.Println("model has no delay; pass --lag for a delay portrait")
			return nil
		}
	}
	p, err := analysis.DelayPortrait(h, comp, lag)
	if err != nil {
		return err
	}
	fmt.Printf("delay portrait: x%d(t) against x%d(t-%g)\n", comp, comp, lag)
	fmt.Print(p.ToASCII(60, 20))
	return nil
}

func compareRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	a, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	b, timesB, err := st.LoadStates(args[1])
	if err != nil {
		return err
	}
	if len(times) != len(timesB) {
		return fmt.Errorf("runs have %d and %d samples", len(times), len(timesB))
	}

	cmp, err := analysis.Divergence(times, a, b)
	if err != nil {
		return err
	}
	fmt.Printf("comparing %s and %s over %d samples\n\n", args[0], args[1], len(times))
	fmt.Printf("%-16s %.6g\n", "rms distance", cmp.RMS)
	fmt.Printf("%-16s %.6g (t=%g)\n", "max distance", cmp.MaxDist, cmp.MaxAt)
	fmt.Printf("%-16s %.6g\n", "divergence rate", cmp.Rate)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	if len(args) == 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tINTEG\tPARAMS\tPRESETS")
		for _, m := range reg.ListModels() {
			p, _ := reg.Params(m)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m, reg.DefaultIntegrator(m), fmtParams(p), strings.Join(config.ListPresets(m), ", "))
		}
		fmt.Fprintf(w, "\nintegrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
		return w.Flush()
	}

	model := args[0]
	names := config.ListPresets(model)
	if len(names) == 0 {
		return fmt.Errorf("no presets for model %q (models: %v)", model, reg.ListModels())
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tINTEG\tRANGE\tDT\tRUNS\tPARAMS")
	for _, name := range names {
		c := config.GetPreset(model, name)
		fmt.Fprintf(w, "%s\t%s\t[%g, %g]\t%g\t%d\t%s\n", name, c.Integrator, c.Start, c.End, c.Dt, c.Runs, fmtParams(c.Params))
	}
	return w.Flush()
}

func fmtParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}
