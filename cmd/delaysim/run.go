package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/delaysim/internal/analysis"
	"github.com/san-kum/delaysim/internal/config"
	"github.com/san-kum/delaysim/internal/experiment"
	"github.com/san-kum/delaysim/internal/metrics"
	"github.com/san-kum/delaysim/internal/storage"
	"github.com/san-kum/delaysim/internal/viz"
)

// buildConfig starts from a preset or config file, if given, and applies the
// flags on top. Without either, every flag default applies.
func buildConfig(cmd *cobra.Command, model string, reg *experiment.Registry) (*config.Config, error) {
	f := cmd.Flags()
	cfg := config.DefaultConfig()
	cfg.Model = model
	cfg.Integrator = reg.DefaultIntegrator(model)

	base := false
	if name, _ := f.GetString("preset"); name != "" {
		p := config.GetPreset(model, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(model))
		}
		cfg, base = p, true
	}
	if path, _ := f.GetString("config"); path != "" {
		c, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if c.Model != model {
			return nil, fmt.Errorf("config %s is for model %q, not %q", path, c.Model, model)
		}
		cfg, base = c, true
	}

	set := func(name string) bool { return !base || f.Changed(name) }
	if f.Changed("integrator") {
		cfg.Integrator, _ = f.GetString("integrator")
	}
	if set("t0") {
		cfg.Start, _ = f.GetFloat64("t0")
	}
	if set("tn") {
		cfg.End, _ = f.GetFloat64("tn")
	}
	if set("dt") {
		cfg.Dt, _ = f.GetFloat64("dt")
	}
	if set("window") {
		cfg.Window, _ = f.GetInt("window")
	}
	if set("seed") {
		cfg.Seed, _ = f.GetUint64("seed")
	}
	if set("runs") {
		cfg.Runs, _ = f.GetInt("runs")
	}
	if set("no-validate") {
		nv, _ := f.GetBool("no-validate")
		cfg.CheckState = !nv
	}
	if set("density") {
		cfg.Density.Enabled, _ = f.GetBool("density")
	}
	if set("bins") {
		cfg.Density.Bins, _ = f.GetInt("bins")
	}
	if set("every") {
		cfg.Density.Every, _ = f.GetInt("every")
	}
	if set("lo") {
		cfg.Density.Lo, _ = f.GetFloat64("lo")
	}
	if set("hi") {
		cfg.Density.Hi, _ = f.GetFloat64("hi")
	}
	if workers > 0 {
		cfg.Workers = workers
	}

	raw, _ := f.GetStringToString("param")
	if len(raw) > 0 && cfg.Params == nil {
		cfg.Params = make(map[string]float64, len(raw))
	}
	for k, v := range raw {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", k, err)
		}
		cfg.Params[k] = x
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// serveMetrics exposes the run metrics of exp while the command runs. The
// returned stop function shuts the server down.
func serveMetrics(exp *experiment.Experiment, model string) func() {
	if metricsAddr == "" {
		return func() {}
	}
	reg := prometheus.NewRegistry()
	exp.AddObserver(metrics.NewRecorder(reg, model))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: metricsAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			level.Error(logger).Log("msg", "metrics server failed", "addr", metricsAddr, "err", err)
		}
	}()
	level.Info(logger).Log("msg", "serving metrics", "addr", metricsAddr)
	return func() { _ = srv.Shutdown(context.Background()) }
}

func effectiveParams(reg *experiment.Registry, cfg *config.Config) map[string]float64 {
	p, err := reg.Params(cfg.Model)
	if err != nil {
		p = map[string]float64{}
	}
	for k, v := range cfg.Params {
		p[k] = v
	}
	return p
}

func save(cfg *config.Config, reg *experiment.Registry, res *experiment.Result) (string, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return "", err
	}
	meta := storage.RunMetadata{
		Model:      cfg.Model,
		Seed:       cfg.Seed,
		Integrator: cfg.Integrator,
		Runs:       len(res.Runs),
		Params:     effectiveParams(reg, cfg),
	}
	id, err := st.Save(meta, res.Trajectory, res.Density)
	if err != nil {
		return "", err
	}
	level.Info(logger).Log("msg", "run saved", "id", id, "dir", dataDir)
	return id, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	cfg, err := buildConfig(cmd, args[0], reg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg, reg).WithLogger(logger)
	defer serveMetrics(exp, cfg.Model)()

	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	h := res.Trajectory
	r := h.Range()
	fmt.Printf("model: %s  method: %s  range: %s\n", cfg.Model, cfg.Integrator, r)
	final := make([]float64, h.Dim())
	tEnd := h.Last(final)
	fmt.Printf("x(%g) = %v\n", tEnd, fmtState(final))
	st := h.Stats()
	fmt.Printf("mean %v  min %v  max %v\n", fmtState(st.Mean), fmtState(st.Min), fmtState(st.Max))

	if noSave, _ := cmd.Flags().GetBool("no-save"); noSave {
		return nil
	}
	id, err := save(cfg, reg, res)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", id)
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	cfg, err := buildConfig(cmd, args[0], reg)
	if err != nil {
		return err
	}
	comp, _ := cmd.Flags().GetInt("component")
	showLive, _ := cmd.Flags().GetBool("live")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	exp := experiment.New(cfg, reg)
	defer serveMetrics(exp, cfg.Model)()

	var res *experiment.Result
	if showLive {
		title := fmt.Sprintf("%s ensemble (%s, %d runs)", cfg.Model, cfg.Integrator, cfg.Runs)
		p := tea.NewProgram(viz.NewEnsembleModel(title, cfg.Runs, comp, cancel))
		exp.AddObserver(viz.NewObserver(p))

		done := make(chan struct{})
		go func() {
			defer close(done)
			res, err = exp.Run(ctx)
			p.Send(viz.DoneMsg{Err: err})
		}()
		if _, perr := p.Run(); perr != nil {
			cancel()
			<-done
			return perr
		}
		<-done
	} else {
		res, err = exp.WithLogger(logger).Run(ctx)
	}
	if err != nil && (res == nil || len(res.Runs) == 0) {
		return err
	}

	finals := make([]float64, 0, len(res.Runs))
	for _, r := range res.Runs {
		if r.Err == nil && comp < len(r.Final) {
			finals = append(finals, r.Final[comp])
		}
	}
	fmt.Printf("%d/%d runs completed\n", len(res.Runs), cfg.Runs)
	if len(finals) > 1 {
		mean, std := stat.MeanStdDev(finals, nil)
		fmt.Printf("final x%d: mean %.6f  std %.6f\n", comp, mean, std)
	}
	if err != nil {
		return err
	}

	if noSave, _ := cmd.Flags().GetBool("no-save"); noSave || res.Trajectory == nil {
		return nil
	}
	id, err := save(cfg, reg, res)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", id)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	cfg, err := buildConfig(cmd, args[0], reg)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	param, _ := f.GetString("sweep")
	from, _ := f.GetFloat64("from")
	to, _ := f.GetFloat64("to")
	n, _ := f.GetInt("n")
	transient, _ := f.GetFloat64("transient")
	comp, _ := f.GetInt("component")

	spec, err := experiment.New(cfg, reg).Spec()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level.Info(logger).Log("msg", "sweep started", "model", cfg.Model, "param", param, "from", from, "to", to, "n", n)
	points, err := analysis.Sweep(ctx, spec, param, from, to, n, comp, transient, cfg.Seed)
	if err != nil {
		return err
	}

	fmt.Printf("%s: extrema of x%d against %s in [%g, %g]\n\n", cfg.Model, comp, param, from, to)
	fmt.Print(analysis.SweepToASCII(points, 80, 20))
	return nil
}

func fmtState(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
