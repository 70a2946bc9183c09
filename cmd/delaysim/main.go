package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	dataDir     string
	metricsAddr string
	workers     int
)

var logger log.Logger = log.NewNopLogger()

func newLogger(lvl string) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(l, level.Allow(level.ParseDefault(lvl, level.InfoValue())))
}

// main registers the delaysim commands and executes the root command.
func main() {
	rootCmd := &cobra.Command{
		Use:           "delaysim",
		Short:         "delay and stochastic differential equation simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			dataDir = viper.GetString("data")
			metricsAddr = viper.GetString("metrics-addr")
			workers = viper.GetInt("workers")
			logger = newLogger(viper.GetString("log-level"))
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("data", ".delaysim", "data directory")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("metrics-addr", "", "serve prometheus metrics on this address while running")
	pf.Int("workers", 0, "concurrent runs (0 uses GOMAXPROCS)")
	for _, name := range []string{"data", "log-level", "metrics-addr", "workers"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
	viper.SetEnvPrefix("DELAYSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate one trajectory and store it",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd, 1)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [model]",
		Short: "run a Monte Carlo ensemble",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnsemble,
	}
	addRunFlags(ensembleCmd, 100)
	ensembleCmd.Flags().Bool("live", false, "show live progress")
	ensembleCmd.Flags().Int("component", 0, "component summarised over runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep a parameter and draw the extrema of the settled solution",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addRunFlags(sweepCmd, 1)
	sweepCmd.Flags().String("sweep", "tau", "parameter to sweep")
	sweepCmd.Flags().Float64("from", 0.1, "first parameter value")
	sweepCmd.Flags().Float64("to", 2, "last parameter value")
	sweepCmd.Flags().Int("n", 40, "number of parameter values")
	sweepCmd.Flags().Float64("transient", 0, "time discarded before recording extrema")
	sweepCmd.Flags().Int("component", 0, "recorded component")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().Int("component", -1, "component to plot (-1 plots all)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a trajectory as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a trajectory as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringP("output", "o", "", "output file (default stdout)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum and delay portrait of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Int("component", 0, "analysed component")
	analyzeCmd.Flags().Float64("lag", 0, "portrait lag (default: the model delay)")

	compareCmd := &cobra.Command{
		Use:   "compare [run_id] [run_id]",
		Short: "distance and divergence rate between two stored runs",
		Args:  cobra.ExactArgs(2),
		RunE:  compareRuns,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list models or the presets of a model",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, ensembleCmd, sweepCmd, listCmd, plotCmd, exportCSVCmd,
		exportJSONCmd, analyzeCmd, compareCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command, defaultRuns int) {
	f := cmd.Flags()
	f.String("config", "", "config file path (yaml)")
	f.String("preset", "", "use preset configuration")
	f.String("integrator", "", "integration method (default depends on the model)")
	f.Float64("t0", 0, "range start")
	f.Float64("tn", 10, "range end")
	f.Float64("dt", 0.01, "step size")
	f.Int("window", 0, "interpolation window (0 keeps the default)")
	f.Uint64("seed", 1, "seed of the first run")
	f.Int("runs", defaultRuns, "number of runs")
	f.StringToStringP("param", "p", nil, "model parameters, e.g. -p tau=2,alpha=-1")
	f.Bool("no-validate", false, "do not abort on NaN or Inf states")
	f.Bool("density", false, "collect the probability density over runs")
	f.Int("bins", 50, "density bins")
	f.Int("every", 10, "density snapshot interval in steps")
	f.Float64("lo", -5, "density lower bound")
	f.Float64("hi", 5, "density upper bound")
	f.Bool("no-save", false, "do not store the result")
}
