package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/pkg/browser"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run [config file] [trace file]",
	Short: "Replay a trace through the cache hierarchy.",
	Long: "`run [config file] [trace file]` writes the L1 and L2 outcome " +
		"codes of every access, one line per access, to [trace file].out.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptionsFromFlags(cmd, args)
		if err != nil {
			return err
		}

		return runSimulation(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringP("output", "o", "", "output file, [trace file].out by default")
	flags.String("on-malformed", "",
		"what to do with malformed trace lines: abort, skip or stop "+
			"(env CACHESIM_ON_MALFORMED, default abort)")
	flags.Bool("record", false,
		"record accesses and statistics into a SQLite database")
	flags.String("record-path", "",
		"database path without extension (env CACHESIM_RECORD)")
	flags.Bool("monitor", false, "serve progress and statistics over HTTP")
	flags.Int("monitor-port", 0,
		"monitor port, random by default (env CACHESIM_MONITOR_PORT)")
	flags.Bool("open-browser", false, "open the monitor in a browser")
	flags.BoolP("verbose", "v", false, "log every access to stderr")
	flags.Bool("progress", true, "show a progress bar")
	flags.Bool("summary", true, "print per-level statistics at the end")
}

type runOptions struct {
	configPath   string
	tracePath    string
	outputPath   string
	policy       trace.MalformedPolicy
	record       bool
	recordPath   string
	monitor      bool
	monitorPort  int
	openBrowser  bool
	verbose      bool
	showProgress bool
	showSummary  bool
}

func runOptionsFromFlags(cmd *cobra.Command, args []string) (runOptions, error) {
	flags := cmd.Flags()
	opts := runOptions{
		configPath: args[0],
		tracePath:  args[1],
	}

	opts.outputPath, _ = flags.GetString("output")
	opts.record, _ = flags.GetBool("record")
	opts.monitor, _ = flags.GetBool("monitor")
	opts.openBrowser, _ = flags.GetBool("open-browser")
	opts.verbose, _ = flags.GetBool("verbose")
	opts.showProgress, _ = flags.GetBool("progress")
	opts.showSummary, _ = flags.GetBool("summary")

	policyName, _ := flags.GetString("on-malformed")
	if !flags.Changed("on-malformed") {
		policyName = envOr("CACHESIM_ON_MALFORMED", policyName)
	}

	policy, err := trace.ParseMalformedPolicy(policyName)
	if err != nil {
		return opts, err
	}
	opts.policy = policy

	opts.recordPath, _ = flags.GetString("record-path")
	if !flags.Changed("record-path") {
		opts.recordPath = envOr("CACHESIM_RECORD", opts.recordPath)
	}

	opts.monitorPort, _ = flags.GetInt("monitor-port")
	if port, ok := os.LookupEnv("CACHESIM_MONITOR_PORT"); ok &&
		!flags.Changed("monitor-port") {
		opts.monitorPort, err = strconv.Atoi(port)
		if err != nil {
			return opts, errors.Wrap(err, "CACHESIM_MONITOR_PORT")
		}
	}

	if opts.outputPath == "" {
		opts.outputPath = defaultOutputPath(opts.tracePath)
	}

	return opts, nil
}

func defaultOutputPath(tracePath string) string {
	return tracePath + ".out"
}

func buildSimulation(opts runOptions, stderr io.Writer) (*simulation.Simulation, error) {
	config, err := trace.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	builder := simulation.MakeBuilder().WithConfig(config)

	if opts.record {
		builder = builder.WithDataRecording(opts.recordPath)
	}

	if opts.monitor {
		builder = builder.WithMonitoring(opts.monitorPort)
	}

	if opts.verbose {
		builder = builder.WithAccessLogger(log.New(stderr, "", 0))
	}

	return builder.Build()
}

func runSimulation(opts runOptions, stdout, stderr io.Writer) error {
	traceFile, err := os.Open(opts.tracePath)
	if err != nil {
		return errors.Wrap(err, "open trace")
	}
	defer traceFile.Close()

	info, err := traceFile.Stat()
	if err != nil {
		return errors.Wrap(err, "stat trace")
	}

	s, err := buildSimulation(opts, stderr)
	if err != nil {
		return err
	}

	outFile, err := os.Create(opts.outputPath)
	if err != nil {
		_ = s.Terminate()
		return errors.Wrap(err, "create output")
	}

	trackers, done := progressTrackers(s, opts, info.Size(), stderr)

	if opts.openBrowser && s.MonitorURL() != "" {
		if err := browser.OpenURL(s.MonitorURL()); err != nil {
			fmt.Fprintf(stderr, "Cannot open browser: %v\n", err)
		}
	}

	start := time.Now()
	report, runErr := s.Run(
		trace.NewReader(traceFile, opts.policy),
		trace.NewOutcomeWriter(outFile),
		trackers...,
	)
	done()

	if err := outFile.Close(); err != nil && runErr == nil {
		runErr = errors.Wrap(err, "close output")
	}

	if err := s.Terminate(); err != nil && runErr == nil {
		runErr = err
	}

	if runErr != nil {
		return runErr
	}

	if opts.showSummary {
		printSummary(stdout, report, s.Stats(), time.Since(start))
	}

	return nil
}

func progressTrackers(
	s *simulation.Simulation,
	opts runOptions,
	traceSize int64,
	stderr io.Writer,
) (trackers []simulation.ProgressTracker, done func()) {
	var finishers []func()

	if opts.showProgress {
		bar := newProgressBar(traceSize, stderr)
		trackers = append(trackers, simulation.ProgressFunc(func(n int64) {
			_ = bar.Set64(n)
		}))
		finishers = append(finishers, func() { _ = bar.Finish() })
	}

	if m := s.Monitor(); m != nil {
		bar := m.CreateProgressBar(opts.tracePath, uint64(traceSize))
		trackers = append(trackers, simulation.ProgressFunc(func(n int64) {
			bar.SetFinished(uint64(n))
		}))
		finishers = append(finishers, func() { m.CompleteProgressBar(bar) })
	}

	done = func() {
		for _, f := range finishers {
			f()
		}
	}

	return trackers, done
}

func newProgressBar(total int64, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("replaying"),
		progressbar.OptionThrottle(time.Second),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "#",
			SaucerPadding: " ",
			BarStart:      "|",
			BarEnd:        "|",
		}),
	)
}
