package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/config"
	"github.com/sarchlab/vmsim/simulation"
	"github.com/sarchlab/vmsim/workload"
)

type runOptions struct {
	monitor   bool
	port      int
	open      bool
	wait      bool
	record    string
	csv       string
	frames    int
	logEvents bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Run a workload script.",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		script, err := workload.ParseFile(args[0])
		if err != nil {
			return err
		}

		return runScript(loadConfig(), script, runOpts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd, &runOpts)
}

func addRunFlags(c *cobra.Command, o *runOptions) {
	c.Flags().BoolVar(&o.monitor, "monitor", false,
		"serve the state of the machine over HTTP")
	c.Flags().IntVar(&o.port, "port", 0,
		"port of the monitor (default VMSIM_MONITOR_PORT or random)")
	c.Flags().BoolVar(&o.open, "open", false,
		"open the monitor in a browser; implies --monitor")
	c.Flags().BoolVar(&o.wait, "wait", false,
		"keep the monitor running until interrupted")
	c.Flags().StringVar(&o.record, "record", "",
		"record events into the SQLite file <name>.sqlite3")
	c.Flags().StringVar(&o.csv, "csv", "",
		"write events as CSV into a file")
	c.Flags().IntVar(&o.frames, "frames", 0,
		"number of physical frames (default VMSIM_NUM_FRAMES)")
	c.Flags().BoolVar(&o.logEvents, "log-events", false,
		"log every event at debug level")
}

func runScript(c config.Config, script *workload.Script, o runOptions) error {
	if o.frames > 0 {
		c.NumFrames = o.frames
	}

	logger := config.NewLogger(os.Stderr, c.LogLevel)

	b := simulation.MakeBuilder().
		WithConfig(c).
		WithLogger(logger).
		WithOutputFileName(o.record)

	if o.monitor || o.open || o.wait {
		b = b.WithMonitor().WithMonitorPort(o.port)
	}

	if o.logEvents {
		b = b.WithEventLog()
	}

	if o.csv != "" {
		f, err := os.Create(o.csv)
		if err != nil {
			return err
		}
		defer f.Close()

		b = b.WithCSVTrace(f)
	}

	s, err := b.Build()
	if err != nil {
		return err
	}

	if o.open {
		err = browser.OpenURL(s.MonitorURL())
		if err != nil {
			logger.Warn("cannot open browser", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := s.RunScript(ctx, script, os.Stdout)

	for _, name := range s.Counters().Names() {
		fmt.Printf("%-10s %d\n", name, s.Counters().Count(name))
	}

	if o.wait && s.MonitorURL() != "" {
		fmt.Fprintf(os.Stderr, "Monitor running at %s, press Ctrl-C to stop\n",
			s.MonitorURL())
		<-ctx.Done()
	}

	termErr := s.Terminate()
	if runErr != nil {
		return runErr
	}

	return termErr
}
