// Package simulation assembles a simulated machine, with its virtual memory
// system, recorders, tracers and monitor, from a configuration.
package simulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/sarchlab/vmsim/config"
	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/fs"
	"github.com/sarchlab/vmsim/machine"
	"github.com/sarchlab/vmsim/mem/mmu"
	"github.com/sarchlab/vmsim/mem/physmem"
	"github.com/sarchlab/vmsim/mem/swap"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/tracing"
	"github.com/sarchlab/vmsim/workload"
)

// A Simulation owns every part of a simulated machine.
type Simulation struct {
	id     string
	config config.Config
	logger *slog.Logger

	memory   *physmem.Memory
	mmu      *mmu.MMU
	swapFile *swap.FileDevice
	system   *vm.System
	machine  *machine.Machine
	files    *fs.FS

	counters     *tracing.CountTracer
	csvTracer    *tracing.CSVTracer
	dataRecorder datarecording.DataRecorder
	execRecorder *datarecording.ExecRecorder
	monitor      *monitoring.Monitor
	monitorURL   string
}

// ID returns the unique name of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() config.Config {
	return s.config
}

// System returns the virtual memory system.
func (s *Simulation) System() *vm.System {
	return s.system
}

// Machine returns the machine that performs memory accesses.
func (s *Simulation) Machine() *machine.Machine {
	return s.machine
}

// Files returns the file system of the simulated machine.
func (s *Simulation) Files() *fs.FS {
	return s.files
}

// Counters returns the number of times each event happened.
func (s *Simulation) Counters() *tracing.CountTracer {
	return s.counters
}

// DataRecorder returns the recorder of the events, or nil when recording is
// off.
func (s *Simulation) DataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// Monitor returns the monitor, or nil when monitoring is off.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// MonitorURL returns the address of the monitoring server.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// RunScript runs a script on the machine, printing its output to out, which
// may be nil. Every process left alive by the script is terminated
// afterwards.
func (s *Simulation) RunScript(
	ctx context.Context,
	script *workload.Script,
	out io.Writer,
) error {
	if out == nil {
		out = io.Discard
	}

	b := workload.MakeBuilder().
		WithMachine(s.machine).
		WithFileSystem(s.files).
		WithOutput(out).
		WithLogger(s.logger)

	if s.monitor != nil {
		bar := s.monitor.CreateProgressBar(script.Name,
			uint64(len(script.Commands)))
		defer s.monitor.CompleteProgressBar(bar)

		b = b.WithProgress(bar)
	}

	runner := b.Build()
	err := runner.Run(ctx, script)
	runner.Shutdown()

	if s.execRecorder != nil {
		s.execRecorder.Property("Script", script.Name)
		s.execRecorder.Property("Commands", strconv.Itoa(len(script.Commands)))
	}

	for _, name := range s.counters.Names() {
		s.logger.Info("event count", "event", name, "count", s.counters.Count(name))
	}

	return err
}

// Terminate flushes the recorders and releases the swap file.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.csvTracer != nil {
		errs = append(errs, s.csvTracer.Flush())
	}

	if s.dataRecorder != nil {
		s.execRecorder.End()
		errs = append(errs, s.dataRecorder.Close())
	}

	errs = append(errs, s.closeSwap())

	return errors.Join(errs...)
}

func (s *Simulation) closeSwap() error {
	if s.swapFile == nil {
		return nil
	}

	return s.swapFile.Close()
}
