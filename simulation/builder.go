package simulation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/rs/xid"

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
)

// MemoryBase is the kernel address of the first frame.
const MemoryBase = 0x100000

// Builder can be used to build a simulation.
type Builder struct {
	config         config.Config
	logger         *slog.Logger
	monitorOn      bool
	monitorPort    int
	outputFileName string
	logEvents      bool
	csvTrace       io.Writer
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		config: config.Default(),
		logger: slog.New(slog.DiscardHandler),
	}
}

// WithConfig sets the machine configuration.
func (b Builder) WithConfig(c config.Config) Builder {
	b.config = c
	return b
}

// WithLogger sets the logger shared by all parts of the simulation.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

// WithMonitor turns on the monitoring server.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server. It
// overrides the port of the configuration.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithOutputFileName records events into the SQLite file name.sqlite3,
// overriding the configuration.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithEventLog writes every event to the logger at debug level.
func (b Builder) WithEventLog() Builder {
	b.logEvents = true
	return b
}

// WithCSVTrace writes every event as a CSV line to w.
func (b Builder) WithCSVTrace(w io.Writer) Builder {
	b.csvTrace = w
	return b
}

func (b Builder) parametersMustBeValid() {
	if !b.monitorOn && b.monitorPort != 0 {
		panic("monitor port cannot be set when monitoring is disabled")
	}

	if b.config.NumFrames <= 0 {
		panic("the machine needs at least one frame")
	}
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	b.parametersMustBeValid()

	c := b.config
	if b.outputFileName != "" {
		c.RecordBackend = config.BackendSQLite
		c.RecordDB = b.outputFileName
	}

	s := &Simulation{
		id:     xid.New().String(),
		config: c,
		logger: b.logger,
		files:  fs.New(),
	}

	s.memory = physmem.New(MemoryBase, uint64(c.NumFrames)*c.PageSize)
	s.mmu = mmu.MakeBuilder().WithPageSize(c.PageSize).Build()

	swapDevice, err := b.buildSwap(s)
	if err != nil {
		return nil, err
	}

	s.system = vm.MakeBuilder().
		WithPageSize(c.PageSize).
		WithUserTop(c.UserTop).
		WithForkMappingPolicy(c.ForkMappings).
		WithPhysicalMemory(s.memory).
		WithMMU(s.mmu).
		WithSwapDevice(swapDevice).
		WithLogger(b.logger).
		Build()
	s.machine = machine.New(s.system, s.mmu, s.memory)

	s.counters = tracing.NewCountTracer()
	s.system.AcceptHook(s.counters)

	if b.logEvents {
		s.system.AcceptHook(tracing.NewLogTracer(b.logger, slog.LevelDebug))
	}

	if b.csvTrace != nil {
		s.csvTracer = tracing.NewCSVTracer(b.csvTrace)
		s.system.AcceptHook(s.csvTracer)
	}

	if c.Recording() {
		err = b.buildRecorder(s)
		if err != nil {
			return nil, errors.Join(err, s.closeSwap())
		}
	}

	if b.monitorOn {
		b.buildMonitor(s)
	}

	return s, nil
}

func (b Builder) buildSwap(s *Simulation) (vm.SwapDevice, error) {
	c := s.config

	if c.SwapSlots == 0 {
		return nil, nil
	}

	if c.SwapFile == "" {
		return swap.NewMemoryDevice(c.PageSize, c.SwapSlots), nil
	}

	device, err := swap.NewFileDevice(c.SwapFile, c.PageSize, c.SwapSlots)
	if err != nil {
		return nil, fmt.Errorf("creating swap file: %w", err)
	}

	s.swapFile = device

	return device, nil
}

func (b Builder) buildRecorder(s *Simulation) error {
	recorder, err := newRecorder(s.config)
	if err != nil {
		return err
	}

	s.dataRecorder = recorder
	s.system.AcceptHook(tracing.NewEventRecorder(recorder))

	s.execRecorder = datarecording.NewExecRecorder(recorder)
	s.execRecorder.Start()
	s.execRecorder.Property("Simulation ID", s.id)
	s.execRecorder.Property("Page Size", strconv.FormatUint(s.config.PageSize, 10))
	s.execRecorder.Property("Frames", strconv.Itoa(s.config.NumFrames))
	s.execRecorder.Property("Swap Slots", strconv.Itoa(s.config.SwapSlots))
	s.execRecorder.Property("Fork Mappings", s.config.ForkMappings.String())

	return nil
}

func newRecorder(c config.Config) (datarecording.DataRecorder, error) {
	switch c.RecordBackend {
	case config.BackendMySQL:
		return datarecording.NewMySQLRecorder(c.RecordDSN)
	case config.BackendClickHouse:
		opts, err := datarecording.ParseClickHouseDSN(c.RecordDSN)
		if err != nil {
			return nil, err
		}

		recorder, err := datarecording.NewClickHouseRecorder(opts)
		if err != nil {
			return nil, err
		}

		return recorder, nil
	case config.BackendMongoDB:
		recorder, err := datarecording.NewMongoDBRecorderFromURI(c.RecordDSN)
		if err != nil {
			return nil, err
		}

		return recorder, nil
	default:
		return datarecording.New(c.RecordDB), nil
	}
}

func (b Builder) buildMonitor(s *Simulation) {
	port := s.config.MonitorPort
	if b.monitorPort != 0 {
		port = b.monitorPort
	}

	s.monitor = monitoring.NewMonitor().WithPortNumber(port)
	s.monitor.RegisterSystem(s.system)
	s.monitor.RegisterMMU(s.mmu)
	s.monitor.RegisterCounters(s.counters)
	s.monitorURL = s.monitor.StartServer()
}
