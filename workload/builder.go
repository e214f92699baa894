package workload

import (
	"io"
	"log/slog"

	"github.com/sarchlab/vmsim/fs"
	"github.com/sarchlab/vmsim/machine"
)

// A Builder can build runners.
type Builder struct {
	machine  *machine.Machine
	files    *fs.FS
	out      io.Writer
	log      *slog.Logger
	progress Progress
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		out: io.Discard,
		log: slog.New(slog.DiscardHandler),
	}
}

// WithMachine sets the machine that runs the scripts.
func (b Builder) WithMachine(m *machine.Machine) Builder {
	b.machine = m
	return b
}

// WithFileSystem sets the file system that holds the files of the scripts.
// A fresh one is created if unset.
func (b Builder) WithFileSystem(files *fs.FS) Builder {
	b.files = files
	return b
}

// WithOutput sets where read results and terminations are printed.
func (b Builder) WithOutput(out io.Writer) Builder {
	b.out = out
	return b
}

// WithLogger sets the logger of the runner.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.log = logger
	return b
}

// WithProgress sets the tracker that counts completed commands.
func (b Builder) WithProgress(progress Progress) Builder {
	b.progress = progress
	return b
}

// Build creates a runner.
func (b Builder) Build() *Runner {
	if b.machine == nil {
		panic("a runner needs a machine")
	}

	files := b.files
	if files == nil {
		files = fs.New()
	}

	return &Runner{
		machine:  b.machine,
		sys:      b.machine.System(),
		files:    files,
		out:      b.out,
		log:      b.log,
		progress: b.progress,
	}
}
