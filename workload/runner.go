package workload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/vmsim/fs"
	"github.com/sarchlab/vmsim/machine"
	"github.com/sarchlab/vmsim/mem/vm"
)

var (
	// ErrNoProcess is returned when a command names a process that does not
	// exist.
	ErrNoProcess = errors.New("no such process")

	// ErrMismatch is returned when an expectation does not hold.
	ErrMismatch = errors.New("unexpected content")
)

// Progress receives the number of commands that completed.
type Progress interface {
	IncrementFinished(amount uint64)
}

// A Runner executes scripts on a machine. Files named by scripts live in an
// in-memory file system.
type Runner struct {
	machine  *machine.Machine
	sys      *vm.System
	files    *fs.FS
	out      io.Writer
	log      *slog.Logger
	progress Progress
}

const hostPrefix = "host:"

type handler func(r *Runner, c Command, a *args) error

var handlers = map[string]handler{
	"file":        (*Runner).file,
	"exec":        (*Runner).exec,
	"load":        (*Runner).load,
	"anon":        (*Runner).anon,
	"write":       (*Runner).write,
	"read":        (*Runner).read,
	"expect":      (*Runner).expect,
	"segv":        (*Runner).segv,
	"expect-file": (*Runner).expectFile,
	"mmap":        (*Runner).mmap,
	"munmap":      (*Runner).munmap,
	"fork":        (*Runner).fork,
	"exit":        (*Runner).exit,
	"snapshot":    (*Runner).snapshot,
}

// Files returns the file system of the runner.
func (r *Runner) Files() *fs.FS {
	return r.files
}

// Run executes the commands of script in order. It stops at the first
// command that fails or when ctx is done. A process whose access faults
// without resolution is terminated and the script continues.
func (r *Runner) Run(ctx context.Context, script *Script) error {
	for _, c := range script.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}

		a := &args{c: c}

		err := handlers[c.Name](r, c, a)
		if err == nil {
			err = a.err
		}

		if err != nil {
			return fmt.Errorf("%s:%d: %s: %w", script.Name, c.Line, c.Name, err)
		}

		r.log.Debug("command done", "line", c.Line, "command", c.Name)

		if r.progress != nil {
			r.progress.IncrementFinished(1)
		}
	}

	return nil
}

// Shutdown terminates every process that is still alive.
func (r *Runner) Shutdown() {
	for _, space := range r.sys.AddressSpaces() {
		r.machine.Exit(space)
	}
}

func (r *Runner) space(pid vm.PID) (*vm.AddressSpace, error) {
	space, ok := r.sys.AddressSpace(pid)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoProcess, pid)
	}

	return space, nil
}

// open opens a file of the runner's file system, or the host file at PATH
// for names of the form host:PATH.
func (r *Runner) open(name string) (vm.File, error) {
	lock := r.sys.FileLock()
	lock.Lock()
	defer lock.Unlock()

	if path, ok := strings.CutPrefix(name, hostPrefix); ok {
		f, err := fs.OpenOS(path)
		if err != nil {
			return nil, err
		}

		return f, nil
	}

	h, err := r.files.Open(name)
	if err != nil {
		return nil, err
	}

	return h, nil
}

func (r *Runner) contents(name string) ([]byte, error) {
	if path, ok := strings.CutPrefix(name, hostPrefix); ok {
		return os.ReadFile(path)
	}

	return r.files.Contents(name)
}

// file NAME TEXT [SIZE]
func (r *Runner) file(_ Command, a *args) error {
	name := a.str(0)
	data := []byte(a.str(1))

	if a.has(2) {
		data = repeat(data, int(a.uint(2)))
	}

	if a.err != nil {
		return nil
	}

	lock := r.sys.FileLock()
	lock.Lock()
	defer lock.Unlock()

	return r.files.Create(name, data)
}

func repeat(pattern []byte, size int) []byte {
	data := make([]byte, size)
	if len(pattern) == 0 {
		return data
	}

	for i := range data {
		data[i] = pattern[i%len(pattern)]
	}

	return data
}

// exec PID FILE, where FILE may be - for a process without executable.
func (r *Runner) exec(_ Command, a *args) error {
	pid := a.pid(0)
	name := a.str(1)

	if a.err != nil {
		return nil
	}

	if _, exists := r.sys.AddressSpace(pid); exists {
		return fmt.Errorf("process %d already exists", pid)
	}

	var executable vm.File

	if name != "-" {
		handle, err := r.open(name)
		if err != nil {
			return err
		}

		executable = handle
	}

	r.sys.NewAddressSpace(pid, executable)
	r.log.Info("process started", "pid", pid, "executable", name)

	return nil
}

// load PID VADDR OFFSET READ ZERO [rw|ro]
func (r *Runner) load(_ Command, a *args) error {
	pid := a.pid(0)
	vAddr := a.uint(1)
	offset := int64(a.uint(2))
	readBytes := a.uint(3)
	zeroBytes := a.uint(4)
	writable := a.writable(5, false)

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	return r.sys.LoadProgram(space, vAddr, offset, readBytes, zeroBytes, writable)
}

// anon PID VADDR PAGES [rw|ro]
func (r *Runner) anon(_ Command, a *args) error {
	pid := a.pid(0)
	vAddr := a.uint(1)
	numPages := a.uint(2)
	writable := a.writable(3, true)

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	for i := uint64(0); i < numPages; i++ {
		err := r.sys.AllocPage(space, vm.KindAnon,
			vAddr+i*r.sys.PageSize(), writable, nil, nil)
		if err != nil {
			return err
		}
	}

	return nil
}

// access runs fn and terminates the process if fn segfaults.
func (r *Runner) access(space *vm.AddressSpace, fn func() error) error {
	err := fn()
	if !errors.Is(err, machine.ErrSegFault) {
		return err
	}

	fmt.Fprintf(r.out, "pid %d: %v\n", space.PID(), err)
	r.log.Warn("process terminated", "pid", space.PID(), "err", err)
	r.machine.Exit(space)

	return nil
}

// write PID VADDR TEXT
func (r *Runner) write(_ Command, a *args) error {
	pid := a.pid(0)
	vAddr := a.uint(1)
	data := []byte(a.str(2))

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	return r.access(space, func() error {
		return r.machine.Write(space, vAddr, data)
	})
}

// read PID VADDR LENGTH
func (r *Runner) read(_ Command, a *args) error {
	pid := a.pid(0)
	vAddr := a.uint(1)
	length := a.uint(2)

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	return r.access(space, func() error {
		data, err := r.machine.Read(space, vAddr, int(length))
		if err != nil {
			return err
		}

		fmt.Fprintf(r.out, "pid %d read 0x%x: %q\n", pid, vAddr, data)

		return nil
	})
}

// expect PID VADDR TEXT
func (r *Runner) expect(_ Command, a *args) error {
	pid := a.pid(0)
	vAddr := a.uint(1)
	want := []byte(a.str(2))

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	data, err := r.machine.Read(space, vAddr, len(want))
	if err != nil {
		return err
	}

	if !bytes.Equal(data, want) {
		return fmt.Errorf("%w at 0x%x: got %q, want %q",
			ErrMismatch, vAddr, data, want)
	}

	return nil
}

// segv PID VADDR r|w
func (r *Runner) segv(_ Command, a *args) error {
	pid := a.pid(0)
	vAddr := a.uint(1)
	mode := a.str(2)

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	switch mode {
	case "r":
		_, err = r.machine.Read(space, vAddr, 1)
	case "w":
		err = r.machine.Write(space, vAddr, []byte{0})
	default:
		return fmt.Errorf("access mode must be r or w, got %q", mode)
	}

	if !errors.Is(err, machine.ErrSegFault) {
		return fmt.Errorf("%w: access to 0x%x did not fault (%v)",
			ErrMismatch, vAddr, err)
	}

	fmt.Fprintf(r.out, "pid %d: %v\n", pid, err)
	r.machine.Exit(space)

	return nil
}

// expect-file NAME TEXT checks that the file starts with TEXT.
func (r *Runner) expectFile(_ Command, a *args) error {
	name := a.str(0)
	want := []byte(a.str(1))

	if a.err != nil {
		return nil
	}

	lock := r.sys.FileLock()
	lock.Lock()
	data, err := r.contents(name)
	lock.Unlock()

	if err != nil {
		return err
	}

	if !bytes.HasPrefix(data, want) {
		return fmt.Errorf("%w in %s: got %q, want prefix %q",
			ErrMismatch, name, data[:min(len(data), len(want))], want)
	}

	return nil
}

// mmap PID ADDR LENGTH FILE OFFSET [rw|ro]
func (r *Runner) mmap(_ Command, a *args) error {
	pid := a.pid(0)
	addr := a.uint(1)
	length := a.uint(2)
	name := a.str(3)
	offset := int64(a.uint(4))
	writable := a.writable(5, true)

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	handle, err := r.open(name)
	if err != nil {
		return err
	}

	lock := r.sys.FileLock()

	_, mapErr := r.sys.Map(space, addr, length, writable, handle, offset)

	lock.Lock()
	closeErr := handle.Close()
	lock.Unlock()

	return errors.Join(mapErr, closeErr)
}

// munmap PID ADDR
func (r *Runner) munmap(_ Command, a *args) error {
	pid := a.pid(0)
	addr := a.uint(1)

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	r.sys.Unmap(space, addr)

	return nil
}

// fork PARENT CHILD
func (r *Runner) fork(_ Command, a *args) error {
	parentPID := a.pid(0)
	childPID := a.pid(1)

	if a.err != nil {
		return nil
	}

	parent, err := r.space(parentPID)
	if err != nil {
		return err
	}

	if _, exists := r.sys.AddressSpace(childPID); exists {
		return fmt.Errorf("process %d already exists", childPID)
	}

	_, err = r.sys.Fork(parent, childPID)
	if err != nil {
		return err
	}

	r.log.Info("process forked", "parent", parentPID, "child", childPID)

	return nil
}

// exit PID
func (r *Runner) exit(_ Command, a *args) error {
	pid := a.pid(0)

	if a.err != nil {
		return nil
	}

	space, err := r.space(pid)
	if err != nil {
		return err
	}

	r.machine.Exit(space)
	r.log.Info("process exited", "pid", pid)

	return nil
}

func (r *Runner) snapshot(_ Command, _ *args) error {
	data, err := json.MarshalIndent(r.sys.Snapshot(), "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(r.out, "%s\n", data)

	return err
}

// args converts the arguments of a command, keeping the first error.
type args struct {
	c   Command
	err error
}

func (a *args) has(i int) bool {
	return i < len(a.c.Args)
}

func (a *args) str(i int) string {
	return a.c.Args[i]
}

func (a *args) uint(i int) uint64 {
	n, err := strconv.ParseUint(a.c.Args[i], 0, 64)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("%w: argument %d: %v", ErrSyntax, i+1, err)
	}

	return n
}

func (a *args) pid(i int) vm.PID {
	n, err := strconv.ParseUint(a.c.Args[i], 10, 32)
	if err != nil && a.err == nil {
		a.err = fmt.Errorf("%w: bad pid %q", ErrSyntax, a.c.Args[i])
	}

	return vm.PID(n)
}

func (a *args) writable(i int, def bool) bool {
	if !a.has(i) {
		return def
	}

	switch a.c.Args[i] {
	case "rw":
		return true
	case "ro":
		return false
	}

	if a.err == nil {
		a.err = fmt.Errorf("%w: want rw or ro, got %q", ErrSyntax, a.c.Args[i])
	}

	return def
}
