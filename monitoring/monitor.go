// Package monitoring serves the state of a running virtual memory system over
// HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/vmsim/mem/mmu"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/monitoring/web"
	"github.com/sarchlab/vmsim/sim/id"
)

// Counters provides the number of times each event happened.
type Counters interface {
	Counts() map[string]uint64
}

// Monitor turns a virtual memory system into a server that reports its
// address spaces, frames, and page tables.
type Monitor struct {
	system     *vm.System
	mmu        *mmu.MMU
	counters   Counters
	portNumber int
	idGen      id.IDGenerator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		idGen: id.NewIDGenerator(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterSystem registers the system to report.
func (m *Monitor) RegisterSystem(s *vm.System) {
	m.system = s
}

// RegisterMMU registers the MMU whose page tables are reported.
func (m *Monitor) RegisterMMU(u *mmu.MMU) {
	m.mmu = u
}

// RegisterCounters registers the event counters to report.
func (m *Monitor) RegisterCounters(c Counters) {
	m.counters = c
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/spaces", m.listSpaces)
	r.HandleFunc("/api/space/{pid}", m.describeSpace)
	r.HandleFunc("/api/frames", m.listFrames)
	r.HandleFunc("/api/snapshot", m.snapshot)
	r.HandleFunc("/api/mmu/{pid}", m.listMappings)
	r.HandleFunc("/api/counters", m.listCounters)
	r.HandleFunc("/api/system", m.systemDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":" + strconv.Itoa(m.portNumber)

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	r := m.router()
	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	return url
}

func (m *Monitor) listSpaces(w http.ResponseWriter, _ *http.Request) {
	pids := []vm.PID{}
	for _, space := range m.system.AddressSpaces() {
		pids = append(pids, space.PID())
	}

	writeJSON(w, pids)
}

func (m *Monitor) describeSpace(w http.ResponseWriter, r *http.Request) {
	space := m.findSpaceOr404(w, mux.Vars(r)["pid"])
	if space == nil {
		return
	}

	writeJSON(w, m.system.Describe(space))
}

func (m *Monitor) listFrames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.system.FrameManager().Frames())
}

func (m *Monitor) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, m.system.Snapshot())
}

func (m *Monitor) listMappings(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.ParseUint(mux.Vars(r)["pid"], 10, 32)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	entries := []mmu.Entry{}
	if m.mmu != nil {
		entries = append(entries, m.mmu.Entries(vm.PID(pid))...)
	}

	writeJSON(w, entries)
}

func (m *Monitor) listCounters(w http.ResponseWriter, _ *http.Request) {
	counts := map[string]uint64{}
	if m.counters != nil {
		counts = m.counters.Counts()
	}

	writeJSON(w, counts)
}

func (m *Monitor) systemDetails(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.system)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	PID       uint32 `json:"pid,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

// listFieldValue serializes a field of an address space, or of the system
// when no PID is given.
func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	req := fieldReq{}

	err := json.Unmarshal([]byte(mux.Vars(r)["json"]), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	var root any = m.system
	if req.PID != 0 {
		space := m.findSpaceOr404(w, strconv.FormatUint(uint64(req.PID), 10))
		if space == nil {
			return
		}

		root = space
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(root)
	serializer.SetMaxDepth(1)

	if req.FieldName != "" {
		err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) findSpaceOr404(
	w http.ResponseWriter,
	pidString string,
) *vm.AddressSpace {
	pid, err := strconv.ParseUint(pidString, 10, 32)
	if err == nil {
		space, ok := m.system.AddressSpace(vm.PID(pid))
		if ok {
			return space
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err = w.Write([]byte("Address space not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.status())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
