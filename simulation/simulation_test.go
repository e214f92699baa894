package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/config"
	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/tracing"
	"github.com/sarchlab/vmsim/workload"
)

var _ = Describe("Simulation", func() {
	var (
		cfg config.Config
		dir string
	)

	BeforeEach(func() {
		cfg = config.Default()
		cfg.NumFrames = 4
		cfg.SwapSlots = 32
		dir = GinkgoT().TempDir()
	})

	It("should run a script on a small machine", func() {
		s, err := MakeBuilder().WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())

		out := new(bytes.Buffer)
		Expect(s.RunScript(context.Background(), workload.Demo(), out)).
			To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		Expect(s.ID()).NotTo(BeEmpty())
		Expect(s.DataRecorder()).To(BeNil())
		Expect(s.System().AddressSpaces()).To(BeEmpty())
		Expect(s.Counters().Count("Fault")).To(BeNumerically(">", 0))
		Expect(s.Counters().Count("SwapOut")).To(BeNumerically(">", 0))
		Expect(s.Counters().Count("SwapIn")).To(BeNumerically(">", 0))
		Expect(s.Counters().Count("WriteBack")).To(BeNumerically(">", 0))
		Expect(s.Counters().Count(tracing.FailedFaults)).To(Equal(uint64(1)))
	})

	It("should record events into SQLite", func() {
		path := filepath.Join(dir, "record")

		s, err := MakeBuilder().
			WithConfig(cfg).
			WithOutputFileName(path).
			Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(s.RunScript(context.Background(), workload.Demo(), nil)).
			To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		reader, err := datarecording.OpenReader(path + ".sqlite3")
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		events, total, err := tracing.ReadEvents(context.Background(), reader,
			tracing.EventFilter{Position: "Fork"})
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))
		Expect(events[0].PID).To(Equal(uint32(2)))

		reader.Register("exec_info", datarecording.ExecInfo{})
		infos, _, err := datarecording.ReadAs[datarecording.ExecInfo](
			context.Background(), reader, "exec_info",
			datarecording.Select().Where("Property", "Script"))
		Expect(err).NotTo(HaveOccurred())
		Expect(infos).To(ConsistOf(
			datarecording.ExecInfo{Property: "Script", Value: "demo.vms"}))
	})

	It("should swap into a file", func() {
		cfg.SwapFile = filepath.Join(dir, "swap")

		s, err := MakeBuilder().WithConfig(cfg).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.RunScript(context.Background(), workload.Demo(), nil)).
			To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		info, err := os.Stat(cfg.SwapFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Size()).To(Equal(int64(32 * 4096)))
	})

	It("should write a CSV trace", func() {
		trace := new(bytes.Buffer)

		s, err := MakeBuilder().WithConfig(cfg).WithCSVTrace(trace).Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.RunScript(context.Background(), workload.Demo(), nil)).
			To(Succeed())
		Expect(s.Terminate()).To(Succeed())

		Expect(trace.String()).To(HavePrefix("Seq,Position,PID"))
		Expect(trace.String()).To(ContainSubstring(",Fork,2,"))
	})

	It("should serve the monitor", func() {
		s, err := MakeBuilder().WithConfig(cfg).WithMonitor().Build()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.RunScript(context.Background(), workload.Demo(), nil)).
			To(Succeed())

		rsp, err := http.Get(s.MonitorURL() + "/api/counters")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		counts := map[string]uint64{}
		Expect(json.NewDecoder(rsp.Body).Decode(&counts)).To(Succeed())
		Expect(counts).To(HaveKeyWithValue("Fork", uint64(1)))

		Expect(s.Terminate()).To(Succeed())
	})

	It("should reject a port without a monitor", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithMonitorPort(8080).Build()
		}).To(Panic())
	})

	It("should report swap files that cannot be created", func() {
		cfg.SwapFile = filepath.Join(dir, "missing", "swap")

		_, err := MakeBuilder().WithConfig(cfg).Build()

		Expect(err).To(HaveOccurred())
	})
})
