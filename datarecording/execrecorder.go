package datarecording

import (
	"os"
	"strings"
	"time"
)

const timeLayout = "2006-01-02 15:04:05.000000000"

// ExecInfo is one property of a recorded run.
type ExecInfo struct {
	Property string
	Value    string
}

// An ExecRecorder records how and when a run happened, in the exec_info
// table.
type ExecRecorder struct {
	tableName string
	recorder  DataRecorder
	entries   []ExecInfo
}

// NewExecRecorder creates the exec_info table in recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		tableName: "exec_info",
		recorder:  recorder,
	}

	recorder.CreateTable(e.tableName, ExecInfo{})

	return e
}

// Start records the start time, the command line and the working directory.
func (e *ExecRecorder) Start() {
	e.Property("Start Time", time.Now().Format(timeLayout))
	e.Property("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Property("Working Directory", cwd)
}

// Property records a property of the run, such as a configuration value.
func (e *ExecRecorder) Property(name, value string) {
	e.entries = append(e.entries, ExecInfo{Property: name, Value: value})
}

// End writes the recorded properties along with the end time.
func (e *ExecRecorder) End() {
	e.Property("End Time", time.Now().Format(timeLayout))

	for _, entry := range e.entries {
		e.recorder.InsertData(e.tableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
