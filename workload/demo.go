package workload

import (
	_ "embed"
	"strings"
)

//go:embed scripts/demo.vms
var demoScript string

// Demo returns the built-in demonstration script.
func Demo() *Script {
	script, err := Parse("demo.vms", strings.NewReader(demoScript))
	if err != nil {
		panic(err)
	}

	return script
}
