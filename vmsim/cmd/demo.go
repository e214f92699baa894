package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/workload"
)

var demoOpts runOptions

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the built-in demonstration on a machine with 4 frames.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		c := loadConfig()
		c.PageSize = 4096
		c.NumFrames = 4

		return runScript(c, workload.Demo(), demoOpts)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	addRunFlags(demoCmd, &demoOpts)
}
