package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/tracing"
)

var eventsOpts struct {
	pid      uint32
	position string
	limit    int
	offset   int
}

var eventsCmd = &cobra.Command{
	Use:   "events <db.sqlite3>",
	Short: "List the events recorded by a run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader, err := datarecording.OpenReader(args[0])
		if err != nil {
			return err
		}
		defer reader.Close()

		events, total, err := tracing.ReadEvents(context.Background(),
			reader, eventsFilter(cmd.Flags().Changed("pid")))
		if err != nil {
			return err
		}

		fmt.Printf("%6s %-10s %5s %14s %14s %-7s %s\n",
			"Seq", "Position", "PID", "VAddr", "KVA", "Kind", "OK")

		for _, e := range events {
			fmt.Printf("%6d %-10s %5d %#14x %#14x %-7s %t\n",
				e.Seq, e.Position, e.PID, e.VAddr, e.KVA, e.Kind, e.OK)
		}

		fmt.Printf("%d of %d events\n", len(events), total)

		return nil
	},
}

func eventsFilter(byPID bool) tracing.EventFilter {
	return tracing.EventFilter{
		PID:      vm.PID(eventsOpts.pid),
		ByPID:    byPID,
		Position: eventsOpts.position,
		Limit:    eventsOpts.limit,
		Offset:   eventsOpts.offset,
	}
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().Uint32Var(&eventsOpts.pid, "pid", 0,
		"only show events of a process")
	eventsCmd.Flags().StringVar(&eventsOpts.position, "position", "",
		"only show events at a hook position, such as Fault or Evict")
	eventsCmd.Flags().IntVar(&eventsOpts.limit, "limit", 0,
		"maximum number of events (0 for all)")
	eventsCmd.Flags().IntVar(&eventsOpts.offset, "offset", 0,
		"number of events to skip")
}
