package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jboxsh/jbox/core/vos"
)

var jobsCommand = Command{
	Name:  "jobs",
	Use:   "jobs [-lp] [--json]",
	Short: "list background jobs",
	Long:  "Display the number, state and command of each background job. Finished jobs are listed once.",
}

type jobJSON struct {
	ID      int    `json:"id"`
	State   string `json:"state"`
	Command string `json:"command"`
	Pids    []int  `json:"pids"`
}

// Jobs lists the background job table.
func Jobs(host Host, virtOS vos.VOS) int {
	cmd := jobsCommand.Simple()

	opt := cmd.Flags()
	long := opt.Bool('l', "include process IDs")
	pidsOnly := opt.Bool('p', "print only the process IDs")
	asJSON := opt.BoolLong("json", 0, "output in JSON format")

	return cmd.Run(virtOS, func() int {
		table := host.Jobs()
		entries := table.List()

		w := virtOS.Stdout()
		listing := make([]jobJSON, 0, len(entries))
		for _, entry := range entries {
			switch {
			case *asJSON:
				pids := entry.Pids()
				if pids == nil {
					pids = []int{}
				}
				listing = append(listing, jobJSON{
					ID:      entry.ID,
					State:   entry.State(),
					Command: entry.Text,
					Pids:    pids,
				})
			case *pidsOnly:
				fmt.Fprintln(w, entry.PID)
			case *long:
				fmt.Fprintf(w, "[%d]  %-7d %-23s %s\n", entry.ID, entry.PID, entry.State(), entry.Text)
			default:
				fmt.Fprintln(w, entry)
			}

			if entry.Done() {
				table.Remove(entry.ID)
			}
		}

		if *asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]interface{}{"jobs": listing}); err != nil {
				return 1
			}
		}
		return 0
	})
}

var _ BuiltinFunc = Jobs
