package commands

import (
	"github.com/jboxsh/jbox/core/vos"
)

var waitCommand = Command{
	Name:  "wait",
	Use:   "wait [%JOB | PID]...",
	Short: "wait for a job to finish",
	Long:  "Wait for the given background jobs, or all of them, and return the status of the last one.",
}

// Wait blocks until background jobs finish.
func Wait(host Host, virtOS vos.VOS) int {
	cmd := waitCommand.Simple()

	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		table := host.Jobs()

		targets := opt.Args()
		if len(targets) == 0 {
			for _, entry := range table.List() {
				entry.Wait()
				table.Remove(entry.ID)
			}
			return 0
		}

		status := 0
		for _, target := range targets {
			entry, err := findJob(table, target)
			if err != nil {
				Fail(virtOS, "%v", err)
				status = 127
				continue
			}
			status = entry.Wait().ExitCode()
			table.Remove(entry.ID)
		}
		return status
	})
}

var _ BuiltinFunc = Wait
