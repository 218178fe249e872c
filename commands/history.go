package commands

import (
	"fmt"

	"github.com/jboxsh/jbox/core/vos"
)

var historyCommand = Command{
	Name:  "history",
	Use:   "history [-c]",
	Short: "display command history",
	Long:  "Display a numbered list of the lines entered in the current session.",
}

// History prints or clears the line history.
func History(host Host, virtOS vos.VOS) int {
	cmd := historyCommand.Simple()

	opt := cmd.Flags()
	clear := opt.Bool('c', "clear the history by deleting all entries")

	return cmd.Run(virtOS, func() int {
		history := host.History()
		if *clear {
			history.Clear()
			return 0
		}

		for i, line := range history.Lines() {
			fmt.Fprintf(virtOS.Stdout(), "% 5d  %s\n", i+1, line)
		}
		return 0
	})
}

var _ BuiltinFunc = History
