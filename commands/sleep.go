package commands

import (
	"math"
	"strconv"
	"time"

	"github.com/jboxsh/jbox/core/vos"
)

var sleepCommand = Command{
	Name:  "sleep",
	Use:   "sleep SECONDS",
	Short: "delay for a specified amount of time",
	Long:  "Pause for SECONDS, which may be a floating point number.",
}

// sleepFunc is replaced in tests.
var sleepFunc = time.Sleep

// Sleep pauses for the given number of seconds.
func Sleep(virtOS vos.VOS) int {
	cmd := sleepCommand.Simple()

	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		switch len(args) {
		case 0:
			return Fail(virtOS, "missing operand")
		case 1:
		default:
			return Fail(virtOS, "extra operand '%s'", args[1])
		}

		secs, err := strconv.ParseFloat(args[0], 64)
		if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return Fail(virtOS, "invalid time interval '%s'", args[0])
		}

		sleepFunc(time.Duration(secs * float64(time.Second)))
		return 0
	})
}

var _ vos.ProcessFunc = Sleep
