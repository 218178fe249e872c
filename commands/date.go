package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/jboxsh/jbox/core/vos"
	"github.com/ncruces/go-strftime"
)

// DefaultDateFormat matches the output of date with no arguments.
const DefaultDateFormat = "%a %b %e %H:%M:%S %Z %Y"

var dateCommand = Command{
	Name:  "date",
	Use:   "date [-uRI] [+FORMAT]",
	Short: "display the current date and time",
	Long:  "Display the current date and time, optionally in a strftime style FORMAT.",
}

// now is replaced in tests.
var now = time.Now

// Date prints the current time.
func Date(virtOS vos.VOS) int {
	cmd := dateCommand.Simple()

	opt := cmd.Flags()
	utc := opt.Bool('u', "print Coordinated Universal Time")
	rfc := opt.Bool('R', "output date and time in RFC 5322 format")
	iso := opt.Bool('I', "output the date in ISO 8601 format")

	return cmd.Run(virtOS, func() int {
		t := now()
		if *utc {
			t = t.UTC()
		}

		format := DefaultDateFormat
		switch {
		case *rfc:
			format = "%a, %d %b %Y %H:%M:%S %z"
		case *iso:
			format = "%F"
		}

		switch args := opt.Args(); {
		case len(args) > 1:
			return Fail(virtOS, "extra operand '%s'", args[1])
		case len(args) == 1 && !strings.HasPrefix(args[0], "+"):
			return Fail(virtOS, "invalid date '%s'", args[0])
		case len(args) == 1:
			format = args[0][1:]
		}

		fmt.Fprintln(virtOS.Stdout(), strftime.Format(format, t))
		return 0
	})
}

var _ vos.ProcessFunc = Date
