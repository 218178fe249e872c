package commands

import (
	"strconv"

	"github.com/jboxsh/jbox/core/vos"
)

var exitCommand = Command{
	Name:  "exit",
	Use:   "exit [N]",
	Short: "exit the shell",
	Long:  "Exit the shell with status N, or the status of the last command.",
}

// Exit stops the interpreter after the current line.
func Exit(host Host, virtOS vos.VOS) int {
	cmd := exitCommand.Simple()

	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		code := host.LastStatus()
		switch args := opt.Args(); len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				Fail(virtOS, "%s: numeric argument required", args[0])
				code = 2
				break
			}
			code = n & 0xff
		default:
			return Fail(virtOS, "too many arguments")
		}

		host.Exit(code)
		return code
	})
}

var _ BuiltinFunc = Exit
