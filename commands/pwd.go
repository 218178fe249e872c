package commands

import (
	"fmt"

	"github.com/jboxsh/jbox/core/vos"
)

var pwdCommand = Command{
	Name:  "pwd",
	Use:   "pwd [-P]",
	Short: "print working directory",
	Long:  "Print the full filename of the current working directory.",
}

// Pwd prints the working directory.
func Pwd(host Host, virtOS vos.VOS) int {
	cmd := pwdCommand.Simple()

	opt := cmd.Flags()
	physical := opt.Bool('P', "resolve symbolic links")

	return cmd.Run(virtOS, func() int {
		pwd := virtOS.Getwd()
		if *physical {
			resolved, err := virtOS.Realpath(pwd)
			if err != nil {
				return Fail(virtOS, "%v", err)
			}
			pwd = resolved
		}

		fmt.Fprintln(virtOS.Stdout(), pwd)
		return 0
	})
}

var _ BuiltinFunc = Pwd
