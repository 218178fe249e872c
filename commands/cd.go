package commands

import (
	"fmt"

	"github.com/jboxsh/jbox/core/vos"
)

var cdCommand = Command{
	Name:  "cd",
	Use:   "cd [DIR | -]",
	Short: "change the shell working directory",
	Long:  "Change the current directory to DIR. If DIR is not supplied, the value of the HOME environment variable is used.",
}

// Cd changes the interpreter's working directory.
func Cd(host Host, virtOS vos.VOS) int {
	cmd := cdCommand.Simple()

	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		var dir string
		switch args := opt.Args(); len(args) {
		case 0:
			home, ok := virtOS.LookupEnv(vos.EnvHome)
			if !ok || home == "" {
				return Fail(virtOS, "HOME not set")
			}
			dir = home
		case 1:
			dir = args[0]
		default:
			return Fail(virtOS, "too many arguments")
		}

		printDir := false
		if dir == "-" {
			old, ok := virtOS.LookupEnv(vos.EnvOldPWD)
			if !ok || old == "" {
				return Fail(virtOS, "OLDPWD not set")
			}
			dir = old
			printDir = true
		}

		if err := virtOS.Chdir(dir); err != nil {
			return Fail(virtOS, "%v", err)
		}
		if printDir {
			fmt.Fprintln(virtOS.Stdout(), virtOS.Getwd())
		}
		return 0
	})
}

var _ BuiltinFunc = Cd
