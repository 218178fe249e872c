package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jboxsh/jbox/core/vos"
)

var exportCommand = Command{
	Name:  "export",
	Use:   "export [NAME[=VALUE]]...",
	Short: "set environment variables",
	Long:  "Set environment variables in the current shell. Each argument should be in the form NAME=VALUE. Without arguments the variables are listed.",
}

var unsetCommand = Command{
	Name:  "unset",
	Use:   "unset NAME...",
	Short: "unset environment variables",
	Long:  "Remove the named environment variables from the shell.",
}

// Export sets variables in the interpreter state.
func Export(host Host, virtOS vos.VOS) int {
	cmd := exportCommand.Simple()

	opt := cmd.Flags()

	return cmd.Run(virtOS, func() int {
		args := opt.Args()
		if len(args) == 0 {
			env := virtOS.Environ()
			sort.Strings(env)
			for _, envDef := range env {
				key, value := vos.SplitEnv(envDef)
				fmt.Fprintf(virtOS.Stdout(), "export %s=%s\n", key, strconv.Quote(value))
			}
			return 0
		}

		status := 0
		for _, arg := range args {
			name, value, hasValue := strings.Cut(arg, "=")
			if !vos.ValidName(name) {
				status = Fail(virtOS, "%s: %v", name, vos.ErrInvalidName)
				continue
			}
			if !hasValue {
				// Every variable is exported already.
				continue
			}
			if err := virtOS.Setenv(name, value); err != nil {
				status = Fail(virtOS, "%s: %v", name, err)
			}
		}
		return status
	})
}

// Unset removes variables from the interpreter state.
func Unset(host Host, virtOS vos.VOS) int {
	cmd := unsetCommand.Simple()

	opt := cmd.Flags()
	opt.Bool('v', "treat NAME as a variable")

	return cmd.Run(virtOS, func() int {
		status := 0
		for _, name := range opt.Args() {
			if err := virtOS.Unsetenv(name); err != nil {
				status = Fail(virtOS, "%s: %v", name, err)
			}
		}
		return status
	})
}

var _ BuiltinFunc = Export
var _ BuiltinFunc = Unset
