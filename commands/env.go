package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jboxsh/jbox/core/vos"
)

var envCommand = Command{
	Name:  "env",
	Use:   "env [--json]",
	Short: "print environment variables",
	Long:  "Print the environment commands started from here would see.",
}

// Env implements the POSIX env command without running utilities.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/env.html
func Env(host Host, virtOS vos.VOS) int {
	cmd := envCommand.Simple()

	opt := cmd.Flags()
	asJSON := opt.BoolLong("json", 0, "output in JSON format")

	return cmd.Run(virtOS, func() int {
		if args := opt.Args(); len(args) > 0 {
			return Fail(virtOS, "running commands is not supported: %s", args[0])
		}

		env := virtOS.Environ()
		sort.Strings(env)

		if *asJSON {
			vars := make(map[string]string, len(env))
			for _, envDef := range env {
				key, value := vos.SplitEnv(envDef)
				vars[key] = value
			}

			enc := json.NewEncoder(virtOS.Stdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(map[string]interface{}{"env": vars}); err != nil {
				return 1
			}
			return 0
		}

		for _, envDef := range env {
			fmt.Fprintln(virtOS.Stdout(), envDef)
		}

		return 0
	})
}

var _ BuiltinFunc = Env
