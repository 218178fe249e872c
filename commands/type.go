package commands

import (
	"encoding/json"
	"fmt"

	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/vos"
)

var typeCommand = Command{
	Name:  "type",
	Use:   "type [--json] NAME...",
	Short: "display information about command type",
	Long:  "For each NAME, indicate how it would be interpreted if used as a command name.",
}

type typeJSON struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Path string `json:"path,omitempty"`
}

// Type reports how each name would be run.
func Type(host Host, virtOS vos.VOS) int {
	cmd := typeCommand.Simple()

	opt := cmd.Flags()
	asJSON := opt.BoolLong("json", 0, "output in JSON format")

	return cmd.Run(virtOS, func() int {
		w := virtOS.Stdout()
		status := 0
		var listing []typeJSON
		for _, name := range opt.Args() {
			res, err := host.Resolve(name, virtOS)
			entry := typeJSON{Name: name, Kind: res.Kind.String(), Path: res.Path}

			switch {
			case err != nil:
				status = 1
				entry = typeJSON{Name: name, Kind: "not found"}
				if !*asJSON {
					fmt.Fprintf(virtOS.Stderr(), "type: %s: not found\n", name)
				}
			case *asJSON:
			case res.Kind == registry.Builtin:
				fmt.Fprintf(w, "%s is a shell builtin\n", name)
			default:
				fmt.Fprintf(w, "%s is %s\n", name, res.Path)
			}
			listing = append(listing, entry)
		}

		if *asJSON {
			if listing == nil {
				listing = []typeJSON{}
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(listing); err != nil {
				return 1
			}
		}
		return status
	})
}

var _ BuiltinFunc = Type
