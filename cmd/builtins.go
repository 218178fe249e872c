package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/jboxsh/jbox/commands"
	"github.com/jboxsh/jbox/core/registry"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the registered commands.
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands built into jsh.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(0)
		commands.RegisterAll(reg, nil)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		reg.ForEach(func(desc registry.Descriptor) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", desc.Name, desc.Kind, desc.Summary)
		})
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
