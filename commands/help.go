package commands

import (
	"fmt"

	"github.com/jboxsh/jbox/core/registry"
	"github.com/jboxsh/jbox/core/vos"
)

var helpCommand = Command{
	Name:  "help",
	Use:   "help [--color=WHEN] [COMMAND]",
	Short: "display help for shell commands",
	Long:  "Display a list of all available commands, or detailed help for a specific command.",
}

// Help lists the registry in registration order or describes one command.
func Help(host Host, virtOS vos.VOS) int {
	cmd := helpCommand.Simple()

	opt := cmd.Flags()
	var colors ColorPrinter
	colors.Init(opt, virtOS)

	return cmd.Run(virtOS, func() int {
		w := virtOS.Stdout()
		reg := host.Registry()

		switch args := opt.Args(); len(args) {
		case 0:
			fmt.Fprintln(w, "Available commands:")
			fmt.Fprintln(w)
			reg.ForEach(func(desc registry.Descriptor) {
				name := colors.Sprintf(ColorBoldBlue, "%-10s", desc.Name)
				fmt.Fprintf(w, "  %s %s (%s)\n", name, desc.Summary, desc.Kind)
			})
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Type 'help COMMAND' for more information on a specific command.")
			return 0

		case 1:
			desc, ok := reg.Find(args[0])
			if !ok {
				return Fail(virtOS, "no help for '%s'", args[0])
			}

			fmt.Fprintf(w, "%s - %s\n", colors.Sprintf(ColorBoldBlue, "%s", desc.Name), desc.Summary)
			if desc.LongHelp != "" {
				fmt.Fprintln(w)
				fmt.Fprintln(w, desc.LongHelp)
			}
			if desc.PrintUsage != nil {
				fmt.Fprintln(w)
				desc.PrintUsage(w)
			}
			return 0

		default:
			return Fail(virtOS, "too many arguments")
		}
	})
}

var _ BuiltinFunc = Help
