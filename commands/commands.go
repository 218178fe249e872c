package commands

import (
	"github.com/jboxsh/jbox/core/registry"
)

// Builtins returns the builtin commands bound to host, in listing order.
func Builtins(host Host) []*registry.Descriptor {
	return []*registry.Descriptor{
		jobsCommand.Builtin(host, Jobs),
		killCommand.Builtin(host, Kill),
		waitCommand.Builtin(host, Wait),
		cdCommand.Builtin(host, Cd),
		pwdCommand.Builtin(host, Pwd),
		envCommand.Builtin(host, Env),
		exportCommand.Builtin(host, Export),
		unsetCommand.Builtin(host, Unset),
		typeCommand.Builtin(host, Type),
		helpCommand.Builtin(host, Help),
		historyCommand.Builtin(host, History),
		exitCommand.Builtin(host, Exit),
	}
}

// Externals returns the commands that run as their own process, in listing
// order. The jbox binary runs them as applets.
func Externals() []*registry.Descriptor {
	return []*registry.Descriptor{
		echoCommand.Descriptor(registry.External, Echo),
		catCommand.Descriptor(registry.External, Cat),
		dateCommand.Descriptor(registry.External, Date),
		sleepCommand.Descriptor(registry.External, Sleep),
	}
}

// RegisterAll adds the builtins followed by the externals to reg.
func RegisterAll(reg *registry.Registry, host Host) {
	for _, desc := range Builtins(host) {
		reg.Register(desc)
	}
	RegisterExternals(reg)
}

// RegisterExternals adds only the externals to reg.
func RegisterExternals(reg *registry.Registry) {
	for _, desc := range Externals() {
		reg.Register(desc)
	}
}

// Applet finds the external command run when the multi-call binary is
// invoked as name.
func Applet(name string) (registry.Descriptor, bool) {
	reg := registry.New(0)
	RegisterExternals(reg)
	return reg.Find(name)
}
