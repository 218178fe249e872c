package shell

import (
	"strings"

	"github.com/jboxsh/jbox/core/vos"
)

const (
	EnvPrompt   = "PS1"
	EnvHostname = "HOSTNAME"
	EnvUser     = "USER"

	DefaultPrompt      = `\u@\h:\w\$ `
	DefaultColorPrompt = `\e[01;32m\u@\h\e[00m:\e[01;34m\w\e[00m\$ `
	// ContinuationPrompt is shown while a line ends with a backslash.
	ContinuationPrompt = "> "
)

var promptEscapes = strings.NewReplacer(
	`\e`, "\033",
	`\033`, "\033",
	`\n`, "\n",
	`\\`, `\`,
)

// Prompt renders PS1: \u is the user, \h the host, \w the working directory
// with HOME shortened to ~ and \$ is # for root or $ otherwise.
func Prompt(env vos.VEnv, wd string) string {
	prompt := env.Getenv(EnvPrompt)
	if prompt == "" {
		prompt = DefaultPrompt
	}

	user := env.Getenv(EnvUser)
	host := env.Getenv(EnvHostname)
	if host == "" {
		host = "localhost"
	}
	if home := env.Getenv(vos.EnvHome); home != "" && (wd == home || strings.HasPrefix(wd, home+"/")) {
		wd = "~" + strings.TrimPrefix(wd, home)
	}

	prompt = strings.ReplaceAll(prompt, `\u`, user)
	prompt = strings.ReplaceAll(prompt, `\h`, host)
	prompt = strings.ReplaceAll(prompt, `\w`, wd)
	if user == "root" {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return promptEscapes.Replace(prompt)
}
