package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jboxsh/jbox/core/vos"
)

var catCommand = Command{
	Name:  "cat",
	Use:   "cat [--json] [FILE]...",
	Short: "concatenate files and print on standard output",
	Long:  "Concatenate FILE(s) to standard output. With no FILE, or when FILE is -, read standard input.",
}

type catResult struct {
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Cat copies files, or stdin, to stdout.
func Cat(virtOS vos.VOS) int {
	cmd := catCommand.Simple()

	opt := cmd.Flags()
	asJSON := opt.BoolLong("json", 0, "print each file as a JSON object")

	return cmd.Run(virtOS, func() int {
		files := opt.Args()
		if len(files) == 0 {
			files = []string{"-"}
		}

		status := 0
		var results []catResult
		for _, name := range files {
			var w io.Writer = virtOS.Stdout()
			content := &bytes.Buffer{}
			if *asJSON {
				w = content
			}

			if err := catFile(virtOS, w, name); err != nil {
				status = 1
				fmt.Fprintf(virtOS.Stderr(), "cat: %s: %s\n", name, err)
				results = append(results, catResult{Path: name, Error: err.Error()})
				continue
			}
			results = append(results, catResult{Path: name, Content: content.String()})
		}

		if *asJSON {
			enc := json.NewEncoder(virtOS.Stdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				return 1
			}
		}
		return status
	})
}

func catFile(virtOS vos.VOS, w io.Writer, name string) error {
	if name == "-" {
		_, err := io.Copy(w, virtOS.Stdin())
		return err
	}

	info, err := virtOS.Stat(name)
	if err != nil {
		return errors.New(fileError(err))
	}
	if info.IsDir() {
		return errors.New("Is a directory")
	}

	fd, err := virtOS.Open(name)
	if err != nil {
		return errors.New(fileError(err))
	}
	defer fd.Close()

	_, err = io.Copy(w, fd)
	return err
}

var _ vos.ProcessFunc = Cat
