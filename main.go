package main

import "github.com/jboxsh/jbox/cmd"

func main() {
	cmd.Execute()
}
