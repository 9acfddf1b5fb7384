package main

import "github.com/agentic-research/cascade/cmd"

func main() {
	cmd.Execute()
}
