// The main package for the matchodds executable.
package main

import (
	"github.com/oddsmith/matchodds/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
