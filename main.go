// The main package for the cartelera executable.
package main

import (
	"github.com/cartelera/cartelera/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
