// main package for the speak command-line client
package main

import (
	"fmt"
	"os"
)

func main() {
	err := newRootCmd(defaultDeps()).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
