// cmd/matchctl/main.go

// Command matchctl runs the matching engine against catalog snapshot files,
// without Zeebe or any store, and validates activity registries.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
