package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	// block decoding verifies signatures on all available cores
	if _, err := maxprocs.Set(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
	}

	if err := NewCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
