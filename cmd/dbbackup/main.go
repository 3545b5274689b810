// Package main is the entry point for dbbackup.
package main

import (
	"os"
)

func main() {
	if err := Execute(normalizeArgs(os.Args[1:])); err != nil {
		os.Exit(1)
	}
}

// normalizeArgs accepts the single-dash -help spelling.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "-help" {
			a = "--help"
		}
		out[i] = a
	}
	return out
}
