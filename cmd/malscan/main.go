// Command malscan is the CLI collaborator of spec.md §1: it parses
// configuration, acquires signatures, wires a scanner.Options, and drives
// the scanning engine in pkg/scanner, printing human-readable progress and
// results. Everything in this package is out of the core's scope per
// spec.md §1 ("CLI/config parsing... are out of scope"); it exists only to
// exercise the core end to end.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "malscan:", err)
		if exitErr, ok := err.(*exitCodeError); ok {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

// exitCodeError lets subcommands request a specific exit code while still
// returning a normal error up through cobra's RunE chain, matching spec.md
// §6's exit code contract (0 / 1 / 130).
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }
