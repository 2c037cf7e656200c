// Command batch runs the ledger jobs that do not need the HTTP server:
// importing a bank statement file and running the reconciliation sweep.
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
