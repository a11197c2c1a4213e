// Command reckon evaluates formulas against variables defined on the command
// line or in a YAML definition file.
//
//	reckon eval "(a + b) * 2" --var a=1 --var b=2
//	reckon check --config loan.yaml
//	reckon watch --config loan.yaml
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
