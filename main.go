// Package main provides the entry point for rvdbt.
// rvdbt translates RV32 guest RTL onto an RV64 host model.
//
// For the full CLI, use: go run ./cmd/rvdbt
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rvdbt - RV32 guest on RV64 host binary translator")
	fmt.Println("")
	fmt.Println("Usage: rvdbt [options] <program.json>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -interp      Run on the reference interpreter")
	fmt.Println("  -config      Path to engine configuration JSON file")
	fmt.Println("  -regs        Print guest registers on exit")
	fmt.Println("  -v           Log verbosity")
	fmt.Println("")
	fmt.Println("Tools:")
	fmt.Println("  go run ./cmd/rvdbt      run a program")
	fmt.Println("  go run ./cmd/benchmark  compare translated and interpreted workloads")
	fmt.Println("  go run ./cmd/fpcheck    check the FP interpreter against test vectors")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvdbt' instead.")
	}
}
