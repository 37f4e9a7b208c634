// Package main provides fpcheck, which checks the floating-point
// interpreter against files of test vectors.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/sarchlab/rvdbt/softfloat"
)

var (
	verbosity = flag.Int("v", 0, "Log verbosity (1 logs every vector)")
	maxFail   = flag.Int("max-fail", 20, "stop reporting after this many failures (0 = all)")
)

type summary struct {
	passed int
	failed int
}

func main() {
	flag.Parse()

	logger := funcr.New(func(prefix, args string) {
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{Verbosity: *verbosity})

	var total summary
	if flag.NArg() == 0 {
		s, err := check(os.Stdin, "<stdin>", logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		total = s
	}
	for _, path := range flag.Args() {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening vectors: %v\n", err)
			os.Exit(1)
		}
		s, err := check(f, path, logger)
		_ = f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		total.passed += s.passed
		total.failed += s.failed
	}

	fmt.Printf("passed: %d  failed: %d\n", total.passed, total.failed)
	if total.failed > 0 {
		os.Exit(1)
	}
}

// check runs every vector read from r.
func check(r io.Reader, name string, logger logr.Logger) (summary, error) {
	var s summary
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		v, err := parseVector(lineNo, scanner.Text())
		if err != nil {
			return s, fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
		if v == nil {
			continue
		}

		got, flags, err := runSafely(v)
		ok := err == nil && got == v.want && flags == v.flags
		if ok {
			s.passed++
			logger.V(1).Info("pass", "file", name, "line", lineNo, "cmd", v.cmd.String())
			continue
		}

		s.failed++
		if *maxFail == 0 || s.failed <= *maxFail {
			logger.Info("FAIL", "file", name, "line", lineNo, "cmd", v.cmd.String(),
				"got", fmt.Sprintf("%x", got), "want", fmt.Sprintf("%x", v.want),
				"gotFlags", flags.String(), "wantFlags", v.flags.String(), "err", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return s, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return s, nil
}

// runSafely turns the interpreter's fatal panics into errors so that one
// bad vector does not stop the run.
func runSafely(v *vector) (got uint64, flags softfloat.Flags, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	g, f := v.run()
	return g, f, nil
}
