package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/softfloat"
)

// vector is one test case:
//
//	<cmd> <rm> <operand>... <expected> <flags>
//
// Values are hex. Operands and results of single-precision floats are
// written as 8 digits and boxed or unboxed by the checker. Integer results
// written with at most 8 digits are compared on their low 32 bits.
type vector struct {
	line     int
	cmd      rtl.FPCmd
	rm       softfloat.RoundingMode
	operands [3]uint64
	want     uint64
	wide     bool
	flags    softfloat.Flags
}

func arity(op rtl.FPOp) int {
	switch op {
	case rtl.FPSqrt,
		rtl.FPI32ToF, rtl.FPU32ToF, rtl.FPI64ToF, rtl.FPU64ToF,
		rtl.FPFToI32, rtl.FPFToU32, rtl.FPFToI64, rtl.FPFToU64,
		rtl.FPF32ToF64, rtl.FPF64ToF32:
		return 1
	case rtl.FPMAdd:
		return 3
	}
	return 2
}

func intInput(op rtl.FPOp) bool {
	switch op {
	case rtl.FPI32ToF, rtl.FPU32ToF, rtl.FPI64ToF, rtl.FPU64ToF:
		return true
	}
	return false
}

func floatResult(op rtl.FPOp) bool {
	switch op {
	case rtl.FPLE, rtl.FPLT, rtl.FPEQ,
		rtl.FPFToI32, rtl.FPFToU32, rtl.FPFToI64, rtl.FPFToU64:
		return false
	}
	return true
}

func (v *vector) singleIn() bool {
	op := v.cmd.Op()
	return (v.cmd.Width() == rtl.FPW32 && !intInput(op)) || op == rtl.FPF32ToF64
}

func (v *vector) singleOut() bool {
	op := v.cmd.Op()
	return (v.cmd.Width() == rtl.FPW32 && floatResult(op)) || op == rtl.FPF64ToF32
}

func parseHex(s string) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

// parseVector parses one line. Blank lines and lines starting with '#'
// yield nil.
func parseVector(lineNo int, line string) (*vector, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil, nil
	}

	v := &vector{line: lineNo}
	cmd, err := rtl.ParseFPCmd(fields[0])
	if err != nil {
		return nil, err
	}
	v.cmd = cmd

	n := arity(cmd.Op())
	if len(fields) != n+4 {
		return nil, fmt.Errorf("%v takes %d operands, line has %d fields", cmd, n, len(fields))
	}

	rm, err := rtl.ParseRoundingMode(fields[1])
	if err != nil {
		return nil, err
	}
	v.rm = softfloat.RoundingMode(rm)
	if !v.rm.Valid() {
		return nil, fmt.Errorf("rounding mode %v needs an frm", rm)
	}

	for i := 0; i < n; i++ {
		x, err := parseHex(fields[2+i])
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i, err)
		}
		if v.singleIn() {
			x = emu.Box32(uint32(x))
		}
		v.operands[i] = x
	}

	want := fields[2+n]
	if v.want, err = parseHex(want); err != nil {
		return nil, fmt.Errorf("expected value: %w", err)
	}
	v.wide = len(strings.TrimPrefix(want, "0x")) > 8

	flags, err := parseHex(fields[3+n])
	if err != nil || flags > 0x1F {
		return nil, fmt.Errorf("bad flags %q", fields[3+n])
	}
	v.flags = softfloat.Flags(flags)

	return v, nil
}

// run evaluates the vector and returns the result in the same form as
// want.
func (v *vector) run() (uint64, softfloat.Flags) {
	src1, src2, acc := v.operands[0], v.operands[1], uint64(0)
	if v.cmd.Op() == rtl.FPMAdd {
		acc = v.operands[2]
	}

	got, flags := emu.Exec(src1, src2, acc, v.cmd, v.rm)
	switch {
	case v.singleOut():
		got = uint64(emu.Unbox32(got))
	case !v.wide:
		got &= 0xFFFFFFFF
	}
	return got, flags
}
