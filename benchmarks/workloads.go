package benchmarks

import (
	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/rtl"
)

// Entry is the guest address every workload is loaded at.
const Entry = 0x1000

// GetMicrobenchmarks returns the standard set of workloads. Each one
// stresses a different part of the translator.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(20),
		spillPressure(),
		shiftLogic(),
		temporaries(),
		fpAccumulate(),
		longChain(150),
	}
}

// GetCoreBenchmarks returns a small set for quick checks.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		spillPressure(),
		fpAccumulate(),
		longChain(150),
	}
}

// BuildProgram concatenates program fragments.
func BuildProgram(parts ...[]rtl.Instr) []rtl.Instr {
	var n int
	for _, p := range parts {
		n += len(p)
	}

	program := make([]rtl.Instr, 0, n)
	for _, p := range parts {
		program = append(program, p...)
	}
	return program
}

// Exit returns the sequence that exits with the low 32 bits of status.
func Exit(status rtl.Reg) []rtl.Instr {
	return []rtl.Instr{
		rtl.Mv(rtl.X10, status),
		rtl.Li(rtl.X17, int64(emu.SyscallExit)),
		rtl.Ecall(),
	}
}

func repeat(n int, in rtl.Instr) []rtl.Instr {
	out := make([]rtl.Instr, n)
	for i := range out {
		out[i] = in
	}
	return out
}

// Independent increments over five registers.
func arithmeticSequential() Benchmark {
	var body []rtl.Instr
	for i := 0; i < 20; i++ {
		r := rtl.XReg(5 + i%5)
		body = append(body, rtl.RI(rtl.OpAddi, r, r, 1))
	}

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDIs over x5-x9",
		Program:      BuildProgram(body, Exit(rtl.X9)),
		ExpectedExit: 4,
	}
}

// One register incremented n times.
func dependencyChain(n int) Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "dependent ADDIs on a0",
		Program: BuildProgram(
			[]rtl.Instr{rtl.Li(rtl.X10, 0)},
			repeat(n, rtl.RI(rtl.OpAddi, rtl.X10, rtl.X10, 1)),
			Exit(rtl.X10),
		),
		ExpectedExit: int64(n),
	}
}

// Every operand lives in the scratchpad.
func spillPressure() Benchmark {
	return Benchmark{
		Name:        "spill_pressure",
		Description: "arithmetic on x3, x4, x29, x30 and x31 only",
		Program: BuildProgram([]rtl.Instr{
			rtl.Li(rtl.X3, 1),
			rtl.Li(rtl.X4, 2),
			rtl.Li(rtl.X29, 3),
			rtl.Li(rtl.X30, 4),
			rtl.Li(rtl.X31, 5),
			rtl.RR(rtl.OpAdd, rtl.X3, rtl.X3, rtl.X4),    // 3
			rtl.RR(rtl.OpAdd, rtl.X29, rtl.X29, rtl.X30), // 7
			rtl.RR(rtl.OpAdd, rtl.X31, rtl.X31, rtl.X3),  // 8
			rtl.RR(rtl.OpAdd, rtl.X4, rtl.X4, rtl.X29),   // 9
			rtl.RR(rtl.OpAdd, rtl.X30, rtl.X30, rtl.X31), // 12
			rtl.RR(rtl.OpAdd, rtl.X3, rtl.X3, rtl.X30),   // 15
			rtl.RR(rtl.OpSub, rtl.X3, rtl.X3, rtl.X4),    // 6
		}, Exit(rtl.X3)),
		ExpectedExit: 6,
	}
}

func shiftLogic() Benchmark {
	return Benchmark{
		Name:        "shift_logic",
		Description: "W-form shifts and 64-bit logic on sign-extended values",
		Program: BuildProgram([]rtl.Instr{
			rtl.Li(rtl.X5, 0x12345678),
			rtl.RI(rtl.OpSlli, rtl.X6, rtl.X5, 4),       // 0x23456780
			rtl.RI(rtl.OpSrli, rtl.X7, rtl.X5, 8),       // 0x00123456
			rtl.RI(rtl.OpSrai, rtl.X8, rtl.X6, 28),      // 2
			rtl.RR(rtl.OpXor, rtl.X9, rtl.X6, rtl.X7),   // 0x235753D6
			rtl.RR(rtl.OpAnd, rtl.X11, rtl.X9, rtl.X5),  // 0x02145250
			rtl.RR(rtl.OpOr, rtl.X12, rtl.X11, rtl.X8),  // 0x02145252
			rtl.RR(rtl.OpSub, rtl.X13, rtl.X12, rtl.X7), // 0x02021DFC
			rtl.RI(rtl.OpSrli, rtl.X14, rtl.X13, 20),    // 32
		}, Exit(rtl.X14)),
		ExpectedExit: 32,
	}
}

// Multi-step lowerings through the RTL temporaries.
func temporaries() Benchmark {
	return Benchmark{
		Name:        "temporaries",
		Description: "values staged through S0 and S1",
		Program: BuildProgram([]rtl.Instr{
			rtl.Li(rtl.S0, 10),
			rtl.Li(rtl.S1, 20),
			rtl.RR(rtl.OpAdd, rtl.X5, rtl.S0, rtl.S1),  // 30
			rtl.RR(rtl.OpSub, rtl.S0, rtl.S1, rtl.X5),  // -10
			rtl.RI(rtl.OpAddi, rtl.X6, rtl.S0, 50),     // 40
			rtl.RI(rtl.OpSlli, rtl.S1, rtl.X6, 1),      // 80
			rtl.RR(rtl.OpAdd, rtl.X15, rtl.S1, rtl.X5), // 110
		}, Exit(rtl.X15)),
		ExpectedExit: 110,
	}
}

// Floating-point calls in both widths.
func fpAccumulate() Benchmark {
	f64 := func(op rtl.FPOp) rtl.FPCmd { return rtl.FPCmdOf(rtl.FPW64, op) }
	f32 := func(op rtl.FPOp) rtl.FPCmd { return rtl.FPCmdOf(rtl.FPW32, op) }

	return Benchmark{
		Name:        "fp_accumulate",
		Description: "f64 add chain and f32 sqrt through the FP call interface",
		Program: BuildProgram(
			[]rtl.Instr{
				rtl.Li(rtl.X5, 1),
				rtl.Li(rtl.X6, 3),
				rtl.Li(rtl.X7, 9),
				rtl.FPCall(f64(rtl.FPI32ToF), rtl.F1, rtl.X5, rtl.Zero),
				rtl.FPCall(f64(rtl.FPI32ToF), rtl.F2, rtl.X6, rtl.Zero),
				rtl.Mv(rtl.F3, rtl.F1),
			},
			repeat(10, rtl.FPCall(f64(rtl.FPAdd), rtl.F3, rtl.F3, rtl.F2)), // 31.0
			[]rtl.Instr{
				rtl.FPCall(f64(rtl.FPMul), rtl.F3, rtl.F3, rtl.F2), // 93.0
				rtl.FPCallRM(f64(rtl.FPFToI32), rtl.X11, rtl.F3, rtl.Zero, rtl.RoundTowardZero),
				rtl.FPCall(f32(rtl.FPI32ToF), rtl.F4, rtl.X7, rtl.Zero),
				rtl.FPCall(f32(rtl.FPSqrt), rtl.F5, rtl.F4, rtl.Zero), // 3.0
				rtl.FPCallRM(f32(rtl.FPFToI32), rtl.X12, rtl.F5, rtl.Zero, rtl.RoundTowardZero),
				rtl.RR(rtl.OpAdd, rtl.X13, rtl.X11, rtl.X12), // 96
			},
			Exit(rtl.X13),
		),
		ExpectedExit: 96,
	}
}

// A straight line longer than one translation block.
func longChain(n int) Benchmark {
	return Benchmark{
		Name:        "long_chain",
		Description: "straight-line code split across several blocks",
		Program: BuildProgram(
			[]rtl.Instr{rtl.Li(rtl.X10, 0)},
			repeat(n, rtl.RI(rtl.OpAddi, rtl.X10, rtl.X10, 2)),
			Exit(rtl.X10),
		),
		ExpectedExit: int64(2 * n),
	}
}
