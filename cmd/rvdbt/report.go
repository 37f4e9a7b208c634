package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sarchlab/rvdbt/codecache"
	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/rtl"
)

type runStats struct {
	instructions uint64
	blocks       uint64
	hostInsts    uint64
	cache        codecache.Statistics
	translated   bool
	elapsed      time.Duration
}

func (s runStats) keysAndValues() []any {
	kv := []any{"instructions", s.instructions, "elapsed", s.elapsed.String()}
	if s.translated {
		kv = append(kv,
			"blocks", s.blocks,
			"hostInstructions", s.hostInsts,
			"cacheHits", s.cache.Hits,
			"cacheMisses", s.cache.Misses,
			"cacheEvictions", s.cache.Evictions)
	}
	return kv
}

var xNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// writeSnapshot prints snap. A terminal gets an aligned table with ABI
// names and decoded floats; anything else gets one register per line.
func writeSnapshot(w io.Writer, snap *emu.Snapshot, table bool) {
	if !table {
		for i, v := range snap.X {
			fmt.Fprintf(w, "x%d=0x%08x\n", i, v)
		}
		for i, v := range snap.F {
			fmt.Fprintf(w, "f%d=0x%016x\n", i, v)
		}
		fmt.Fprintf(w, "pc=0x%x\nfcsr=0x%02x\n", snap.PC, snap.CSR.Value())
		return
	}

	for i := 0; i < 32; i += 4 {
		for j := i; j < i+4; j++ {
			fmt.Fprintf(w, "%-4s x%-2d 0x%08x  ", xNames[j], j, snap.X[j])
		}
		fmt.Fprintln(w)
	}
	for i, v := range snap.F {
		fmt.Fprintf(w, "f%-2d 0x%016x  %-14g %g\n", i, v,
			math.Float32frombits(emu.Unbox32(v)), math.Float64frombits(v))
	}
	fmt.Fprintf(w, "pc 0x%x  frm %v  fflags %v\n", snap.PC, rtl.RoundingMode(snap.CSR.FRM), snap.CSR.FFlags)
}
