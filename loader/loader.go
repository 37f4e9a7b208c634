// Package loader provides loading of RTL programs described in JSON.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/sarchlab/rvdbt/emu"
	"github.com/sarchlab/rvdbt/rtl"
)

// DefaultEntry is the guest address of the first instruction when the
// file does not give one.
const DefaultEntry = 0x1000

// Value is an integer that may be written in JSON as a number or as a
// string in any base strconv accepts ("0x3f800000", "-5").
type Value int64

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}

	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		*v = Value(n)
		return nil
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return fmt.Errorf("bad value %s", data)
	}
	*v = Value(n)
	return nil
}

type instrFile struct {
	Op  string `json:"op"`
	Rd  string `json:"rd,omitempty"`
	Rs1 string `json:"rs1,omitempty"`
	Rs2 string `json:"rs2,omitempty"`
	Imm Value  `json:"imm,omitempty"`
	Cmd string `json:"cmd,omitempty"`
	RM  string `json:"rm,omitempty"`
}

type programFile struct {
	Entry  *Value           `json:"entry,omitempty"`
	Regs   map[string]Value `json:"regs,omitempty"`
	Instrs []instrFile      `json:"instrs"`
}

// Program represents a loaded RTL program.
type Program struct {
	// Entry is the guest address of Instrs[0].
	Entry uint64

	// Instrs are laid out at Entry, 4 bytes apart.
	Instrs []rtl.Instr

	// Init holds initial register values. Integer registers take the low
	// 32 bits, floating-point registers the whole container.
	Init map[rtl.Reg]uint64
}

// Load loads a program from a JSON file.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program file: %w", err)
	}

	prog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return prog, nil
}

// Parse decodes a JSON program description.
func Parse(data []byte) (*Program, error) {
	var f programFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse program: %w", err)
	}

	prog := &Program{
		Entry: DefaultEntry,
		Init:  make(map[rtl.Reg]uint64, len(f.Regs)),
	}
	if f.Entry != nil {
		prog.Entry = uint64(*f.Entry)
	}
	if prog.Entry%emu.InstSize != 0 {
		return nil, fmt.Errorf("entry 0x%X is not 4-byte aligned", prog.Entry)
	}

	for name, v := range f.Regs {
		r, err := rtl.ParseReg(name)
		if err != nil {
			return nil, err
		}
		if r == rtl.Zero || r == rtl.X0 {
			return nil, fmt.Errorf("cannot initialize %v", r)
		}
		prog.Init[r] = uint64(v)
	}

	for i, in := range f.Instrs {
		inst, err := in.decode()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		prog.Instrs = append(prog.Instrs, inst)
	}
	if len(prog.Instrs) == 0 {
		return nil, fmt.Errorf("program has no instructions")
	}

	return prog, nil
}

func parseReg(s string, def rtl.Reg) (rtl.Reg, error) {
	if s == "" {
		return def, nil
	}
	return rtl.ParseReg(s)
}

func (f instrFile) decode() (rtl.Instr, error) {
	op, err := rtl.ParseOp(f.Op)
	if err != nil {
		return rtl.Instr{}, err
	}

	inst := rtl.Instr{Op: op, Imm: int64(f.Imm), RM: rtl.RoundDynamic}
	if inst.Rd, err = parseReg(f.Rd, rtl.Zero); err != nil {
		return inst, err
	}
	if inst.Rs1, err = parseReg(f.Rs1, rtl.Zero); err != nil {
		return inst, err
	}
	if inst.Rs2, err = parseReg(f.Rs2, rtl.Zero); err != nil {
		return inst, err
	}

	if op == rtl.OpFPCall {
		if inst.Cmd, err = rtl.ParseFPCmd(f.Cmd); err != nil {
			return inst, err
		}
		if f.RM != "" {
			if inst.RM, err = rtl.ParseRoundingMode(f.RM); err != nil {
				return inst, err
			}
		}
	}

	if err := inst.Validate(); err != nil {
		return inst, err
	}
	return inst, nil
}

// Prologue returns the LI instructions that establish Init, ordered by
// register.
func (p *Program) Prologue() []rtl.Instr {
	regs := make([]rtl.Reg, 0, len(p.Init))
	for r := range p.Init {
		regs = append(regs, r)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i] < regs[j] })

	code := make([]rtl.Instr, 0, len(regs))
	for _, r := range regs {
		code = append(code, rtl.Li(r, int64(p.Init[r])))
	}
	return code
}

// Image returns the code to run, the prologue followed by Instrs, and the
// address of its first instruction.
func (p *Program) Image() (uint64, []rtl.Instr, error) {
	prologue := p.Prologue()
	size := uint64(len(prologue)) * emu.InstSize
	if size > p.Entry {
		return 0, nil, fmt.Errorf("no room below entry 0x%X for a %d-instruction prologue",
			p.Entry, len(prologue))
	}
	return p.Entry - size, append(prologue, p.Instrs...), nil
}
