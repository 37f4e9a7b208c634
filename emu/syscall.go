package emu

import "fmt"

// RV32 Linux syscall numbers.
const (
	SyscallExit      uint32 = 93 // exit(status)
	SyscallExitGroup uint32 = 94 // exit_group(status)
)

// Syscall argument registers.
const (
	RegSyscallNum = 17 // a7
	RegSyscallArg = 10 // a0
)

// SyscallResult represents the result of a syscall execution.
type SyscallResult struct {
	// Exited is true if the syscall caused program termination.
	Exited bool

	// ExitCode is the exit status if Exited is true.
	ExitCode int64

	// Err is set when the syscall cannot be serviced.
	Err error
}

// SyscallHandler is the interface for handling guest syscalls.
type SyscallHandler interface {
	// Handle executes the syscall described by a register snapshot.
	// RV32 Linux syscall convention:
	//   - Syscall number in a7 (x17)
	//   - Arguments in a0-a5 (x10-x15)
	//
	// Guest registers cannot be written back through a snapshot, so
	// handlers only service syscalls that do not return a value.
	Handle(regs *Snapshot) SyscallResult
}

// DefaultSyscallHandler services exit and exit_group.
type DefaultSyscallHandler struct{}

// NewDefaultSyscallHandler creates a default syscall handler.
func NewDefaultSyscallHandler() *DefaultSyscallHandler {
	return &DefaultSyscallHandler{}
}

// Handle executes the syscall indicated by the snapshot.
func (h *DefaultSyscallHandler) Handle(regs *Snapshot) SyscallResult {
	num := regs.Reg(RegSyscallNum)

	switch num {
	case SyscallExit, SyscallExitGroup:
		return h.handleExit(regs)
	default:
		return SyscallResult{
			Err: fmt.Errorf("unsupported syscall %d", num),
		}
	}
}

// handleExit handles the exit syscall (93).
func (h *DefaultSyscallHandler) handleExit(regs *Snapshot) SyscallResult {
	return SyscallResult{
		Exited:   true,
		ExitCode: int64(int32(regs.Reg(RegSyscallArg))),
	}
}
