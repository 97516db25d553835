package emulator

import (
	"errors"
	"fmt"
)

var (
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrInvalidSpeed   = errors.New("invalid speed")
	ErrROMTooLarge    = errors.New("rom too large")
	ErrNotLoaded      = errors.New("no rom loaded")
	ErrRunning        = errors.New("machine already running")
)

// AddressingError is returned for any memory access that falls outside
// 0x000-0xFFF. It always means a malformed ROM or an interpreter bug.
type AddressingError struct {
	Address int
	Length  int
}

func (e *AddressingError) Error() string {
	return fmt.Sprintf("address out of range: %#04x+%d", e.Address, e.Length)
}

// UnknownInstructionError carries the raw bytes of an instruction the
// decoder does not recognise.
type UnknownInstructionError struct {
	Raw [2]byte
}

func (e *UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction %02X%02X", e.Raw[0], e.Raw[1])
}

// Fault wraps an executor error with the location it happened at.
type Fault struct {
	PC     uint16
	Opcode uint16
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at %03X (%04X): %v", f.PC, f.Opcode, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
