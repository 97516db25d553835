package emulator

import "fmt"

// Op identifies a decoded instruction.
type Op uint8

const (
	OpSYS      Op = iota // 0NNN
	OpCLS                // 00E0
	OpRET                // 00EE
	OpJP                 // 1NNN
	OpCALL               // 2NNN
	OpSEImm              // 3XNN
	OpSNEImm             // 4XNN
	OpSEReg              // 5XY0
	OpLDImm              // 6XNN
	OpADDImm             // 7XNN
	OpLDReg              // 8XY0
	OpOR                 // 8XY1
	OpAND                // 8XY2
	OpXOR                // 8XY3
	OpADDReg             // 8XY4
	OpSUB                // 8XY5
	OpSHR                // 8XY6
	OpSUBN               // 8XY7
	OpSHL                // 8XYE
	OpSNEReg             // 9XY0
	OpLDI                // ANNN
	OpJPV0               // BNNN
	OpRND                // CXNN
	OpDRW                // DXYN
	OpSKP                // EX9E
	OpSKNP               // EXA1
	OpLDVxDT             // FX07
	OpLDVxK              // FX0A
	OpLDDTVx             // FX15
	OpLDSTVx             // FX18
	OpADDI               // FX1E
	OpLDF                // FX29
	OpLDB                // FX33
	OpLDStore            // FX55
	OpLDLoad             // FX65
)

var opNames = [...]string{
	OpSYS:     "SYS",
	OpCLS:     "CLS",
	OpRET:     "RET",
	OpJP:      "JP",
	OpCALL:    "CALL",
	OpSEImm:   "SE",
	OpSNEImm:  "SNE",
	OpSEReg:   "SE",
	OpLDImm:   "LD",
	OpADDImm:  "ADD",
	OpLDReg:   "LD",
	OpOR:      "OR",
	OpAND:     "AND",
	OpXOR:     "XOR",
	OpADDReg:  "ADD",
	OpSUB:     "SUB",
	OpSHR:     "SHR",
	OpSUBN:    "SUBN",
	OpSHL:     "SHL",
	OpSNEReg:  "SNE",
	OpLDI:     "LD",
	OpJPV0:    "JP",
	OpRND:     "RND",
	OpDRW:     "DRW",
	OpSKP:     "SKP",
	OpSKNP:    "SKNP",
	OpLDVxDT:  "LD",
	OpLDVxK:   "LD",
	OpLDDTVx:  "LD",
	OpLDSTVx:  "LD",
	OpADDI:    "ADD",
	OpLDF:     "LD",
	OpLDB:     "LD",
	OpLDStore: "LD",
	OpLDLoad:  "LD",
}

// Mnemonic returns the assembler name of the operation.
func (o Op) Mnemonic() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "???"
}

// Instruction is one decoded 16-bit instruction. Only the operand fields
// its Op uses are meaningful.
type Instruction struct {
	Op  Op
	Raw uint16
	X   uint8
	Y   uint8
	N   uint8
	NN  uint8
	NNN uint16
}

// Decode splits raw into its operation and operand fields. The returned
// Instruction is meaningless when err is non-nil.
func Decode(raw uint16) (Instruction, error) {
	in := Instruction{
		Raw: raw,
		NNN: raw & 0x0FFF,
		NN:  uint8(raw & 0xFF),
		N:   uint8(raw & 0xF),
		X:   uint8((raw >> 8) & 0xF),
		Y:   uint8((raw >> 4) & 0xF),
	}

	switch raw & 0xF000 {
	case 0x0000:
		switch raw {
		case 0x00E0:
			in.Op = OpCLS
		case 0x00EE:
			in.Op = OpRET
		default:
			in.Op = OpSYS
		}
	case 0x1000:
		in.Op = OpJP
	case 0x2000:
		in.Op = OpCALL
	case 0x3000:
		in.Op = OpSEImm
	case 0x4000:
		in.Op = OpSNEImm
	case 0x5000:
		if in.N != 0 {
			return in, unknown(raw)
		}
		in.Op = OpSEReg
	case 0x6000:
		in.Op = OpLDImm
	case 0x7000:
		in.Op = OpADDImm
	case 0x8000:
		switch in.N {
		case 0x0:
			in.Op = OpLDReg
		case 0x1:
			in.Op = OpOR
		case 0x2:
			in.Op = OpAND
		case 0x3:
			in.Op = OpXOR
		case 0x4:
			in.Op = OpADDReg
		case 0x5:
			in.Op = OpSUB
		case 0x6:
			in.Op = OpSHR
		case 0x7:
			in.Op = OpSUBN
		case 0xE:
			in.Op = OpSHL
		default:
			return in, unknown(raw)
		}
	case 0x9000:
		if in.N != 0 {
			return in, unknown(raw)
		}
		in.Op = OpSNEReg
	case 0xA000:
		in.Op = OpLDI
	case 0xB000:
		in.Op = OpJPV0
	case 0xC000:
		in.Op = OpRND
	case 0xD000:
		in.Op = OpDRW
	case 0xE000:
		switch in.NN {
		case 0x9E:
			in.Op = OpSKP
		case 0xA1:
			in.Op = OpSKNP
		default:
			return in, unknown(raw)
		}
	case 0xF000:
		switch in.NN {
		case 0x07:
			in.Op = OpLDVxDT
		case 0x0A:
			in.Op = OpLDVxK
		case 0x15:
			in.Op = OpLDDTVx
		case 0x18:
			in.Op = OpLDSTVx
		case 0x1E:
			in.Op = OpADDI
		case 0x29:
			in.Op = OpLDF
		case 0x33:
			in.Op = OpLDB
		case 0x55:
			in.Op = OpLDStore
		case 0x65:
			in.Op = OpLDLoad
		default:
			return in, unknown(raw)
		}
	}
	return in, nil
}

func unknown(raw uint16) error {
	return &UnknownInstructionError{Raw: [2]byte{byte(raw >> 8), byte(raw)}}
}

// String disassembles the instruction.
func (in Instruction) String() string {
	m := in.Op.Mnemonic()
	switch in.Op {
	case OpCLS, OpRET:
		return m
	case OpSYS, OpJP, OpCALL:
		return fmt.Sprintf("%-4s #%03X", m, in.NNN)
	case OpSEImm, OpSNEImm, OpLDImm, OpADDImm, OpRND:
		return fmt.Sprintf("%-4s V%X,#%02X", m, in.X, in.NN)
	case OpSEReg, OpSNEReg, OpLDReg, OpOR, OpAND, OpXOR, OpADDReg, OpSUB, OpSUBN, OpSHR, OpSHL:
		return fmt.Sprintf("%-4s V%X,V%X", m, in.X, in.Y)
	case OpLDI:
		return fmt.Sprintf("%-4s I,#%03X", m, in.NNN)
	case OpJPV0:
		return fmt.Sprintf("%-4s V0,#%03X", m, in.NNN)
	case OpDRW:
		return fmt.Sprintf("%-4s V%X,V%X,%d", m, in.X, in.Y, in.N)
	case OpSKP, OpSKNP:
		return fmt.Sprintf("%-4s V%X", m, in.X)
	case OpLDVxDT:
		return fmt.Sprintf("%-4s V%X,DT", m, in.X)
	case OpLDVxK:
		return fmt.Sprintf("%-4s V%X,K", m, in.X)
	case OpLDDTVx:
		return fmt.Sprintf("%-4s DT,V%X", m, in.X)
	case OpLDSTVx:
		return fmt.Sprintf("%-4s ST,V%X", m, in.X)
	case OpADDI:
		return fmt.Sprintf("%-4s I,V%X", m, in.X)
	case OpLDF:
		return fmt.Sprintf("%-4s F,V%X", m, in.X)
	case OpLDB:
		return fmt.Sprintf("%-4s B,V%X", m, in.X)
	case OpLDStore:
		return fmt.Sprintf("%-4s [I],V%X", m, in.X)
	case OpLDLoad:
		return fmt.Sprintf("%-4s V%X,[I]", m, in.X)
	}
	return fmt.Sprintf("DW   #%04X", in.Raw)
}
