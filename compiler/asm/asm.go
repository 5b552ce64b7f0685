package asm

import (
	"tlog.app/go/errors"
	"tlog.app/go/tlog/tlwire"
)

type (
	Reg uint64
	Op  uint8

	// Instr is an opcode with up to two operands.
	// Operands are register numbers or, for jumps, code addresses.
	Instr struct {
		Op   Op
		Args [2]uint64
	}
)

const (
	READ Op = iota
	WRITE
	LOAD
	STORE
	COPY
	ADD
	SUB
	SHR
	SHL
	INC
	DEC
	RESET
	JUMP
	JZERO
	JODD
	HALT

	numOps
)

// Register file. General registers hold variables,
// scratch registers belong to code snippets and address computation.
const (
	NumGeneral = 6
	NumRegs    = 10

	R6 Reg = 6
	R7 Reg = 7
	R8 Reg = 8
	R9 Reg = 9
)

var names = [numOps]string{
	READ:  "READ",
	WRITE: "WRITE",
	LOAD:  "LOAD",
	STORE: "STORE",
	COPY:  "COPY",
	ADD:   "ADD",
	SUB:   "SUB",
	SHR:   "SHR",
	SHL:   "SHL",
	INC:   "INC",
	DEC:   "DEC",
	RESET: "RESET",
	JUMP:  "JUMP",
	JZERO: "JZERO",
	JODD:  "JODD",
	HALT:  "HALT",
}

func (op Op) String() string {
	if op >= numOps {
		return "?"
	}

	return names[op]
}

func (op Op) Arity() int {
	switch op {
	case HALT:
		return 0
	case READ, WRITE, SHR, SHL, INC, DEC, RESET, JUMP:
		return 1
	default:
		return 2
	}
}

// JumpArg is the operand index holding a code address, or -1.
func (op Op) JumpArg() int {
	switch op {
	case JUMP:
		return 0
	case JZERO, JODD:
		return 1
	default:
		return -1
	}
}

func Parse(name string) (Op, error) {
	for op, n := range names {
		if n == name {
			return Op(op), nil
		}
	}

	return 0, errors.New("unknown instruction: %q", name)
}

func R(op Op, r Reg) Instr     { return Instr{Op: op, Args: [2]uint64{uint64(r)}} }
func RR(op Op, a, b Reg) Instr { return Instr{Op: op, Args: [2]uint64{uint64(a), uint64(b)}} }
func Jump(addr uint64) Instr   { return Instr{Op: JUMP, Args: [2]uint64{addr}} }

func JumpIf(op Op, r Reg, addr uint64) Instr {
	return Instr{Op: op, Args: [2]uint64{uint64(r), addr}}
}

func (x Instr) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	switch x.Op.Arity() {
	case 0:
		return e.AppendFormat(b, "%v", x.Op)
	case 1:
		return e.AppendFormat(b, "%v %d", x.Op, x.Args[0])
	default:
		return e.AppendFormat(b, "%v %d %d", x.Op, x.Args[0], x.Args[1])
	}
}
