// Package asmtest runs generated code in tests.
// It follows the reference interpreter of the target machine:
// subtraction and decrement saturate at zero, memory cells default to zero.
package asmtest

import (
	"tlog.app/go/errors"

	"github.com/slowlang/mrc/compiler/asm"
)

type (
	Machine struct {
		Regs [asm.NumRegs]uint64
		Mem  map[uint64]uint64

		In  []uint64
		Out []uint64

		// Steps limits the number of executed instructions. Zero means DefaultSteps.
		Steps int
	}
)

const DefaultSteps = 10_000_000

var (
	ErrSteps = errors.New("step limit exceeded")
	ErrInput = errors.New("input exhausted")
)

func New(in ...uint64) *Machine {
	return &Machine{
		Mem: make(map[uint64]uint64),
		In:  in,
	}
}

// Run executes code from address 0 until HALT.
func (m *Machine) Run(code []asm.Instr) error {
	if m.Mem == nil {
		m.Mem = make(map[uint64]uint64)
	}

	limit := m.Steps
	if limit == 0 {
		limit = DefaultSteps
	}

	r := &m.Regs
	pc := uint64(0)

	for step := 0; ; step++ {
		if step == limit {
			return errors.Wrap(ErrSteps, "pc %d", pc)
		}

		if pc >= uint64(len(code)) {
			return errors.New("jump out of code: %d", pc)
		}

		x := code[pc]
		a, b := x.Args[0], x.Args[1]
		pc++

		switch x.Op {
		case asm.READ:
			if len(m.In) == 0 {
				return errors.Wrap(ErrInput, "pc %d", pc-1)
			}

			r[a], m.In = m.In[0], m.In[1:]
		case asm.WRITE:
			m.Out = append(m.Out, r[a])
		case asm.LOAD:
			r[a] = m.Mem[r[b]]
		case asm.STORE:
			m.Mem[r[b]] = r[a]
		case asm.COPY:
			r[a] = r[b]
		case asm.ADD:
			r[a] += r[b]
		case asm.SUB:
			if r[a] >= r[b] {
				r[a] -= r[b]
			} else {
				r[a] = 0
			}
		case asm.SHR:
			r[a] >>= 1
		case asm.SHL:
			r[a] <<= 1
		case asm.INC:
			r[a]++
		case asm.DEC:
			if r[a] > 0 {
				r[a]--
			}
		case asm.RESET:
			r[a] = 0
		case asm.JUMP:
			pc = a
		case asm.JZERO:
			if r[a] == 0 {
				pc = b
			}
		case asm.JODD:
			if r[a]&1 == 1 {
				pc = b
			}
		case asm.HALT:
			return nil
		default:
			return errors.New("bad instruction at %d: %v", pc-1, x.Op)
		}
	}
}
