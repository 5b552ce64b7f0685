package asm

import (
	"bufio"
	"bytes"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
)

// AppendText renders code one instruction per line.
func AppendText(b []byte, code []Instr) []byte {
	for _, x := range code {
		b = x.AppendText(b)
		b = append(b, '\n')
	}

	return b
}

func (x Instr) AppendText(b []byte) []byte {
	switch x.Op.Arity() {
	case 0:
		return append(b, x.Op.String()...)
	case 1:
		return hfmt.Appendf(b, "%v %d", x.Op, x.Args[0])
	default:
		return hfmt.Appendf(b, "%v %d %d", x.Op, x.Args[0], x.Args[1])
	}
}

func (x Instr) String() string {
	return string(x.AppendText(nil))
}

// ParseText reads code in the AppendText format.
// Blank lines are skipped.
func ParseText(text []byte) (code []Instr, err error) {
	s := bufio.NewScanner(bytes.NewReader(text))
	line := 0

	for s.Scan() {
		line++

		f := bytes.Fields(s.Bytes())
		if len(f) == 0 {
			continue
		}

		op, err := Parse(string(f[0]))
		if err != nil {
			return nil, errors.Wrap(err, "line %d", line)
		}

		if len(f)-1 != op.Arity() {
			return nil, errors.New("line %d: %v takes %d operands, got %d", line, op, op.Arity(), len(f)-1)
		}

		x := Instr{Op: op}

		for i, a := range f[1:] {
			x.Args[i], err = strconv.ParseUint(string(a), 10, 64)
			if err != nil {
				return nil, errors.Wrap(err, "line %d: operand %d", line, i+1)
			}

			if i != op.JumpArg() && x.Args[i] >= NumRegs {
				return nil, errors.New("line %d: bad register %d", line, x.Args[i])
			}
		}

		code = append(code, x)
	}

	if err = s.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}

	return code, nil
}
