package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	code := []Instr{
		R(RESET, 3),
		R(INC, 3),
		RR(STORE, 3, 9),
		JumpIf(JZERO, 2, 7),
		Jump(0),
		R(WRITE, 3),
		{Op: HALT},
	}

	text := AppendText(nil, code)

	assert.Equal(t, `RESET 3
INC 3
STORE 3 9
JZERO 2 7
JUMP 0
WRITE 3
HALT
`, string(text))

	back, err := ParseText(text)
	require.NoError(t, err)
	assert.Equal(t, code, back)
}

func TestParseTextErrors(t *testing.T) {
	for _, tc := range []string{
		"MUL 1 2",
		"INC",
		"COPY 1",
		"INC 10",
		"JUMP x",
	} {
		_, err := ParseText([]byte(tc))
		assert.Error(t, err, "%q", tc)
	}

	code, err := ParseText([]byte("\n  JUMP 100\n\nHALT\n"))
	require.NoError(t, err)
	assert.Equal(t, []Instr{Jump(100), {Op: HALT}}, code)
}

func TestJumpArg(t *testing.T) {
	assert.Equal(t, 0, JUMP.JumpArg())
	assert.Equal(t, 1, JZERO.JumpArg())
	assert.Equal(t, 1, JODD.JumpArg())
	assert.Equal(t, -1, ADD.JumpArg())
	assert.Equal(t, 0, HALT.Arity())
}
