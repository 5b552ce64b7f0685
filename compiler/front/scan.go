package front

import (
	"context"
	"fmt"
	"strings"

	"tlog.app/go/loc"
	"tlog.app/go/tlog"
)

type (
	Token interface{}

	Char    byte
	Punct   string
	Keyword string
	Ident   string
	Digits  string

	// Bad is a run of bytes no token starts with.
	Bad string

	UnexpectedError struct {
		Token Token
		Want  []Token
	}
)

var keywords = map[string]struct{}{
	"DECLARE": {}, "IN": {}, "END": {},
	"IF": {}, "THEN": {}, "ELSE": {}, "ENDIF": {},
	"WHILE": {}, "DO": {}, "ENDWHILE": {},
	"FOR": {}, "DOWN": {}, "FROM": {}, "TO": {}, "ENDFOR": {},
	"GET": {}, "PUT": {},
}

// next returns the token after st, the position it starts at and the position after it.
// End of input is nil token.
func (s *State) next(ctx context.Context, st int) (tk Token, tst int, i int) {
	if tr := tlog.SpanFromContext(ctx); tr.If("next_token") {
		defer func(st int) {
			tr.Printw("next token", "st", st, "tk", tk, "tst", tst, "i", i, "from", loc.Caller(2))
		}(st)
	}

	st, ok := skipSpaces(s.b, st)
	if !ok {
		return Bad(s.b[st:]), st, len(s.b)
	}

	i = st

	if i == len(s.b) {
		return nil, st, i
	}

	c := s.b[i]

	switch c {
	case '(', ')', ';', '+', '-', '*', '/', '%', '=':
		return Char(c), st, i + 1
	case '<', '>':
		if i+1 < len(s.b) && s.b[i+1] == '=' {
			return Punct(s.b[i : i+2]), st, i + 2
		}

		return Char(c), st, i + 1
	case ':', '!':
		if i+1 < len(s.b) && s.b[i+1] == '=' {
			return Punct(s.b[i : i+2]), st, i + 2
		}

		return Bad(s.b[i : i+1]), st, i + 1
	}

	switch {
	case c >= 'a' && c <= 'z' || c == '_':
		e := skipIdent(s.b, i)
		return Ident(s.b[i:e]), st, e
	case c >= 'A' && c <= 'Z':
		e := skipKeyword(s.b, i)

		if _, ok := keywords[string(s.b[i:e])]; ok {
			return Keyword(s.b[i:e]), st, e
		}

		return Bad(s.b[i:e]), st, e
	case c >= '0' && c <= '9':
		e := skipNum(s.b, i)
		return Digits(s.b[i:e]), st, e
	default:
		return Bad(s.b[i : i+1]), st, i + 1
	}
}

func NewUnexpected(got Token, want ...Token) error {
	return UnexpectedError{
		Token: got,
		Want:  want,
	}
}

func (e UnexpectedError) Error() string {
	if len(e.Want) == 0 {
		return fmt.Sprintf("unexpected %s", tokenString(e.Token))
	}

	l := make([]string, len(e.Want))

	for i := range e.Want {
		l[i] = tokenString(e.Want[i])
	}

	return fmt.Sprintf("unexpected %s, want %s", tokenString(e.Token), strings.Join(l, " or "))
}

func tokenString(tk Token) string {
	switch tk := tk.(type) {
	case nil:
		return "end of input"
	case Char:
		return fmt.Sprintf("%q", string(tk))
	case Punct:
		return fmt.Sprintf("%q", string(tk))
	case Keyword:
		return string(tk)
	case Ident:
		if tk == "" {
			return "identifier"
		}

		return fmt.Sprintf("identifier %q", string(tk))
	case Digits:
		if tk == "" {
			return "number"
		}

		return fmt.Sprintf("number %s", string(tk))
	case Bad:
		return fmt.Sprintf("symbol %q", string(tk))
	default:
		return fmt.Sprintf("%v", tk)
	}
}

func skipNum(b []byte, i int) int {
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}

	return i
}

func skipIdent(b []byte, i int) int {
	for i < len(b) && (b[i] >= 'a' && b[i] <= 'z' || b[i] == '_') {
		i++
	}

	return i
}

func skipKeyword(b []byte, i int) int {
	for i < len(b) && b[i] >= 'A' && b[i] <= 'Z' {
		i++
	}

	return i
}

// skipSpaces skips whitespace and [ comments ].
// It reports false at an unterminated comment.
func skipSpaces(b []byte, i int) (int, bool) {
	for i < len(b) {
		switch b[i] {
		case ' ', '\t', '\r', '\n':
			i++
		case '[':
			e := i + 1
			for e < len(b) && b[e] != ']' {
				e++
			}

			if e == len(b) {
				return i, false
			}

			i = e + 1
		default:
			return i, true
		}
	}

	return i, true
}
