package codec

import (
	"strconv"
	"strings"

	"github.com/wirevm/serval/errors"
)

type token uint8

const (
	tokEOF token = iota
	tokNewline
	tokInt
	tokFloat
	tokString
	tokIdent
	tokNil
	tokMinus
	tokComma
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
)

func (t token) String() string {
	switch t {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "linefeed"
	case tokInt:
		return "integer literal"
	case tokFloat:
		return "float literal"
	case tokString:
		return "string literal"
	case tokIdent:
		return "identifier"
	case tokNil:
		return "nil"
	case tokMinus:
		return "`-`"
	case tokComma:
		return "`,`"
	case tokLBracket:
		return "`[`"
	case tokRBracket:
		return "`]`"
	case tokLBrace:
		return "`{`"
	case tokRBrace:
		return "`}`"
	default:
		return "unknown token"
	}
}

// lexer tokenizes the data-literal text format. String interpolation is
// not part of the format; braces inside string literals are plain
// characters. Consecutive newlines collapse into one linefeed token.
type lexer struct {
	src  string
	pos  int
	line int

	tok  token
	ival int64
	fval float64
	sval string // string payload or identifier text
}

func (lx *lexer) init(src string) {
	lx.src = src
	lx.pos = 0
	lx.line = 1
}

// tokStr renders the current token for error messages.
func (lx *lexer) tokStr() string {
	switch lx.tok {
	case tokInt:
		return strconv.FormatInt(lx.ival, 10)
	case tokFloat:
		return strconv.FormatFloat(lx.fval, 'g', -1, 64)
	case tokString:
		return strconv.Quote(lx.sval)
	case tokIdent:
		return lx.sval
	default:
		return lx.tok.String()
	}
}

func (lx *lexer) errorf(format string, args ...any) *errors.Error {
	return errors.New(errors.PhaseParse, errors.KindStructural).
		Detail("line %d: "+format, append([]any{lx.line}, args...)...).
		Build()
}

// next advances to the following token.
func (lx *lexer) next() error {
	sawNewline := false
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch c {
		case ' ', '\t', '\r':
			lx.pos++
		case '\n':
			sawNewline = true
			lx.line++
			lx.pos++
		case '/':
			if lx.pos+1 < len(lx.src) && lx.src[lx.pos+1] == '/' {
				for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
					lx.pos++
				}
				continue
			}
			return lx.errorf("illegal character `/`")
		default:
			goto body
		}
	}
body:
	if sawNewline {
		lx.tok = tokNewline
		return nil
	}
	if lx.pos >= len(lx.src) {
		lx.tok = tokEOF
		return nil
	}
	c := lx.src[lx.pos]
	switch {
	case c >= '0' && c <= '9':
		return lx.number()
	case c == '"':
		return lx.str()
	case c == '_' || isAlpha(c):
		start := lx.pos
		for lx.pos < len(lx.src) && isIdentChar(lx.src[lx.pos]) {
			lx.pos++
		}
		lx.sval = lx.src[start:lx.pos]
		if lx.sval == "nil" {
			lx.tok = tokNil
		} else {
			lx.tok = tokIdent
		}
		return nil
	}
	lx.pos++
	switch c {
	case '-':
		lx.tok = tokMinus
	case ',':
		lx.tok = tokComma
	case '[':
		lx.tok = tokLBracket
	case ']':
		lx.tok = tokRBracket
	case '{':
		lx.tok = tokLBrace
	case '}':
		lx.tok = tokRBrace
	default:
		return lx.errorf("illegal character %q", string(c))
	}
	return nil
}

func (lx *lexer) number() error {
	start := lx.pos
	if strings.HasPrefix(lx.src[lx.pos:], "0x") || strings.HasPrefix(lx.src[lx.pos:], "0X") {
		lx.pos += 2
		for lx.pos < len(lx.src) && isHexDigit(lx.src[lx.pos]) {
			lx.pos++
		}
		i, err := strconv.ParseInt(lx.src[start:lx.pos], 0, 64)
		if err != nil {
			return lx.errorf("malformed integer literal %s", lx.src[start:lx.pos])
		}
		lx.tok = tokInt
		lx.ival = i
		return nil
	}
	isFloat := false
	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos < len(lx.src) && lx.src[lx.pos] == '.' {
		isFloat = true
		lx.pos++
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
	}
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == 'e' || lx.src[lx.pos] == 'E') {
		isFloat = true
		lx.pos++
		if lx.pos < len(lx.src) && (lx.src[lx.pos] == '+' || lx.src[lx.pos] == '-') {
			lx.pos++
		}
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
	}
	text := lx.src[start:lx.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return lx.errorf("malformed float literal %s", text)
		}
		lx.tok = tokFloat
		lx.fval = f
		return nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return lx.errorf("malformed integer literal %s", text)
	}
	lx.tok = tokInt
	lx.ival = i
	return nil
}

func (lx *lexer) str() error {
	lx.pos++ // opening quote
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return lx.errorf("unterminated string literal")
		}
		c := lx.src[lx.pos]
		switch c {
		case '"':
			lx.pos++
			lx.tok = tokString
			lx.sval = b.String()
			return nil
		case '\n':
			return lx.errorf("newline in string literal")
		case '\\':
			lx.pos++
			if lx.pos >= len(lx.src) {
				return lx.errorf("unterminated string literal")
			}
			e := lx.src[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'a':
				b.WriteByte('\a')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'v':
				b.WriteByte('\v')
			case '\\', '"', '\'':
				b.WriteByte(e)
			case 'x':
				v, err := lx.hexDigits(2)
				if err != nil {
					return err
				}
				b.WriteByte(byte(v))
			case 'u':
				v, err := lx.hexDigits(4)
				if err != nil {
					return err
				}
				b.WriteRune(rune(v))
			case 'U':
				v, err := lx.hexDigits(8)
				if err != nil {
					return err
				}
				b.WriteRune(rune(v))
			default:
				return lx.errorf("unknown string escape \\%s", string(e))
			}
		default:
			b.WriteByte(c)
			lx.pos++
		}
	}
}

func (lx *lexer) hexDigits(n int) (uint32, error) {
	if lx.pos+n > len(lx.src) {
		return 0, lx.errorf("unterminated string literal")
	}
	v, err := strconv.ParseUint(lx.src[lx.pos:lx.pos+n], 16, 32)
	if err != nil {
		return 0, lx.errorf("malformed hex escape in string literal")
	}
	lx.pos += n
	return uint32(v), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}
