package formula

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokIdent:
		return "name"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == '+':
			toks = append(toks, token{kind: tokPlus, text: "+", pos: i})
			i++
		case r == '-':
			toks = append(toks, token{kind: tokMinus, text: "-", pos: i})
			i++
		case r == '*':
			if i+1 < len(src) && src[i+1] == '*' {
				return nil, syntaxErrorf(i, "operator '**' is not supported")
			}
			toks = append(toks, token{kind: tokStar, text: "*", pos: i})
			i++
		case r == '/':
			if i+1 < len(src) && src[i+1] == '/' {
				return nil, syntaxErrorf(i, "operator '//' is not supported")
			}
			toks = append(toks, token{kind: tokSlash, text: "/", pos: i})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case isDigit(r) || r == '.':
			tok, next, err := scanNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, tok)
			i = next
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(src) {
				r, size = utf8.DecodeRuneInString(src[i:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, syntaxErrorf(i, "unexpected character %q", r)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// scanNumber reads digits with an optional fraction and exponent.
func scanNumber(src string, start int) (token, int, error) {
	i := start
	digits := 0
	for i < len(src) && isDigit(rune(src[i])) {
		i++
		digits++
	}
	if i < len(src) && src[i] == '.' {
		i++
		for i < len(src) && isDigit(rune(src[i])) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return token{}, 0, syntaxErrorf(start, "malformed number")
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(src) && isDigit(rune(src[j])) {
			j++
			expDigits++
		}
		if expDigits == 0 {
			return token{}, 0, syntaxErrorf(start, "malformed exponent")
		}
		i = j
	}
	if i < len(src) {
		if r, _ := utf8.DecodeRuneInString(src[i:]); r == '_' || unicode.IsLetter(r) {
			return token{}, 0, syntaxErrorf(i, "unexpected character %q after number", r)
		}
	}
	text := src[start:i]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, 0, syntaxErrorf(start, "malformed number %q", text)
	}
	return token{kind: tokNumber, text: text, num: v, pos: start}, i, nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
