package query

import (
	"strconv"
	"strings"

	"fluidinfo/models"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokPath
	tokString
	tokNumber
	tokLParen
	tokRParen
	tokOp
	tokAnd
	tokOr
	tokExcept
	tokHas
	tokMatches
	tokContains
	tokTrue
	tokFalse
	tokNull
)

type token struct {
	kind tokenKind
	text string
}

// lexer tokenizes Fluidinfo query text. It is hand-written
// and single-pass, matching the recursive-descent parser's style rather
// than pulling in a parser-generator dependency.
type lexer struct {
	src []rune
	pos int
}

func newLexer(s string) *lexer { return &lexer{src: []rune(s)} }

var keywords = map[string]tokenKind{
	"and":      tokAnd,
	"or":       tokOr,
	"except":   tokExcept,
	"has":      tokHas,
	"matches":  tokMatches,
	"contains": tokContains,
	"true":     tokTrue,
	"false":    tokFalse,
	"null":     tokNull,
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF}, nil
	}
	c := l.src[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokLParen}, nil
	case c == ')':
		l.pos++
		return token{kind: tokRParen}, nil
	case c == '"' || c == '\'':
		return l.lexString(c)
	case c == '=':
		l.pos++
		return token{kind: tokOp, text: "="}, nil
	case c == '!':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{kind: tokOp, text: "!="}, nil
		}
		return token{}, models.NewError(models.KindParseError, "unexpected '!' at position %d", l.pos)
	case c == '<':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{kind: tokOp, text: "<="}, nil
		}
		l.pos++
		return token{kind: tokOp, text: "<"}, nil
	case c == '>':
		if l.peekAt(1) == '=' {
			l.pos += 2
			return token{kind: tokOp, text: ">="}, nil
		}
		l.pos++
		return token{kind: tokOp, text: ">"}, nil
	case isDigit(c) || (c == '-' && isDigit(l.peekAt(1))):
		return l.lexNumber()
	default:
		return l.lexWord()
	}
}

func (l *lexer) peekAt(off int) rune {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\n' || l.src[l.pos] == '\r') {
		l.pos++
	}
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }

func (l *lexer) lexString(quote rune) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			b.WriteRune(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		if c == quote {
			l.pos++
			return token{kind: tokString, text: b.String()}, nil
		}
		b.WriteRune(c)
		l.pos++
	}
	return token{}, models.NewError(models.KindParseError, "unterminated string starting at position %d", start)
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return token{}, models.NewError(models.KindParseError, "invalid number %q", text)
	}
	return token{kind: tokNumber, text: text}, nil
}

// isPathRune matches path/identifier characters: the path segment
// grammar plus '/' to join segments.
func isPathRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '.' || c == ':' || c == '-' || c == '/':
		return true
	}
	return false
}

func (l *lexer) lexWord() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isPathRune(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == start {
		return token{}, models.NewError(models.KindParseError, "unexpected character %q at position %d", string(l.src[l.pos]), l.pos)
	}
	text := string(l.src[start:l.pos])
	if kw, ok := keywords[strings.ToLower(text)]; ok {
		return token{kind: kw, text: text}, nil
	}
	return token{kind: tokPath, text: text}, nil
}
