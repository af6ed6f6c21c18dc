package lexer

import (
	"rill/internal/token"
	"unicode"
	"unicode/utf8"
)

type Lexer struct {
	input        string
	position     int  // current byte position in input (points to start of current rune)
	readPosition int  // next byte position in input (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	var tok token.Token
	pos := l.position

	switch l.ch {
	case '=':
		tok = l.handleCompoundToken2(token.ASSIGN, '=', token.EQ, '>', token.ROCKET)
	case '+':
		tok = newToken(token.PLUS, l.ch, pos)
	case '-':
		tok = newToken(token.MINUS, l.ch, pos)
	case '*':
		tok = newToken(token.ASTERISK, l.ch, pos)
	case '/':
		tok = newToken(token.SLASH, l.ch, pos)
	case '%':
		tok = newToken(token.PERCENT, l.ch, pos)
	case '!':
		tok = l.handleCompoundToken(token.BANG, '=', token.NOT_EQ)
	case '?':
		tok = newToken(token.QUESTION, l.ch, pos)
	case '<':
		tok = l.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		tok = l.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '&':
		tok = l.handleCompoundToken(token.ILLEGAL, '&', token.LOGICAL_AND)
	case '|':
		tok = l.handleCompoundToken(token.ILLEGAL, '|', token.LOGICAL_OR)
	case '.':
		if l.peekChar() == '.' {
			l.readChar()
			if l.peekChar() == '=' {
				l.readChar()
				tok = token.Token{Type: token.RANGE_INCLUSIVE, Literal: "..=", Position: pos}
			} else {
				tok = token.Token{Type: token.RANGE, Literal: "..", Position: pos}
			}
		} else {
			tok = newToken(token.PERIOD, l.ch, pos)
		}
	case ',':
		tok = newToken(token.COMMA, l.ch, pos)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, pos)
	case ':':
		tok = newToken(token.COLON, l.ch, pos)
	case '(':
		tok = newToken(token.LPAREN, l.ch, pos)
	case ')':
		tok = newToken(token.RPAREN, l.ch, pos)
	case '{':
		tok = newToken(token.LBRACE, l.ch, pos)
	case '}':
		tok = newToken(token.RBRACE, l.ch, pos)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, pos)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, pos)
	case '"':
		lit, terminated := l.readString()
		tok.Type = token.STRING
		if !terminated {
			tok.Type = token.ILLEGAL
		}
		tok.Literal = lit
		tok.Position = pos
	case '\'':
		return l.readCharOrLabel()
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Position = pos
	default:
		if isLetter(l.ch) {
			tok.Position = pos
			tok.Literal = l.readIdentifier()
			tok.Type = token.LookupIdent(tok.Literal)
			return tok
		} else if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = newToken(token.ILLEGAL, l.ch, pos)
	}

	l.readChar()
	return tok
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	startPosition := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	}
	return newToken(t, l.ch, startPosition)
}

func (l *Lexer) handleCompoundToken2(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
	ch2 rune,
	t2 token.TokenType,
) token.Token {
	startPosition := l.position
	peek := l.peekChar()
	if peek == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	} else if peek == ch2 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t2, Literal: literal, Position: startPosition}
	}
	return newToken(t, l.ch, startPosition)
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r', '\n':
			l.readChar()
		case '/':
			if l.peekChar() == '/' {
				l.skipToLineEnd()
			} else {
				return
			}
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() token.Token {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	// A '.' only belongs to the number when followed by a digit; `0..5`
	// must lex as INT RANGE INT.
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
		return token.Token{Type: token.FLOAT, Literal: l.input[position:l.position], Position: position}
	}
	return token.Token{Type: token.INT, Literal: l.input[position:l.position], Position: position}
}

func (l *Lexer) readString() (string, bool) {
	var out []rune
	for {
		l.readChar()
		if l.ch == '"' {
			return string(out), true
		}
		if l.ch == 0 {
			return string(out), false
		}
		if l.ch == '\\' {
			l.readChar()
			out = append(out, unescape(l.ch))
			continue
		}
		out = append(out, l.ch)
	}
}

// readCharOrLabel disambiguates 'a' (char literal) from 'outer (loop
// label): a label is a quote followed by identifier characters with no
// closing quote.
func (l *Lexer) readCharOrLabel() token.Token {
	pos := l.position
	l.readChar() // consume the opening quote

	if l.ch == '\\' {
		l.readChar()
		c := unescape(l.ch)
		l.readChar()
		if l.ch != '\'' {
			return token.Token{Type: token.ILLEGAL, Literal: string(c), Position: pos}
		}
		l.readChar()
		return token.Token{Type: token.CHAR, Literal: string(c), Position: pos}
	}

	if isLetter(l.ch) && l.peekChar() != '\'' {
		name := l.readIdentifier()
		return token.Token{Type: token.LABEL, Literal: name, Position: pos}
	}

	c := l.ch
	l.readChar()
	if l.ch != '\'' {
		return token.Token{Type: token.ILLEGAL, Literal: string(c), Position: pos}
	}
	l.readChar()
	return token.Token{Type: token.CHAR, Literal: string(c), Position: pos}
}

func unescape(ch rune) rune {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}
