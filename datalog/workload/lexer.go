package workload

import (
	"fmt"
	"strings"
	"unicode"
)

// Lexer tokenizes term literals such as [1 "a" (f :k ?x)]
type Lexer struct {
	input   string
	pos     int
	line    int
	col     int
	tokens  []Token
	current int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Lex tokenizes the entire input
func (l *Lexer) Lex() error {
	for l.pos < len(l.input) {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		startLine := l.line
		startCol := l.col

		ch := l.peek()
		if typ, ok := delimiterTokens[ch]; ok {
			l.advance()
			l.tokens = append(l.tokens, Token{Type: typ, Line: startLine, Col: startCol})
			continue
		}

		if ch == '"' {
			str, err := l.readString()
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, Token{
				Type:  TokenString,
				Value: str,
				Line:  startLine,
				Col:   startCol,
			})
			continue
		}

		atom := l.readAtom()
		if atom == "" {
			return fmt.Errorf("unexpected character '%c' at %d:%d", ch, l.line, l.col)
		}
		l.tokens = append(l.tokens, Token{
			Type:  TokenAtom,
			Value: atom,
			Line:  startLine,
			Col:   startCol,
		})
	}

	l.tokens = append(l.tokens, Token{
		Type: TokenEOF,
		Line: l.line,
		Col:  l.col,
	})

	return nil
}

var delimiterTokens = map[byte]TokenType{
	'(': TokenLeftParen,
	')': TokenRightParen,
	'[': TokenLeftBracket,
	']': TokenRightBracket,
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	token := l.tokens[l.current]
	l.current++
	return token
}

// PeekToken returns the next token without advancing
func (l *Lexer) PeekToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	return l.tokens[l.current]
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

// skipWhitespaceAndComments skips whitespace, commas and ; comments
func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peek()
		if unicode.IsSpace(rune(ch)) || ch == ',' {
			l.advance()
		} else if ch == ';' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		} else {
			break
		}
	}
}

func (l *Lexer) readString() (string, error) {
	var result strings.Builder
	l.advance() // opening quote

	for l.pos < len(l.input) {
		ch := l.peek()
		switch ch {
		case '"':
			l.advance()
			return result.String(), nil
		case '\\':
			l.advance()
			if l.pos >= len(l.input) {
				return "", fmt.Errorf("unexpected end of input in string at %d:%d", l.line, l.col)
			}
			escaped := l.peek()
			switch escaped {
			case 't':
				result.WriteByte('\t')
			case 'r':
				result.WriteByte('\r')
			case 'n':
				result.WriteByte('\n')
			case '\\':
				result.WriteByte('\\')
			case '"':
				result.WriteByte('"')
			default:
				return "", fmt.Errorf("invalid escape sequence '\\%c' at %d:%d", escaped, l.line, l.col)
			}
			l.advance()
		default:
			result.WriteByte(ch)
			l.advance()
		}
	}

	return "", fmt.Errorf("unterminated string at %d:%d", l.line, l.col)
}

func (l *Lexer) readAtom() string {
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.peek()
		if isDelimiter(ch) || unicode.IsSpace(rune(ch)) || ch == ',' {
			break
		}
		l.advance()
	}
	return l.input[start:l.pos]
}

func isDelimiter(ch byte) bool {
	_, ok := delimiterTokens[ch]
	return ok || ch == '"' || ch == ';'
}
