package workload

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/wbrown/janus-factdb/datalog"
)

var (
	intPattern   = regexp.MustCompile(`^[+-]?\d+$`)
	floatPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?([eE][+-]?\d+)?$`)
)

// Placeholder is the atom for a column a lookup key leaves unspecified
const Placeholder = "_"

// Parser turns term literals into interned terms.
//
//	42 -7 3.5                 numbers
//	"text"                    strings
//	true false                booleans
//	:kw                       keywords
//	#inst "2024-01-02T00:00:00Z"
//	nil cons                  nullary constructors
//	(cons 1 nil)              constructors
//	(@plus 1 2)               unevaluated calls
//	?x                        variables
//	_                         placeholder (nil term)
type Parser struct {
	terms *datalog.TermTable
	lexer *Lexer
}

// NewParser creates a parser interning into terms
func NewParser(terms *datalog.TermTable) *Parser {
	return &Parser{terms: terms}
}

// ParseTuple parses a bracketed tuple literal: [1 "a" (f x)]
func (p *Parser) ParseTuple(input string) (datalog.Tuple, error) {
	if err := p.reset(input); err != nil {
		return nil, err
	}

	tok := p.lexer.NextToken()
	if tok.Type != TokenLeftBracket {
		return nil, fmt.Errorf("expected '[' to open tuple, got %s", tok)
	}

	var tuple datalog.Tuple
	for {
		tok := p.lexer.PeekToken()
		if tok.Type == TokenRightBracket {
			p.lexer.NextToken()
			break
		}
		if tok.Type == TokenEOF {
			return nil, fmt.Errorf("unterminated tuple at %d:%d", tok.Line, tok.Col)
		}
		term, err := p.readTerm()
		if err != nil {
			return nil, err
		}
		tuple = append(tuple, term)
	}

	if tok := p.lexer.NextToken(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %s after tuple", tok)
	}
	return tuple, nil
}

// ParseTerm parses exactly one term
func (p *Parser) ParseTerm(input string) (datalog.Term, error) {
	if err := p.reset(input); err != nil {
		return nil, err
	}
	term, err := p.readTerm()
	if err != nil {
		return nil, err
	}
	if tok := p.lexer.NextToken(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %s after term", tok)
	}
	return term, nil
}

func (p *Parser) reset(input string) error {
	p.lexer = NewLexer(input)
	return p.lexer.Lex()
}

func (p *Parser) readTerm() (datalog.Term, error) {
	tok := p.lexer.NextToken()
	switch tok.Type {
	case TokenString:
		return p.terms.Text(tok.Value), nil
	case TokenAtom:
		return p.readAtom(tok)
	case TokenLeftParen:
		return p.readCompound(tok)
	case TokenEOF:
		return nil, fmt.Errorf("unexpected end of input at %d:%d", tok.Line, tok.Col)
	default:
		return nil, fmt.Errorf("unexpected %s", tok)
	}
}

func (p *Parser) readAtom(tok Token) (datalog.Term, error) {
	atom := tok.Value
	switch {
	case atom == Placeholder:
		return nil, nil
	case atom == "true":
		return p.terms.Bool(true), nil
	case atom == "false":
		return p.terms.Bool(false), nil
	case atom == "#inst":
		next := p.lexer.NextToken()
		if next.Type != TokenString {
			return nil, fmt.Errorf("#inst at %d:%d needs a string, got %s", tok.Line, tok.Col, next)
		}
		t, err := time.Parse(time.RFC3339Nano, next.Value)
		if err != nil {
			return nil, fmt.Errorf("#inst at %d:%d: %w", tok.Line, tok.Col, err)
		}
		return p.terms.Time(t), nil
	case intPattern.MatchString(atom):
		i, err := strconv.ParseInt(atom, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer %s at %d:%d: %w", atom, tok.Line, tok.Col, err)
		}
		return p.terms.Int(i), nil
	case floatPattern.MatchString(atom):
		f, err := strconv.ParseFloat(atom, 64)
		if err != nil {
			return nil, fmt.Errorf("float %s at %d:%d: %w", atom, tok.Line, tok.Col, err)
		}
		return p.terms.Float(f), nil
	case atom[0] == ':':
		if len(atom) == 1 {
			return nil, fmt.Errorf("empty keyword at %d:%d", tok.Line, tok.Col)
		}
		return p.terms.Keyword(atom), nil
	case atom[0] == '?':
		if len(atom) == 1 {
			return nil, fmt.Errorf("empty variable name at %d:%d", tok.Line, tok.Col)
		}
		return p.terms.Var(atom), nil
	case atom[0] == '@':
		return nil, fmt.Errorf("call %s at %d:%d must be written (%s ...)", atom, tok.Line, tok.Col, atom)
	default:
		return p.terms.Construct(atom), nil
	}
}

// readCompound reads (f args...) or (@f args...) after the opening paren
func (p *Parser) readCompound(open Token) (datalog.Term, error) {
	head := p.lexer.NextToken()
	if head.Type != TokenAtom || !isSymbol(head.Value) {
		return nil, fmt.Errorf("compound at %d:%d needs a symbol head, got %s", open.Line, open.Col, head)
	}

	var args []datalog.Term
	for {
		tok := p.lexer.PeekToken()
		if tok.Type == TokenRightParen {
			p.lexer.NextToken()
			break
		}
		if tok.Type == TokenEOF {
			return nil, fmt.Errorf("unterminated compound opened at %d:%d", open.Line, open.Col)
		}
		arg, err := p.readTerm()
		if err != nil {
			return nil, err
		}
		if arg == nil {
			return nil, fmt.Errorf("placeholder inside compound opened at %d:%d", open.Line, open.Col)
		}
		args = append(args, arg)
	}

	if head.Value[0] == '@' {
		if len(head.Value) == 1 {
			return nil, fmt.Errorf("call at %d:%d has no function name", open.Line, open.Col)
		}
		return p.terms.Call(head.Value[1:], args...), nil
	}
	return p.terms.Construct(head.Value, args...), nil
}

// isSymbol reports whether atom names a constructor or function
func isSymbol(atom string) bool {
	switch {
	case atom == Placeholder, atom == "true", atom == "false", atom == "#inst":
		return false
	case intPattern.MatchString(atom), floatPattern.MatchString(atom):
		return false
	case atom[0] == ':' || atom[0] == '?':
		return false
	}
	return true
}
