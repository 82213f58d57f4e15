package workload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbrown/janus-factdb/datalog"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:  "empty input",
			input: "",
			expected: []Token{
				{Type: TokenEOF, Line: 1, Col: 1},
			},
		},
		{
			name:  "tuple with commas",
			input: "[1, :a]",
			expected: []Token{
				{Type: TokenLeftBracket, Line: 1, Col: 1},
				{Type: TokenAtom, Value: "1", Line: 1, Col: 2},
				{Type: TokenAtom, Value: ":a", Line: 1, Col: 5},
				{Type: TokenRightBracket, Line: 1, Col: 7},
				{Type: TokenEOF, Line: 1, Col: 8},
			},
		},
		{
			name:  "compound and string",
			input: `(f "x\ty")`,
			expected: []Token{
				{Type: TokenLeftParen, Line: 1, Col: 1},
				{Type: TokenAtom, Value: "f", Line: 1, Col: 2},
				{Type: TokenString, Value: "x\ty", Line: 1, Col: 4},
				{Type: TokenRightParen, Line: 1, Col: 10},
				{Type: TokenEOF, Line: 1, Col: 11},
			},
		},
		{
			name:  "comment and newline",
			input: "; note\n_",
			expected: []Token{
				{Type: TokenAtom, Value: "_", Line: 2, Col: 1},
				{Type: TokenEOF, Line: 2, Col: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lexer := NewLexer(tt.input)
			require.NoError(t, lexer.Lex())
			var got []Token
			for {
				tok := lexer.NextToken()
				got = append(got, tok)
				if tok.Type == TokenEOF {
					break
				}
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{`"open`, `"bad \q escape"`, `"trailing \`} {
		assert.Error(t, NewLexer(input).Lex(), input)
	}
}

func TestParseTerm(t *testing.T) {
	tt := datalog.NewTermTable()
	p := NewParser(tt)

	tests := []struct {
		input string
		want  datalog.Term
	}{
		{"42", tt.Int(42)},
		{"-7", tt.Int(-7)},
		{"3.5", tt.Float(3.5)},
		{"1e3", tt.Float(1000)},
		{`"hi there"`, tt.Text("hi there")},
		{"true", tt.Bool(true)},
		{"false", tt.Bool(false)},
		{":status", tt.Keyword(":status")},
		{`#inst "2024-01-02T03:04:05Z"`, tt.Time(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))},
		{"nil", tt.Construct("nil")},
		{"(cons 1 nil)", tt.Construct("cons", tt.Int(1), tt.Construct("nil"))},
		{"(@plus 1 2)", tt.Call("plus", tt.Int(1), tt.Int(2))},
		{"?x", tt.Var("?x")},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := p.ParseTerm(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want.ID(), got.ID(), "got %s", got)
		})
	}

	placeholder, err := p.ParseTerm("_")
	require.NoError(t, err)
	assert.Nil(t, placeholder)
}

func TestPrintedTermsParseBack(t *testing.T) {
	tt := datalog.NewTermTable()
	p := NewParser(tt)

	for _, input := range []string{
		":status",
		":status/active",
		"status",
		`"a b"`,
		"(tag :end (box 1))",
		`#inst "2024-01-02T03:04:05Z"`,
	} {
		t.Run(input, func(t *testing.T) {
			term, err := p.ParseTerm(input)
			require.NoError(t, err)
			assert.Equal(t, input, term.String())

			again, err := p.ParseTerm(term.String())
			require.NoError(t, err)
			assert.Equal(t, term.ID(), again.ID())
		})
	}

	kw, err := p.ParseTerm(":status")
	require.NoError(t, err)
	assert.Equal(t, tt.Keyword(":status").ID(), kw.ID())
	assert.NotEqual(t, tt.Construct("status").ID(), kw.ID())
	assert.IsType(t, &datalog.Constant{}, kw)
}

func TestParseTermGroundness(t *testing.T) {
	p := NewParser(datalog.NewTermTable())

	ground, err := p.ParseTerm("(pair 1 (box :a))")
	require.NoError(t, err)
	assert.True(t, datalog.IsNormal(ground))

	open, err := p.ParseTerm("(pair 1 ?x)")
	require.NoError(t, err)
	assert.False(t, open.IsGround())

	pending, err := p.ParseTerm("(box (@succ 1))")
	require.NoError(t, err)
	assert.True(t, pending.IsGround())
	assert.True(t, pending.ContainsUnevaluatedTerm())
}

func TestParseTuple(t *testing.T) {
	tt := datalog.NewTermTable()
	p := NewParser(tt)

	tuple, err := p.ParseTuple(`[1 "a" (f :k) _]`)
	require.NoError(t, err)
	require.Len(t, tuple, 4)
	assert.Equal(t, tt.Int(1), tuple[0])
	assert.Equal(t, tt.Text("a"), tuple[1])
	assert.Equal(t, tt.Construct("f", tt.Keyword(":k")), tuple[2])
	assert.Nil(t, tuple[3])

	empty, err := p.ParseTuple("[]")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseErrors(t *testing.T) {
	p := NewParser(datalog.NewTermTable())

	for _, input := range []string{
		"1 2",
		"[1 2",
		"(f 1",
		"[1] 2",
		"(1 2)",
		"(f _)",
		"(@)",
		"@f",
		":",
		"?",
		`#inst 5`,
		`#inst "yesterday"`,
		"99999999999999999999",
		")",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := p.ParseTuple("[" + input + "]")
			if err == nil {
				_, err = p.ParseTerm(input)
			}
			assert.Error(t, err)
		})
	}

	_, err := p.ParseTuple("1")
	assert.Error(t, err, "tuples need brackets")
}
