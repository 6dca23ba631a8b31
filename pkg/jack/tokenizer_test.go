package jack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"its-hmny.dev/nand2tetris/pkg/jack"
)

func TestTokenizerBasics(t *testing.T) {
	source := `
class Main { // trailing comment
   /* a block
      comment */
   field int count; // another one
   function void main() {
      let count = 42;
      return;
   }
}
`
	tokens, err := jack.NewTokenizer(source).Tokens()
	require.NoError(t, err)

	want := []jack.Token{
		{Kind: jack.Keyword, Value: "class"},
		{Kind: jack.Identifier, Value: "Main"},
		{Kind: jack.SymbolToken, Value: "{"},
		{Kind: jack.Keyword, Value: "field"},
		{Kind: jack.Keyword, Value: "int"},
		{Kind: jack.Identifier, Value: "count"},
		{Kind: jack.SymbolToken, Value: ";"},
		{Kind: jack.Keyword, Value: "function"},
		{Kind: jack.Keyword, Value: "void"},
		{Kind: jack.Identifier, Value: "main"},
		{Kind: jack.SymbolToken, Value: "("},
		{Kind: jack.SymbolToken, Value: ")"},
		{Kind: jack.SymbolToken, Value: "{"},
		{Kind: jack.Keyword, Value: "let"},
		{Kind: jack.Identifier, Value: "count"},
		{Kind: jack.SymbolToken, Value: "="},
		{Kind: jack.IntegerConstant, Value: "42"},
		{Kind: jack.SymbolToken, Value: ";"},
		{Kind: jack.Keyword, Value: "return"},
		{Kind: jack.SymbolToken, Value: ";"},
		{Kind: jack.SymbolToken, Value: "}"},
		{Kind: jack.SymbolToken, Value: "}"},
	}

	require.Equal(t, want, tokens)
}

func TestTokenizerLexicalErrors(t *testing.T) {
	test := func(source string) {
		_, err := jack.NewTokenizer(source).Tokens()
		require.Error(t, err)
	}

	test(`"unterminated string`)
	test("\"newline\ninside\"")
	test("123abc")
}
