package memfile

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// MemLexer defines the lexical structure for hex memory images
// The format is the one Verilog's $readmemh consumes: bare hex words
// separated by whitespace, optional @address placement directives, and
// // or /* */ comments. Plain one-word-per-line dumps are a subset.
var MemLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comments - Verilog style
	{Name: "LineComment", Pattern: `//[^\n]*`},
	{Name: "BlockComment", Pattern: `(?s)/\*.*?\*/`},

	// Whitespace
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	// Placement directive marker
	{Name: "At", Pattern: `@`},

	// Hex words carry no 0x prefix in $readmemh images
	{Name: "HexWord", Pattern: `[0-9A-Fa-f]+`},
})
