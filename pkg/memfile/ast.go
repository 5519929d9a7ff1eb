package memfile

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// MemFile represents a parsed hex memory image
// An image is a flat sequence of entries: data words in file order,
// optionally regrouped by @address placement directives
type MemFile struct {
	Entries []*Entry `parser:"@@*"`
}

// Entry is a single image element: a placement directive or a data word
type Entry struct {
	Pos lexer.Position

	Origin *string `parser:"  At @HexWord"`
	Word   *string `parser:"| @HexWord"`
}
