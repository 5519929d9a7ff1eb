package memfile

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/participle/v2"
)

// Parser represents a hex memory image parser
type Parser struct {
	parser *participle.Parser[MemFile]
}

// NewParser creates a new memory image parser instance
func NewParser() (*Parser, error) {
	parser, err := participle.Build[MemFile](
		participle.Lexer(MemLexer),
		participle.Elide("LineComment", "BlockComment", "Whitespace"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// Parse parses a memory image from a reader
func (p *Parser) Parse(r io.Reader) (*MemFile, error) {
	mem, err := p.parser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return mem, nil
}

// ParseString parses a memory image from a string
func (p *Parser) ParseString(input string) (*MemFile, error) {
	mem, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return mem, nil
}

// ParseFile parses a memory image from a file path
func (p *Parser) ParseFile(filename string) (*MemFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}
