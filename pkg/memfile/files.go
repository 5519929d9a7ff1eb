package memfile

import (
	"fmt"
	"os"
)

// LoadFile parses and decodes the hex image at path
func LoadFile(path string) (*Image, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}
	mem, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return mem.Image()
}

// LoadString parses and decodes a hex image held in a string
func LoadString(input string) (*Image, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}
	mem, err := parser.ParseString(input)
	if err != nil {
		return nil, err
	}
	return mem.Image()
}

// ListDir returns the names of the regular files in dir, the set of
// images a flat program directory offers for loading
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
