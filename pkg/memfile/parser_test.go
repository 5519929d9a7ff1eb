package memfile

import (
	"testing"
)

func TestParsePlainWords(t *testing.T) {
	input := `00000013
deadbeef
0000006f
`

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	mem, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if len(mem.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(mem.Entries))
	}

	if mem.Entries[1].Word == nil || *mem.Entries[1].Word != "deadbeef" {
		t.Errorf("Expected word 'deadbeef', got %+v", mem.Entries[1])
	}
}

func TestParseMultipleWordsPerLine(t *testing.T) {
	input := `13 93 6f DEADBEEF`

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	mem, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if len(mem.Entries) != 4 {
		t.Fatalf("Expected 4 entries, got %d", len(mem.Entries))
	}
}

func TestParseComments(t *testing.T) {
	input := `// boot stub
00000013 // nop
/* trap
   vector */
00000073
`

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	mem, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if len(mem.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(mem.Entries))
	}

	if mem.Entries[1].Word == nil || *mem.Entries[1].Word != "00000073" {
		t.Errorf("Expected word '00000073', got %+v", mem.Entries[1])
	}
}

func TestParsePlacementDirectives(t *testing.T) {
	input := `@0
13
@1000
deadbeef
cafe0000
`

	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	mem, err := parser.ParseString(input)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	if len(mem.Entries) != 5 {
		t.Fatalf("Expected 5 entries, got %d", len(mem.Entries))
	}

	if mem.Entries[0].Origin == nil || *mem.Entries[0].Origin != "0" {
		t.Errorf("Expected origin '0', got %+v", mem.Entries[0])
	}

	if mem.Entries[2].Origin == nil || *mem.Entries[2].Origin != "1000" {
		t.Errorf("Expected origin '1000', got %+v", mem.Entries[2])
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	if _, err := parser.ParseString("13\nhello\n6f\n"); err == nil {
		t.Error("Expected parse error for non-hex input, got nil")
	}
}
