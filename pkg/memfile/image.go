package memfile

import (
	"fmt"
	"strconv"
)

// Segment is a contiguous run of words starting at a word offset
type Segment struct {
	Base  uint32 // word index of the first word
	Words []uint32
}

// Image is a decoded memory image ready to be written to a board
// Offsets follow $readmemh: an @address directive gives the word index
// of the next data word, and an image with no directives is a single
// segment at offset zero
type Image struct {
	Segments []Segment
}

// WordCount returns the total number of data words across all segments
func (img *Image) WordCount() int {
	n := 0
	for _, seg := range img.Segments {
		n += len(seg.Words)
	}
	return n
}

// Image decodes the parse tree into segments, validating that every
// word and placement address fits in 32 bits
func (f *MemFile) Image() (*Image, error) {
	img := &Image{}
	cur := Segment{}

	flush := func() {
		if len(cur.Words) > 0 {
			img.Segments = append(img.Segments, cur)
		}
	}

	for _, e := range f.Entries {
		switch {
		case e.Origin != nil:
			base, err := strconv.ParseUint(*e.Origin, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: placement address %q does not fit in 32 bits", e.Pos.Line, *e.Origin)
			}
			flush()
			cur = Segment{Base: uint32(base)}
		case e.Word != nil:
			w, err := strconv.ParseUint(*e.Word, 16, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: word %q does not fit in 32 bits", e.Pos.Line, *e.Word)
			}
			cur.Words = append(cur.Words, uint32(w))
		}
	}
	flush()

	return img, nil
}
