package controller

import (
	"fmt"
)

// LoadWordsAt points the accumulator at base and streams words into
// consecutive memory. This is how test programs reach the core: the
// accumulator acts as the burst write pointer.
func (c *Interface) LoadWordsAt(base uint32, words []uint32) error {
	if err := c.SetAccumulator(base); err != nil {
		return err
	}
	return c.WriteWords(words)
}

// VerifyWordsAt reads len(words) words back from base and reports the
// first mismatch.
func (c *Interface) VerifyWordsAt(base uint32, words []uint32) error {
	if err := c.SetAccumulator(base); err != nil {
		return err
	}
	got, err := c.ReadWords(len(words))
	if err != nil {
		return err
	}
	for i := range words {
		if got[i] != words[i] {
			return fmt.Errorf("controller: verify mismatch at word %d: got 0x%08X, want 0x%08X",
				i, got[i], words[i])
		}
	}
	return nil
}
