// Package protocol implements the ProcessorCI Interface wire encoding.
//
// Every command is a single 32-bit word with the opcode in the least
// significant byte and a 24-bit immediate above it. Words travel
// big-endian, so the immediate's high byte leads and the opcode trails.
// Responses and raw data (memory values, burst payloads) are plain
// 32-bit big-endian words.
package protocol

import (
	"fmt"
)

// ProcessorCI Interface opcodes
const (
	OpClockPulses   = 0x43 // pulse the core clock N times
	OpStopClock     = 0x53
	OpResumeClock   = 0x72
	OpResetCore     = 0x52 // hold reset for N cycles
	OpWriteMemory   = 0x57 // immediate = word address, followed by value word
	OpReadMemory    = 0x4C // immediate = word address, returns one word
	OpLoadUpperAcc  = 0x55 // immediate = value >> 8
	OpLoadLowerAcc  = 0x6C // immediate = value & 0xFF
	OpAddAcc        = 0x41
	OpStoreAcc      = 0x77 // accumulator -> memory[immediate]
	OpSetAcc        = 0x73 // immediate -> accumulator
	OpSetTimeout    = 0x54
	OpSetPageSize   = 0x50
	OpMemoryTest    = 0x45 // returns one word when the test finishes
	OpModuleID      = 0x70 // returns one word
	OpSetBreakpoint = 0x44 // immediate = end-of-execution address
	OpAccBreakpoint = 0x64 // accumulator -> end-of-execution address
	OpWriteBurst    = 0x65 // immediate = word count, followed by N value words
	OpReadBurst     = 0x62 // immediate = word count, returns N words
	OpGetAcc        = 0x61 // returns one word
	OpSwapMemory    = 0x4F // hand the secondary bank to the core
	OpRunUntilBreak = 0x75 // returns two words when execution stops
)

// SyncByte is written on its own, not framed as a command word, to
// resynchronize with the controller. The controller answers with its
// module ID word.
const SyncByte byte = 0x70

const (
	// WordSize is the size of every frame on the wire.
	WordSize = 4

	// MaxImmediate bounds the command immediate field.
	MaxImmediate = 1<<24 - 1

	// SecondBankBit selects the secondary memory bank when set in a
	// word address.
	SecondBankBit = 0x800000
)

// ProtocolError describes a response that does not conform to the
// ProcessorCI Interface encoding.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string { return "protocol: " + e.Reason }

func errorf(format string, args ...interface{}) error {
	return &ProtocolError{Reason: fmt.Sprintf(format, args...)}
}

// Command builds the 4-byte wire form of a command word.
func Command(op byte, imm uint32) ([]byte, error) {
	if imm > MaxImmediate {
		return nil, fmt.Errorf("immediate 0x%X exceeds 24 bits", imm)
	}
	word := uint32(op) | imm<<8
	return []byte{
		byte(word >> 24),
		byte(word >> 16),
		byte(word >> 8),
		byte(word),
	}, nil
}

// Word builds the 4-byte wire form of a raw data word.
func Word(v uint32) []byte {
	return []byte{
		byte(v >> 24),
		byte(v >> 16),
		byte(v >> 8),
		byte(v),
	}
}

// ParseWord decodes a single response word.
func ParseWord(resp []byte) (uint32, error) {
	if len(resp) < WordSize {
		return 0, errorf("response too short: %d bytes", len(resp))
	}
	return uint32(resp[0])<<24 | uint32(resp[1])<<16 |
		uint32(resp[2])<<8 | uint32(resp[3]), nil
}

// ParseWords decodes a burst of n response words.
func ParseWords(resp []byte, n int) ([]uint32, error) {
	if len(resp) < n*WordSize {
		return nil, errorf("burst too short: %d bytes, want %d", len(resp), n*WordSize)
	}
	words := make([]uint32, n)
	for i := range words {
		w, err := ParseWord(resp[i*WordSize:])
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

// MemoryAddress converts a byte address into the word-address immediate
// the memory opcodes expect. Setting secondBank selects the secondary
// bank via the high address bit.
func MemoryAddress(byteAddr uint32, secondBank bool) uint32 {
	addr := (byteAddr >> 2) & MaxImmediate
	if secondBank {
		addr |= SecondBankBit
	}
	return addr
}
