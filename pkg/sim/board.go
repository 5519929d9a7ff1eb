// Package sim models the FPGA-side controller well enough to exercise
// the full command set without hardware: two memory banks, the
// accumulator with its burst auto-increment, breakpoints, and the sync
// realignment byte. The model backs the simulate subcommand's TCP
// server and the in-process `-p sim` endpoint.
package sim

import (
	"encoding/binary"
	"sync"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/protocol"
)

// DefaultModuleID is reported by sync and get_module_id unless the
// board is created with another identity.
const DefaultModuleID uint32 = 0x50434349 // "PCCI"

// Board is a software stand-in for the hardware controller. Feed it
// raw wire bytes with Process and it returns the bytes the hardware
// would answer.
type Board struct {
	mu sync.Mutex

	moduleID     uint32
	mem          [2]map[uint32]uint32
	acc          uint32
	breakpoint   uint32
	cycles       uint32
	clockRunning bool
	swapped      bool
	pageSize     uint32
	timeout      uint32

	in []byte

	// pending raw data words announced by the previous command
	dataNeed int
	dataOp   byte
	dataImm  uint32
}

// NewBoard returns a running board reporting moduleID. Zero means
// DefaultModuleID.
func NewBoard(moduleID uint32) *Board {
	if moduleID == 0 {
		moduleID = DefaultModuleID
	}
	return &Board{
		moduleID:     moduleID,
		mem:          [2]map[uint32]uint32{make(map[uint32]uint32), make(map[uint32]uint32)},
		clockRunning: true,
	}
}

// Process consumes incoming wire bytes and returns the response bytes
// they produce. Partial frames are buffered until completed by a later
// call, so callers may split input arbitrarily.
func (b *Board) Process(p []byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.in = append(b.in, p...)
	var out []byte
	for {
		if b.dataNeed > 0 {
			if len(b.in) < protocol.WordSize {
				break
			}
			w := binary.BigEndian.Uint32(b.in[:protocol.WordSize])
			b.in = b.in[protocol.WordSize:]
			b.dataNeed--
			b.applyData(w)
			continue
		}

		if len(b.in) == 0 {
			break
		}
		// A sync byte at a command boundary realigns the stream and
		// identifies the module.
		if b.in[0] == protocol.SyncByte {
			b.in = b.in[1:]
			out = append(out, protocol.Word(b.moduleID)...)
			continue
		}
		if len(b.in) < protocol.WordSize {
			break
		}
		raw := binary.BigEndian.Uint32(b.in[:protocol.WordSize])
		b.in = b.in[protocol.WordSize:]
		out = append(out, b.exec(byte(raw&0xFF), raw>>8)...)
	}
	return out
}

// applyData consumes one raw data word announced by a write command.
func (b *Board) applyData(w uint32) {
	switch b.dataOp {
	case protocol.OpWriteMemory:
		bank, idx := splitAddress(b.dataImm)
		b.mem[bank][idx] = w
	case protocol.OpWriteBurst:
		b.mem[0][b.acc] = w
		b.acc++
	}
}

func (b *Board) exec(op byte, imm uint32) []byte {
	switch op {
	case protocol.OpClockPulses:
		b.cycles += imm
	case protocol.OpStopClock:
		b.clockRunning = false
	case protocol.OpResumeClock:
		b.clockRunning = true
	case protocol.OpResetCore:
		b.cycles = 0
		b.clockRunning = true
	case protocol.OpWriteMemory:
		b.dataNeed, b.dataOp, b.dataImm = 1, op, imm
	case protocol.OpReadMemory:
		bank, idx := splitAddress(imm)
		return protocol.Word(b.mem[bank][idx])
	case protocol.OpLoadUpperAcc:
		b.acc = imm<<8 | b.acc&0xFF
	case protocol.OpLoadLowerAcc:
		b.acc = b.acc&^0xFF | imm&0xFF
	case protocol.OpAddAcc:
		b.acc += imm
	case protocol.OpStoreAcc:
		b.mem[0][imm] = b.acc
	case protocol.OpSetAcc:
		b.acc = imm
	case protocol.OpSetTimeout:
		b.timeout = imm
	case protocol.OpSetPageSize:
		b.pageSize = imm
	case protocol.OpMemoryTest:
		// Pass only once a page size has been configured
		if b.pageSize == 0 {
			return protocol.Word(0)
		}
		return protocol.Word(1)
	case protocol.OpModuleID:
		return protocol.Word(b.moduleID)
	case protocol.OpSetBreakpoint:
		b.breakpoint = imm
	case protocol.OpAccBreakpoint:
		b.breakpoint = b.acc
	case protocol.OpWriteBurst:
		b.dataNeed, b.dataOp = int(imm), op
	case protocol.OpReadBurst:
		var out []byte
		for i := uint32(0); i < imm; i++ {
			out = append(out, protocol.Word(b.mem[0][b.acc])...)
			b.acc++
		}
		return out
	case protocol.OpGetAcc:
		return protocol.Word(b.acc)
	case protocol.OpSwapMemory:
		b.swapped = !b.swapped
	case protocol.OpRunUntilBreak:
		// Execution-end status pair: the address reached and the cycle
		// count so far
		return append(protocol.Word(b.breakpoint), protocol.Word(b.cycles)...)
	}
	// Unknown opcodes are dropped, as the hardware ignores them
	return nil
}

// splitAddress separates the bank-select bit from the word index.
func splitAddress(imm uint32) (bank int, idx uint32) {
	if imm&protocol.SecondBankBit != 0 {
		return 1, imm &^ protocol.SecondBankBit
	}
	return 0, imm
}

// MemoryWord returns the word stored at idx in bank (0 or 1).
func (b *Board) MemoryWord(bank int, idx uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mem[bank][idx]
}

// Accumulator returns the current accumulator value.
func (b *Board) Accumulator() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acc
}

// Breakpoint returns the configured execution end address.
func (b *Board) Breakpoint() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.breakpoint
}

// Cycles returns the number of clock pulses applied so far.
func (b *Board) Cycles() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cycles
}

// ClockRunning reports whether the core clock is running.
func (b *Board) ClockRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clockRunning
}

// Swapped reports whether memory priority is handed to the core.
func (b *Board) Swapped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.swapped
}
