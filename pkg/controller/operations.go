package controller

import (
	"errors"
	"fmt"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/protocol"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

// Sync resynchronizes the session. Pending input is discarded, the
// sync byte goes out, and the controller answers with its module ID.
// A silent controller gets the byte once more before the exchange
// fails.
func (c *Interface) Sync() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tr.Flush(); err != nil {
		return 0, err
	}
	if _, err := c.tr.Write([]byte{protocol.SyncByte}); err != nil {
		return 0, err
	}
	id, err := c.readWord()
	if errors.Is(err, transport.ErrTimeout) {
		c.logf("sync: no answer, resending")
		if _, err := c.tr.Write([]byte{protocol.SyncByte}); err != nil {
			return 0, err
		}
		return c.readWord()
	}
	return id, err
}

// ClockPulses pulses the core clock n times.
func (c *Interface) ClockPulses(n uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpClockPulses, n)
}

// StopClock halts the core clock.
func (c *Interface) StopClock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpStopClock, 0)
}

// ResumeClock restarts a stopped core clock.
func (c *Interface) ResumeClock() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpResumeClock, 0)
}

// ResetCore resets the processor core.
func (c *Interface) ResetCore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpResetCore, 0)
}

// WriteMemory stores value at the given byte address. secondBank
// selects the secondary memory bank.
func (c *Interface) WriteMemory(addr, value uint32, secondBank bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendCommand(protocol.OpWriteMemory, protocol.MemoryAddress(addr, secondBank)); err != nil {
		return err
	}
	return c.sendWord(value)
}

// ReadMemory loads the word at the given byte address.
func (c *Interface) ReadMemory(addr uint32, secondBank bool) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendCommand(protocol.OpReadMemory, protocol.MemoryAddress(addr, secondBank)); err != nil {
		return 0, err
	}
	return c.readWord()
}

// LoadAccumulatorMSB loads value into the accumulator's upper bits
// (31:8).
func (c *Interface) LoadAccumulatorMSB(value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpLoadUpperAcc, value)
}

// LoadAccumulatorLSB loads the low byte of value into the
// accumulator's bits 7:0.
func (c *Interface) LoadAccumulatorLSB(value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpLoadLowerAcc, value&0xFF)
}

// AddToAccumulator adds value to the accumulator.
func (c *Interface) AddToAccumulator(value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpAddAcc, value)
}

// SetAccumulator writes value directly into the accumulator.
func (c *Interface) SetAccumulator(value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpSetAcc, value)
}

// StoreAccumulator writes the accumulator into memory at addr. The
// address goes out as given; the controller interprets it.
func (c *Interface) StoreAccumulator(addr uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpStoreAcc, addr)
}

// Accumulator reads the accumulator's current value.
func (c *Interface) Accumulator() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendCommand(protocol.OpGetAcc, 0); err != nil {
		return 0, err
	}
	return c.readWord()
}

// SetTimeout configures the controller-side operation timeout.
func (c *Interface) SetTimeout(value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpSetTimeout, value)
}

// SetMemoryPageSize configures the controller's memory page size.
func (c *Interface) SetMemoryPageSize(size uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpSetPageSize, size)
}

// RunMemoryTest asks the controller to exercise the given number of
// memory pages and waits for the result word. The controller answers
// when the test finishes, which may take several timeout windows.
func (c *Interface) RunMemoryTest(pages uint32) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendCommand(protocol.OpMemoryTest, pages); err != nil {
		return 0, err
	}
	words, err := c.pollWords(1)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// ModuleID reads the controller's module identification word.
func (c *Interface) ModuleID() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendCommand(protocol.OpModuleID, 0); err != nil {
		return 0, err
	}
	return c.readWord()
}

// SetBreakpoint sets the end-of-execution address. The address goes
// out as given.
func (c *Interface) SetBreakpoint(addr uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpSetBreakpoint, addr)
}

// AccumulatorAsBreakpoint uses the accumulator's current value as the
// end-of-execution address.
func (c *Interface) AccumulatorAsBreakpoint() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpAccBreakpoint, 0)
}

// WriteWords streams words into consecutive memory starting at the
// accumulator-addressed position.
func (c *Interface) WriteWords(words []uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(words)
	if n > protocol.MaxImmediate {
		return fmt.Errorf("controller: burst of %d words exceeds the immediate range", n)
	}
	if err := c.sendCommand(protocol.OpWriteBurst, uint32(n)); err != nil {
		return err
	}
	for _, w := range words {
		if err := c.sendWord(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadWords reads n words from consecutive memory starting at the
// accumulator-addressed position.
func (c *Interface) ReadWords(n int) ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 0 || n > protocol.MaxImmediate {
		return nil, fmt.Errorf("controller: burst of %d words exceeds the immediate range", n)
	}
	if err := c.sendCommand(protocol.OpReadBurst, uint32(n)); err != nil {
		return nil, err
	}
	words := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		w, err := c.readWord()
		if err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, nil
}

// SwapMemoryPriority hands the secondary memory bank to the core.
func (c *Interface) SwapMemoryPriority() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCommand(protocol.OpSwapMemory, 0)
}

// RunUntilBreak lets the core run until it reaches the breakpoint or
// the controller-side timeout fires, then returns the two status words
// the controller reports.
func (c *Interface) RunUntilBreak() ([]uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sendCommand(protocol.OpRunUntilBreak, 0); err != nil {
		return nil, err
	}
	return c.pollWords(2)
}
