package controller

import (
	"bytes"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

func TestSync(t *testing.T) {
	m := transport.NewMock()
	m.OnWrite = func(p []byte) []byte {
		if bytes.Equal(p, []byte{0x70}) {
			return []byte{0x00, 0x00, 0x00, 0x2A}
		}
		return nil
	}
	c := New(m)

	id, err := c.Sync()
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if id != 0x2A {
		t.Errorf("Sync() module id = 0x%X, want 0x2A", id)
	}
	if writes := m.Writes(); len(writes) != 1 || !bytes.Equal(writes[0], []byte{0x70}) {
		t.Errorf("Sync() wrote %v, want a single sync byte", writes)
	}
}

func TestSyncResendsOnce(t *testing.T) {
	m := transport.NewMock()
	attempts := 0
	m.OnWrite = func(p []byte) []byte {
		attempts++
		if attempts == 1 {
			// Controller misses the first sync byte.
			return nil
		}
		return []byte{0x00, 0x00, 0x00, 0x2A}
	}
	c := New(m)

	id, err := c.Sync()
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if id != 0x2A {
		t.Errorf("Sync() module id = 0x%X, want 0x2A", id)
	}
	if attempts != 2 {
		t.Errorf("Sync() wrote %d sync bytes, want 2", attempts)
	}
}

func TestSyncDeadController(t *testing.T) {
	m := transport.NewMock()
	c := New(m)

	start := time.Now()
	_, err := c.Sync()
	if !errors.Is(err, transport.ErrTimeout) {
		t.Fatalf("Sync() error = %v, want ErrTimeout", err)
	}
	if writes := m.Writes(); len(writes) != 2 {
		t.Errorf("Sync() wrote %d frames, want exactly 2 attempts", len(writes))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Sync() blocked %v against a dead controller", elapsed)
	}
}

func TestSyncFlushesStaleInput(t *testing.T) {
	m := transport.NewMock()
	m.Feed([]byte{0xBA, 0xD0}) // stale bytes from an interrupted exchange
	m.OnWrite = func(p []byte) []byte {
		return []byte{0x00, 0x00, 0x00, 0x01}
	}
	c := New(m)

	id, err := c.Sync()
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if id != 1 {
		t.Errorf("Sync() = 0x%X, stale input leaked into the response", id)
	}
}

func TestPollBudgetBoundsLongOperations(t *testing.T) {
	m := transport.NewMock()
	c := New(m, WithPollBudget(2))

	start := time.Now()
	_, err := c.RunUntilBreak()
	if !errors.Is(err, transport.ErrTimeout) {
		t.Fatalf("RunUntilBreak() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("RunUntilBreak() blocked %v with a 2-window budget", elapsed)
	}
}

func TestPollSurvivesSlowResponse(t *testing.T) {
	m := transport.NewMock()
	m.SetReadTimeout(80 * time.Millisecond)
	c := New(m)

	// The controller answers in two pieces, several timeout windows
	// after the command went out.
	go func() {
		time.Sleep(100 * time.Millisecond)
		m.Feed([]byte{0x00, 0x00, 0x04, 0x00})
		time.Sleep(150 * time.Millisecond)
		m.Feed([]byte{0x00, 0x00, 0x10, 0x00})
	}()

	words, err := c.RunUntilBreak()
	if err != nil {
		t.Fatalf("RunUntilBreak() error = %v", err)
	}
	if len(words) != 2 || words[0] != 0x400 || words[1] != 0x1000 {
		t.Errorf("RunUntilBreak() = %v, want [0x400 0x1000]", words)
	}
}

func TestWriteFailureSurfacesIOError(t *testing.T) {
	m := transport.NewMock()
	m.WriteErr = errors.New("device removed")
	c := New(m)

	err := c.ClockPulses(1)
	var ioerr *transport.IOError
	if !errors.As(err, &ioerr) {
		t.Fatalf("ClockPulses() error = %v, want *transport.IOError", err)
	}
}

func TestCloseReleasesTransport(t *testing.T) {
	m := transport.NewMock()
	c := New(m)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.ClockPulses(1); err == nil {
		t.Error("operation after Close() did not fail")
	}
}

func TestVerboseLogging(t *testing.T) {
	m := transport.NewMock()
	m.Feed([]byte{0x00, 0x00, 0x00, 0x07})
	c := New(m, WithLogger(log.New(io.Discard, "[test] ", 0)))

	if _, err := c.ModuleID(); err != nil {
		t.Fatalf("ModuleID() error = %v", err)
	}
}
