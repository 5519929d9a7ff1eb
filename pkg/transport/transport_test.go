package transport

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestOpenInvalidSerialPort(t *testing.T) {
	tr, err := Open("/dev/nonexistent-pci-comm-device")
	if err == nil {
		tr.Close()
		t.Fatal("Open() succeeded on a nonexistent device")
	}

	var oerr *OpenError
	if !errors.As(err, &oerr) {
		t.Errorf("Open() error type = %T, want *OpenError", err)
	}
	if tr != nil {
		t.Error("Open() returned a transport alongside an error")
	}
}

func TestOpenRefusedTCP(t *testing.T) {
	tr, err := Open("tcp://127.0.0.1:1")
	if err == nil {
		tr.Close()
		t.Fatal("Open() succeeded against a refused TCP endpoint")
	}

	var oerr *OpenError
	if !errors.As(err, &oerr) {
		t.Errorf("Open() error type = %T, want *OpenError", err)
	}
}

func TestMockRoundTrip(t *testing.T) {
	m := NewMock()
	m.Feed([]byte{0xDE, 0xAD, 0xBE, 0xEF})

	buf := make([]byte, 4)
	if _, err := ReadFull(m, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if !bytes.Equal(buf, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Errorf("ReadFull() = %v, want the fed bytes", buf)
	}
}

func TestReadFullTimeout(t *testing.T) {
	m := NewMock()
	m.SetReadTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := ReadFull(m, make([]byte, 4))
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("ReadFull() error = %v, want ErrTimeout", err)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("ReadFull() blocked %v past a 50ms budget", elapsed)
	}
}

func TestReadFullPartialFrame(t *testing.T) {
	m := NewMock()
	m.SetReadTimeout(50 * time.Millisecond)
	m.Feed([]byte{0x01, 0x02})

	_, err := ReadFull(m, make([]byte, 4))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("ReadFull() on a half frame: error = %v, want ErrTimeout", err)
	}
}

func TestReadFullIOError(t *testing.T) {
	m := NewMock()
	m.ReadErr = errors.New("device removed")

	_, err := ReadFull(m, make([]byte, 4))
	var ioerr *IOError
	if !errors.As(err, &ioerr) {
		t.Fatalf("ReadFull() error = %v, want *IOError", err)
	}
	if ioerr.Op != "read" {
		t.Errorf("IOError.Op = %q, want %q", ioerr.Op, "read")
	}
}

func TestMockWriteLog(t *testing.T) {
	m := NewMock()
	m.Write([]byte{0x00, 0x00, 0x00, 0x53})
	m.Write([]byte{0x00, 0x00, 0x0A, 0x43})

	writes := m.Writes()
	if len(writes) != 2 {
		t.Fatalf("Writes() recorded %d frames, want 2", len(writes))
	}
	if !bytes.Equal(writes[0], []byte{0x00, 0x00, 0x00, 0x53}) {
		t.Errorf("first frame = %v", writes[0])
	}
	if !bytes.Equal(m.WrittenBytes(), []byte{0x00, 0x00, 0x00, 0x53, 0x00, 0x00, 0x0A, 0x43}) {
		t.Errorf("WrittenBytes() = %v", m.WrittenBytes())
	}
}

func TestMockOnWrite(t *testing.T) {
	m := NewMock()
	m.OnWrite = func(p []byte) []byte {
		// Echo every frame back reversed.
		out := make([]byte, len(p))
		for i, b := range p {
			out[len(p)-1-i] = b
		}
		return out
	}

	m.Write([]byte{0x01, 0x02, 0x03, 0x04})
	buf := make([]byte, 4)
	if _, err := ReadFull(m, buf); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if !bytes.Equal(buf, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Errorf("OnWrite response = %v, want reversed frame", buf)
	}
}

func TestMockFlushDiscardsPending(t *testing.T) {
	m := NewMock()
	m.SetReadTimeout(50 * time.Millisecond)
	m.Feed([]byte{0xAA, 0xBB})

	if err := m.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if _, err := ReadFull(m, make([]byte, 1)); !errors.Is(err, ErrTimeout) {
		t.Errorf("read after Flush(): error = %v, want ErrTimeout", err)
	}
}

func TestErrTimeoutShape(t *testing.T) {
	var te interface{ Timeout() bool }
	if !errors.As(ErrTimeout, &te) || !te.Timeout() {
		t.Error("ErrTimeout does not report Timeout() == true")
	}
}

func TestListPorts(t *testing.T) {
	// Works without hardware; the list may simply be empty.
	ports, err := ListPorts()
	if err != nil {
		t.Fatalf("ListPorts() error = %v", err)
	}
	t.Logf("Found %d serial port(s)", len(ports))
	for _, p := range ports {
		t.Logf("  %s", p)
	}
}
