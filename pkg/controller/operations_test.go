package controller

import (
	"bytes"
	"testing"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

func TestFireAndForgetFrames(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Interface) error
		want []byte
	}{
		{
			name: "clock pulses",
			op:   func(c *Interface) error { return c.ClockPulses(10) },
			want: []byte{0x00, 0x00, 0x0A, 0x43},
		},
		{
			name: "stop clock",
			op:   func(c *Interface) error { return c.StopClock() },
			want: []byte{0x00, 0x00, 0x00, 0x53},
		},
		{
			name: "resume clock",
			op:   func(c *Interface) error { return c.ResumeClock() },
			want: []byte{0x00, 0x00, 0x00, 0x72},
		},
		{
			name: "reset core",
			op:   func(c *Interface) error { return c.ResetCore() },
			want: []byte{0x00, 0x00, 0x00, 0x52},
		},
		{
			name: "load accumulator upper bits",
			op:   func(c *Interface) error { return c.LoadAccumulatorMSB(0x1234) },
			want: []byte{0x00, 0x12, 0x34, 0x55},
		},
		{
			name: "load accumulator low byte masks the value",
			op:   func(c *Interface) error { return c.LoadAccumulatorLSB(0xABCD) },
			want: []byte{0x00, 0x00, 0xCD, 0x6C},
		},
		{
			name: "add to accumulator",
			op:   func(c *Interface) error { return c.AddToAccumulator(0x10) },
			want: []byte{0x00, 0x00, 0x10, 0x41},
		},
		{
			name: "set accumulator",
			op:   func(c *Interface) error { return c.SetAccumulator(0x20) },
			want: []byte{0x00, 0x00, 0x20, 0x73},
		},
		{
			name: "store accumulator",
			op:   func(c *Interface) error { return c.StoreAccumulator(0x30) },
			want: []byte{0x00, 0x00, 0x30, 0x77},
		},
		{
			name: "set timeout",
			op:   func(c *Interface) error { return c.SetTimeout(5) },
			want: []byte{0x00, 0x00, 0x05, 0x54},
		},
		{
			name: "set memory page size",
			op:   func(c *Interface) error { return c.SetMemoryPageSize(1024) },
			want: []byte{0x00, 0x04, 0x00, 0x50},
		},
		{
			name: "set breakpoint",
			op:   func(c *Interface) error { return c.SetBreakpoint(0x100) },
			want: []byte{0x00, 0x01, 0x00, 0x44},
		},
		{
			name: "accumulator as breakpoint",
			op:   func(c *Interface) error { return c.AccumulatorAsBreakpoint() },
			want: []byte{0x00, 0x00, 0x00, 0x64},
		},
		{
			name: "swap memory priority",
			op:   func(c *Interface) error { return c.SwapMemoryPriority() },
			want: []byte{0x00, 0x00, 0x00, 0x4F},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := transport.NewMock()
			c := New(m)

			if err := tt.op(c); err != nil {
				t.Fatalf("operation error = %v", err)
			}
			got := m.WrittenBytes()
			if !bytes.Equal(got, tt.want) {
				t.Errorf("wire frame = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteMemory(t *testing.T) {
	tests := []struct {
		name       string
		addr       uint32
		value      uint32
		secondBank bool
		want       []byte
	}{
		{
			name:  "first bank",
			addr:  0x100,
			value: 0xDEADBEEF,
			want:  []byte{0x00, 0x00, 0x40, 0x57, 0xDE, 0xAD, 0xBE, 0xEF},
		},
		{
			name:       "second bank sets the high address bit",
			addr:       0x100,
			value:      0x13,
			secondBank: true,
			want:       []byte{0x80, 0x00, 0x40, 0x57, 0x00, 0x00, 0x00, 0x13},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := transport.NewMock()
			c := New(m)

			if err := c.WriteMemory(tt.addr, tt.value, tt.secondBank); err != nil {
				t.Fatalf("WriteMemory() error = %v", err)
			}
			if got := m.WrittenBytes(); !bytes.Equal(got, tt.want) {
				t.Errorf("wire bytes = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadMemory(t *testing.T) {
	m := transport.NewMock()
	m.Feed([]byte{0xCA, 0xFE, 0xF0, 0x0D})
	c := New(m)

	got, err := c.ReadMemory(0x200, false)
	if err != nil {
		t.Fatalf("ReadMemory() error = %v", err)
	}
	if got != 0xCAFEF00D {
		t.Errorf("ReadMemory() = 0x%08X, want 0xCAFEF00D", got)
	}
	want := []byte{0x00, 0x00, 0x80, 0x4C}
	if wire := m.WrittenBytes(); !bytes.Equal(wire, want) {
		t.Errorf("wire frame = %v, want %v", wire, want)
	}
}

func TestAccumulatorAndModuleID(t *testing.T) {
	tests := []struct {
		name string
		op   func(*Interface) (uint32, error)
		resp []byte
		want uint32
		wire []byte
	}{
		{
			name: "read accumulator",
			op:   (*Interface).Accumulator,
			resp: []byte{0x00, 0x00, 0x10, 0x00},
			want: 0x1000,
			wire: []byte{0x00, 0x00, 0x00, 0x61},
		},
		{
			name: "module id",
			op:   (*Interface).ModuleID,
			resp: []byte{0x00, 0x00, 0x00, 0x05},
			want: 5,
			wire: []byte{0x00, 0x00, 0x00, 0x70},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := transport.NewMock()
			m.Feed(tt.resp)
			c := New(m)

			got, err := tt.op(c)
			if err != nil {
				t.Fatalf("operation error = %v", err)
			}
			if got != tt.want {
				t.Errorf("value = 0x%08X, want 0x%08X", got, tt.want)
			}
			if wire := m.WrittenBytes(); !bytes.Equal(wire, tt.wire) {
				t.Errorf("wire frame = %v, want %v", wire, tt.wire)
			}
		})
	}
}

func TestWriteWords(t *testing.T) {
	m := transport.NewMock()
	c := New(m)

	if err := c.WriteWords([]uint32{0x13, 0xDEADBEEF}); err != nil {
		t.Fatalf("WriteWords() error = %v", err)
	}

	want := []byte{
		0x00, 0x00, 0x02, 0x65, // burst header, 2 words
		0x00, 0x00, 0x00, 0x13,
		0xDE, 0xAD, 0xBE, 0xEF,
	}
	if got := m.WrittenBytes(); !bytes.Equal(got, want) {
		t.Errorf("wire bytes = %v, want %v", got, want)
	}
}

func TestReadWords(t *testing.T) {
	m := transport.NewMock()
	m.Feed([]byte{
		0x00, 0x00, 0x00, 0x13,
		0x00, 0x00, 0x00, 0x6F,
	})
	c := New(m)

	got, err := c.ReadWords(2)
	if err != nil {
		t.Fatalf("ReadWords() error = %v", err)
	}
	if len(got) != 2 || got[0] != 0x13 || got[1] != 0x6F {
		t.Errorf("ReadWords() = %v, want [0x13 0x6F]", got)
	}
	want := []byte{0x00, 0x00, 0x02, 0x62}
	if wire := m.WrittenBytes(); !bytes.Equal(wire, want) {
		t.Errorf("wire frame = %v, want %v", wire, want)
	}
}

func TestRunMemoryTest(t *testing.T) {
	m := transport.NewMock()
	c := New(m)

	m.OnWrite = func(p []byte) []byte {
		// The controller answers once the test finishes.
		return []byte{0x00, 0x00, 0x00, 0x01}
	}

	got, err := c.RunMemoryTest(16)
	if err != nil {
		t.Fatalf("RunMemoryTest() error = %v", err)
	}
	if got != 1 {
		t.Errorf("RunMemoryTest() = 0x%08X, want 0x1", got)
	}
	want := []byte{0x00, 0x00, 0x10, 0x45}
	if wire := m.WrittenBytes(); !bytes.Equal(wire, want) {
		t.Errorf("wire frame = %v, want %v", wire, want)
	}
}

func TestRunUntilBreak(t *testing.T) {
	m := transport.NewMock()
	m.Feed([]byte{
		0x00, 0x00, 0x04, 0x00, // final program counter
		0x00, 0x00, 0x10, 0x00, // cycle count
	})
	c := New(m)

	words, err := c.RunUntilBreak()
	if err != nil {
		t.Fatalf("RunUntilBreak() error = %v", err)
	}
	if len(words) != 2 || words[0] != 0x400 || words[1] != 0x1000 {
		t.Errorf("RunUntilBreak() = %v, want [0x400 0x1000]", words)
	}
	want := []byte{0x00, 0x00, 0x00, 0x75}
	if wire := m.WrittenBytes(); !bytes.Equal(wire, want) {
		t.Errorf("wire frame = %v, want %v", wire, want)
	}
}

func TestLoadWordsAt(t *testing.T) {
	m := transport.NewMock()
	c := New(m)

	if err := c.LoadWordsAt(0x40, []uint32{0x13, 0x6F}); err != nil {
		t.Fatalf("LoadWordsAt() error = %v", err)
	}

	want := []byte{
		0x00, 0x00, 0x40, 0x73, // accumulator = base
		0x00, 0x00, 0x02, 0x65, // burst header
		0x00, 0x00, 0x00, 0x13,
		0x00, 0x00, 0x00, 0x6F,
	}
	if got := m.WrittenBytes(); !bytes.Equal(got, want) {
		t.Errorf("wire bytes = %v, want %v", got, want)
	}
}

func TestVerifyWordsAt(t *testing.T) {
	tests := []struct {
		name    string
		resp    []byte
		wantErr bool
	}{
		{
			name: "matching readback",
			resp: []byte{0x00, 0x00, 0x00, 0x13, 0x00, 0x00, 0x00, 0x6F},
		},
		{
			name:    "mismatch",
			resp:    []byte{0x00, 0x00, 0x00, 0x13, 0xFF, 0xFF, 0xFF, 0xFF},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := transport.NewMock()
			m.Feed(tt.resp)
			c := New(m)

			err := c.VerifyWordsAt(0x40, []uint32{0x13, 0x6F})
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyWordsAt() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
