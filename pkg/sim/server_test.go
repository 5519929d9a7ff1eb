package sim

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/controller"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

func startServer(t *testing.T, board *Board) (addr string, stop func()) {
	t.Helper()

	srv := NewServer(board, log.New(io.Discard, "", 0))
	if err := srv.Listen("127.0.0.1:0"); err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	return srv.Addr().String(), func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve returned error: %v", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve did not stop after cancel")
		}
	}
}

func dialBoard(t *testing.T, addr string) *controller.Interface {
	t.Helper()

	tr, err := transport.Open("tcp://"+addr, transport.WithReadTimeout(500*time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to open transport: %v", err)
	}
	ctrl := controller.New(tr)
	t.Cleanup(func() { ctrl.Close() })
	return ctrl
}

func TestServerRoundTrip(t *testing.T) {
	board := NewBoard(0x00000077)
	addr, stop := startServer(t, board)
	defer stop()

	ctrl := dialBoard(t, addr)

	id, err := ctrl.Sync()
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if id != 0x77 {
		t.Errorf("Module ID = 0x%08X, want 0x77", id)
	}

	if err := ctrl.WriteMemory(0x40, 0xCAFEBABE, false); err != nil {
		t.Fatalf("WriteMemory failed: %v", err)
	}
	v, err := ctrl.ReadMemory(0x40, false)
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}
	if v != 0xCAFEBABE {
		t.Errorf("Read value = 0x%08X, want 0xCAFEBABE", v)
	}
}

func TestServerProgramLoad(t *testing.T) {
	board := NewBoard(0)
	addr, stop := startServer(t, board)
	defer stop()

	ctrl := dialBoard(t, addr)

	words := []uint32{0x13, 0x93, 0x6F}
	if err := ctrl.LoadWordsAt(0x100, words); err != nil {
		t.Fatalf("LoadWordsAt failed: %v", err)
	}
	if err := ctrl.VerifyWordsAt(0x100, words); err != nil {
		t.Fatalf("VerifyWordsAt failed: %v", err)
	}

	if got := board.MemoryWord(0, 0x100); got != 0x13 {
		t.Errorf("First word = 0x%08X, want 0x13", got)
	}
}

func TestServerBoardSurvivesReconnect(t *testing.T) {
	board := NewBoard(0)
	addr, stop := startServer(t, board)
	defer stop()

	first := dialBoard(t, addr)
	if err := first.WriteMemory(0x0, 0x12345678, false); err != nil {
		t.Fatalf("WriteMemory failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second := dialBoard(t, addr)
	v, err := second.ReadMemory(0x0, false)
	if err != nil {
		t.Fatalf("ReadMemory failed: %v", err)
	}
	if v != 0x12345678 {
		t.Errorf("Read value = 0x%08X, want 0x12345678", v)
	}
}
