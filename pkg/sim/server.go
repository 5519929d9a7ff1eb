package sim

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"os"
)

// Server serves a Board to TCP clients speaking the raw wire protocol,
// so the tcp:// transport can use it in place of hardware.
type Server struct {
	board *Board
	log   *log.Logger
	ln    net.Listener
}

// NewServer wraps board for serving. A nil logger logs to stderr with
// the [sim] prefix.
func NewServer(board *Board, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[sim] ", log.LstdFlags)
	}
	return &Server{board: board, log: logger}
}

// Listen binds addr.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, for callers that listen on :0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is canceled. Every client talks
// to the same board, so memory written in one session is visible to
// the next.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("sim: Serve called before Listen")
	}
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	s.log.Printf("board %08x listening on %s", s.board.moduleID, s.ln.Addr())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.log.Printf("client connected: %s", conn.RemoteAddr())
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == io.EOF {
				s.log.Printf("client disconnected: %s", conn.RemoteAddr())
			} else {
				s.log.Printf("client %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if resp := s.board.Process(buf[:n]); len(resp) > 0 {
			if _, err := conn.Write(resp); err != nil {
				s.log.Printf("client %s: write: %v", conn.RemoteAddr(), err)
				return
			}
		}
	}
}
