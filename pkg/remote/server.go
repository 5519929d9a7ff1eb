package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LSC-Unicamp/processor-ci-communication/pkg/controller"
	"github.com/LSC-Unicamp/processor-ci-communication/pkg/transport"
)

// shutdownGrace bounds how long Serve waits for in-flight requests
// after its context is canceled.
const shutdownGrace = 2 * time.Second

// Server exposes one board on an HTTP listener: the command envelope
// API on /ws and the binary relay on /raw.
type Server struct {
	handler *Handler
	log     *log.Logger
	srv     *http.Server
	ln      net.Listener
}

// NewServer wraps an open board transport. Extra controller options
// reach the session behind the envelope API.
func NewServer(tr transport.Transport, logger *log.Logger, opts ...controller.Option) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[serve] ", log.LstdFlags)
	}
	h := NewHandler(tr, logger, opts...)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/raw", h.ServeRaw)
	return &Server{
		handler: h,
		log:     logger,
		srv:     &http.Server{Handler: mux},
	}
}

// Listen binds the server address without serving yet.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.ln = ln
	return nil
}

// Addr reports the bound address, nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve answers clients until ctx is canceled, then hangs up the
// remaining sessions and returns.
func (s *Server) Serve(ctx context.Context) error {
	if s.ln == nil {
		return errors.New("remote: Serve called before Listen")
	}
	addr := s.ln.Addr()
	s.log.Printf("envelope API on ws://%s/ws, raw relay on ws://%s/raw", addr, addr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.srv.Serve(s.ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.handler.closeConns()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
