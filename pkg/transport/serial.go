package transport

import (
	"time"

	"go.bug.st/serial"
)

// serialTransport drives a physical serial device at 8N1.
type serialTransport struct {
	port    serial.Port
	name    string
	timeout time.Duration
}

func openSerial(name string, cfg Config) (Transport, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, &OpenError{Endpoint: name, Err: err}
	}

	// Reads return short on silence instead of blocking forever.
	if err := port.SetReadTimeout(pollInterval); err != nil {
		port.Close()
		return nil, &OpenError{Endpoint: name, Err: err}
	}

	return &serialTransport{
		port:    port,
		name:    name,
		timeout: cfg.ReadTimeout,
	}, nil
}

func (s *serialTransport) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		return n, &IOError{Op: "read", Err: err}
	}
	return n, nil
}

func (s *serialTransport) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, &IOError{Op: "write", Err: err}
	}
	return n, nil
}

func (s *serialTransport) Flush() error {
	return s.port.ResetInputBuffer()
}

func (s *serialTransport) SetReadTimeout(d time.Duration) error {
	s.timeout = d
	return nil
}

func (s *serialTransport) ReadTimeout() time.Duration { return s.timeout }

func (s *serialTransport) Close() error { return s.port.Close() }

// ListPorts enumerates serial device names present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}
