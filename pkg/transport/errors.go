package transport

type timeoutError struct{}

func (timeoutError) Error() string   { return "transport: read timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// ErrTimeout reports that no response arrived within the read timeout.
// It is recoverable: the caller may retry or move on to the next
// command without reopening the transport.
var ErrTimeout error = timeoutError{}

// OpenError reports that an endpoint could not be opened.
type OpenError struct {
	Endpoint string
	Err      error
}

func (e *OpenError) Error() string {
	return "transport: open " + e.Endpoint + ": " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }

// IOError wraps a read or write failure on an open transport. These are
// fatal to the session: the device is gone or the channel is corrupt.
type IOError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *IOError) Error() string {
	return "transport: " + e.Op + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }
