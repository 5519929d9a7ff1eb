// Package controller drives a ProcessorCI controller over an open
// transport. It owns the command/response cycle: exactly one command is
// in flight at a time, every operation serializes through the session
// mutex, and responses are decoded into words before they reach the
// caller.
//
// The usual session looks like:
//
//	tr, err := transport.Open("/dev/ttyUSB0")
//	// handle err
//	iface := controller.New(tr)
//	defer iface.Close()
//
//	id, err := iface.Sync()        // resynchronize, returns module ID
//	err = iface.WriteMemory(0x0, 0x13, false)
//	word, err := iface.ReadMemory(0x0, false)
//
// Timeouts surface as transport.ErrTimeout and leave the session
// usable; transport I/O failures are fatal and the session must be
// reopened.
package controller
