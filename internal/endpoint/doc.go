// Package endpoint exposes the LED as a file-like endpoint.
//
// A Manager drives the acquisition state machine
//
//	Unstarted → AddressAllocated → CategoryRegistered → NodeCreated →
//	LineClaimed → DirectionSet → Ready
//
// Each forward step acquires one resource and pushes its release onto a
// chain. A failure at any step pops the chain in reverse and returns an
// *InitError; nothing stays reachable. Finalize forces the LED OFF and pops
// the whole chain.
//
// While Ready, callers Open a Session and use it like a small character
// device:
//
//	s, err := m.Open()
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.Write([]byte("1"))   // LED on; only the first byte is inspected
//	buf := make([]byte, 8)
//	n, _ := s.Read(buf)    // "ON\n"
//
// Reads have no cursor: every Read returns the full current status,
// truncated to the buffer, and never io.EOF.
package endpoint
