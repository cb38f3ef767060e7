package endpoint

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Status texts returned by reads.
const (
	StatusOn  = "ON\n"
	StatusOff = "OFF\n"
)

// StatusText returns the status a read reports for level.
func StatusText(on bool) string {
	if on {
		return StatusOn
	}
	return StatusOff
}

// Session is one caller's open handle on the endpoint. Sessions carry no
// per-caller state beyond their identity; there is no read cursor.
type Session struct {
	id string
	m  *Manager

	mu     sync.Mutex
	closed bool
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// ReadTo writes the current status to w, truncated to capacity bytes.
// A negative capacity is treated as zero. If w fails or accepts fewer bytes
// than offered the error wraps ErrIOFault.
func (s *Session) ReadTo(w io.Writer, capacity int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	var n int
	err := s.m.ready(func() error {
		status := StatusText(s.m.ctrl.Current())
		size := min(max(capacity, 0), len(status))
		if size == 0 {
			return nil
		}

		written, err := w.Write([]byte(status[:size]))
		n = written
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIOFault, err)
		}
		if written != size {
			return fmt.Errorf("%w: %w", ErrIOFault, io.ErrShortWrite)
		}
		return nil
	})
	return n, err
}

// Read copies the current status into p, truncated to len(p). It never
// returns io.EOF; every call reports the status afresh.
func (s *Session) Read(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	var n int
	err := s.m.ready(func() error {
		n = copy(p, StatusText(s.m.ctrl.Current()))
		return nil
	})
	return n, err
}

// WriteFrom consumes a count-byte request from r. Only the first byte
// matters: '1' turns the LED on, '0' turns it off, anything else is logged
// and ignored. The full count is reported as written either way.
//
// A zero count is logged as invalid input and reports 0. Reading r fails
// with ErrIOFault; a line failure wraps ErrHardware.
func (s *Session) WriteFrom(r io.Reader, count int) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}

	var n int
	err := s.m.ready(func() error {
		log := s.m.logger
		name := s.m.cfg.Name

		if count <= 0 {
			log.Warn("invalid input", "device", name, "session", s.id, "reason", "empty write")
			return nil
		}

		var first [1]byte
		if _, err := io.ReadFull(r, first[:]); err != nil {
			return fmt.Errorf("%w: %w", ErrIOFault, err)
		}

		switch first[0] {
		case '0':
			if err := s.m.ctrl.Set(false); err != nil {
				return err
			}
			log.Info("LED OFF", "device", name, "session", s.id)
		case '1':
			if err := s.m.ctrl.Set(true); err != nil {
				return err
			}
			log.Info("LED ON", "device", name, "session", s.id)
		default:
			log.Warn("invalid input", "device", name, "session", s.id, "byte", fmt.Sprintf("%q", first[0]))
		}

		n = count
		return nil
	})
	return n, err
}

// Write is WriteFrom over p.
func (s *Session) Write(p []byte) (int, error) {
	return s.WriteFrom(bytes.NewReader(p), len(p))
}

// Close ends the session. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	n := s.m.open.Add(-1)
	s.m.logger.Info("device closed", "device", s.m.cfg.Name, "session", s.id, "open_sessions", n)
	return nil
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}
