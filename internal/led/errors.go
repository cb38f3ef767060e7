package led

import "errors"

var (
	// ErrHardware is returned when the line rejects a level change.
	ErrHardware = errors.New("led: hardware error")

	// ErrDetached is returned by Set while no line handle is attached.
	ErrDetached = errors.New("led: no line attached")
)
