package gpio

import "fmt"

// Pin identifies one line on one GPIO chip.
type Pin struct {
	Chip   string
	Offset int
}

// String returns "chip:offset", e.g. "gpiochip0:20".
func (p Pin) String() string {
	return fmt.Sprintf("%s:%d", p.Chip, p.Offset)
}

// Direction is the configured direction of a claimed line.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Handle is an opaque claim on a pin, returned by Line.Claim.
type Handle interface {
	Pin() Pin
}

// Line is the hardware-line capability.
//
// Implementations must be safe for concurrent use, but callers are expected
// to serialize level changes themselves (see led.Controller).
type Line interface {
	// Claim requests exclusive use of pin. The line starts as an input.
	Claim(pin Pin) (Handle, error)

	// Release gives the pin back. The handle is invalid afterwards.
	Release(h Handle) error

	// SetDirection reconfigures a claimed line. Output drives low initially.
	SetDirection(h Handle, d Direction) error

	// SetLevel drives an output line high (true) or low (false).
	SetLevel(h Handle, on bool) error
}
