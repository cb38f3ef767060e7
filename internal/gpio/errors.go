package gpio

import "errors"

// Sentinel errors for line operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrLineUnavailable is returned when a pin cannot be claimed
	// (chip missing, offset out of range, or already requested).
	ErrLineUnavailable = errors.New("gpio: line unavailable")

	// ErrDirection is returned when a claimed line cannot be reconfigured.
	ErrDirection = errors.New("gpio: direction configuration failed")

	// ErrSetLevel is returned when driving the line level fails.
	ErrSetLevel = errors.New("gpio: set level failed")

	// ErrInvalidHandle is returned when a handle was not produced by this Line
	// or has already been released.
	ErrInvalidHandle = errors.New("gpio: invalid handle")
)
