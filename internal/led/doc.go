// Package led holds the Output Controller: the single owner of the LED's
// stored level and the only caller of the hardware line's SetLevel.
//
// The stored level always equals the last level successfully applied to
// the line. A failed hardware write restores the previous value and returns
// an error wrapping ErrHardware.
package led
