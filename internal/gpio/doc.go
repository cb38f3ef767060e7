// Package gpio is the hardware-line capability behind the LED.
//
// The Line interface is deliberately small: claim a pin, configure its
// direction, drive its level, release it. The production implementation,
// Cdev, uses the Linux GPIO character device through go-gpiocdev. Tests use
// the recording fake in gpiotest.
//
// Usage:
//
//	line := gpio.NewCdev("rpi_gpio_20")
//	h, err := line.Claim(gpio.Pin{Chip: "gpiochip0", Offset: 20})
//	if err != nil {
//	    return err
//	}
//	defer line.Release(h)
//
//	if err := line.SetDirection(h, gpio.Output); err != nil {
//	    return err
//	}
//	return line.SetLevel(h, true)
package gpio
