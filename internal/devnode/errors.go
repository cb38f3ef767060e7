package devnode

import "errors"

var (
	// ErrRegionExhausted is returned when every minor under the major is taken.
	ErrRegionExhausted = errors.New("devnode: no free device numbers")

	// ErrRegionInUse is returned when a live process holds the driver's number.
	ErrRegionInUse = errors.New("devnode: device number held by a running process")

	// ErrNotReserved is returned when freeing a number nobody holds.
	ErrNotReserved = errors.New("devnode: device number not reserved")

	// ErrBadCapacity is returned for a read request that is not a number.
	ErrBadCapacity = errors.New("devnode: invalid read capacity")
)
