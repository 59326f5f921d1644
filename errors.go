package fence

import (
	"errors"
	"strings"
)

// Device errors. Device implementations wrap these so callers can use
// errors.Is regardless of the backend.
var (
	// ErrOutOfMemory is returned when the device runs out of host or device
	// memory while creating, resetting or waiting on a fence.
	ErrOutOfMemory = errors.New("fence: out of memory")

	// ErrDeviceLost is returned when the device is lost while waiting on or
	// querying a fence. The device instance is usually unusable afterwards.
	ErrDeviceLost = errors.New("fence: device lost")
)

// ContractViolation describes an operation called from a state that does not
// permit it. It is raised with panic, never returned: it means the caller's
// submission logic is wrong and the tracked state can no longer be trusted.
//
// ContractViolation implements error so a recovering harness can inspect it
// with errors.As.
type ContractViolation struct {
	// Op is the operation that was called.
	Op string

	// Want lists the states the operation accepts.
	Want []State

	// Got is the state the fence was in.
	Got State
}

// Error implements the error interface.
func (v *ContractViolation) Error() string {
	var b strings.Builder
	b.WriteString("fence: ")
	b.WriteString(v.Op)
	b.WriteString(": must be ")
	for i, s := range v.Want {
		if i > 0 {
			b.WriteString(" or ")
		}
		b.WriteString(s.String())
	}
	b.WriteString(", is ")
	b.WriteString(v.Got.String())
	return b.String()
}

func violate(op string, got State, want ...State) {
	panic(&ContractViolation{Op: op, Want: want, Got: got})
}
