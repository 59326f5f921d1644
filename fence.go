package fence

import (
	"fmt"
	"time"
)

// Device is the part of a graphics device that manages native fences.
// H is the backend's native fence handle.
//
// Implementations wrap ErrOutOfMemory and ErrDeviceLost in the errors they
// return so the failure class survives the trip through Fence.
type Device[H any] interface {
	// CreateFence creates a native fence, signaled or not.
	CreateFence(signaled bool) (H, error)

	// ResetFence returns a signaled native fence to the unsignaled state.
	ResetFence(handle H) error

	// WaitForFence blocks until the fence is signaled or timeout elapses.
	// It reports whether the fence was signaled.
	WaitForFence(handle H, timeout time.Duration) (bool, error)

	// FenceStatus reports whether the fence is signaled without blocking.
	FenceStatus(handle H) (bool, error)
}

// Destroyer releases native fence handles.
type Destroyer[H any] interface {
	DestroyFence(handle H)
}

// Fence owns one native fence handle and tracks the state it is in.
//
// Every transition is either requested explicitly or confirmed by the device
// through WaitSignaled or CheckSignaled. Fence never re-reads the native
// state on its own.
//
// Calling an operation from a state that does not allow it panics with a
// *ContractViolation. Fence is not safe for concurrent use.
type Fence[H any] struct {
	raw   H
	state State
	epoch Epoch // valid only in StateSubmitted
}

// New creates a native fence through d and tracks it in the Signaled state if
// signaled is true, Unsignaled otherwise.
func New[H any](d Device[H], signaled bool) (*Fence[H], error) {
	raw, err := d.CreateFence(signaled)
	if err != nil {
		return nil, fmt.Errorf("fence: create: %w", err)
	}
	state := StateUnsignaled
	if signaled {
		state = StateSignaled
	}
	return &Fence[H]{raw: raw, state: state}, nil
}

// State returns the tracked state.
func (f *Fence[H]) State() State {
	return f.state
}

// IsSubmitted reports whether the fence is attached to a pending submission.
func (f *Fence[H]) IsSubmitted() bool {
	return f.state == StateSubmitted
}

// IsSignaled reports whether completion of the fence was confirmed.
func (f *Fence[H]) IsSignaled() bool {
	return f.state == StateSignaled
}

// IsUnsignaled reports whether the fence is not yet known to be signaled.
// Submitted fences are unsignaled as well.
func (f *Fence[H]) IsUnsignaled() bool {
	return f.state == StateUnsignaled || f.state == StateSubmitted
}

// Reset resets a signaled fence through d. The fence becomes Unsignaled.
// If the device fails, the fence stays Signaled.
//
// Reset panics if the fence is not Signaled.
func (f *Fence[H]) Reset(d Device[H]) error {
	if f.state != StateSignaled {
		violate("Reset", f.state, StateSignaled)
	}
	if err := d.ResetFence(f.raw); err != nil {
		return fmt.Errorf("fence: reset: %w", err)
	}
	f.state = StateUnsignaled
	return nil
}

// WaitSignaled blocks for up to timeout until the device signals the fence.
// On success the fence becomes Signaled and the epoch it was submitted at is
// returned with ok set. On timeout ok is false and the fence stays Submitted,
// so the wait may be repeated. A zero timeout polls.
//
// WaitSignaled panics if the fence is not Submitted.
func (f *Fence[H]) WaitSignaled(d Device[H], timeout time.Duration) (epoch Epoch, ok bool, err error) {
	if f.state != StateSubmitted {
		violate("WaitSignaled", f.state, StateSubmitted)
	}
	signaled, err := d.WaitForFence(f.raw, timeout)
	if err != nil {
		return Epoch{}, false, fmt.Errorf("fence: wait %s: %w", f.epoch, err)
	}
	if !signaled {
		return Epoch{}, false, nil
	}
	f.state = StateSignaled
	return f.epoch, true, nil
}

// CheckSignaled asks the device whether the fence is signaled, without
// blocking. On success the fence becomes Signaled and the epoch it was
// submitted at is returned with ok set. Otherwise the fence stays Submitted.
//
// CheckSignaled panics if the fence is not Submitted.
func (f *Fence[H]) CheckSignaled(d Device[H]) (epoch Epoch, ok bool, err error) {
	if f.state != StateSubmitted {
		violate("CheckSignaled", f.state, StateSubmitted)
	}
	signaled, err := d.FenceStatus(f.raw)
	if err != nil {
		return Epoch{}, false, fmt.Errorf("fence: status %s: %w", f.epoch, err)
	}
	if !signaled {
		return Epoch{}, false, nil
	}
	f.state = StateSignaled
	return f.epoch, true, nil
}

// Raw returns the native handle.
//
// The handle is needed to submit work that signals the fence. Anything that
// changes the native state behind the tracker's back must be followed by the
// matching Resync call.
func (f *Fence[H]) Raw() H {
	if f.state == stateReleased {
		violate("Raw", f.state, StateUnsignaled, StateSignaled, StateSubmitted)
	}
	return f.raw
}

// Epoch returns the epoch the fence was submitted at.
//
// Epoch panics if the fence is not Submitted.
func (f *Fence[H]) Epoch() Epoch {
	if f.state != StateSubmitted {
		violate("Epoch", f.state, StateSubmitted)
	}
	return f.epoch
}

// IntoInner hands the native handle back to the caller, who becomes
// responsible for destroying it. The fence must not be used afterwards.
//
// IntoInner panics if the fence is Submitted: work that signals it may still
// be in flight, so it must be waited upon before it is destroyed.
func (f *Fence[H]) IntoInner() H {
	if f.state != StateUnsignaled && f.state != StateSignaled {
		violate("IntoInner", f.state, StateUnsignaled, StateSignaled)
	}
	raw := f.raw
	var zero H
	f.raw = zero
	f.state = stateReleased
	return raw
}

// Destroy releases the native handle through d.
//
// Destroy panics if the fence is Submitted or was already released.
func (f *Fence[H]) Destroy(d Destroyer[H]) {
	d.DestroyFence(f.IntoInner())
}
