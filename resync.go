package fence

// Resync is the trusted side of a Fence. Its methods change the tracked state
// without talking to the device; the caller asserts that the native fence is
// already in the new state.
//
// Keep Resync calls few and easy to find. Each one is a place where the
// tracker believes the caller instead of the device.
type Resync[H any] struct {
	f *Fence[H]
}

// Resync returns the trusted resynchronization view of f.
func (f *Fence[H]) Resync() Resync[H] {
	return Resync[H]{f: f}
}

// MarkSubmitted records that the fence was handed to the device with work
// submitted at epoch. Call it when the submission is made.
//
// MarkSubmitted panics if the fence is not Unsignaled. A fence cannot be
// submitted twice without being signaled and reset in between.
func (r Resync[H]) MarkSubmitted(epoch Epoch) {
	if r.f.state != StateUnsignaled {
		violate("MarkSubmitted", r.f.state, StateUnsignaled)
	}
	r.f.state = StateSubmitted
	r.f.epoch = epoch
}

// MarkReset records that the native fence was reset by other means, such as
// a batched reset of many fences.
//
// MarkReset panics if the fence is not Signaled.
func (r Resync[H]) MarkReset() {
	if r.f.state != StateSignaled {
		violate("MarkReset", r.f.state, StateSignaled)
	}
	r.f.state = StateUnsignaled
}

// MarkSignaled records that the native fence was observed signaled by other
// means and returns the epoch it was submitted at.
//
// MarkSignaled panics if the fence is not Submitted.
func (r Resync[H]) MarkSignaled() Epoch {
	if r.f.state != StateSubmitted {
		violate("MarkSignaled", r.f.state, StateSubmitted)
	}
	r.f.state = StateSignaled
	return r.f.epoch
}
