package fence

// State is the tracked state of a fence.
type State uint8

const (
	// StateUnsignaled means the fence was created or reset and is not
	// attached to any submission.
	StateUnsignaled State = iota

	// StateSignaled means completion was confirmed. The fence may be reset.
	StateSignaled

	// StateSubmitted means the fence is attached to a submission and the
	// GPU signal is pending.
	StateSubmitted

	// stateReleased marks a fence whose handle was handed back to the caller.
	stateReleased
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateUnsignaled:
		return "Unsignaled"
	case StateSignaled:
		return "Signaled"
	case StateSubmitted:
		return "Submitted"
	case stateReleased:
		return "Released"
	default:
		return "Unknown"
	}
}
