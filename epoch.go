package fence

import "fmt"

// QueueID identifies a submission queue: a queue family and the queue's
// index within that family.
type QueueID struct {
	Family uint32
	Index  uint32
}

// String returns the queue ID as "family:index".
func (q QueueID) String() string {
	return fmt.Sprintf("%d:%d", q.Family, q.Index)
}

// Epoch is the point in a queue's timeline at which a fence was submitted.
type Epoch struct {
	// Queue is the queue that signals the fence.
	Queue QueueID

	// Index is the queue-local submission counter.
	// It grows by one per submission batch.
	Index uint64
}

// String returns the epoch as "queue family:index@epoch".
func (e Epoch) String() string {
	return fmt.Sprintf("%s@%d", e.Queue, e.Index)
}

// Before reports whether e was submitted earlier than other on the same queue.
// Epochs of different queues are unordered and Before returns false.
func (e Epoch) Before(other Epoch) bool {
	return e.Queue == other.Queue && e.Index < other.Index
}
