package halfence

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fence"
)

// HALQueue is the subset of hal.Queue used to submit work and observe its
// completion. Any hal.Queue satisfies it.
type HALQueue interface {
	Submit(commandBuffers []hal.CommandBuffer) (submissionIndex uint64, err error)
	PollCompleted() uint64
}

// Queue submits command buffers and attaches their submission index to a
// fence handle.
type Queue struct {
	queue HALQueue
}

// NewQueue wraps a HAL queue.
func NewQueue(queue HALQueue) *Queue {
	return &Queue{queue: queue}
}

// Submit submits command buffers and makes h wait for them. The caller
// records the submission on the tracker with Resync().MarkSubmitted.
func (q *Queue) Submit(commandBuffers []hal.CommandBuffer, h *Handle) error {
	if q.queue == nil {
		return ErrNilQueue
	}
	idx, err := q.queue.Submit(commandBuffers)
	if err != nil {
		return deviceError("submit", err)
	}
	h.submission = idx
	return nil
}

// SubmitFunc returns a function that submits commandBuffers with the given
// handle. It has the shape queue.Queue.Submit expects.
func (q *Queue) SubmitFunc(commandBuffers []hal.CommandBuffer) func(*Handle, fence.Epoch) error {
	return func(h *Handle, epoch fence.Epoch) error {
		if err := q.Submit(commandBuffers, h); err != nil {
			return fmt.Errorf("epoch %s: %w", epoch, err)
		}
		fence.Logger().Debug("halfence: submit",
			"epoch", epoch.String(),
			"buffers", len(commandBuffers),
			"submission", h.submission,
		)
		return nil
	}
}
