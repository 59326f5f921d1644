// Package queue drives fence trackers for one submission queue.
//
// A Queue assigns epochs to submissions and owns one fence per in-flight
// submission. Fences are recycled once the GPU signals them and destroyed
// when the queue is closed. Every transition goes through the fence
// tracker, so a fence is never waited on before it is submitted, never
// reset while pending and never destroyed while pending.
//
// Epoch indices start at 1. An index is consumed only when the submit
// callback succeeds.
//
// Thread Safety:
// Queue is safe for concurrent use. A mutex gives one goroutine at a time
// access to the fences. Submit, Wait, WaitIdle and Close hold it while they
// block on a fence, so other callers wait behind them.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/fence"
)

// Queue errors.
var (
	// ErrClosed is returned when operating on a closed queue.
	ErrClosed = errors.New("queue: closed")

	// ErrWaitTimeout is returned when a fence is not signaled within the
	// configured wait timeout.
	ErrWaitTimeout = errors.New("queue: wait timed out")

	// ErrForeignEpoch is returned when waiting on an epoch of another queue.
	ErrForeignEpoch = errors.New("queue: epoch belongs to another queue")

	// ErrNotSubmitted is returned when waiting on an epoch that was never
	// submitted.
	ErrNotSubmitted = errors.New("queue: epoch not submitted")
)

// Device creates, resets, waits on and destroys native fences of type H.
type Device[H any] interface {
	fence.Device[H]
	fence.Destroyer[H]
}

// BatchResetter is implemented by devices that can reset many native fences
// in one call. Recycle uses it when available.
type BatchResetter[H any] interface {
	ResetFences(handles []H) error
}

// SubmitFunc hands work to the device so that it signals handle on
// completion. It must not keep handle after returning. If it returns an
// error, the work must not have been submitted.
type SubmitFunc[H any] func(handle H, epoch fence.Epoch) error

// Stats is a snapshot of a queue's fences and timeline.
type Stats struct {
	// InFlight is the number of pending submissions.
	InFlight int

	// Idle is the number of fences kept for reuse.
	Idle int

	// Submitted is the index of the last submitted epoch, 0 if none.
	Submitted uint64

	// Completed is the index of the last epoch known complete, along with
	// every epoch before it. 0 if none.
	Completed uint64
}

// Queue tracks the submissions of one device queue.
type Queue[H any] struct {
	mu sync.Mutex

	id     fence.QueueID
	device Device[H]
	opts   options

	// last is the index of the last submitted epoch.
	last uint64

	// pending holds submitted fences in submission order.
	pending []*fence.Fence[H]

	// idle holds fences that are Unsignaled or Signaled and ready for reuse.
	idle []*fence.Fence[H]

	closed bool
}

// New creates a queue with the given ID. Fences are created on d as needed.
func New[H any](id fence.QueueID, d Device[H], opts ...Option) *Queue[H] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Queue[H]{
		id:     id,
		device: d,
		opts:   o,
	}
}

// ID returns the queue ID carried by every epoch the queue assigns.
func (q *Queue[H]) ID() fence.QueueID {
	return q.id
}

func (q *Queue[H]) log() *slog.Logger {
	if q.opts.logger != nil {
		return q.opts.logger
	}
	return fence.Logger()
}

// Submit assigns the next epoch and calls fn with a fence handle and that
// epoch. fn submits the work so that the GPU signals the handle. On success
// the fence is marked submitted and the epoch is returned.
//
// If the maximum number of submissions is in flight, Submit first waits for
// the oldest one.
func (q *Queue[H]) Submit(ctx context.Context, fn SubmitFunc[H]) (fence.Epoch, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fence.Epoch{}, ErrClosed
	}
	for len(q.pending) >= q.opts.maxInFlight {
		if err := q.waitOldest(ctx); err != nil {
			return fence.Epoch{}, err
		}
	}

	f, err := q.acquire()
	if err != nil {
		return fence.Epoch{}, err
	}

	epoch := fence.Epoch{Queue: q.id, Index: q.last + 1}
	if err := fn(f.Raw(), epoch); err != nil {
		q.idle = append(q.idle, f)
		return fence.Epoch{}, fmt.Errorf("queue: submit %s: %w", epoch, err)
	}
	f.Resync().MarkSubmitted(epoch)
	q.last = epoch.Index
	q.pending = append(q.pending, f)

	q.log().Debug("queue: submitted", "epoch", epoch.String(), "in_flight", len(q.pending))
	return epoch, nil
}

// acquire returns an Unsignaled fence, reusing an idle one when possible.
func (q *Queue[H]) acquire() (*fence.Fence[H], error) {
	if n := len(q.idle); n > 0 {
		f := q.idle[n-1]
		if f.IsSignaled() {
			if err := f.Reset(q.device); err != nil {
				return nil, fmt.Errorf("queue: %w", err)
			}
		}
		q.idle[n-1] = nil
		q.idle = q.idle[:n-1]
		return f, nil
	}

	f, err := fence.New[H](q.device, false)
	if err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}
	q.log().Debug("queue: fence created", "queue", q.id.String())
	return f, nil
}

// waitOldest blocks until the oldest pending fence is signaled, bounded by
// the wait timeout and ctx's deadline, and retires it.
func (q *Queue[H]) waitOldest(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := q.opts.waitTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = max(left, 0)
		}
	}

	f := q.pending[0]
	epoch, ok, err := f.WaitSignaled(q.device, timeout)
	if err != nil {
		q.log().Warn("queue: wait failed", "epoch", f.Epoch().String(), "err", err)
		return fmt.Errorf("queue: %w", err)
	}
	if !ok {
		if err := ctx.Err(); err != nil {
			return err
		}
		q.log().Warn("queue: wait timed out", "epoch", f.Epoch().String(), "timeout", timeout)
		return fmt.Errorf("%w: %s after %v", ErrWaitTimeout, f.Epoch(), timeout)
	}

	q.pending[0] = nil
	q.pending = q.pending[1:]
	q.retire(f, epoch)
	return nil
}

func (q *Queue[H]) retire(f *fence.Fence[H], epoch fence.Epoch) {
	q.idle = append(q.idle, f)
	q.log().Debug("queue: retired", "epoch", epoch.String())
}

// Poll checks every pending fence without blocking and retires the signaled
// ones. It returns how many were retired.
func (q *Queue[H]) Poll() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, ErrClosed
	}

	var (
		retired int
		pollErr error
		kept    = q.pending[:0]
	)
	for _, f := range q.pending {
		if pollErr == nil {
			epoch, ok, err := f.CheckSignaled(q.device)
			switch {
			case err != nil:
				q.log().Warn("queue: poll failed", "epoch", f.Epoch().String(), "err", err)
				pollErr = fmt.Errorf("queue: %w", err)
			case ok:
				q.retire(f, epoch)
				retired++
				continue
			}
		}
		kept = append(kept, f)
	}
	clear(q.pending[len(kept):])
	q.pending = kept
	return retired, pollErr
}

// completed returns the highest index such that it and every earlier epoch
// are complete. Pending fences are kept in submission order.
func (q *Queue[H]) completed() uint64 {
	if len(q.pending) == 0 {
		return q.last
	}
	return q.pending[0].Epoch().Index - 1
}

// Completed returns the index of the last epoch known complete, along with
// every epoch before it. It does not query the device; call Poll first for
// an up-to-date answer.
func (q *Queue[H]) Completed() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.completed()
}

// Wait blocks until epoch and every epoch before it are complete.
func (q *Queue[H]) Wait(ctx context.Context, epoch fence.Epoch) error {
	if epoch.Queue != q.id {
		return fmt.Errorf("%w: %s on queue %s", ErrForeignEpoch, epoch, q.id)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if epoch.Index > q.last {
		return fmt.Errorf("%w: %s", ErrNotSubmitted, epoch)
	}
	for q.completed() < epoch.Index {
		if err := q.waitOldest(ctx); err != nil {
			return err
		}
	}
	return nil
}

// WaitIdle blocks until every submission is complete.
func (q *Queue[H]) WaitIdle(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	return q.waitIdle(ctx)
}

func (q *Queue[H]) waitIdle(ctx context.Context) error {
	for len(q.pending) > 0 {
		if err := q.waitOldest(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Recycle resets every signaled idle fence so the next submissions do not
// have to. If the device implements BatchResetter, all fences are reset in
// one device call. It returns how many fences were reset.
func (q *Queue[H]) Recycle() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0, ErrClosed
	}

	var signaled []*fence.Fence[H]
	for _, f := range q.idle {
		if f.IsSignaled() {
			signaled = append(signaled, f)
		}
	}
	if len(signaled) == 0 {
		return 0, nil
	}

	if br, ok := q.device.(BatchResetter[H]); ok {
		handles := make([]H, len(signaled))
		for i, f := range signaled {
			handles[i] = f.Raw()
		}
		if err := br.ResetFences(handles); err != nil {
			return 0, fmt.Errorf("queue: reset %d fences: %w", len(handles), err)
		}
		// The batch reset the native fences; bring the trackers in line.
		for _, f := range signaled {
			f.Resync().MarkReset()
		}
		q.log().Debug("queue: recycled", "fences", len(signaled), "batched", true)
		return len(signaled), nil
	}

	for i, f := range signaled {
		if err := f.Reset(q.device); err != nil {
			return i, fmt.Errorf("queue: %w", err)
		}
	}
	q.log().Debug("queue: recycled", "fences", len(signaled), "batched", false)
	return len(signaled), nil
}

// Stats returns a snapshot of the queue.
func (q *Queue[H]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		InFlight:  len(q.pending),
		Idle:      len(q.idle),
		Submitted: q.last,
		Completed: q.completed(),
	}
}

// Close waits for every submission to complete and destroys all fences.
// If waiting fails, nothing is destroyed and the queue stays open so Close
// can be retried. Closing a closed queue is a no-op.
func (q *Queue[H]) Close(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	if err := q.waitIdle(ctx); err != nil {
		return fmt.Errorf("queue: close: %w", err)
	}
	for i, f := range q.idle {
		f.Destroy(q.device)
		q.idle[i] = nil
	}
	q.log().Debug("queue: closed", "queue", q.id.String(), "fences", len(q.idle))
	q.idle = nil
	q.closed = true
	return nil
}
