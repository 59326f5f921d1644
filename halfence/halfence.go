// Package halfence binds fence trackers to gogpu/wgpu HAL devices.
//
// The HAL queue does not signal fences on submit. It hands out a
// monotonically increasing submission index and reports progress through
// PollCompleted. A [Handle] therefore pairs a native hal.Fence with the
// submission index of the work it guards: it is signaled once the queue has
// completed that index, or once the native fence itself reports signaled.
// Resets go through hal.Device.ResetFence.
//
// Usage:
//
//	dev := halfence.NewDevice(halDevice, halQueue)
//	q := halfence.NewQueue(halQueue)
//	f, err := fence.New[*halfence.Handle](dev, false)
//	...
//	err = q.Submit(cmdBufs, f.Raw())
//	f.Resync().MarkSubmitted(epoch)
//	epoch, ok, err := f.WaitSignaled(dev, time.Second)
package halfence

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fence"
)

// HAL errors.
var (
	// ErrNilDevice is returned when a device is required but nil.
	ErrNilDevice = errors.New("halfence: device is nil")

	// ErrNilQueue is returned when a queue is required but nil.
	ErrNilQueue = errors.New("halfence: queue is nil")
)

// Polling intervals used by WaitForFence.
const (
	minPollInterval = 50 * time.Microsecond
	maxPollInterval = time.Millisecond
)

// HALDevice is the subset of hal.Device used to manage fences.
// Any hal.Device satisfies it.
type HALDevice interface {
	CreateFence() (hal.Fence, error)
	DestroyFence(fence hal.Fence)
	ResetFence(fence hal.Fence) error
	GetFenceStatus(fence hal.Fence) (bool, error)
}

// Handle is a native fence plus the submission that signals it.
type Handle struct {
	fence hal.Fence

	// submission is the queue submission index guarded by the handle,
	// 0 if none.
	submission uint64

	// created is set for fences created in the signaled state. The HAL
	// cannot create a signaled fence, so the handle remembers it.
	created bool
}

// Fence returns the underlying HAL fence.
func (h *Handle) Fence() hal.Fence { return h.fence }

// Submission returns the queue submission index the handle waits for,
// or 0 if no work was submitted with it since the last reset.
func (h *Handle) Submission() uint64 { return h.submission }

// Device implements fence.Device and fence.Destroyer on a HAL device and the
// queue whose submissions signal its fences.
type Device struct {
	device HALDevice
	queue  HALQueue
}

// NewDevice wraps a HAL device and the queue used to submit work.
func NewDevice(device HALDevice, queue HALQueue) *Device {
	return &Device{device: device, queue: queue}
}

// deviceError maps HAL failures onto the fence error classes. Errors of
// neither class are wrapped unchanged.
func deviceError(op string, err error) error {
	switch {
	case errors.Is(err, hal.ErrDeviceLost):
		return fmt.Errorf("halfence: %s: %w: %w", op, fence.ErrDeviceLost, err)
	case errors.Is(err, hal.ErrDeviceOutOfMemory):
		return fmt.Errorf("halfence: %s: %w: %w", op, fence.ErrOutOfMemory, err)
	default:
		return fmt.Errorf("halfence: %s: %w", op, err)
	}
}

// CreateFence creates a HAL fence.
func (d *Device) CreateFence(signaled bool) (*Handle, error) {
	if d.device == nil {
		return nil, ErrNilDevice
	}
	f, err := d.device.CreateFence()
	if err != nil {
		fence.Logger().Warn("halfence: create failed", "err", err)
		return nil, deviceError("create fence", err)
	}
	fence.Logger().Debug("halfence: fence created", "signaled", signaled)
	return &Handle{fence: f, created: signaled}, nil
}

// ResetFence resets the native fence and forgets its submission.
func (d *Device) ResetFence(h *Handle) error {
	if d.device == nil {
		return ErrNilDevice
	}
	if err := d.device.ResetFence(h.fence); err != nil {
		fence.Logger().Warn("halfence: reset failed", "err", err)
		return deviceError("reset", err)
	}
	h.submission = 0
	h.created = false
	return nil
}

// ResetFences resets a batch of handles. It stops at the first failure.
func (d *Device) ResetFences(handles []*Handle) error {
	for _, h := range handles {
		if err := d.ResetFence(h); err != nil {
			return err
		}
	}
	return nil
}

// FenceStatus reports whether the handle is signaled, without blocking.
func (d *Device) FenceStatus(h *Handle) (bool, error) {
	if d.device == nil {
		return false, ErrNilDevice
	}
	ok, err := d.status(h)
	if err != nil {
		fence.Logger().Warn("halfence: status failed", "submission", h.submission, "err", err)
		return false, err
	}
	return ok, nil
}

// WaitForFence polls the handle until it is signaled or timeout elapses.
// The HAL offers no blocking wait on a submission index, so the poll
// interval backs off from 50µs to 1ms.
func (d *Device) WaitForFence(h *Handle, timeout time.Duration) (bool, error) {
	if d.device == nil {
		return false, ErrNilDevice
	}
	deadline := time.Now().Add(timeout)
	interval := minPollInterval
	for {
		ok, err := d.status(h)
		if err != nil {
			fence.Logger().Warn("halfence: wait failed", "submission", h.submission, "err", err)
			return false, err
		}
		if ok {
			return true, nil
		}
		left := time.Until(deadline)
		if left <= 0 {
			return false, nil
		}
		time.Sleep(min(interval, left))
		interval = min(interval*2, maxPollInterval)
	}
}

func (d *Device) status(h *Handle) (bool, error) {
	if h.created {
		return true, nil
	}
	if h.submission != 0 && d.queue != nil && d.queue.PollCompleted() >= h.submission {
		return true, nil
	}
	ok, err := d.device.GetFenceStatus(h.fence)
	if err != nil {
		return false, deviceError("status", err)
	}
	return ok, nil
}

// DestroyFence releases the HAL fence.
func (d *Device) DestroyFence(h *Handle) {
	if d.device == nil || h == nil || h.fence == nil {
		return
	}
	d.device.DestroyFence(h.fence)
	h.fence = nil
	fence.Logger().Debug("halfence: fence destroyed")
}
