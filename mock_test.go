package fence

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// mockDevice is a test double for Device with integer handles.
type mockDevice struct {
	next     int
	signaled map[int]bool

	createErr error
	resetErr  error
	waitErr   error
	statusErr error

	// Track calls for verification
	created   []bool
	resets    int
	waits     []time.Duration
	statuses  int
	destroyed []int
}

func newMockDevice() *mockDevice {
	return &mockDevice{signaled: make(map[int]bool)}
}

func (d *mockDevice) CreateFence(signaled bool) (int, error) {
	d.created = append(d.created, signaled)
	if d.createErr != nil {
		return 0, d.createErr
	}
	d.next++
	d.signaled[d.next] = signaled
	return d.next, nil
}

func (d *mockDevice) ResetFence(h int) error {
	d.resets++
	if d.resetErr != nil {
		return d.resetErr
	}
	d.signaled[h] = false
	return nil
}

func (d *mockDevice) WaitForFence(h int, timeout time.Duration) (bool, error) {
	d.waits = append(d.waits, timeout)
	if d.waitErr != nil {
		return false, d.waitErr
	}
	return d.signaled[h], nil
}

func (d *mockDevice) FenceStatus(h int) (bool, error) {
	d.statuses++
	if d.statusErr != nil {
		return false, d.statusErr
	}
	return d.signaled[h], nil
}

func (d *mockDevice) DestroyFence(h int) {
	d.destroyed = append(d.destroyed, h)
	delete(d.signaled, h)
}

// signal plays the GPU: it sets the native fence without telling the tracker.
func (d *mockDevice) signal(h int) { d.signaled[h] = true }

var testQueue = QueueID{Family: 1, Index: 0}

func testEpoch(i uint64) Epoch { return Epoch{Queue: testQueue, Index: i} }

// newFence creates a fence in the requested state.
func newFence(t *testing.T, d *mockDevice, state State) *Fence[int] {
	t.Helper()
	f, err := New[int](d, state == StateSignaled)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if state == StateSubmitted {
		f.Resync().MarkSubmitted(testEpoch(7))
	}
	return f
}

// expectViolation runs fn and checks that it panics with a *ContractViolation
// for op.
func expectViolation(t *testing.T, op string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("%s: expected panic, got none", op)
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("%s: panic value %T is not an error", op, r)
		}
		var v *ContractViolation
		if !errors.As(err, &v) {
			t.Fatalf("%s: panic value %v is not a *ContractViolation", op, r)
		}
		if v.Op != op {
			t.Errorf("ContractViolation.Op = %q, want %q", v.Op, op)
		}
	}()
	fn()
}

func deviceErr(sentinel error) error {
	return fmt.Errorf("mock: %w", sentinel)
}
