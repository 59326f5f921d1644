package halfence

import (
	"errors"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoHALAccess is returned when a device provider does not expose HAL types.
var ErrNoHALAccess = errors.New("halfence: provider does not expose HAL types")

// FromProvider builds a Device and Queue from a shared GPU device provider,
// such as the one a gogpu application hands out. The provider must also
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue.
func FromProvider(provider gpucontext.DeviceProvider) (*Device, *Queue, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, nil, ErrNoHALAccess
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, ErrNoHALAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, ErrNilDevice
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, ErrNilQueue
	}
	return NewDevice(device, queue), NewQueue(queue), nil
}
