package halfence

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainProvider implements gpucontext.DeviceProvider without HAL access.
// The embedded interface completes the method set and is never called.
type plainProvider struct {
	gpucontext.DeviceProvider
}

// halAccessProvider adds HAL accessors to a DeviceProvider.
type halAccessProvider struct {
	gpucontext.DeviceProvider
	device any
	queue  any
}

func (p *halAccessProvider) HalDevice() any { return p.device }
func (p *halAccessProvider) HalQueue() any  { return p.queue }

func TestFromProvider(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, q, err := FromProvider(&halAccessProvider{device: device, queue: queue})
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NotNil(t, q)

	h, err := d.CreateFence(true)
	require.NoError(t, err)
	d.DestroyFence(h)
}

func TestFromProviderErrors(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		wantErr  error
	}{
		{"nil provider", nil, ErrNoHALAccess},
		{"no HAL access", &plainProvider{}, ErrNoHALAccess},
		{"wrong device type", &halAccessProvider{device: "gpu", queue: queue}, ErrNilDevice},
		{"wrong queue type", &halAccessProvider{device: device, queue: 42}, ErrNilQueue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FromProvider(tt.provider)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
