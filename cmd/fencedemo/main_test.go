package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gogpu/fence"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"-n", "3", "--in-flight", "1", "--timeout", "2s"}))

	n, err := cmd.Flags().GetInt("frames")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	d, err := cmd.Flags().GetDuration("timeout")
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, d)
}

func TestRunZeroFrames(t *testing.T) {
	orig := fence.Logger()
	t.Cleanup(func() { fence.SetLogger(orig) })

	err := run(context.Background(), &demoOptions{Frames: 0, InFlight: 1, Timeout: time.Second})
	require.NoError(t, err)
}

func TestRunPastInFlightLimit(t *testing.T) {
	orig := fence.Logger()
	t.Cleanup(func() { fence.SetLogger(orig) })

	err := run(context.Background(), &demoOptions{Frames: 12, InFlight: 2, Timeout: time.Second, Recycle: 4})
	require.NoError(t, err)
}
