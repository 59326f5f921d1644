// Command fencedemo drives a submission queue on the noop HAL backend and
// logs each fence as it is submitted, retired, recycled and destroyed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/spf13/cobra"

	"github.com/gogpu/fence"
	"github.com/gogpu/fence/halfence"
	"github.com/gogpu/fence/queue"
)

// demoOptions holds the command's flags.
type demoOptions struct {
	Frames   int
	InFlight int
	Timeout  time.Duration
	Recycle  int
	Verbose  bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fencedemo:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &demoOptions{}

	cmd := &cobra.Command{
		Use:           "fencedemo",
		Short:         "Submit frames through a fence-tracked queue",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Frames, "frames", "n", 10, "number of submissions")
	cmd.Flags().IntVar(&opts.InFlight, "in-flight", queue.DefaultMaxInFlight, "maximum pending submissions")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", queue.DefaultWaitTimeout, "timeout for each fence wait")
	cmd.Flags().IntVar(&opts.Recycle, "recycle-every", 4, "batch-reset idle fences every N frames (0 disables)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log fence lifecycle at debug level")

	return cmd
}

func run(ctx context.Context, opts *demoOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	fence.SetLogger(logger)

	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no adapters")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer openDev.Device.Destroy()

	dev := halfence.NewDevice(openDev.Device, openDev.Queue)
	hq := halfence.NewQueue(openDev.Queue)
	q := queue.New[*halfence.Handle](fence.QueueID{}, dev,
		queue.WithMaxInFlight(opts.InFlight),
		queue.WithWaitTimeout(opts.Timeout),
	)

	for i := 1; i <= opts.Frames; i++ {
		epoch, err := q.Submit(ctx, hq.SubmitFunc(nil))
		if err != nil {
			return err
		}
		if _, err := q.Poll(); err != nil {
			return err
		}
		if opts.Recycle > 0 && i%opts.Recycle == 0 {
			if _, err := q.Recycle(); err != nil {
				return err
			}
		}
		s := q.Stats()
		logger.Info("frame", "epoch", epoch.String(), "in_flight", s.InFlight, "completed", s.Completed)
	}

	if err := q.Close(ctx); err != nil {
		return err
	}
	s := q.Stats()
	logger.Info("done", "submitted", s.Submitted, "completed", s.Completed)
	return nil
}
