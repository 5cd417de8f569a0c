package cmd

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/progress-monitor/internal/app"
	"github.com/JakeFAU/progress-monitor/internal/monitor"
	"github.com/JakeFAU/progress-monitor/internal/registry"
)

const shutdownTimeout = 5 * time.Second

// errSimulated is the failure injected by --fail-at.
var errSimulated = errors.New("simulated failure")

type runOptions struct {
	monitor string
	length  int
	delay   time.Duration
	failAt  int
	workers int
	listen  string
	hold    time.Duration
}

// newRunCmd creates the 'run' subcommand, which pushes a simulated workload
// through a configured monitor.
func newRunCmd() *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulated workload through a monitor",
		Long: `Iterates over --length simulated elements, sleeping --delay per element,
through the monitor named by --monitor. --workers runs several workloads
concurrently, each as its own task. --fail-at makes every workload fail at
that element.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkload(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.monitor, "monitor", "demo", "monitor name")
	cmd.Flags().IntVar(&opts.length, "length", 20, "number of elements per workload")
	cmd.Flags().DurationVar(&opts.delay, "delay", 50*time.Millisecond, "time spent per element")
	cmd.Flags().IntVar(&opts.failAt, "fail-at", -1, "element at which workloads fail (-1 never)")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "number of concurrent workloads")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "status server address, overrides server.listen")
	cmd.Flags().DurationVar(&opts.hold, "hold", 0, "keep the status server up this long after the run")
	return cmd
}

func runWorkload(cmd *cobra.Command, opts runOptions) error {
	if opts.length < 0 {
		return fmt.Errorf("length must be >= 0, got %d", opts.length)
	}
	if opts.workers <= 0 {
		return fmt.Errorf("workers must be > 0, got %d", opts.workers)
	}
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	a, err := newApp(e.cfg, e.logger, app.Options{
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
		Listen: opts.listen,
	})
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
		defer cancel()
		if cerr := a.Close(ctx); cerr != nil {
			e.logger.Warn("failed to close application services", zap.Error(cerr))
		}
	}()

	ctx := cmd.Context()
	errs := make([]error, opts.workers)
	var wg sync.WaitGroup
	for i := range opts.workers {
		var overrides []registry.Override
		if opts.workers > 1 {
			overrides = append(overrides, registry.Set("task_name", fmt.Sprintf("%s #%d", opts.monitor, i)))
		}
		m := a.GetRegistry().Monitor(opts.monitor, overrides...)
		wg.Go(func() {
			errs[i] = process(ctx, m, opts.length, opts.delay, opts.failAt)
		})
	}
	wg.Wait()

	if opts.hold > 0 && a.Addr() != "" {
		e.logger.Info("holding status server", zap.String("addr", a.Addr()), zap.Duration("hold", opts.hold))
		select {
		case <-ctx.Done():
		case <-time.After(opts.hold):
		}
	}
	return errors.Join(errs...)
}

// process drains one monitored workload, stopping at the first error.
func process(ctx context.Context, m *monitor.Monitor, length int, delay time.Duration, failAt int) error {
	for _, err := range monitor.Seq2(m, workload(ctx, length, delay, failAt), length) {
		if err != nil {
			return err
		}
	}
	return nil
}

// workload yields length elements, one per delay. It yields an error instead
// of element failAt, or when ctx ends.
func workload(ctx context.Context, length int, delay time.Duration, failAt int) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i := range length {
			if i == failAt {
				yield(i, fmt.Errorf("%w at element %d", errSimulated, i))
				return
			}
			if delay > 0 {
				select {
				case <-ctx.Done():
					yield(i, ctx.Err())
					return
				case <-time.After(delay):
				}
			} else if err := ctx.Err(); err != nil {
				yield(i, err)
				return
			}
			if !yield(i, nil) {
				return
			}
		}
	}
}
