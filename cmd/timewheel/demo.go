package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/lonng/timewheel/internal/log"
	"github.com/lonng/timewheel/scheduler"
	"github.com/lonng/timewheel/wheel"
	"github.com/pingcap/errors"
	"github.com/urfave/cli/v2"
)

// demoOptions 演示参数, 所有时间以 unit 为单位
type demoOptions struct {
	unit     time.Duration
	slots    int
	delays   []int
	cancel   int64 // 要取消的定时器 ID, 0 表示不取消
	cancelAt int   // 在第几个 unit 取消
}

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Run the classic 100-slot scenario: timers 1..5 at 10, 10, 15, 40 and 45 units",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "unit",
				Usage: "Wall time of one slot",
				Value: 10 * time.Millisecond,
			},
			&cli.IntFlag{
				Name:  "slots",
				Usage: "Number of slots",
				Value: 100,
			},
			&cli.IntSliceFlag{
				Name:  "delay",
				Usage: "Delays in units, timer ids are assigned 1..n in order",
				Value: cli.NewIntSlice(10, 10, 15, 40, 45),
			},
			&cli.Int64Flag{
				Name:  "cancel",
				Usage: "Cancel the timer with this id before it fires",
			},
			&cli.IntFlag{
				Name:  "cancel-at",
				Usage: "Unit at which --cancel takes effect",
				Value: 20,
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			return runDemo(ctx, os.Stdout, demoOptions{
				unit:     c.Duration("unit"),
				slots:    c.Int("slots"),
				delays:   c.IntSlice("delay"),
				cancel:   c.Int64("cancel"),
				cancelAt: c.Int("cancel-at"),
			})
		},
	}
}

// runDemo 注册所有定时器, 等到应当触发的定时器都触发后返回
func runDemo(ctx context.Context, out io.Writer, opts demoOptions) error {
	if opts.cancel > int64(len(opts.delays)) || opts.cancel < 0 {
		return errors.Errorf("cancel id %v out of range [1, %v]", opts.cancel, len(opts.delays))
	}

	sched, err := scheduler.New("demo", time.Duration(opts.slots)*opts.unit, opts.unit)
	if err != nil {
		return err
	}
	start := time.Now()

	var mu sync.Mutex
	expected := len(opts.delays)
	fired := 0
	done := make(chan struct{})
	finish := func() {
		fired++
		if fired == expected {
			close(done)
		}
	}

	handles := make([]wheel.Handle, len(opts.delays))
	for i, delay := range opts.delays {
		id := int64(i + 1)
		handles[i], err = sched.Schedule(time.Duration(delay)*opts.unit, id, func(cursor int) error {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "timer-%d fired at slot %d after %v\n", id, cursor, time.Since(start).Round(opts.unit))
			finish()
			return nil
		})
		if err != nil {
			return err
		}
	}

	if opts.cancel > 0 {
		target := handles[opts.cancel-1]
		_, err = sched.AfterFunc(time.Duration(opts.cancelAt)*opts.unit, func() {
			mu.Lock()
			defer mu.Unlock()
			if err := sched.Cancel(target); err != nil {
				fmt.Fprintf(out, "timer-%d could not be cancelled: %v\n", target.ID(), errors.Cause(err))
				return
			}
			fmt.Fprintf(out, "timer-%d cancelled\n", target.ID())
			expected--
			if fired == expected {
				close(done)
			}
		})
		if err != nil {
			return err
		}
	}

	if expected == 0 {
		return nil
	}
	sched.Start()
	defer sched.Close()

	select {
	case <-done:
		log.Info("Timewheel demo finished in %v.", time.Since(start))
		return nil
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	}
}
