package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lonng/timewheel/internal/config"
	"github.com/lonng/timewheel/internal/env"
	"github.com/lonng/timewheel/internal/log"
	"github.com/lonng/timewheel/internal/server"
	"github.com/lonng/timewheel/internal/utils/net"
	"github.com/lonng/timewheel/metrics"
	"github.com/lonng/timewheel/scheduler"
	"github.com/pingcap/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the wheel over HTTP: /timers, /events (websocket) and /metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Aliases: []string{"l"},
				Usage:   "HTTP listen address",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadedConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("listen") {
				cfg.Metrics.Addr = c.String("listen")
			}
			if cfg.Metrics.Addr == "" {
				cfg.Metrics.Addr = env.MetricsAddr
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// serve 启动调度器和 HTTP 服务, ctx 结束后优雅退出
func serve(ctx context.Context, cfg config.Config) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.Config{
		Enabled:   cfg.Metrics.Enabled,
		Registry:  reg,
		Namespace: cfg.Metrics.Namespace,
	}.Build()

	sched, err := scheduler.New(cfg.Name, cfg.Horizon, cfg.Granularity,
		scheduler.WithMetrics(m),
		scheduler.WithErrorHandler(func(err error) {
			log.Error("Timewheel server [%v] timer failed.", cfg.Name, err)
		}),
	)
	if err != nil {
		return err
	}
	srv := server.New(sched, reg)
	httpServer := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: srv.Handler(),
	}

	sched.Start()
	log.Info("Timewheel server [%v] listen at %v on host %v (pid %v), %v slots of %v.",
		cfg.Name, cfg.Metrics.Addr, net.HostName(), net.ProcessId(), sched.Wheel().SlotCount(), cfg.Granularity)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Annotatef(err, "listen %v", cfg.Metrics.Addr)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Timewheel server [%v] shutting down.", cfg.Name)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
		defer cancel()
		srv.Close()
		err := httpServer.Shutdown(shutdownCtx)
		sched.Close()
		return errors.Trace(err)
	})
	return g.Wait()
}
