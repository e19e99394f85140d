package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/orrery/internal/logging"
	"github.com/signalsfoundry/orrery/internal/observability"
	"github.com/signalsfoundry/orrery/internal/stream"
	"github.com/signalsfoundry/orrery/sim"
	"github.com/signalsfoundry/orrery/timectrl"
)

type runFlags struct {
	start       string
	timeScale   float64
	tick        time.Duration
	duration    time.Duration
	accelerated bool
	selectPath  string
	gotoSeconds float64
	metricsAddr string
	streamAddr  string
}

func (a *app) newRunCmd() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation, serving metrics and a snapshot stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.applyRunFlags(cmd, f)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.run(ctx, cmd, f.gotoSeconds)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.start, "start", "", "start date (UTC date, Julian date or \"now\")")
	fl.Float64Var(&f.timeScale, "time-scale", 0, "simulated seconds per wall second")
	fl.DurationVar(&f.tick, "tick", 0, "tick interval")
	fl.DurationVar(&f.duration, "duration", 0, "total wall-clock run time; zero runs until interrupted")
	fl.BoolVar(&f.accelerated, "accelerated", false, "step as fast as possible instead of in real time")
	fl.StringVar(&f.selectPath, "select", "", "object to select, e.g. Sol/Earth/Moon")
	fl.Float64Var(&f.gotoSeconds, "goto", 0, "fly to the selection over this many seconds")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "HTTP address for Prometheus /metrics; \"-\" disables")
	fl.StringVar(&f.streamAddr, "stream-addr", "", "HTTP address for the websocket snapshot stream; \"-\" disables")
	return cmd
}

// applyRunFlags overrides configuration with flags set on the command line.
func (a *app) applyRunFlags(cmd *cobra.Command, f runFlags) {
	fl := cmd.Flags()
	if fl.Changed("start") {
		a.cfg.Sim.Start = f.start
	}
	if fl.Changed("time-scale") {
		a.cfg.Sim.TimeScale = f.timeScale
	}
	if fl.Changed("tick") && f.tick > 0 {
		a.cfg.Sim.Tick = f.tick
	}
	if fl.Changed("duration") {
		a.cfg.Sim.Duration = f.duration
	}
	if fl.Changed("accelerated") {
		a.cfg.Sim.Accelerated = f.accelerated
	}
	if fl.Changed("select") {
		a.cfg.Sim.Select = f.selectPath
	}
	if fl.Changed("metrics-addr") {
		a.cfg.MetricsAddr = f.metricsAddr
	}
	if fl.Changed("stream-addr") {
		a.cfg.StreamAddr = f.streamAddr
	}
}

func (a *app) run(ctx context.Context, cmd *cobra.Command, gotoSeconds float64) error {
	cfg := a.cfg
	log := a.log

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log, observability.WithSpanWriter(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	collector, err := observability.NewSimCollector(reg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	u, err := a.loadUniverse(ctx)
	if err != nil {
		return err
	}
	start, err := a.parseJD(cfg.Sim.Start)
	if err != nil {
		return err
	}

	s := sim.New(u, start, sim.WithLogger(log), sim.WithMetrics(collector), sim.WithLeapSeconds(a.leap))
	defer s.Close()
	s.SetTimeScale(cfg.Sim.TimeScale)
	if cfg.Sim.Select != "" {
		sel, err := s.Select(cfg.Sim.Select)
		if err != nil {
			return fmt.Errorf("select %s: %w", cfg.Sim.Select, err)
		}
		log.Info(ctx, "selected", logging.String("name", sel.Name()), logging.String("kind", sel.Kind().String()))
		if gotoSeconds > 0 {
			if err := s.Goto(gotoSeconds); err != nil {
				return err
			}
		}
	}

	var servers []*http.Server
	if srv := serveHTTP(ctx, cfg.MetricsAddr, "/metrics", collector.Handler(), log); srv != nil {
		servers = append(servers, srv)
	}
	hub := stream.NewHub(cfg.StreamRate, log)
	defer hub.Close()
	if srv := serveHTTP(ctx, cfg.StreamAddr, "/stream", hub, log); srv != nil {
		servers = append(servers, srv)
	}
	s.AddTickListener(hub.Publish)

	mode := timectrl.RealTime
	if cfg.Sim.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(start, cfg.Sim.Tick, mode)
	s.Drive(ctx, tc)

	log.Info(ctx, "starting simulation",
		logging.Duration("duration", cfg.Sim.Duration),
		logging.Duration("tick", cfg.Sim.Tick),
		logging.String("mode", mode.String()),
		logging.Float64("time_scale", cfg.Sim.TimeScale))
	<-tc.Start(ctx, cfg.Sim.Duration)

	snap := s.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "simulation stopped at %s (JD %.6f)\n", snap.UTC, snap.JD)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		_ = srv.Shutdown(shutdownCtx)
	}
	return nil
}

// serveHTTP serves h at path on addr in the background. An empty or "-"
// address disables the server.
func serveHTTP(ctx context.Context, addr, path string, h http.Handler, log logging.Logger) *http.Server {
	if addr == "" || addr == "-" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(ctx, "http server exited", logging.String("addr", addr), logging.Err(err))
		}
	}()

	log.Info(ctx, "serving", logging.String("addr", addr), logging.String("path", path))
	return srv
}
