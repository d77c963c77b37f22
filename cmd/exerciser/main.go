// cmd/exerciser/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/motor-exerciser/internal/config"
	"github.com/tamzrod/motor-exerciser/internal/drive"
	drivemodbus "github.com/tamzrod/motor-exerciser/internal/drive/modbus"
	"github.com/tamzrod/motor-exerciser/internal/fault"
	"github.com/tamzrod/motor-exerciser/internal/sequence"
)

const (
	exitOK    = 0
	exitFatal = 1 // transport loss, shutdown-write failure, unresolved fault
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath  = flag.String("config", "config.yaml", "path to the yaml configuration")
		counts   = flag.Int("counts", 0, "relative move distance in encoder counts (required)")
		idleTime = flag.Int("idle-time", 60, "idle phase duration in seconds")
		cycles   = flag.Int("cycles", 0, "test cycles to run, 0 means until interrupted")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

	if *counts == 0 {
		logger.Printf("--counts is required and must be non-zero")
		return exitUsage
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Printf("config load failed: %v", err)
		return exitUsage
	}
	if err := config.Validate(cfg); err != nil {
		logger.Printf("config validation failed: %v", err)
		return exitUsage
	}
	config.Normalize(cfg)
	e := cfg.Exerciser

	// --------------------
	// Register bus + motor controller
	// --------------------

	order, err := drivemodbus.ParseWordOrder(e.Drive.WordOrder)
	if err != nil {
		logger.Printf("config: %v", err)
		return exitUsage
	}

	bus, err := drivemodbus.New(drivemodbus.Config{
		Endpoint: e.Drive.Endpoint,
		UnitID:   e.Drive.UnitID,
		Timeout:  time.Duration(e.Drive.TimeoutMs) * time.Millisecond,
		Order:    order,
	})
	if err != nil {
		logger.Printf("drive connect failed (endpoint=%s): %v", e.Drive.Endpoint, err)
		return exitFatal
	}
	defer bus.Close()

	ctrl := drive.NewController(bus, drive.RegisterMap{
		ProgVersion:    e.Registers.ProgVersion,
		Mode:           e.Registers.Mode,
		PositionTarget: e.Registers.PositionTarget,
		VelocityTarget: e.Registers.VelocityTarget,
		PositionActual: e.Registers.PositionActual,
		ErrorStatus:    e.Registers.ErrorStatus,
	})

	// --------------------
	// Fault log (best-effort, never a safety dependency)
	// --------------------

	var sink fault.Sink
	flog, err := fault.OpenLog(e.Log.Dir, time.Now())
	if err != nil {
		logger.Printf("fault log unavailable, continuing without: %v", err)
		sink = fault.NopSink{}
	} else {
		defer flog.Close()
		logger.Printf("fault log: %s", flog.Path())
		sink = flog
	}

	// --------------------
	// Fault monitor
	// --------------------

	table := fault.NewTable(e.FaultBits.Version, e.FaultBits.Names)

	mon := fault.NewMonitor(ctrl, table, sink, fault.Config{
		Period:      time.Duration(e.Poll.IntervalMs) * time.Millisecond,
		ReadRetries: e.Retry.ReadAttempts,
	}, logger)

	// The monitor outlives the sequence so the final passive write is
	// itself fault-checked.
	monCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	go mon.Run(monCtx)

	// --------------------
	// Sequence
	// --------------------

	runner := sequence.New(ctrl, sequence.Config{
		Counts:          int32(*counts),
		Velocity:        e.Motion.Velocity,
		IdleTime:        time.Duration(*idleTime) * time.Second,
		Tick:            time.Duration(e.Poll.TickMs) * time.Millisecond,
		PollPeriod:      time.Duration(e.Poll.IntervalMs) * time.Millisecond,
		Tolerance:       e.Motion.Tolerance,
		SettleTimeout:   time.Duration(e.Motion.SettleTimeoutMs) * time.Millisecond,
		ReadRetries:     e.Retry.ReadAttempts,
		ShutdownRetries: e.Retry.ShutdownAttempts,
		Cycles:          *cycles,
	}, mon.Events(), mon.CommErrors(), logger)

	// Interrupt and termination signals funnel into the same
	// SHUTTING_DOWN path as device faults.
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- runner.Run(sigCtx) }()

	shutdownBound := time.Duration(e.Retry.ShutdownTimeoutMs) * time.Millisecond

	var runErr error
	select {
	case runErr = <-done:
	case <-sigCtx.Done():
		// Hard upper bound on total shutdown time: exit regardless of
		// transport state once it elapses.
		select {
		case runErr = <-done:
		case <-time.After(shutdownBound):
			logger.Printf("FATAL: shutdown deadline %s exceeded, drive state unknown", shutdownBound)
			return exitFatal
		}
	}

	if runErr != nil {
		logger.Printf("run failed: %v", runErr)
		return exitFatal
	}

	logger.Printf("run complete, drive passive")
	return exitOK
}
