// Package scheduler drives the capture loop for every sensor enabled for
// polling, each at its own cadence.
package scheduler

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/openobs/enclosure/sensors"
)

var (
	// ErrAlreadyRunning is returned by Start when the scheduler is running.
	ErrAlreadyRunning = errors.New("sensor polling is already running")
	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("sensor polling is not running")
)

// A Source hands the scheduler the driver to poll for a given kind. Drivers
// are loaded and unloaded by the shell while the scheduler runs.
type Source interface {
	Sensor(kind sensors.Kind) (sensors.Sensor, bool)
}

// Scheduler owns the polling lifecycle. While running, each active sensor
// has at most one pending single-shot timer; when the timer fires the sensor
// is captured and, if it is still active, rearmed with its current delay.
// Captures for different sensors run concurrently and are never serialized
// with each other or with the shell.
type Scheduler struct {
	registry *sensors.Registry
	source   Source
	clock    clock.Clock
	logger   golog.Logger

	mu      sync.Mutex
	running bool
	cancels map[sensors.Kind]func()

	activeBackgroundWorkers sync.WaitGroup
}

// New returns an idle scheduler on the wall clock.
func New(registry *sensors.Registry, source Source, logger golog.Logger) *Scheduler {
	return NewWithClock(registry, source, logger, clock.New())
}

// NewWithClock returns an idle scheduler driving its timers from clk.
func NewWithClock(registry *sensors.Registry, source Source, logger golog.Logger, clk clock.Clock) *Scheduler {
	return &Scheduler{
		registry: registry,
		source:   source,
		clock:    clk,
		logger:   logger,
		cancels:  map[sensors.Kind]func(){},
	}
}

// Running reports whether the scheduler is currently polling.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start snapshots the active sensors, captures each of them once
// synchronously, then arms their timers and returns. Sensors enabled after
// Start are not picked up until the scheduler is restarted.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	active := s.registry.Active()
	s.logger.Infow("sensor polling started", "sensors", active)
	for _, kind := range active {
		s.capture(ctx, kind)
		s.arm(kind)
	}
	return nil
}

// Stop cancels every outstanding timer and waits for in-flight captures to
// finish. A capture that is already executing completes, so each sensor may
// record at most one further capture after Stop is called.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running && len(s.cancels) == 0 {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	for kind, cancel := range s.cancels {
		cancel()
		delete(s.cancels, kind)
	}
	s.mu.Unlock()

	s.activeBackgroundWorkers.Wait()
	s.logger.Info("sensor polling stopped")
	return nil
}

// Close stops the scheduler if it is running.
func (s *Scheduler) Close() error {
	if err := s.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return nil
}

// capture performs one capture for the sensor, persisting the result and
// emitting a notification. Failures are logged and swallowed so one faulty
// sensor never halts the others.
func (s *Scheduler) capture(ctx context.Context, kind sensors.Kind) {
	driver, ok := s.source.Sensor(kind)
	if !ok {
		s.logger.Errorw("no driver loaded for sensor", "sensor", kind)
		return
	}
	if _, err := driver.Capture(ctx, true, true); err != nil {
		s.logger.Errorw("capture failed", "sensor", kind, "error", err)
	}
}

// arm schedules the sensor's next capture cycle. The delay is read fresh
// from the registry, so a delay change takes effect here and not on a timer
// already pending.
func (s *Scheduler) arm(kind sensors.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	delay, ok := s.registry.Delay(kind)
	if !ok {
		// Disabled since its last capture; let the loop die out.
		delete(s.cancels, kind)
		return
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	s.cancels[kind] = cancel
	timer := s.clock.Timer(delay)

	s.activeBackgroundWorkers.Add(1)
	goutils.PanicCapturingGo(func() {
		defer s.activeBackgroundWorkers.Done()
		defer timer.Stop()
		select {
		case <-cancelCtx.Done():
			return
		case <-timer.C:
		}
		s.capture(cancelCtx, kind)
		s.arm(kind)
	})
}
