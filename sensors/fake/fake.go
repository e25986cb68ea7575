// Package fake provides a sensor that fabricates readings, for tests and
// for running the shell without hardware attached.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/google/uuid"

	"github.com/openobs/enclosure/messaging"
	"github.com/openobs/enclosure/sensors"
	"github.com/openobs/enclosure/store"
)

// Sensor fabricates plausible readings for its kind.
type Sensor struct {
	kind   sensors.Kind
	store  store.Store
	pub    messaging.Publisher
	logger golog.Logger

	mu       sync.Mutex
	debug    bool
	captures int
	err      error
}

// New returns a fake sensor of the given kind.
func New(kind sensors.Kind, st store.Store, pub messaging.Publisher, logger golog.Logger) *Sensor {
	return &Sensor{kind: kind, store: st, pub: pub, logger: logger}
}

// Kind implements sensors.Sensor.
func (s *Sensor) Kind() sensors.Kind {
	return s.kind
}

// SetCaptureError forces every subsequent capture to fail with err; pass nil
// to heal the sensor.
func (s *Sensor) SetCaptureError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Captures reports how many captures have been attempted.
func (s *Sensor) Captures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captures
}

// ToggleDebug flips debug logging and reports the new state.
func (s *Sensor) ToggleDebug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = !s.debug
	return s.debug
}

// Capture fabricates one reading.
func (s *Sensor) Capture(ctx context.Context, storeResult, sendMessage bool) (*sensors.Reading, error) {
	s.mu.Lock()
	s.captures++
	n := s.captures
	err := s.err
	debug := s.debug
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	reading := &sensors.Reading{
		Device:    string(s.kind),
		CaptureID: uuid.NewString(),
		Time:      time.Now().UTC(),
		Data: map[string]interface{}{
			"captures": n,
			"temp_c":   20 + 2*math.Sin(float64(n)/10),
			"safe":     true,
		},
	}
	if debug {
		s.logger.Debugw("fabricated reading", "sensor", s.kind, "data", reading.Data)
	}
	if storeResult {
		if err := s.store.InsertCurrent(ctx, reading.Device, reading); err != nil {
			return nil, err
		}
	}
	if sendMessage {
		if err := s.pub.Publish(ctx, reading); err != nil {
			s.logger.Warnw("cannot publish fabricated reading", "error", err)
		}
	}
	return reading, nil
}

// Close implements sensors.Sensor.
func (s *Sensor) Close(ctx context.Context) error {
	return nil
}
