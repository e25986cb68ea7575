// Package telemetry implements the environment sensor. The telemetry,
// camera box, and power boards each stream JSON report lines over serial;
// one capture collects the latest report from every board that is
// connected.
package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openobs/enclosure/board"
	"github.com/openobs/enclosure/messaging"
	"github.com/openobs/enclosure/sensors"
	"github.com/openobs/enclosure/store"
)

// reportBoards are polled in this order on every capture.
var reportBoards = []board.Name{board.Telemetry, board.Camera, board.Power}

// Sensor reads environment reports from the enclosure's serial boards.
type Sensor struct {
	conns  *board.Conns
	store  store.Store
	pub    messaging.Publisher
	logger golog.Logger

	mu    sync.Mutex
	debug bool
}

// New returns an environment sensor reading from whichever boards are
// connected in the registry.
func New(conns *board.Conns, st store.Store, pub messaging.Publisher, logger golog.Logger) *Sensor {
	return &Sensor{conns: conns, store: st, pub: pub, logger: logger}
}

// Kind implements sensors.Sensor.
func (s *Sensor) Kind() sensors.Kind {
	return sensors.KindEnvironment
}

// ToggleDebug flips verbose logging of raw board reports and reports the new
// state.
func (s *Sensor) ToggleDebug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = !s.debug
	return s.debug
}

func (s *Sensor) debugEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debug
}

// Capture reads one report from each connected board. Boards that fail to
// report are skipped with a warning; the capture fails only when no board
// reports at all.
func (s *Sensor) Capture(ctx context.Context, storeResult, sendMessage bool) (*sensors.Reading, error) {
	data := map[string]interface{}{}
	for _, name := range reportBoards {
		conn, ok := s.conns.Get(name)
		if !ok {
			continue
		}
		report, err := readReport(conn)
		if err != nil {
			s.logger.Warnw("board did not report", "board", name, "error", err)
			continue
		}
		if s.debugEnabled() {
			s.logger.Debugw("board report", "board", name, "report", report)
		}
		data[string(name)] = report
	}
	if len(data) == 0 {
		return nil, errors.New("no boards connected for the environment sensor")
	}

	reading := &sensors.Reading{
		Device:    string(s.Kind()),
		CaptureID: uuid.NewString(),
		Time:      time.Now().UTC(),
		Data:      data,
	}
	if storeResult {
		if err := s.store.InsertCurrent(ctx, reading.Device, reading); err != nil {
			return nil, errors.Wrap(err, "storing environment reading")
		}
	}
	if sendMessage {
		if err := s.pub.Publish(ctx, reading); err != nil {
			s.logger.Warnw("cannot publish environment reading", "error", err)
		}
	}
	return reading, nil
}

// Close implements sensors.Sensor. The board connections are owned by the
// registry, not the driver.
func (s *Sensor) Close(ctx context.Context) error {
	return nil
}

// readReport discards stale input and parses the board's next JSON report
// line.
func readReport(conn board.Conn) (map[string]interface{}, error) {
	if err := conn.FlushInput(); err != nil {
		return nil, err
	}
	line, err := board.ReadLine(conn)
	if err != nil {
		return nil, err
	}
	var report map[string]interface{}
	if err := json.Unmarshal([]byte(line), &report); err != nil {
		return nil, errors.Wrapf(err, "bad report line %q", line)
	}
	return report, nil
}
