// Package aag implements the weather sensor, an AAG CloudWatcher attached
// over serial. Each capture polls the device for sky and ambient
// temperature, rain frequency, and internal PWM level, then derives the
// enclosure safety conditions from them.
package aag

import (
	"context"
	"regexp"
	"strconv"
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

// The CloudWatcher command set used for one capture. Temperatures come back
// scaled by 100.
var pollCommands = []struct {
	key   string
	cmd   string
	scale float64
}{
	{key: "sky_temp_c", cmd: "S!", scale: 0.01},
	{key: "ambient_temp_c", cmd: "T!", scale: 0.01},
	{key: "rain_frequency", cmd: "E!", scale: 1},
	{key: "pwm_value", cmd: "Q!", scale: 1},
}

// Responses look like "!1        -2832", a block marker followed by the raw
// value.
var responseRe = regexp.MustCompile(`!.\s*(-?\d+)`)

// Default condition thresholds, degrees C of sky-ambient depression and raw
// rain frequency.
const (
	defaultCloudyDelta     = -25.0
	defaultVeryCloudyDelta = -15.0
	defaultRainyFrequency  = 2000.0
)

// Config tunes how raw CloudWatcher values map to conditions. It is decoded
// from the weather section's attribute map; attributes left unset keep the
// defaults.
type Config struct {
	CloudyDelta     float64 `yaml:"cloudy_delta"`
	VeryCloudyDelta float64 `yaml:"very_cloudy_delta"`
	RainyFrequency  float64 `yaml:"rainy_frequency"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		CloudyDelta:     defaultCloudyDelta,
		VeryCloudyDelta: defaultVeryCloudyDelta,
		RainyFrequency:  defaultRainyFrequency,
	}
}

// Sensor is the AAG CloudWatcher weather sensor.
type Sensor struct {
	cfg    Config
	conns  *board.Conns
	store  store.Store
	pub    messaging.Publisher
	logger golog.Logger

	mu    sync.Mutex
	debug bool
}

// New returns a weather sensor polling the CloudWatcher through the
// connection registered under the weather reader name.
func New(cfg Config, conns *board.Conns, st store.Store, pub messaging.Publisher, logger golog.Logger) *Sensor {
	return &Sensor{cfg: cfg, conns: conns, store: st, pub: pub, logger: logger}
}

// Kind implements sensors.Sensor.
func (s *Sensor) Kind() sensors.Kind {
	return sensors.KindWeather
}

// ToggleDebug flips verbose logging of raw device responses and reports the
// new state.
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

// Capture polls the CloudWatcher once.
func (s *Sensor) Capture(ctx context.Context, storeResult, sendMessage bool) (*sensors.Reading, error) {
	conn, ok := s.conns.Get(board.Weather)
	if !ok {
		return nil, errors.New("weather sensor serial connection is not open")
	}

	data := map[string]interface{}{}
	for _, poll := range pollCommands {
		value, err := s.poll(conn, poll.cmd)
		if err != nil {
			return nil, errors.Wrapf(err, "polling %s", poll.key)
		}
		data[poll.key] = value * poll.scale
	}
	annotateConditions(s.cfg, data)

	reading := &sensors.Reading{
		Device:    string(s.Kind()),
		CaptureID: uuid.NewString(),
		Time:      time.Now().UTC(),
		Data:      data,
	}
	if storeResult {
		if err := s.store.InsertCurrent(ctx, reading.Device, reading); err != nil {
			return nil, errors.Wrap(err, "storing weather reading")
		}
	}
	if sendMessage {
		if err := s.pub.Publish(ctx, reading); err != nil {
			s.logger.Warnw("cannot publish weather reading", "error", err)
		}
	}
	return reading, nil
}

func (s *Sensor) poll(conn board.Conn, cmd string) (float64, error) {
	if err := conn.FlushInput(); err != nil {
		return 0, err
	}
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return 0, errors.Wrapf(err, "writing %q", cmd)
	}
	line, err := board.ReadLine(conn)
	if err != nil {
		return 0, err
	}
	if s.debugEnabled() {
		s.logger.Debugw("cloudwatcher response", "command", cmd, "response", line)
	}
	match := responseRe.FindStringSubmatch(line)
	if match == nil {
		return 0, errors.Errorf("unparseable response %q to %q", line, cmd)
	}
	return strconv.ParseFloat(match[1], 64)
}

// annotateConditions derives the sky and rain conditions the rest of the
// observatory keys its safety decisions off.
func annotateConditions(cfg Config, data map[string]interface{}) {
	skyTemp, _ := data["sky_temp_c"].(float64)
	ambientTemp, _ := data["ambient_temp_c"].(float64)
	rainFrequency, _ := data["rain_frequency"].(float64)

	delta := skyTemp - ambientTemp
	sky := "very_cloudy"
	switch {
	case delta <= cfg.CloudyDelta:
		sky = "clear"
	case delta <= cfg.VeryCloudyDelta:
		sky = "cloudy"
	}
	rain := "rainy"
	if rainFrequency > cfg.RainyFrequency {
		rain = "dry"
	}

	data["sky_condition"] = sky
	data["rain_condition"] = rain
	data["safe"] = sky == "clear" && rain == "dry"
}

// Close implements sensors.Sensor. The serial connection is owned by the
// registry, not the driver.
func (s *Sensor) Close(ctx context.Context) error {
	return nil
}
