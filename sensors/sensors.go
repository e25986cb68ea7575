// Package sensors defines the sensor kinds of the enclosure and the registry
// of sensors currently enabled for polling.
package sensors

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind identifies one of the sensor kinds the enclosure knows about.
type Kind string

// The closed set of known sensor kinds.
const (
	KindEnvironment = Kind("environment")
	KindWeather     = Kind("weather")
)

// KnownKinds returns every sensor kind the enclosure knows about.
func KnownKinds() []Kind {
	return []Kind{KindEnvironment, KindWeather}
}

// KindFromName maps a user supplied name to a known kind.
func KindFromName(name string) (Kind, error) {
	for _, k := range KnownKinds() {
		if string(k) == name {
			return k, nil
		}
	}
	return "", &UnknownKindError{Name: name}
}

// DefaultDelay returns the default polling delay for a kind.
func DefaultDelay(kind Kind) time.Duration {
	if kind == KindWeather {
		return 90 * time.Second
	}
	return 60 * time.Second
}

// DelayFromSeconds converts a user supplied delay in seconds into a
// duration, rejecting non-positive and non-finite values.
func DelayFromSeconds(secs float64) (time.Duration, error) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs <= 0 {
		return 0, ErrInvalidDelay
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// A Reading is one record captured from a sensor.
type Reading struct {
	Device    string                 `json:"device" bson:"device"`
	CaptureID string                 `json:"capture_id" bson:"capture_id"`
	Time      time.Time              `json:"time" bson:"time"`
	Data      map[string]interface{} `json:"data" bson:"data"`
}

// Age reports how old the reading is relative to now.
func (r *Reading) Age() time.Duration {
	return time.Since(r.Time)
}

// A Sensor can capture a reading from the underlying hardware. Capture
// persists the reading when storeResult is set and publishes a notification
// when sendMessage is set.
type Sensor interface {
	Kind() Kind
	Capture(ctx context.Context, storeResult, sendMessage bool) (*Reading, error)
	ToggleDebug() bool
	Close(ctx context.Context) error
}

// UnknownKindError is returned when a name does not match any known sensor
// kind.
type UnknownKindError struct {
	Name string
}

func (e *UnknownKindError) Error() string {
	known := make([]string, 0, len(KnownKinds()))
	for _, k := range KnownKinds() {
		known = append(known, string(k))
	}
	return fmt.Sprintf("unknown sensor %q (known sensors: %s)", e.Name, strings.Join(known, ", "))
}
