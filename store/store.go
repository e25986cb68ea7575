// Package store persists the most recent reading captured from each device.
package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openobs/enclosure/sensors"
)

// ErrNoReading is returned when a device has no current reading.
var ErrNoReading = errors.New("no current reading for device")

// A Store holds the current (most recent) reading per device.
type Store interface {
	// InsertCurrent replaces the device's current reading.
	InsertCurrent(ctx context.Context, device string, reading *sensors.Reading) error
	// GetCurrent returns the device's current reading, or ErrNoReading.
	GetCurrent(ctx context.Context, device string) (*sensors.Reading, error)
	Close(ctx context.Context) error
}
