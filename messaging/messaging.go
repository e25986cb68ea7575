// Package messaging publishes capture notifications to interested
// observatory services.
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openobs/enclosure/sensors"
)

// A Publisher sends one notification per captured reading.
type Publisher interface {
	Publish(ctx context.Context, reading *sensors.Reading) error
	Close()
}

// envelope is the wire form of a capture notification.
type envelope struct {
	Device    string                 `json:"device"`
	CaptureID string                 `json:"capture_id"`
	Time      time.Time              `json:"time"`
	Data      map[string]interface{} `json:"data"`
}

func encodeEnvelope(reading *sensors.Reading) ([]byte, error) {
	return json.Marshal(envelope{
		Device:    reading.Device,
		CaptureID: reading.CaptureID,
		Time:      reading.Time,
		Data:      reading.Data,
	})
}

// Noop discards notifications; used when no broker is configured.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(ctx context.Context, reading *sensors.Reading) error { return nil }

// Close does nothing.
func (Noop) Close() {}
