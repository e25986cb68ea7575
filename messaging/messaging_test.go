package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/openobs/enclosure/sensors"
)

func TestEncodeEnvelope(t *testing.T) {
	captured := time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC)
	reading := &sensors.Reading{
		Device:    "weather",
		CaptureID: "3b9f0d1c-5a51-4b0e-9c0e-000000000000",
		Time:      captured,
		Data:      map[string]interface{}{"sky_temp_c": -28.0, "safe": true},
	}

	payload, err := encodeEnvelope(reading)
	test.That(t, err, test.ShouldBeNil)

	var decoded envelope
	test.That(t, json.Unmarshal(payload, &decoded), test.ShouldBeNil)
	test.That(t, decoded.Device, test.ShouldEqual, "weather")
	test.That(t, decoded.CaptureID, test.ShouldEqual, reading.CaptureID)
	test.That(t, decoded.Time.Equal(captured), test.ShouldBeTrue)
	test.That(t, decoded.Data["safe"], test.ShouldBeTrue)
}

func TestNoop(t *testing.T) {
	var pub Publisher = Noop{}
	test.That(t, pub.Publish(context.Background(), &sensors.Reading{Device: "environment"}), test.ShouldBeNil)
	pub.Close()
}
