package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementLEDLevel is the measurement level changes are written to.
const MeasurementLEDLevel = "led_level"

// LevelSample is one applied output level.
type LevelSample struct {
	Device string
	Chip   string
	Offset int
	On     bool
	At     time.Time
}

// WriteLevel records an applied output level. It is non-blocking and a
// no-op when disconnected.
func (c *Client) WriteLevel(s LevelSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(levelPoint(s))
}

// levelPoint builds the point for s. The level is written both as a
// boolean and as 0/1 so dashboards can aggregate it.
func levelPoint(s LevelSample) *write.Point {
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}

	value := 0
	if s.On {
		value = 1
	}

	return write.NewPoint(
		MeasurementLEDLevel,
		map[string]string{
			"device": s.Device,
			"chip":   s.Chip,
		},
		map[string]any{
			"on":     s.On,
			"value":  value,
			"offset": s.Offset,
		},
		at,
	)
}
