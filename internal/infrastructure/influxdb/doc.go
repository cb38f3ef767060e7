// Package influxdb records LED telemetry in InfluxDB.
//
// Every applied level is written to the led_level measurement, tagged with
// the device and chip. The history is observational; ledd never reads it.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteLevel(influxdb.LevelSample{Device: "my_gpio_device", Chip: "gpiochip0", Offset: 20, On: true})
//
// Writes are non-blocking and batched per batch_size and flush_interval;
// failures arrive through SetOnError. Connection and health check errors
// are returned directly.
package influxdb
