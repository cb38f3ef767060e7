// Package devnode makes the LED endpoint addressable.
//
// It plays the part a kernel plays for a character device: a NumberStore
// hands out device numbers from SQLite, and a Registry publishes the class
// and node over MQTT and routes request messages to the endpoint.
//
// Each request message is a complete session. A payload on
// .../write is opened, written and closed; a payload on .../read is opened,
// read with the requested capacity (decimal, default read_size) and closed,
// and the bytes read are published to .../data.
package devnode
