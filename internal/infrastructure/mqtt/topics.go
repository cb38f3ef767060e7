package mqtt

import "fmt"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "ledd"

// Topics builds ledd topic names under a configurable prefix.
//
//	t := mqtt.Topics{Prefix: "ledd"}
//	t.NodeWrite("my_gpio_class", "my_gpio_device")
//	// "ledd/node/my_gpio_class/my_gpio_device/write"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Class carries the retained descriptor of an endpoint class.
//
// Example: ledd/class/my_gpio_class
func (t Topics) Class(class string) string {
	return fmt.Sprintf("%s/class/%s", t.prefix(), class)
}

// Node carries the retained descriptor of an endpoint node.
//
// Example: ledd/node/my_gpio_class/my_gpio_device
func (t Topics) Node(class, device string) string {
	return fmt.Sprintf("%s/node/%s/%s", t.prefix(), class, device)
}

// NodeWrite receives write requests for a node.
func (t Topics) NodeWrite(class, device string) string {
	return t.Node(class, device) + "/write"
}

// NodeRead receives read requests for a node.
func (t Topics) NodeRead(class, device string) string {
	return t.Node(class, device) + "/read"
}

// NodeData carries the bytes answered to read requests.
func (t Topics) NodeData(class, device string) string {
	return t.Node(class, device) + "/data"
}

// State carries the retained level of a device after every change.
//
// Example: ledd/state/my_gpio_device
func (t Topics) State(device string) string {
	return fmt.Sprintf("%s/state/%s", t.prefix(), device)
}

// SystemStatus carries the daemon's online/offline status and LWT.
//
// Example: ledd/system/status
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}
