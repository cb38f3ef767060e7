// Package mqtt connects ledd to an MQTT broker.
//
// The broker is how the LED endpoint is made reachable: class and node
// descriptors are retained on it, requests arrive on node topics and the
// current level is republished after every change.
//
// This package manages:
//   - Connection with auto-reconnect and subscription restore
//   - Publishing with QoS, including retained descriptors and their removal
//   - Topic subscriptions with panic-safe handlers
//   - Last Will and Testament on the system status topic
//
// # Topics
//
//	ledd/system/status                     online/offline, retained, LWT
//	ledd/class/{class}                     class descriptor, retained
//	ledd/node/{class}/{device}             node descriptor, retained
//	ledd/node/{class}/{device}/write       write requests
//	ledd/node/{class}/{device}/read        read requests
//	ledd/node/{class}/{device}/data        read responses
//	ledd/state/{device}                    "ON"/"OFF", retained
//
// The "ledd" prefix comes from mqtt.topic_prefix.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.Subscribe(topics.NodeWrite("my_gpio_class", "my_gpio_device"), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
//
// TLS should be enabled (mqtt.broker.tls) whenever the broker is not on
// localhost; payloads are not otherwise protected.
package mqtt
