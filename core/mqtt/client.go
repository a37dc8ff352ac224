package mqtt

// Publisher publishes payloads on MQTT topics.
type Publisher interface {
	// Publish sends payload on topic and blocks until the broker accepted it
	// or the retries are exhausted.
	Publish(topic string, payload []byte) error
	Close()
}
