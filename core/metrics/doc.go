// Package metrics defines the run event recorded after every allocation and
// the sink contracts it is written to. Concrete sinks (Prometheus, InfluxDB,
// MQTT) live in infra/metrics and register themselves by name; NewRunSink
// builds them from configuration and combines several into a MultiSink.
package metrics
