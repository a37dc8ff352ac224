// Package infra holds the adapters of the planner: dataset files, the zerolog
// logger, run metric sinks, the MQTT publisher and the Sentry monitor. They
// depend only on the contracts defined under core.
package infra
