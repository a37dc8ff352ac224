package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/chargeplan/core/factory"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	coremqtt "github.com/kilianp07/chargeplan/core/mqtt"
	"github.com/kilianp07/chargeplan/infra/mqtt"
)

// newMQTTPublisher is replaced in tests.
var newMQTTPublisher = func(cfg mqtt.Config) (coremqtt.Publisher, error) {
	p, err := mqtt.NewPahoPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// init registers built-in run sinks.
func init() {
	_ = coremetrics.RegisterRunSink("nop", func(map[string]any) (coremetrics.RunSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterRunSink("prometheus", func(conf map[string]any) (coremetrics.RunSink, error) {
		var c struct {
			Namespace      string `json:"namespace"`
			PushgatewayURL string `json:"pushgateway_url"`
			Job            string `json:"job"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Namespace == "" {
			c.Namespace = "chargeplan"
		}
		if c.PushgatewayURL == "" {
			return NewPromSinkWithRegistry(c.Namespace, prometheus.DefaultRegisterer)
		}
		if c.Job == "" {
			c.Job = "chargeplan"
		}
		reg := prometheus.NewRegistry()
		s, err := NewPromSinkWithRegistry(c.Namespace, reg)
		if err != nil {
			return nil, err
		}
		return s.WithPusher(c.PushgatewayURL, c.Job, reg), nil
	})

	_ = coremetrics.RegisterRunSink("influx", func(conf map[string]any) (coremetrics.RunSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterRunSink("mqtt", func(conf map[string]any) (coremetrics.RunSink, error) {
		var mc mqtt.Config
		if err := factory.Decode(conf, &mc); err != nil {
			return nil, err
		}
		var c struct {
			TopicPrefix string `json:"topic_prefix"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		pub, err := newMQTTPublisher(mc)
		if err != nil {
			return nil, err
		}
		return NewMQTTSink(pub, c.TopicPrefix), nil
	})
}
