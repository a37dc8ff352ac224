package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/chargeplan/config"
	coremon "github.com/kilianp07/chargeplan/core/monitoring"
)

// NewSentryMonitor reports planner failures to Sentry. An empty DSN yields a
// NopMonitor and leaves the Sentry SDK uninitialised.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if cfg.DSN == "" {
		return coremon.NopMonitor{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, err
	}
	scope := sentry.NewScope()
	scope.SetTag("service", "chargeplan")
	scope.SetTags(cfg.Tags)
	hub := sentry.NewHub(client, scope)
	sentry.CurrentHub().BindClient(client)
	return newSentryMonitor(hub), nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

func newSentryMonitor(hub *sentry.Hub) *sentryMonitor { return &sentryMonitor{hub: hub} }

// CaptureException sends err with tags scoped to this event only.
func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *sentryMonitor) CapturePanic(v any) { s.hub.Recover(v) }

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
