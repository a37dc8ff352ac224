package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/config"
	coremon "github.com/kilianp07/chargeplan/core/monitoring"
)

type captureTransport struct {
	events []*sentry.Event
}

func (c *captureTransport) Flush(time.Duration) bool              { return true }
func (c *captureTransport) FlushWithContext(context.Context) bool { return true }
func (c *captureTransport) Configure(sentry.ClientOptions)        {}
func (c *captureTransport) SendEvent(e *sentry.Event)             { c.events = append(c.events, e) }
func (c *captureTransport) Close()                                {}

func TestNewSentryMonitor_NoDSN(t *testing.T) {
	m, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitor_BadDSN(t *testing.T) {
	_, err := NewSentryMonitor(config.SentryConfig{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitor_CaptureWithTags(t *testing.T) {
	tr := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{Dsn: "https://key@example.com/1", Transport: tr})
	require.NoError(t, err)
	scope := sentry.NewScope()
	scope.SetTag("region", "idf")
	m := newSentryMonitor(sentry.NewHub(client, scope))

	m.CaptureException(nil, nil)
	m.CaptureException(errors.New("store down"), map[string]string{"module": "runlog"})
	m.CaptureException(errors.New("sweep failed"), nil)
	m.CapturePanic("boom")
	m.Flush(time.Second)

	require.Len(t, tr.events, 3)
	assert.Equal(t, "runlog", tr.events[0].Tags["module"])
	assert.Equal(t, "idf", tr.events[0].Tags["region"])
	// Per-event tags do not leak into later events.
	assert.NotContains(t, tr.events[1].Tags, "module")
}
