package metrics

import "errors"

// MultiSink fans run events out to several sinks.
type MultiSink struct {
	Sinks []RunSink
}

func NewMultiSink(sinks ...RunSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards ev to every sink. A failing sink does not stop the
// others; the errors are joined.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordSites forwards to the sinks implementing SiteRecorder.
func (m *MultiSink) RecordSites(ev RunEvent, sites []SiteAllocation) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(SiteRecorder); ok {
			if err := rec.RecordSites(ev, sites); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks exposing a Close method.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		Close(s)
	}
}

// Close releases s if it holds resources.
func Close(s RunSink) {
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
