package application

// Metrics receives domain counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	BookingWritten(outcome string)
	TermTransition(transition string)
	NotificationWritten(kind string, ok bool)
	SignatureRendered(ok bool)
}

type nopMetrics struct{}

func (nopMetrics) BookingWritten(string)            {}
func (nopMetrics) TermTransition(string)            {}
func (nopMetrics) NotificationWritten(string, bool) {}
func (nopMetrics) SignatureRendered(bool)           {}

func defaultMetrics(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
