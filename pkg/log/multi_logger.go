package log

// MultiLogger sends events to multiple loggers, e.g. a SlogAdapter for the
// console and a FileLogger for the trace file.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger. nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log sends the event to all configured loggers.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*MultiLogger)(nil)
