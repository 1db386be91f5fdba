package metrics

import "errors"

// Sink receives one record per decision. Errors are reported to the caller
// but never alter planning.
type Sink interface {
	Record(m RoundMetric) error
	Close() error
}

type multiSink []Sink

// MultiSink fans records out to every sink.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (s multiSink) Record(m RoundMetric) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Record(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s multiSink) Close() error {
	var errs []error
	for _, sink := range s {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
