package runner

import "time"

// Observer receives the outcome of every send attempt made by one worker.
// n is the byte count the transport accepted. A socket that could not be
// opened is reported once with zero latency and zero bytes.
//
// An Observer returned for a worker index is only ever called from that
// worker's goroutine.
type Observer interface {
	ObserveSend(latency time.Duration, n int, err error)
}

// MultiObserver fans each observation out to every non-nil observer.
func MultiObserver(observers ...Observer) Observer {
	filtered := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	}
	return filtered
}

type multiObserver []Observer

func (m multiObserver) ObserveSend(latency time.Duration, n int, err error) {
	for _, o := range m {
		o.ObserveSend(latency, n, err)
	}
}
