package events

import "github.com/atomicstack/easyhg/internal/logging"

type WatchTracer struct{}

var Watch = WatchTracer{}

func (WatchTracer) Event(path string) {
	logging.Trace("watch.event", map[string]interface{}{"path": path})
}

func (WatchTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("watch.error", map[string]interface{}{"error": err.Error()})
}
