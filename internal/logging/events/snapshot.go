package events

import "github.com/atomicstack/easyhg/internal/logging"

type SnapshotTracer struct{}

type DetailTracer struct{}

var (
	Snapshot = SnapshotTracer{}
	Detail   = DetailTracer{}
)

func (SnapshotTracer) Refresh(generation uint64, full bool) {
	logging.Trace("snapshot.refresh", map[string]interface{}{"generation": generation, "full": full})
}

func (SnapshotTracer) Applied(generation uint64, full bool, files, revisions int) {
	logging.Trace("snapshot.applied", map[string]interface{}{
		"generation": generation,
		"full":       full,
		"files":      files,
		"revisions":  revisions,
	})
}

func (SnapshotTracer) Stale(generation, current uint64) {
	logging.Trace("snapshot.stale", map[string]interface{}{"generation": generation, "current": current})
}

func (SnapshotTracer) Failed(generation uint64, err error) {
	if err == nil {
		return
	}
	logging.Trace("snapshot.failed", map[string]interface{}{"generation": generation, "error": err.Error()})
}

func (DetailTracer) Request(id uint64, title string) {
	logging.Trace("detail.request", map[string]interface{}{"id": id, "title": title})
}

func (DetailTracer) Applied(id uint64, title string) {
	logging.Trace("detail.applied", map[string]interface{}{"id": id, "title": title})
}

func (DetailTracer) Stale(id, current uint64) {
	logging.Trace("detail.stale", map[string]interface{}{"id": id, "current": current})
}
