package events

import "github.com/atomicstack/easyhg/internal/logging"

type ActionTracer struct{}

type CommandTracer struct{}

var (
	Action  = ActionTracer{}
	Command = CommandTracer{}
)

func (ActionTracer) Queue(kind, preview string) {
	logging.Trace("action.queue", map[string]interface{}{"kind": kind, "preview": preview})
}

func (ActionTracer) Result(kind, preview string, success bool) {
	logging.Trace("action.result", map[string]interface{}{
		"kind":    kind,
		"preview": preview,
		"success": success,
	})
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (CommandTracer) Run(id, preview string) {
	logging.Trace("command.run", map[string]interface{}{"id": id, "preview": preview})
}

func (CommandTracer) Rejected(id string, unresolved []string) {
	logging.Trace("command.rejected", map[string]interface{}{"id": id, "unresolved": unresolved})
}
