package events

import "github.com/atomicstack/easyhg/internal/logging"

type UITracer struct{}

type FilterTracer struct{}

var (
	UI     = UITracer{}
	Filter = FilterTracer{}
)

func (UITracer) Focus(panel string) {
	logging.Trace("ui.focus", map[string]interface{}{"panel": panel})
}

func (UITracer) Panel(panel string, cursor int) {
	logging.Trace("ui.panel", map[string]interface{}{"panel": panel, "cursor": cursor})
}

func (FilterTracer) Append(filter string) {
	logging.Trace("filter.append", map[string]interface{}{"filter": filter})
}

func (FilterTracer) Backspace(filter string) {
	logging.Trace("filter.backspace", map[string]interface{}{"filter": filter})
}

func (FilterTracer) Cleared() {
	logging.Trace("filter.clear", nil)
}
