package ui

import tea "github.com/charmbracelet/bubbletea"

// Harness drives a Model synchronously for tests. Send applies one message,
// then keeps executing any returned command and feeding its message back
// into Update until the chain settles. Batched commands are not unpacked;
// they carry timer re-arms that a synchronous test must not wait on.
type Harness struct {
	model *Model
}

func NewHarness(m *Model) *Harness {
	return &Harness{model: m}
}

func (h *Harness) Send(msg tea.Msg) {
	mdl, cmd := h.model.Update(msg)
	if mm, ok := mdl.(*Model); ok {
		h.model = mm
	}
	h.processCmd(cmd)
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	mdl, next := h.model.Update(msg)
	if mm, ok := mdl.(*Model); ok {
		h.model = mm
	}
	h.processCmd(next)
}

func (h *Harness) View() string {
	return h.model.View()
}

func (h *Harness) Model() *Model {
	return h.model
}
