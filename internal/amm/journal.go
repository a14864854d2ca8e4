package amm

// txn collects undo steps and pending events for one pool operation. Undo steps
// run in reverse order on revert; events are published only after commit.
type txn struct {
	undo   []func()
	events []Event
}

func (t *txn) record(undo func()) {
	t.undo = append(t.undo, undo)
}

func (t *txn) emit(event Event) {
	t.events = append(t.events, event)
}

func (t *txn) revert() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.events = nil
}
