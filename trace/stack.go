package trace

import (
	"github.com/callsite/calltrace/trace/stack_model"
)

// Value is a captured parameter or return value, already rendered.
// Text is always set; Structured only when the session needs the
// tagged form (interactive document or structured save target).
type Value struct {
	Text       string
	Structured *stack_model.Value

	valid bool
}

func (v Value) display() string {
	if !v.valid {
		// call never returned before the session stopped
		return "?"
	}
	return v.Text
}

// Param is one captured argument binding, in call order.
type Param struct {
	Name  string
	Value Value
}

// Node is one captured invocation. It is mutable only while it sits
// on the open stack (receiving children) or while its exit event is
// being applied (receiving the return value); afterwards it is
// effectively frozen.
type Node struct {
	Name     string
	File     string
	Params   []Param
	Return   Value
	Children []*Node
}

// frame is one open stack slot. node is nil for calls that were
// filtered or admitted past maxDepth: the slot still has to exist so
// the matching exit event, which carries no identity, pops cleanly
// instead of closing an unrelated node.
type frame struct {
	node *Node
}

// handleEvent is the hook installed with the instrumentation source.
// It runs synchronously on whatever goroutine triggered the event
// and never fails: malformed sequences degrade, they do not error.
func (t *Tracer) handleEvent(ev Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != stateActive {
		return
	}
	switch ev.Kind {
	case EventEnter:
		t.handleEnter(ev)
	case EventExit:
		t.handleExit(ev)
	}
}

func (t *Tracer) handleEnter(ev Event) {
	if t.shouldIgnore(ev.File, ev.Func) || t.openDepth() >= t.cfg.maxDepth {
		t.stack = append(t.stack, frame{})
		return
	}

	node := &Node{
		Name: ev.Func,
		File: ev.File,
	}
	if len(ev.Args) > 0 {
		node.Params = make([]Param, len(ev.Args))
		for i, arg := range ev.Args {
			node.Params[i] = Param{Name: arg.Name, Value: t.captureValue(arg.Value)}
		}
	}

	if top := t.top(); top != nil {
		top.Children = append(top.Children, node)
	} else {
		// no open call: another root of the forest
		t.roots = append(t.roots, node)
	}
	t.stack = append(t.stack, frame{node: node})
}

func (t *Tracer) handleExit(ev Event) {
	n := len(t.stack)
	if n == 0 {
		// stray exit with no matching enter, drop it
		return
	}
	f := t.stack[n-1]
	t.stack = t.stack[:n-1]
	if f.node != nil {
		f.node.Return = t.captureValue(ev.Result)
	}
}

// top returns the innermost tracked node, skipping filtered slots.
func (t *Tracer) top() *Node {
	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i].node != nil {
			return t.stack[i].node
		}
	}
	return nil
}

// openDepth counts tracked nodes only; filtered slots do not consume
// the admission budget.
func (t *Tracer) openDepth() int {
	depth := 0
	for _, f := range t.stack {
		if f.node != nil {
			depth++
		}
	}
	return depth
}

func (t *Tracer) captureValue(v interface{}) Value {
	val := Value{Text: t.formatter().format(v), valid: true}
	if t.captureStructured {
		val.Structured = toStructured(v, 0, structuredMaxDepth)
	}
	return val
}
