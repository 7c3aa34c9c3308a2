package trace

type EventKind int

const (
	EventEnter EventKind = iota
	EventExit
)

// Field is one named argument binding, in declaration order.
type Field struct {
	Name  string
	Value interface{}
}

// Event is one enter/exit signal delivered by the instrumentation
// source. Enter events carry Func, File and Args; exit events carry
// only Result, so matching is positional against the open stack.
type Event struct {
	Kind   EventKind
	Func   string
	File   string
	Args   []Field
	Result interface{}
}

// Hook receives events synchronously, inline with the instrumented
// call. It must return before the call proceeds.
type Hook func(Event)

// Source is the instrumentation collaborator: something that can
// deliver enter/exit events for the calls of a running program.
// Install and Remove bracket one tracing session.
type Source interface {
	Install(Hook)
	Remove()
}
