// Package probe is an instrumentation source built on explicit
// call-site probes: Go has no equivalent of a runtime trace hook for
// arbitrary functions, so instrumented code declares its own enter
// points and the probe derives routine identity from the runtime
// caller information.
package probe

import (
	"runtime"
	"sync"

	"github.com/callsite/calltrace/trace"
)

// skip Enter/Named plus the runtime.Callers frame itself
const callerSkip = 2

var (
	hookMu sync.RWMutex
	hook   trace.Hook
)

type source struct{}

// New returns the process-wide probe source. All probes in a process
// feed whichever session currently has it installed.
func New() trace.Source {
	return source{}
}

func (source) Install(h trace.Hook) {
	hookMu.Lock()
	hook = h
	hookMu.Unlock()
}

func (source) Remove() {
	hookMu.Lock()
	hook = nil
	hookMu.Unlock()
}

func emit(ev trace.Event) {
	hookMu.RLock()
	h := hook
	hookMu.RUnlock()
	if h != nil {
		h(ev)
	}
}

// Field is one named argument to record on entry.
type Field struct {
	Name  string
	Value interface{}
}

// F builds a Field; probe.F("n", n) reads like the binding it records.
func F(name string, value interface{}) Field {
	return Field{Name: name, Value: value}
}

// ExitFunc delivers the matching exit event with the return value.
type ExitFunc func(result interface{})

// Enter records entry into the calling function, deriving its name
// and origin file from the runtime, and returns the exit probe:
//
//	func Fib(n int) (res int) {
//		exit := probe.Enter(probe.F("n", n))
//		defer func() { exit(res) }()
//		...
//	}
func Enter(fields ...Field) ExitFunc {
	name, file := callerInfo(callerSkip)
	return enter(name, file, fields)
}

// Named is Enter with an explicit routine identity, for sources that
// synthesize events rather than instrument real calls.
func Named(name string, file string, fields ...Field) ExitFunc {
	return enter(name, file, fields)
}

func enter(name string, file string, fields []Field) ExitFunc {
	args := make([]trace.Field, len(fields))
	for i, f := range fields {
		args[i] = trace.Field{Name: f.Name, Value: f.Value}
	}
	emit(trace.Event{
		Kind: trace.EventEnter,
		Func: name,
		File: file,
		Args: args,
	})
	return func(result interface{}) {
		emit(trace.Event{
			Kind:   trace.EventExit,
			Result: result,
		})
	}
}

// Func wraps a whole call: enter, run, exit with fn's result. The
// origin file is the call site, the name is the caller's choice.
func Func(name string, fields []Field, fn func() interface{}) interface{} {
	_, file := callerInfo(callerSkip)
	exit := enter(name, file, fields)
	res := fn()
	exit(res)
	return res
}

func callerInfo(skip int) (name string, file string) {
	var pcs [1]uintptr
	if runtime.Callers(skip+1, pcs[:]) == 0 {
		return "unknown", ""
	}
	fn := runtime.FuncForPC(pcs[0])
	if fn == nil {
		return "unknown", ""
	}
	file, _ = fn.FileLine(pcs[0])
	return fn.Name(), file
}
