package trace

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/callsite/calltrace/trace/stack_model"
)

// viewerHTML is the static rendering asset. The core's contract is
// the payload shape, not the rendering; see trace/stack_model.
//
//go:embed viewer.html
var viewerHTML string

const payloadPlaceholder = "/*__TRACE_DATA__*/null"

// structuredTrace builds the payload form of the current forest.
func (t *Tracer) structuredTrace() *stack_model.Trace {
	children := make([]*stack_model.Entry, len(t.roots))
	for i, root := range t.roots {
		children[i] = exportEntry(root)
	}
	return &stack_model.Trace{
		Format:   stack_model.TraceFormat,
		Begin:    t.begin.Format(time.RFC3339),
		Children: children,
	}
}

func exportEntry(node *Node) *stack_model.Entry {
	entry := &stack_model.Entry{
		Name:      node.Name,
		File:      baseName(node.File),
		Params:    make(stack_model.Fields, len(node.Params)),
		ReturnVal: exportValue(node.Return),
		Children:  make([]*stack_model.Entry, len(node.Children)),
	}
	for i, p := range node.Params {
		entry.Params[i] = stack_model.Field{Name: p.Name, Value: exportValue(p.Value)}
	}
	for i, child := range node.Children {
		entry.Children[i] = exportEntry(child)
	}
	return entry
}

// exportValue falls back to the display text when a value was
// captured before structured mode was enabled.
func exportValue(v Value) *stack_model.Value {
	if v.Structured != nil {
		return v.Structured
	}
	if !v.valid {
		return &stack_model.Value{Kind: stack_model.Kind_Null}
	}
	return &stack_model.Value{Kind: stack_model.Kind_String, Value: v.Text}
}

func baseName(file string) string {
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		return file[i+1:]
	}
	return file
}

// RenderDocument embeds the payload into the viewer template,
// producing a single self-contained document.
func RenderDocument(tr *stack_model.Trace) []byte {
	payload := marshalNoError(tr)
	doc := strings.Replace(viewerHTML, payloadPlaceholder, string(payload), 1)
	return []byte(doc)
}

func (t *Tracer) exportInteractive() {
	target := t.cfg.saveTarget
	if target == "" {
		target = "call_trace.html"
	}
	doc := RenderDocument(t.structuredTrace())
	if err := os.WriteFile(target, doc, 0644); err != nil {
		warnf("%v", errors.Wrapf(err, "writing trace to %s", target))
		return
	}
	fmt.Fprintf(t.out, "\nInteractive trace saved to %s\n", target)
	fmt.Fprintf(t.out, "  Open it in your browser to explore the call tree.\n")
}

// marshalNoError marshals v, absorbing both errors and marshal
// panics into an error payload so export can never take down the
// traced program.
func marshalNoError(v interface{}) (result []byte) {
	var err error
	defer func() {
		if e := recover(); e != nil {
			if pe, ok := e.(error); ok {
				err = pe
			} else {
				err = fmt.Errorf("panic: %v", e)
			}
		}
		if err != nil {
			result = []byte(fmt.Sprintf("{%q: %q}", "error", err.Error()))
		}
	}()
	result, err = json.MarshalIndent(v, "", "  ")
	return
}
