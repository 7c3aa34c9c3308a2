package trace

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// writeTree renders the forest as an indented UTF-8 tree. Console
// and flat-file output share this code path and differ only in the
// sink.
func writeTree(w io.Writer, roots []*Node) {
	fmt.Fprintf(w, "\nCALL TRACE:\n\n")
	if len(roots) == 0 {
		fmt.Fprintln(w, "No calls traced.")
		return
	}
	for _, root := range roots {
		writeNode(w, root, 0)
	}
}

func writeNode(w io.Writer, node *Node, indent int) {
	space := strings.Repeat("  ", indent)
	params := make([]string, len(node.Params))
	for i, p := range node.Params {
		params[i] = fmt.Sprintf("%s=%s", p.Name, p.Value.display())
	}
	fmt.Fprintf(w, "%s%s(%s) -> %s [%s]\n",
		space, node.Name, strings.Join(params, ", "),
		node.Return.display(), filepath.Base(node.File))
	for _, child := range node.Children {
		writeNode(w, child, indent+1)
	}
}

func (t *Tracer) writeTextFile(target string) {
	var buf bytes.Buffer
	writeTree(&buf, t.roots)
	if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
		warnf("%v", errors.Wrapf(err, "writing trace to %s", target))
	}
}

func (t *Tracer) writeStructured(target string) {
	data := marshalNoError(t.structuredTrace())
	if err := os.WriteFile(target, data, 0644); err != nil {
		warnf("%v", errors.Wrapf(err, "writing trace to %s", target))
	}
}

// warnf reports a degraded-mode condition. The tracer itself never
// fails: a broken sink costs the artifact, not the traced program.
func warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "WARNING: "+format+"\n", args...)
}
