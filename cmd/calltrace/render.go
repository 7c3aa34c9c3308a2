package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/callsite/calltrace/trace/stack_model"
)

var renderCmd = &cobra.Command{
	Use:   "render <trace.json>",
	Short: "Print a saved trace as a text tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := loadTrace(args[0])
		if err != nil {
			return err
		}
		renderTrace(os.Stdout, tr)
		return nil
	},
}

func loadTrace(file string) (*stack_model.Trace, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	// cheap sanity check before committing to a full unmarshal
	format := gjson.GetBytes(data, "format").String()
	if format != stack_model.TraceFormat {
		if errMsg := gjson.GetBytes(data, "error").String(); errMsg != "" {
			return nil, errors.Newf("trace %s recorded an export error: %s", file, errMsg)
		}
		return nil, errors.Newf("%s: unsupported trace format %q", file, format)
	}
	var tr stack_model.Trace
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", file)
	}
	return &tr, nil
}

func renderTrace(w io.Writer, tr *stack_model.Trace) {
	fmt.Fprintf(w, "\nCALL TRACE:\n\n")
	if len(tr.Children) == 0 {
		fmt.Fprintln(w, "No calls traced.")
		return
	}
	for _, entry := range tr.Children {
		renderEntry(w, entry, 0)
	}
}

func renderEntry(w io.Writer, entry *stack_model.Entry, indent int) {
	space := strings.Repeat("  ", indent)
	params := make([]string, len(entry.Params))
	for i, p := range entry.Params {
		params[i] = fmt.Sprintf("%s=%s", p.Name, preview(p.Value))
	}
	fmt.Fprintf(w, "%s%s(%s) -> %s [%s]\n",
		space, entry.Name, strings.Join(params, ", "),
		preview(entry.ReturnVal), entry.File)
	for _, child := range entry.Children {
		renderEntry(w, child, indent+1)
	}
}

const previewLen = 30

// preview is the one-line rendering of a structured value, matching
// what the viewer shows in a collapsed call header.
func preview(v *stack_model.Value) string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case stack_model.Kind_Null:
		return "null"
	case stack_model.Kind_String:
		s, _ := v.Value.(string)
		if len(s) > previewLen {
			return fmt.Sprintf("%q", s[:previewLen]+"...")
		}
		return fmt.Sprintf("%q", s)
	case stack_model.Kind_Boolean, stack_model.Kind_Number:
		return fmt.Sprint(v.Value)
	case stack_model.Kind_Array:
		return fmt.Sprintf("Array(%d)", v.Length)
	case stack_model.Kind_Tuple:
		return fmt.Sprintf("tuple(%d)", v.Length)
	case stack_model.Kind_Set:
		return fmt.Sprintf("Set(%d)", v.Length)
	case stack_model.Kind_Object:
		return fmt.Sprintf("Object(%d)", len(v.Keys))
	case stack_model.Kind_Custom:
		return v.Class
	case stack_model.Kind_MaxDepth:
		return "..."
	default:
		s := fmt.Sprint(v.Value)
		if len(s) > previewLen {
			s = s[:previewLen]
		}
		return s
	}
}
