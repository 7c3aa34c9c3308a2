package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/callsite/calltrace/trace/stack_model"
)

const sampleTrace = `{
  "format": "calltrace/v1",
  "begin": "2026-08-23T10:00:00Z",
  "children": [
    {
      "name": "outer",
      "file": "app.go",
      "params": {"x": {"type": "number", "value": 1}},
      "return_val": {"type": "array", "length": 2, "value": [
        {"type": "number", "value": 1},
        {"type": "number", "value": 2}
      ]},
      "children": [
        {
          "name": "inner",
          "file": "app.go",
          "params": {},
          "return_val": {"type": "string", "value": "done"},
          "children": []
        }
      ]
    }
  ]
}`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "trace.json")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadTrace(t *testing.T) {
	tr, err := loadTrace(writeSample(t, sampleTrace))
	require.NoError(t, err)
	require.Len(t, tr.Children, 1)
	require.Equal(t, "outer", tr.Children[0].Name)
}

func TestLoadTraceRejectsUnknownFormat(t *testing.T) {
	_, err := loadTrace(writeSample(t, `{"format": "v999"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported trace format")
}

func TestLoadTraceSurfacesExportError(t *testing.T) {
	_, err := loadTrace(writeSample(t, `{"error": "marshal blew up"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "marshal blew up")
}

func TestRenderTrace(t *testing.T) {
	tr, err := loadTrace(writeSample(t, sampleTrace))
	require.NoError(t, err)

	var buf bytes.Buffer
	renderTrace(&buf, tr)
	out := buf.String()
	require.Contains(t, out, "outer(x=1) -> Array(2) [app.go]")
	require.Contains(t, out, `  inner() -> "done" [app.go]`)
}

func TestRenderEmptyTrace(t *testing.T) {
	var buf bytes.Buffer
	renderTrace(&buf, &stack_model.Trace{Format: stack_model.TraceFormat})
	require.Contains(t, buf.String(), "No calls traced.")
}

func TestPreview(t *testing.T) {
	require.Equal(t, "null", preview(nil))
	require.Equal(t, `"hi"`, preview(&stack_model.Value{Kind: stack_model.Kind_String, Value: "hi"}))
	require.Equal(t, "Object(2)", preview(&stack_model.Value{Kind: stack_model.Kind_Object, Keys: []string{"a", "b"}}))
	require.Equal(t, "Point", preview(&stack_model.Value{Kind: stack_model.Kind_Custom, Class: "Point"}))
	require.Equal(t, "...", preview(&stack_model.Value{Kind: stack_model.Kind_MaxDepth, Value: "..."}))
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Listen)
	require.NotEmpty(t, cfg.Output)
}

func TestConfigFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(file, []byte("listen: \":9999\"\n"), 0644))
	cfg, err := loadConfig(file)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Listen)
	require.Equal(t, "call_trace.html", cfg.Output)
}
