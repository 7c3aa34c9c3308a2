package stack_model

// The types here define the payload embedded into the interactive
// viewer document. The viewer's rendering script dispatches on the
// "type" tag, so field names are a contract, not a style choice.
// Keep in sync with trace/viewer.html.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

type Kind string

const (
	Kind_Null     Kind = "null"
	Kind_Boolean  Kind = "boolean"
	Kind_Number   Kind = "number"
	Kind_String   Kind = "string"
	Kind_Array    Kind = "array"
	Kind_Tuple    Kind = "tuple"
	Kind_Object   Kind = "object"
	Kind_Set      Kind = "set"
	Kind_Custom   Kind = "custom"
	Kind_Unknown  Kind = "unknown"
	Kind_MaxDepth Kind = "max_depth"
)

// Value is the tagged variant for one serialized runtime value.
// Value holds nil for Kind_Null, a scalar for boolean/number/string,
// []*Value for array/tuple/set, and Fields for object/custom.
type Value struct {
	Kind   Kind        `json:"type"`
	Value  interface{} `json:"value"`
	Length int         `json:"length,omitempty"`
	Keys   []string    `json:"keys,omitempty"`
	Class  string      `json:"class,omitempty"`
}

// Field is one named member of an object or custom value.
type Field struct {
	Name  string
	Value *Value
}

// Fields marshals as a JSON object preserving declaration order,
// which plain map[string]*Value would not.
type Fields []Field

func (c Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field name %s: %w", f.Name, err)
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal field %s: %w", f.Name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *Fields) UnmarshalJSON(data []byte) error {
	var m map[string]*Value
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	list := make(Fields, 0, len(m))
	for name, val := range m {
		list = append(list, Field{Name: name, Value: val})
	}
	// JSON objects carry no order; sort for deterministic display
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	*c = list
	return nil
}

// Entry is one captured invocation in the payload tree.
type Entry struct {
	Name      string   `json:"name"`
	File      string   `json:"file"`
	Params    Fields   `json:"params"`
	ReturnVal *Value   `json:"return_val"`
	Children  []*Entry `json:"children"`
}

const TraceFormat = "calltrace/v1"

// Trace is the top-level shape of a saved structured trace file.
// Roots form a forest: one entry per top-level invocation.
type Trace struct {
	Format   string   `json:"format"`
	Begin    string   `json:"begin"`
	Children []*Entry `json:"children"`
}
