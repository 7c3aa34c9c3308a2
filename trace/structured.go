package trace

import (
	"fmt"
	"reflect"

	"github.com/callsite/calltrace/trace/stack_model"
)

const structuredMaxDepth = 10

var maxDepthMarker = &stack_model.Value{Kind: stack_model.Kind_MaxDepth, Value: "..."}

// toStructured converts one runtime value into the tagged form the
// interactive viewer consumes. Total function: any introspection
// failure degrades to an unknown-kind string fallback. Traversal is
// bounded two ways: a hard depth cap, and a visited-pointer set so
// cyclic structures terminate before the cap pads them out.
func toStructured(v interface{}, depth int, maxDepth int) *stack_model.Value {
	s := &structurer{
		maxDepth: maxDepth,
		seen:     map[uintptr]struct{}{},
	}
	return s.value(v, depth)
}

type structurer struct {
	maxDepth int
	// only pointers can close a cycle
	seen map[uintptr]struct{}
}

func (c *structurer) value(v interface{}, depth int) (res *stack_model.Value) {
	defer func() {
		if e := recover(); e != nil {
			res = &stack_model.Value{Kind: stack_model.Kind_Unknown, Value: safeRepr(v)}
		}
	}()
	if depth > c.maxDepth {
		return maxDepthMarker
	}
	if v == nil {
		return &stack_model.Value{Kind: stack_model.Kind_Null}
	}
	return c.reflectValue(reflect.ValueOf(v), depth)
}

func (c *structurer) reflectValue(rv reflect.Value, depth int) *stack_model.Value {
	if depth > c.maxDepth {
		return maxDepthMarker
	}
	switch rv.Kind() {
	case reflect.Invalid:
		return &stack_model.Value{Kind: stack_model.Kind_Null}
	case reflect.Ptr:
		if rv.IsNil() {
			return &stack_model.Value{Kind: stack_model.Kind_Null}
		}
		ptr := rv.Pointer()
		if _, ok := c.seen[ptr]; ok {
			return maxDepthMarker
		}
		c.seen[ptr] = struct{}{}
		defer delete(c.seen, ptr)
		return c.reflectValue(rv.Elem(), depth)
	case reflect.Interface:
		if rv.IsNil() {
			return &stack_model.Value{Kind: stack_model.Kind_Null}
		}
		return c.reflectValue(rv.Elem(), depth)
	case reflect.Bool:
		return &stack_model.Value{Kind: stack_model.Kind_Boolean, Value: rv.Bool()}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return &stack_model.Value{Kind: stack_model.Kind_Number, Value: rv.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return &stack_model.Value{Kind: stack_model.Kind_Number, Value: rv.Uint()}
	case reflect.Float32, reflect.Float64:
		return &stack_model.Value{Kind: stack_model.Kind_Number, Value: rv.Float()}
	case reflect.String:
		return &stack_model.Value{Kind: stack_model.Kind_String, Value: rv.String()}
	case reflect.Slice:
		if rv.IsNil() {
			return &stack_model.Value{Kind: stack_model.Kind_Null}
		}
		return c.sequence(rv, stack_model.Kind_Array, depth)
	case reflect.Array:
		return c.sequence(rv, stack_model.Kind_Tuple, depth)
	case reflect.Map:
		if rv.IsNil() {
			return &stack_model.Value{Kind: stack_model.Kind_Null}
		}
		if isSetMap(rv.Type()) {
			return c.set(rv, depth)
		}
		return c.object(rv, depth)
	case reflect.Struct:
		return c.custom(rv, depth)
	default:
		// chan, func, unsafe pointer and anything else opaque
		return &stack_model.Value{Kind: stack_model.Kind_Unknown, Value: safeRepr(valueOf(rv))}
	}
}

func (c *structurer) sequence(rv reflect.Value, kind stack_model.Kind, depth int) *stack_model.Value {
	n := rv.Len()
	children := make([]*stack_model.Value, n)
	for i := 0; i < n; i++ {
		children[i] = c.elem(rv.Index(i), depth+1)
	}
	return &stack_model.Value{Kind: kind, Length: n, Value: children}
}

func (c *structurer) set(rv reflect.Value, depth int) *stack_model.Value {
	keys := sortedMapKeys(rv)
	children := make([]*stack_model.Value, len(keys))
	for i, k := range keys {
		children[i] = c.elem(k, depth+1)
	}
	return &stack_model.Value{Kind: stack_model.Kind_Set, Length: rv.Len(), Value: children}
}

func (c *structurer) object(rv reflect.Value, depth int) *stack_model.Value {
	keys := sortedMapKeys(rv)
	names := make([]string, len(keys))
	fields := make(stack_model.Fields, len(keys))
	for i, k := range keys {
		name := fmt.Sprint(valueOf(k))
		names[i] = name
		fields[i] = stack_model.Field{Name: name, Value: c.elem(rv.MapIndex(k), depth+1)}
	}
	return &stack_model.Value{Kind: stack_model.Kind_Object, Keys: names, Value: fields}
}

func (c *structurer) custom(rv reflect.Value, depth int) *stack_model.Value {
	rt := rv.Type()
	className := rt.Name()
	if className == "" {
		className = rt.String()
	}
	var fields stack_model.Fields
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fields = append(fields, stack_model.Field{
			Name:  field.Name,
			Value: c.elem(rv.Field(i), depth+1),
		})
	}
	return &stack_model.Value{Kind: stack_model.Kind_Custom, Class: className, Value: fields}
}

func (c *structurer) elem(rv reflect.Value, depth int) *stack_model.Value {
	if depth > c.maxDepth {
		return maxDepthMarker
	}
	return c.reflectValue(rv, depth)
}
