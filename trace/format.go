package trace

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

const (
	// per-level caps for expanded rendering
	maxExpandEntries = 10
	maxExpandString  = 100
	maxFallbackRepr  = 200
)

// formatter renders one runtime value as a capped display string.
// It is a total function: introspection failures degrade to a
// clipped default representation, they never propagate.
type formatter struct {
	maxLen      int
	expand      bool
	expandDepth int
}

func (c *formatter) format(v interface{}) string {
	if c.expand {
		return c.expandValue(v, 0)
	}
	return clip(safeRepr(v), c.maxLen)
}

// clip truncates s to max characters, appending "..." if anything
// was cut.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// safeRepr is the absolute fallback representation. fmt already
// absorbs panics from String methods, so the recover only guards
// against reflection-level surprises.
func safeRepr(v interface{}) (s string) {
	defer func() {
		if e := recover(); e != nil {
			s = fmt.Sprintf("<%T>", v)
		}
	}()
	return fmt.Sprint(v)
}

func (c *formatter) expandValue(v interface{}, depth int) (res string) {
	defer func() {
		if e := recover(); e != nil {
			res = clip(safeRepr(v), maxFallbackRepr)
		}
	}()
	if v == nil {
		return "nil"
	}
	return c.expandReflect(reflect.ValueOf(v), depth)
}

func (c *formatter) expandReflect(rv reflect.Value, depth int) string {
	indent := strings.Repeat("  ", depth)
	next := strings.Repeat("  ", depth+1)

	switch rv.Kind() {
	case reflect.Invalid:
		return "nil"
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return c.expandReflect(rv.Elem(), depth)
	case reflect.Bool:
		return fmt.Sprintf("%v", rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fmt.Sprintf("%d", rv.Uint())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%v", rv.Float())
	case reflect.String:
		s := rv.String()
		if len([]rune(s)) > maxExpandString {
			return fmt.Sprintf("%q", string([]rune(s)[:maxExpandString])+"...")
		}
		return fmt.Sprintf("%q", s)
	case reflect.Slice, reflect.Array:
		lb, rb := "[", "]"
		if rv.Kind() == reflect.Array {
			lb, rb = "(", ")"
		}
		n := rv.Len()
		if n == 0 {
			return lb + rb
		}
		if depth >= c.expandDepth-1 {
			return fmt.Sprintf("%s%d items%s", lb, n, rb)
		}
		var items []string
		for i := 0; i < n && i < maxExpandEntries; i++ {
			items = append(items, fmt.Sprintf("%s[%d]: %s", next, i, c.expandElem(rv.Index(i), depth+1)))
		}
		if n > maxExpandEntries {
			items = append(items, fmt.Sprintf("%s... (%d more items)", next, n-maxExpandEntries))
		}
		return lb + "\n" + strings.Join(items, ",\n") + "\n" + indent + rb
	case reflect.Map:
		n := rv.Len()
		if isSetMap(rv.Type()) {
			if n == 0 {
				return "set()"
			}
			if depth >= c.expandDepth-1 {
				return fmt.Sprintf("{%d items}", n)
			}
			keys := sortedMapKeys(rv)
			var items []string
			for i, k := range keys {
				if i >= maxExpandEntries {
					break
				}
				items = append(items, safeRepr(valueOf(k)))
			}
			return "{" + strings.Join(items, ", ") + "}"
		}
		if n == 0 {
			return "{}"
		}
		if depth >= c.expandDepth-1 {
			return fmt.Sprintf("{%d keys}", n)
		}
		keys := sortedMapKeys(rv)
		var items []string
		for i, k := range keys {
			if i >= maxExpandEntries {
				break
			}
			val := c.expandElem(rv.MapIndex(k), depth+1)
			items = append(items, fmt.Sprintf("%s%s: %s", next, safeRepr(valueOf(k)), val))
		}
		if n > maxExpandEntries {
			items = append(items, fmt.Sprintf("%s... (%d more keys)", next, n-maxExpandEntries))
		}
		return "{\n" + strings.Join(items, ",\n") + "\n" + indent + "}"
	case reflect.Struct:
		typeName := rv.Type().Name()
		if typeName == "" {
			typeName = rv.Type().String()
		}
		if depth >= c.expandDepth-1 {
			return fmt.Sprintf("<%s object>", typeName)
		}
		var items []string
		rt := rv.Type()
		for i := 0; i < rt.NumField() && len(items) < maxExpandEntries; i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			items = append(items, fmt.Sprintf("%s%s: %s", next, field.Name, c.expandElem(rv.Field(i), depth+1)))
		}
		if len(items) == 0 {
			return fmt.Sprintf("<%s object>", typeName)
		}
		return fmt.Sprintf("<%s>\n", typeName) + strings.Join(items, "\n") + "\n" + indent
	default:
		// chan, func, unsafe pointer
		return clip(safeRepr(valueOf(rv)), maxFallbackRepr)
	}
}

func (c *formatter) expandElem(rv reflect.Value, depth int) string {
	if !rv.CanInterface() {
		return clip(fmt.Sprintf("%v", rv), maxFallbackRepr)
	}
	return c.expandValue(rv.Interface(), depth)
}

// valueOf extracts an interface for display without panicking on
// unexported values.
func valueOf(rv reflect.Value) interface{} {
	if rv.CanInterface() {
		return rv.Interface()
	}
	return fmt.Sprintf("%v", rv)
}

// isSetMap treats map[T]struct{} as a set, the conventional Go
// encoding for one.
func isSetMap(t reflect.Type) bool {
	return t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0
}

// sortedMapKeys returns map keys in a deterministic order; Go map
// iteration order is randomized.
func sortedMapKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(valueOf(keys[i])) < fmt.Sprint(valueOf(keys[j]))
	})
	return keys
}
