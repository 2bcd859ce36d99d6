package response

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	// ErrorPrefix starts the text of every error response.
	ErrorPrefix = "Error: "

	// ObjectErrorFallback replaces structured error values that cannot be
	// serialized, such as self-referencing maps.
	ObjectErrorFallback = "[object error: unable to serialize]"

	maxWalkDepth = 512
)

var errCyclic = errors.New("value contains a reference cycle")

// Error normalizes any failure value into a single text item flagged as an
// error. It never panics, whatever the shape of v.
func Error(v any) (result *mcp.CallToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = errorResult(fmt.Sprintf("Unknown error: %T", v))
		}
	}()
	return errorResult(Message(v))
}

// Message is the text Error uses after the prefix:
//
//  1. errors render their Error() text;
//  2. strings are used verbatim;
//  3. maps, structs, slices and pointers to them are rendered as indented
//     JSON, or ObjectErrorFallback when that fails;
//  4. anything else, nil included, becomes "Unknown error: <value>".
func Message(v any) string {
	switch t := v.(type) {
	case nil:
		return "Unknown error: <nil>"
	case error:
		return errorText(t)
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}

	if isStructured(v) {
		text, err := prettyJSON(v)
		if err != nil {
			return ObjectErrorFallback
		}
		return text
	}
	return fmt.Sprintf("Unknown error: %v", v)
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(ErrorPrefix + text)},
		IsError: true,
	}
}

// errorText guards against Error methods that panic on nil receivers.
func errorText(err error) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = fmt.Sprintf("Unknown error: %T", err)
		}
	}()
	return err.Error()
}

func isStructured(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

type visitKey struct {
	ptr  uintptr
	typ  reflect.Type
	size int
}

// hasCycle reports whether v refers back to itself through maps, slices or
// pointers. It also treats absurdly deep values as cyclic.
func hasCycle(v any) bool {
	return walk(reflect.ValueOf(v), map[visitKey]struct{}{}, 0)
}

func walk(rv reflect.Value, onPath map[visitKey]struct{}, depth int) bool {
	if depth > maxWalkDepth {
		return true
	}
	if !rv.IsValid() {
		return false
	}

	var key visitKey
	tracked := false
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return false
		}
		key, tracked = visitKey{ptr: rv.Pointer(), typ: rv.Type()}, true
	case reflect.Slice:
		if rv.IsNil() {
			return false
		}
		key, tracked = visitKey{ptr: rv.Pointer(), typ: rv.Type(), size: rv.Len()}, true
	case reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return walk(rv.Elem(), onPath, depth+1)
	}
	if tracked {
		if _, seen := onPath[key]; seen {
			return true
		}
		onPath[key] = struct{}{}
		defer delete(onPath, key)
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return walk(rv.Elem(), onPath, depth+1)
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if walk(iter.Value(), onPath, depth+1) {
				return true
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if walk(rv.Index(i), onPath, depth+1) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < rv.NumField(); i++ {
			if walk(rv.Field(i), onPath, depth+1) {
				return true
			}
		}
	}
	return false
}
