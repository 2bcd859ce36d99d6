// Package json is a thin facade over bytedance/sonic so callers do not
// depend on the codec directly.
package json

import (
	"github.com/bytedance/sonic"
)

// std mirrors encoding/json behaviour: sorted map keys, HTML escaping and
// validated string input.
var std = sonic.ConfigStd

func Marshal(v any) ([]byte, error) {
	return std.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return std.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return std.Unmarshal(data, v)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return std.Valid(data)
}
